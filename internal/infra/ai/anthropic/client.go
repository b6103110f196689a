package anthropic

import (
	"context"
	"errors"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"

	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1000
	// jsonInstruction replaces the JSON response mode Anthropic does not offer.
	jsonInstruction = "\n\nRespond with a single valid JSON object and nothing else."
)

type Client struct {
	model jetapi.LanguageModel
}

func NewClient(apiKey, model, endpoint string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key is empty")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}
	client := anthropicclient.NewClient(opts...)
	return &Client{model: jetanthropic.NewLanguageModel(model, jetanthropic.WithClient(client))}, nil
}

func (c *Client) Infer(ctx context.Context, r domai.Request) (string, error) {
	system := r.System
	if r.JSON {
		system += jsonInstruction
	}
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: system})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(r.User)})

	resp, err := jetai.GenerateText(ctx, messages,
		jetai.WithModel(c.model),
		jetai.WithMaxOutputTokens(maxTokens),
		jetai.WithTemperature(r.Temperature),
	)
	if err != nil {
		return "", domai.Wrap(r.Op, err)
	}
	if resp == nil {
		return "", domai.Wrap(r.Op, domai.ErrEmptyResponse)
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}
	text := strings.TrimSpace(full.String())
	if text == "" {
		return "", domai.Wrap(r.Op, domai.ErrEmptyResponse)
	}
	return text, nil
}

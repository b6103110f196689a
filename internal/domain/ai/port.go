package ai

import "context"

// Request is a single system+user exchange with the model
type Request struct {
	Op          string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a single JSON object; callers still validate the shape.
	JSON bool
}

// Inferencer port for the external NLU/NLG capability
type Inferencer interface {
	Infer(ctx context.Context, req Request) (string, error)
}

// InferFunc adapts a plain function to Inferencer.
type InferFunc func(ctx context.Context, req Request) (string, error)

func (f InferFunc) Infer(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

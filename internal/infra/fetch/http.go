package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

// HTTPFetcher downloads chat file references. A ref is either an absolute URL
// or a path joined onto BaseURL (e.g. a bot file endpoint).
type HTTPFetcher struct {
	Client   *http.Client
	BaseURL  string
	MaxBytes int64
}

func NewHTTPFetcher(baseURL string, maxBytes int64, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MaxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) url(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || f.BaseURL == "" {
		return ref
	}
	return f.BaseURL + "/" + strings.TrimLeft(ref, "/")
}

// Fetch wraps every failure in report.ErrAssetFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrAssetFetch, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrAssetFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", report.ErrAssetFetch, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrAssetFetch, err)
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", report.ErrAssetFetch, f.MaxBytes)
	}
	return data, nil
}

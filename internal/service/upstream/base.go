package upstream

import (
	"context"
	"fmt"
	"strings"

	xhttp "MacroPulse/pkg/http"
)

// Base provides a shared foundation for provider clients: one configured HTTP client,
// a base URL and a provider name stamped on every error.
type Base struct {
	provider string
	baseURL  string
	client   *xhttp.Client
}

// NewBase builds a provider base. client must carry the per-call timeout.
func NewBase(provider, baseURL string, client *xhttp.Client) *Base {
	return &Base{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
	}
}

// Provider returns the provider name.
func (b *Base) Provider() string { return b.provider }

// Get fetches path under baseURL with query and returns the body of a 2xx response.
// Any transport, timeout or status failure comes back as a KindFetch *Error.
func (b *Base) Get(ctx context.Context, path string, query map[string][]string) ([]byte, error) {
	if b.client == nil || b.baseURL == "" {
		return nil, FetchError(b.provider, fmt.Errorf("client not initialized"))
	}
	body, err := b.client.Fetch(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		QueryParams: query,
		Headers: map[string]string{
			"Accept": "application/json, text/csv;q=0.9, */*;q=0.8",
		},
	})
	if err != nil {
		return nil, FetchError(b.provider, fmt.Errorf("get %s: %w", path, err))
	}
	return body, nil
}

// Parse builds a KindParse error for this provider.
func (b *Base) Parse(format string, args ...interface{}) error {
	return ParseError(b.provider, format, args...)
}

// Insufficient builds a KindInsufficient error for this provider.
func (b *Base) Insufficient(got, want int) error {
	return InsufficientError(b.provider, got, want)
}

package fetcher

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Gateway routes page fetches through a third-party scraping API
// (ScraperAPI-style: GET endpoint?api_key=...&url=...). Callers of the
// fetcher never see the indirection.
type Gateway struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

// NewGateway creates a gateway client for the given endpoint and credential
func NewGateway(endpoint, apiKey, userAgent string, timeout time.Duration) *Gateway {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &Gateway{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// Fetch requests the target URL through the gateway and returns the raw
// body, content type and upstream status code.
func (g *Gateway) Fetch(ctx context.Context, targetURL string) ([]byte, string, int, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key": g.apiKey,
			"url":     targetURL,
		}).
		Get(g.endpoint)
	if err != nil {
		return nil, "", 0, err
	}
	return resp.Body(), resp.Header().Get("Content-Type"), resp.StatusCode(), nil
}

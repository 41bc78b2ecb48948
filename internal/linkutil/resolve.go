package linkutil

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Resolver follows HTTP redirects to find the final destination of a link.
// Shortened and affiliate links usually redirect to the real product page,
// which may carry its own tracking parameters.
type Resolver struct {
	client    *http.Client
	userAgent string
}

// NewResolver creates a resolver with the given timeout and User-Agent
func NewResolver(timeout time.Duration, userAgent string) *Resolver {
	return &Resolver{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Resolve returns the URL reached after following redirects, trying a HEAD
// request first and falling back to GET when HEAD fails. Resolution is
// best-effort: on any failure the input URL is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	final, err := r.attempt(ctx, http.MethodHead, rawURL)
	if err != nil {
		final, err = r.attempt(ctx, http.MethodGet, rawURL)
		if err != nil {
			return rawURL
		}
	}
	return final
}

func (r *Resolver) attempt(ctx context.Context, method, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("resolve %s %s: status %d", method, rawURL, resp.StatusCode)
	}

	return resp.Request.URL.String(), nil
}

// Canonical normalizes a raw link and, when a resolver is supplied, follows
// redirects and re-normalizes the destination. Redirect targets are cleaned
// again because they may introduce fresh tracking parameters.
func Canonical(ctx context.Context, raw string, resolver *Resolver) (string, error) {
	normalized, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	if resolver == nil {
		return normalized, nil
	}

	resolved := resolver.Resolve(ctx, normalized)
	if resolved == normalized {
		return normalized, nil
	}

	renormalized, err := Normalize(resolved)
	if err != nil {
		// Keep the pre-redirect canonical form when the target is unusable.
		return normalized, nil
	}
	return renormalized, nil
}

package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"golang.org/x/net/html/charset"

	"uzdeals/dealwatcher/logger"
	errs "uzdeals/dealwatcher/pkg/errors"
	"uzdeals/dealwatcher/services/cache"
)

// Options configures a Fetcher
type Options struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	// Gateway is an optional scraping proxy; when set, every request is
	// routed through it transparently.
	Gateway *Gateway
	// Cache holds per-host cooldown markers. Nil disables cooldowns.
	Cache        cache.CacheService
	HostCooldown time.Duration
}

// Fetcher performs a single GET per call with browser-like headers and a
// hard timeout. There is no retry: the scheduler's next cycle is the retry
// mechanism.
type Fetcher struct {
	client       *http.Client
	gateway      *Gateway
	cache        cache.CacheService
	hostCooldown time.Duration
	userAgent    string
	acceptLang   string
	log          *logger.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Fetcher{
		client:       &http.Client{Timeout: timeout},
		gateway:      opts.Gateway,
		cache:        opts.Cache,
		hostCooldown: opts.HostCooldown,
		userAgent:    opts.UserAgent,
		acceptLang:   opts.AcceptLanguage,
		log:          logger.ForFetcher(),
	}
}

// Fetch performs one GET request and returns the page body as UTF-8 text.
// HTTP status >= 400 and network failures are reported as fetch errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	host := hostOf(rawURL)
	if f.cache != nil && host != "" {
		if _, err := f.cache.Get(cooldownKey(host)); err == nil {
			return "", errs.NewFetch(rawURL, fmt.Sprintf("host %s in cooldown", host), nil)
		}
	}

	if f.gateway != nil {
		body, contentType, status, err := f.gateway.Fetch(ctx, rawURL)
		return f.finish(rawURL, host, body, contentType, status, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errs.NewFetch(rawURL, "failed to create request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLang)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errs.NewFetch(rawURL, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.NewFetch(rawURL, "failed to read response body", err)
	}

	return f.finish(rawURL, host, body, resp.Header.Get("Content-Type"), resp.StatusCode, nil)
}

// finish applies the shared status and charset handling for both the direct
// and the gateway path.
func (f *Fetcher) finish(rawURL, host string, body []byte, contentType string, status int, err error) (string, error) {
	if err != nil {
		return "", errs.NewFetch(rawURL, "request failed", err)
	}

	if slices.Contains([]int{http.StatusTooManyRequests, 430}, status) {
		f.startCooldown(host)
		return "", errs.NewFetchStatus(rawURL, status)
	}
	if status >= http.StatusBadRequest {
		return "", errs.NewFetchStatus(rawURL, status)
	}

	text, err := decodeUTF8(body, contentType)
	if err != nil {
		return "", errs.NewFetch(rawURL, "failed to decode response body", err)
	}
	return text, nil
}

func (f *Fetcher) startCooldown(host string) {
	if f.cache == nil || host == "" || f.hostCooldown <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(f.hostCooldown.Seconds())))
	if err := f.cache.Set(cooldownKey(host), value, f.hostCooldown); err != nil {
		f.log.Warn().Err(err).Str("host", host).Msg("Failed to set host cooldown")
		return
	}
	f.log.Info().Str("host", host).Dur("cooldown", f.hostCooldown).Msg("Rate limited, host cooldown started")
}

// decodeUTF8 converts a response body to UTF-8 based on the Content-Type
// header and the body content itself.
func decodeUTF8(body []byte, contentType string) (string, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return string(body), nil
	}

	reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func cooldownKey(host string) string {
	return "cooldown:" + host
}

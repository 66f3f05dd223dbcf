package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/utils"
)

var (
	// ErrAuthRequired means the site redirected to a login wall instead of
	// serving the listing.
	ErrAuthRequired = errors.New("listing requires authentication")
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("unexpected http status")
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Fetcher performs rate-limited GETs on behalf of every source.
type Fetcher struct {
	client    *http.Client
	limiter   *HostLimiter
	userAgent string
}

func NewFetcher(client *http.Client, limiter *HostLimiter, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{client: client, limiter: limiter, userAgent: userAgent}
}

// Get returns the response body for raw. The caller closes it.
func (f *Fetcher) Get(ctx context.Context, raw string) (io.ReadCloser, string, error) {
	if err := f.limiter.WaitURL(ctx, raw); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", raw, err)
	}

	final := raw
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	if isAuthWall(final) {
		utils.Close(resp.Body)
		return nil, final, fmt.Errorf("%w: redirected to %s", ErrAuthRequired, final)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		utils.Close(resp.Body)
		return nil, final, fmt.Errorf("%w: %s returned %d", ErrStatus, raw, resp.StatusCode)
	}

	return resp.Body, final, nil
}

func isAuthWall(u string) bool {
	l := strings.ToLower(u)
	return strings.Contains(l, "authwall") || strings.Contains(l, "/login") || strings.Contains(l, "/signin")
}

package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pevans/kufarwatch/listing"
)

// Page is a fetched page body along with the response content type.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// Fetcher retrieves the monitored page.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher with the given request timeout and user
// agent. Zero values fall back to 30 seconds and DefaultUserAgent.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchPage performs a single GET against url. Transport errors and non-2xx
// responses are returned as *FetchError.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return &Page{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// ScrapeListings fetches url and extracts the listings on it. Combines
// FetchPage and Extract.
func (f *Fetcher) ScrapeListings(ctx context.Context, url string, cfg ExtractConfig) (listing.Set, error) {
	page, err := f.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}

	return Extract(page.Body, page.ContentType, cfg)
}

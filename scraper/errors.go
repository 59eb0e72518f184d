package scraper

import "fmt"

// FetchError is returned when the monitored page can't be retrieved: a
// transport failure or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractionError is returned when a fetched page can't be turned into a
// listing set.
type ExtractionError struct {
	Value string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("extract listings: %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("extract listings: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

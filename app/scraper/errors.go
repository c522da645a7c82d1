package scraper

import (
	"fmt"
)

// FetchError is a per-article scrape failure: network error, HTTP error
// status, unusable content type or an extraction miss. The article keeps a
// NULL content field and is selected again on the next enrichment run.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"
)

// socialMediaDomains are hosts that never yield useful article text and are
// skipped without a network call.
var socialMediaDomains = map[string]struct{}{
	"twitter.com":   {},
	"x.com":         {},
	"facebook.com":  {},
	"instagram.com": {},
	"linkedin.com":  {},
	"tiktok.com":    {},
	"reddit.com":    {},
}

// Result holds the extracted full text plus whatever article metadata the
// page exposed.
type Result struct {
	Content       string
	Title         string
	Author        string
	Excerpt       string
	LeadImageURL  string
	DatePublished *time.Time
	WordCount     int
	TotalPages    int
	RenderedPages int
}

// Scraper fetches article pages and extracts their readable content.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// New creates a scraper. Requests are spaced at least delay apart to stay
// polite toward article hosts.
func New(userAgent string, timeout, delay time.Duration) *Scraper {
	if delay <= 0 {
		delay = time.Second
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Fetch downloads the article at rawURL and extracts its readable content.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if rawURL == "" {
		return nil, &FetchError{URL: rawURL, Err: errors.New("article has no URL")}
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}

	host := strings.TrimPrefix(strings.ToLower(pageURL.Hostname()), "www.")
	if _, blocked := socialMediaDomains[host]; blocked {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("social media host %s is not scrapable", host)}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := s.fetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to extract content: %w", err)}
	}

	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		return nil, &FetchError{URL: rawURL, Err: errors.New("no content extracted from page")}
	}

	result := &Result{
		Content:       content,
		Title:         strings.TrimSpace(article.Title),
		Author:        strings.TrimSpace(article.Byline),
		Excerpt:       strings.TrimSpace(article.Excerpt),
		LeadImageURL:  article.Image,
		DatePublished: article.PublishedTime,
		WordCount:     len(strings.Fields(content)),
		TotalPages:    1,
		RenderedPages: 1,
	}

	slog.Debug("Content extracted successfully",
		"url", rawURL,
		"title", result.Title,
		"word_count", result.WordCount)

	return result, nil
}

func (s *Scraper) fetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("content type is not HTML: %s", contentType)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return data, nil
}

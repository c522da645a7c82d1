package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://getpocket.com"

// maxRateLimitWait caps how long a rate-limit reset header can stall a run.
const maxRateLimitWait = 5 * time.Minute

// Client talks to the Pocket v3 API: article listing, tag updates and the
// verification read-back used by the publication stage.
type Client struct {
	// BaseURL can be overridden in tests.
	BaseURL string

	httpClient  *http.Client
	consumerKey string
	accessToken string
	userAgent   string
	limiter     *rate.Limiter
}

// NewClient creates a Pocket API client. Requests are paced by a limiter so
// back-to-back pagination stays under Pocket's per-key limits.
func NewClient(consumerKey, accessToken, userAgent string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: timeout},
		consumerKey: consumerKey,
		accessToken: accessToken,
		userAgent:   userAgent,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// retrieveResponse is the /v3/get payload. The item list arrives as a JSON
// object keyed by item ID, or as an empty array when there are no items.
type retrieveResponse struct {
	Status int             `json:"status"`
	Since  int64           `json:"since"`
	List   json.RawMessage `json:"list"`
}

func (r *retrieveResponse) items() (map[string]itemData, error) {
	if len(r.List) == 0 || bytes.HasPrefix(bytes.TrimSpace(r.List), []byte("[")) {
		return nil, nil
	}
	var items map[string]itemData
	if err := json.Unmarshal(r.List, &items); err != nil {
		return nil, fmt.Errorf("failed to parse item list: %w", err)
	}
	return items, nil
}

// Retrieve pages through the saved-article list. With a non-empty since
// cursor only items changed after that point are returned. The returned
// cursor should be persisted for the next incremental run.
func (c *Client) Retrieve(ctx context.Context, since string, pageSize int) ([]Item, string, error) {
	if pageSize <= 0 {
		pageSize = 30
	}

	var items []Item
	var newSince int64
	offset := 0

	for {
		payload := map[string]any{
			"consumer_key": c.consumerKey,
			"access_token": c.accessToken,
			"detailType":   "complete",
			"state":        "all",
			"count":        pageSize,
			"offset":       offset,
		}
		if since != "" {
			payload["since"] = since
		}

		slog.Debug("Fetching Pocket page", "offset", offset, "count", pageSize)

		var resp retrieveResponse
		headers, err := c.post(ctx, "/v3/get", payload, &resp)
		if err != nil {
			return nil, "", err
		}

		if resp.Since > 0 {
			newSince = resp.Since
		}

		page, err := resp.items()
		if err != nil {
			return nil, "", err
		}
		if len(page) == 0 {
			break
		}

		for _, data := range page {
			items = append(items, data.toItem())
		}

		offset += len(page)
		if len(page) < pageSize {
			break
		}

		if err := c.waitForRateLimit(ctx, headers); err != nil {
			return nil, "", err
		}
	}

	cursor := ""
	if newSince > 0 {
		cursor = strconv.FormatInt(newSince, 10)
	}

	return items, cursor, nil
}

// AddTags adds the given tags to an article upstream via a tags_add action.
func (c *Client) AddTags(ctx context.Context, itemID string, tags []string) error {
	payload := map[string]any{
		"consumer_key": c.consumerKey,
		"access_token": c.accessToken,
		"actions": []map[string]string{
			{
				"action":  "tags_add",
				"item_id": itemID,
				"tags":    strings.Join(tags, ","),
			},
		},
	}

	var resp struct {
		Status int `json:"status"`
	}
	if _, err := c.post(ctx, "/v3/send", payload, &resp); err != nil {
		return err
	}
	if resp.Status != 1 {
		return &UpdateError{ItemID: itemID, Err: fmt.Errorf("send returned status %d", resp.Status)}
	}

	return nil
}

// GetItemTags reads back the current upstream tag set for one article. Used
// to verify a tags_add actually landed before the article is marked synced.
func (c *Client) GetItemTags(ctx context.Context, itemID string) ([]string, error) {
	payload := map[string]any{
		"consumer_key": c.consumerKey,
		"access_token": c.accessToken,
		"detailType":   "complete",
		"state":        "all",
		"item_ids":     itemID,
	}

	var resp retrieveResponse
	if _, err := c.post(ctx, "/v3/get", payload, &resp); err != nil {
		return nil, err
	}

	items, err := resp.items()
	if err != nil {
		return nil, err
	}

	data, ok := items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s not found upstream", itemID)
	}

	var tags []string
	for _, tag := range data.Tags {
		if tag.Tag != "" {
			tags = append(tags, tag.Tag)
		}
	}
	return tags, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrAuth, resp.StatusCode, pocketErrorDetail(resp.Header, data))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrTransient, resp.StatusCode, pocketErrorDetail(resp.Header, data))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("pocket API error: HTTP %d: %s", resp.StatusCode, pocketErrorDetail(resp.Header, data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return resp.Header, nil
}

// waitForRateLimit honors Pocket's X-Limit headers between pagination calls.
func (c *Client) waitForRateLimit(ctx context.Context, headers http.Header) error {
	remaining := headers.Get("X-Limit-User-Remaining")
	if remaining == "" || remaining != "0" {
		return nil
	}

	reset, err := strconv.Atoi(headers.Get("X-Limit-User-Reset"))
	if err != nil || reset <= 0 {
		return nil
	}

	wait := time.Duration(reset) * time.Second
	if wait > maxRateLimitWait {
		return fmt.Errorf("%w: rate limit reset in %s exceeds wait cap", ErrTransient, wait)
	}

	slog.Warn("Pocket rate limit reached, waiting", "wait", wait.String())
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func pocketErrorDetail(headers http.Header, body []byte) string {
	if msg := headers.Get("X-Error"); msg != "" {
		return msg
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}

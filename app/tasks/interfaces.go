package tasks

import (
	"context"

	"pocketag/app/pocket"
	"pocketag/app/scraper"
)

// Collaborator contracts the stages depend on. The production
// implementations live in app/pocket, app/scraper and app/generator; tests
// substitute fakes.

// ArticleSource lists saved articles from the read-it-later service.
type ArticleSource interface {
	Retrieve(ctx context.Context, since string, pageSize int) ([]pocket.Item, string, error)
}

// ContentFetcher retrieves and extracts the full text for one article URL.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Result, error)
}

// Generator produces the summary and tag set for article content.
type Generator interface {
	Summarize(ctx context.Context, content string) (string, error)
	GenerateTags(ctx context.Context, content string) ([]string, error)
}

// TagPublisher writes tags upstream and reads them back for verification.
type TagPublisher interface {
	AddTags(ctx context.Context, itemID string, tags []string) error
	GetItemTags(ctx context.Context, itemID string) ([]string, error)
}

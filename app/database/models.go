package database

import (
	"time"
)

// Article represents a saved article in the local store. Content stays empty
// until the enrichment stage has fetched the full text.
type Article struct {
	ID            int64
	PocketID      string // Stable Pocket item ID
	Title         string
	URL           string // Resolved canonical URL, globally unique
	Content       string
	Author        string
	DatePublished *time.Time
	LeadImageURL  string
	Excerpt       string
	WordCount     int
	TotalPages    int // Pagination metadata reported by the extractor
	RenderedPages int
	DateAdded     *time.Time // When the article was saved to Pocket
	DateRetrieved *time.Time // When the full text was fetched
	SyncedAt      *time.Time // When the generated tags were confirmed upstream
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Tag holds a normalized tag name shared across articles.
type Tag struct {
	ID   int64
	Name string
}

// Summary holds generated summary text for an article. The schema allows
// several rows per article; the pipeline writes one.
type Summary struct {
	ID            int64
	ArticleID     int64
	SummaryText   string
	SummaryLength int // Word count of the summary text
	CreatedAt     time.Time
}

// Collection is an optional named grouping of articles for downstream
// querying. The pipeline itself never touches collections.
type Collection struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Stats reports store-wide counts for the status command.
type Stats struct {
	Total       int
	WithContent int
	WithSummary int
	Synced      int
	Tags        int
}

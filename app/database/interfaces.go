package database

import (
	"time"
)

// ArticleRecord is an article as reported by the listing API, before any
// local enrichment. Empty fields never overwrite enriched values.
type ArticleRecord struct {
	PocketID  string
	Title     string
	URL       string
	Excerpt   string
	Author    string
	WordCount int
	DateAdded *time.Time
}

// ScrapedContent is the enrichment stage's output for one article.
type ScrapedContent struct {
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

type ArticleRepository interface {
	UpsertArticle(rec ArticleRecord) (created bool, err error)
	GetArticleByPocketID(pocketID string) (*Article, error)
	GetArticles() ([]Article, error)
	GetArticleCount() (int, error)

	GetArticlesMissingContent() ([]Article, error)
	GetArticlesForGeneration() ([]Article, error)
	GetArticlesForPublication() ([]Article, error)

	SaveContent(articleID int64, content ScrapedContent) error
	MarkSynced(articleID int64) error

	GetStats() (Stats, error)

	GetSyncCursor() (string, error)
	SetSyncCursor(value string) error
}

type TagRepository interface {
	SaveGenerationResult(articleID int64, summaryText string, tags []string) error
	GetTagsForArticle(articleID int64) ([]string, error)
	GetSummaryForArticle(articleID int64) (*Summary, error)
	GetTagCount() (int, error)
}

type CollectionRepository interface {
	CreateCollection(name, description string) (int64, error)
	AddArticleToCollection(collectionID, articleID int64) error
	GetCollectionArticles(name string) ([]Article, error)
}

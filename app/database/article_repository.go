package database

import (
	"database/sql"
	"fmt"
	"time"
)

// articleRepository handles database operations for articles, including the
// per-stage selector queries that drive the pipeline.
type articleRepository struct {
	db *DB
}

var _ ArticleRepository = (*articleRepository)(nil)

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) ArticleRepository {
	return &articleRepository{db: db}
}

const articleColumns = `id, pocket_id, COALESCE(title, ''), url, COALESCE(content, ''),
	COALESCE(author, ''), date_published, COALESCE(lead_image_url, ''), COALESCE(excerpt, ''),
	word_count, total_pages, rendered_pages, date_added, date_retrieved, synced_at,
	created_at, updated_at`

// articleColumnsA is articleColumns qualified with the "a" alias for queries
// that join other tables with overlapping column names.
const articleColumnsA = `a.id, a.pocket_id, COALESCE(a.title, ''), a.url, COALESCE(a.content, ''),
	COALESCE(a.author, ''), a.date_published, COALESCE(a.lead_image_url, ''), COALESCE(a.excerpt, ''),
	a.word_count, a.total_pages, a.rendered_pages, a.date_added, a.date_retrieved, a.synced_at,
	a.created_at, a.updated_at`

func scanArticle(row interface{ Scan(...any) error }) (*Article, error) {
	var article Article
	var datePublished, dateAdded, dateRetrieved, syncedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&article.ID, &article.PocketID, &article.Title, &article.URL, &article.Content,
		&article.Author, &datePublished, &article.LeadImageURL, &article.Excerpt,
		&article.WordCount, &article.TotalPages, &article.RenderedPages,
		&dateAdded, &dateRetrieved, &syncedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.DatePublished = parseNullableTime(datePublished)
	article.DateAdded = parseNullableTime(dateAdded)
	article.DateRetrieved = parseNullableTime(dateRetrieved)
	article.SyncedAt = parseNullableTime(syncedAt)
	article.CreatedAt = parseTime(createdAt)
	article.UpdatedAt = parseTime(updatedAt)

	return &article, nil
}

// UpsertArticle inserts a listing record or updates an existing article keyed
// on its URL. Updates keep locally-enriched fields: an empty external value
// never replaces stored data.
func (r *articleRepository) UpsertArticle(rec ArticleRecord) (bool, error) {
	if rec.URL == "" {
		return false, fmt.Errorf("%w: article %s has no URL", ErrIntegrity, rec.PocketID)
	}

	existing, err := r.getArticleByURL(rec.URL)
	if err != nil {
		return false, fmt.Errorf("failed to check existing article: %w", err)
	}

	now := formatTime(time.Now())

	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE articles
			SET pocket_id = ?,
			    title = CASE WHEN ? != '' THEN ? ELSE title END,
			    excerpt = CASE WHEN ? != '' THEN ? ELSE excerpt END,
			    author = CASE WHEN ? != '' THEN ? ELSE author END,
			    word_count = CASE WHEN ? > 0 THEN ? ELSE word_count END,
			    date_added = COALESCE(?, date_added),
			    updated_at = ?
			WHERE url = ?
		`, rec.PocketID,
			rec.Title, rec.Title,
			rec.Excerpt, rec.Excerpt,
			rec.Author, rec.Author,
			rec.WordCount, rec.WordCount,
			nullableTime(rec.DateAdded),
			now, rec.URL)
		if err != nil {
			return false, wrapIntegrity(fmt.Errorf("failed to update article: %w", err))
		}
		return false, nil
	}

	_, err = r.db.Exec(`
		INSERT INTO articles (pocket_id, title, url, excerpt, author, word_count, date_added, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.PocketID, rec.Title, rec.URL, rec.Excerpt, rec.Author, rec.WordCount,
		nullableTime(rec.DateAdded), now, now)
	if err != nil {
		return false, wrapIntegrity(fmt.Errorf("failed to insert article: %w", err))
	}

	return true, nil
}

func (r *articleRepository) getArticleByURL(url string) (*Article, error) {
	article, err := scanArticle(r.db.QueryRow(
		`SELECT `+articleColumns+` FROM articles WHERE url = ?`, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by URL: %w", err)
	}
	return article, nil
}

// GetArticleByPocketID retrieves an article by its Pocket item ID
func (r *articleRepository) GetArticleByPocketID(pocketID string) (*Article, error) {
	article, err := scanArticle(r.db.QueryRow(
		`SELECT `+articleColumns+` FROM articles WHERE pocket_id = ?`, pocketID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by Pocket ID: %w", err)
	}
	return article, nil
}

// GetArticles returns every stored article, oldest first
func (r *articleRepository) GetArticles() ([]Article, error) {
	articles, err := r.queryArticles(`SELECT ` + articleColumns + ` FROM articles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	return articles, nil
}

// GetArticleCount returns the total number of articles
func (r *articleRepository) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func (r *articleRepository) queryArticles(query string, args ...any) ([]Article, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// GetArticlesMissingContent returns articles eligible for the enrichment
// stage, oldest first. Evaluated fresh on every invocation.
func (r *articleRepository) GetArticlesMissingContent() ([]Article, error) {
	articles, err := r.queryArticles(`
		SELECT ` + articleColumns + `
		FROM articles
		WHERE content IS NULL OR content = ''
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles missing content: %w", err)
	}
	return articles, nil
}

// GetArticlesForGeneration returns articles with full text but no summary yet.
func (r *articleRepository) GetArticlesForGeneration() ([]Article, error) {
	articles, err := r.queryArticles(`
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.content IS NOT NULL AND a.content != ''
		  AND NOT EXISTS (SELECT 1 FROM summaries s WHERE s.article_id = a.id)
		ORDER BY a.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles for generation: %w", err)
	}
	return articles, nil
}

// GetArticlesForPublication returns articles carrying locally-generated tags
// that have not been confirmed upstream.
func (r *articleRepository) GetArticlesForPublication() ([]Article, error) {
	articles, err := r.queryArticles(`
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.synced_at IS NULL
		  AND EXISTS (SELECT 1 FROM article_tags at WHERE at.article_id = a.id)
		ORDER BY a.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles for publication: %w", err)
	}
	return articles, nil
}

// SaveContent stores the scraped full text and metadata for an article.
// Scraped metadata only fills fields the listing left empty.
func (r *articleRepository) SaveContent(articleID int64, content ScrapedContent) error {
	if content.Content == "" {
		return fmt.Errorf("%w: refusing to save empty content for article %d", ErrIntegrity, articleID)
	}

	now := time.Now()
	_, err := r.db.Exec(`
		UPDATE articles
		SET content = ?,
		    title = CASE WHEN title = '' AND ? != '' THEN ? ELSE title END,
		    author = CASE WHEN author = '' AND ? != '' THEN ? ELSE author END,
		    excerpt = CASE WHEN excerpt = '' AND ? != '' THEN ? ELSE excerpt END,
		    lead_image_url = CASE WHEN lead_image_url = '' AND ? != '' THEN ? ELSE lead_image_url END,
		    date_published = COALESCE(date_published, ?),
		    word_count = CASE WHEN ? > 0 THEN ? ELSE word_count END,
		    total_pages = ?,
		    rendered_pages = ?,
		    date_retrieved = ?,
		    updated_at = ?
		WHERE id = ?
	`, content.Content,
		content.Title, content.Title,
		content.Author, content.Author,
		content.Excerpt, content.Excerpt,
		content.LeadImageURL, content.LeadImageURL,
		nullableTime(content.DatePublished),
		content.WordCount, content.WordCount,
		content.TotalPages, content.RenderedPages,
		formatTime(now), formatTime(now), articleID)
	if err != nil {
		return wrapIntegrity(fmt.Errorf("failed to save article content: %w", err))
	}

	return nil
}

// MarkSynced records verified propagation of the article's tags upstream.
func (r *articleRepository) MarkSynced(articleID int64) error {
	now := formatTime(time.Now())
	_, err := r.db.Exec(`
		UPDATE articles
		SET synced_at = ?, updated_at = ?
		WHERE id = ?
	`, now, now, articleID)
	if err != nil {
		return fmt.Errorf("failed to mark article synced: %w", err)
	}
	return nil
}

// GetStats returns store-wide counters for the status command
func (r *articleRepository) GetStats() (Stats, error) {
	var stats Stats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN content IS NOT NULL AND content != '' THEN 1 ELSE 0 END), 0) AS with_content,
			COALESCE(SUM(CASE WHEN EXISTS (SELECT 1 FROM summaries s WHERE s.article_id = articles.id) THEN 1 ELSE 0 END), 0) AS with_summary,
			COALESCE(SUM(CASE WHEN synced_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS synced
		FROM articles
	`).Scan(&stats.Total, &stats.WithContent, &stats.WithSummary, &stats.Synced)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get article stats: %w", err)
	}

	err = r.db.QueryRow("SELECT COUNT(*) FROM tags").Scan(&stats.Tags)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get tag count: %w", err)
	}

	return stats, nil
}

// GetSyncCursor returns the stored Pocket "since" cursor, empty if none.
func (r *articleRepository) GetSyncCursor() (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM sync_state WHERE key = 'last_ingested_at'`).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync cursor: %w", err)
	}
	return value, nil
}

// SetSyncCursor stores the Pocket "since" cursor for incremental ingestion.
func (r *articleRepository) SetSyncCursor(value string) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_state (key, value) VALUES ('last_ingested_at', ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, value)
	if err != nil {
		return fmt.Errorf("failed to set sync cursor: %w", err)
	}
	return nil
}

package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// tagRepository handles database operations for tags, associations and
// summaries.
type tagRepository struct {
	db *DB
}

var _ TagRepository = (*tagRepository)(nil)

// NewTagRepository creates a new tag repository
func NewTagRepository(db *DB) TagRepository {
	return &tagRepository{db: db}
}

// SaveGenerationResult commits the generation stage's full output for one
// article in a single transaction: the summary row, any missing tag rows and
// any missing associations. Either everything lands or nothing does, so the
// generation selector always sees the article as cleanly done or not done.
// Tag names are expected to be normalized already.
func (r *tagRepository) SaveGenerationResult(articleID int64, summaryText string, tags []string) error {
	if summaryText == "" {
		return fmt.Errorf("%w: refusing to save empty summary for article %d", ErrIntegrity, articleID)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summaryLength := len(strings.Fields(summaryText))
	_, err = tx.Exec(`
		INSERT INTO summaries (article_id, summary_text, summary_length, created_at)
		VALUES (?, ?, ?, ?)
	`, articleID, summaryText, summaryLength, formatTime(time.Now()))
	if err != nil {
		return wrapIntegrity(fmt.Errorf("failed to insert summary: %w", err))
	}

	for _, name := range tags {
		if name == "" {
			continue
		}

		_, err = tx.Exec(`INSERT INTO tags (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return wrapIntegrity(fmt.Errorf("failed to insert tag %q: %w", name, err))
		}

		var tagID int64
		err = tx.QueryRow(`SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("failed to look up tag %q: %w", name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO article_tags (article_id, tag_id) VALUES (?, ?)
			ON CONFLICT (article_id, tag_id) DO NOTHING
		`, articleID, tagID)
		if err != nil {
			return wrapIntegrity(fmt.Errorf("failed to link tag %q: %w", name, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit generation result: %w", err)
	}

	return nil
}

// GetTagsForArticle returns the article's tag names in insertion order
func (r *tagRepository) GetTagsForArticle(articleID int64) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT t.name
		FROM tags t
		JOIN article_tags at ON at.tag_id = t.id
		WHERE at.article_id = ?
		ORDER BY t.id ASC
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags for article: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return tags, nil
}

// GetSummaryForArticle returns the article's most recent summary, nil if none
func (r *tagRepository) GetSummaryForArticle(articleID int64) (*Summary, error) {
	var summary Summary
	var createdAt string
	err := r.db.QueryRow(`
		SELECT id, article_id, summary_text, summary_length, created_at
		FROM summaries
		WHERE article_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, articleID).Scan(&summary.ID, &summary.ArticleID, &summary.SummaryText,
		&summary.SummaryLength, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary for article: %w", err)
	}

	summary.CreatedAt = parseTime(createdAt)
	return &summary, nil
}

// GetTagCount returns the total number of distinct tags
func (r *tagRepository) GetTagCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tags").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get tag count: %w", err)
	}
	return count, nil
}

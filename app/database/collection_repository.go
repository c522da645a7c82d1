package database

import (
	"fmt"
	"time"
)

// collectionRepository handles database operations for article collections.
// Collections are a query-side convenience; no pipeline stage writes them.
type collectionRepository struct {
	db *DB
}

var _ CollectionRepository = (*collectionRepository)(nil)

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// CreateCollection creates a named collection, returning its ID
func (r *collectionRepository) CreateCollection(name, description string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: collection name is required", ErrIntegrity)
	}

	res, err := r.db.Exec(`
		INSERT INTO collections (name, description, created_at) VALUES (?, ?, ?)
	`, name, description, formatTime(time.Now()))
	if err != nil {
		return 0, wrapIntegrity(fmt.Errorf("failed to create collection: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get collection ID: %w", err)
	}
	return id, nil
}

// AddArticleToCollection links an article into a collection; re-adding an
// already-linked article is a no-op.
func (r *collectionRepository) AddArticleToCollection(collectionID, articleID int64) error {
	_, err := r.db.Exec(`
		INSERT INTO collection_articles (collection_id, article_id) VALUES (?, ?)
		ON CONFLICT (collection_id, article_id) DO NOTHING
	`, collectionID, articleID)
	if err != nil {
		return wrapIntegrity(fmt.Errorf("failed to add article to collection: %w", err))
	}
	return nil
}

// GetCollectionArticles returns the articles in a named collection in
// insertion order
func (r *collectionRepository) GetCollectionArticles(name string) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumnsA+`
		FROM articles a
		JOIN collection_articles ca ON ca.article_id = a.id
		JOIN collections c ON c.id = ca.collection_id
		WHERE c.name = ?
		ORDER BY a.id ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection articles: %w", err)
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

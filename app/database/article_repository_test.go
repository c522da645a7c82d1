package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := NewConnection(path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func insertArticle(t *testing.T, repo ArticleRepository, pocketID, url, title string) *Article {
	t.Helper()

	created, err := repo.UpsertArticle(ArticleRecord{PocketID: pocketID, URL: url, Title: title})
	if err != nil {
		t.Fatalf("Failed to upsert article %s: %v", pocketID, err)
	}
	if !created {
		t.Fatalf("Expected article %s to be created", pocketID)
	}

	article, err := repo.GetArticleByPocketID(pocketID)
	if err != nil {
		t.Fatalf("Failed to load article %s: %v", pocketID, err)
	}
	if article == nil {
		t.Fatalf("Expected article %s to exist after upsert", pocketID)
	}

	return article
}

func TestUpsertArticleCreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	created, err := repo.UpsertArticle(ArticleRecord{
		PocketID:  "101",
		URL:       "https://example.com/a",
		Title:     "First Title",
		Excerpt:   "An excerpt",
		WordCount: 500,
		DateAdded: &added,
	})
	if err != nil {
		t.Fatalf("Unexpected error on insert: %v", err)
	}
	if !created {
		t.Error("Expected created=true on first upsert")
	}

	created, err = repo.UpsertArticle(ArticleRecord{
		PocketID: "101",
		URL:      "https://example.com/a",
		Title:    "Updated Title",
	})
	if err != nil {
		t.Fatalf("Unexpected error on update: %v", err)
	}
	if created {
		t.Error("Expected created=false on second upsert")
	}

	article, err := repo.GetArticleByPocketID("101")
	if err != nil {
		t.Fatalf("Failed to load article: %v", err)
	}
	if article.Title != "Updated Title" {
		t.Errorf("Expected title 'Updated Title', got '%s'", article.Title)
	}
	if article.Excerpt != "An excerpt" {
		t.Errorf("Expected excerpt to survive update, got '%s'", article.Excerpt)
	}
	if article.WordCount != 500 {
		t.Errorf("Expected word count 500 to survive update, got %d", article.WordCount)
	}
	if article.DateAdded == nil || !article.DateAdded.Equal(added) {
		t.Errorf("Expected date added %v, got %v", added, article.DateAdded)
	}

	count, err := repo.GetArticleCount()
	if err != nil {
		t.Fatalf("Failed to count articles: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 article after repeated upserts, got %d", count)
	}
}

func TestUpsertArticleEmptyFieldsDoNotOverwrite(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	insertArticle(t, repo, "102", "https://example.com/b", "Keep Me")

	_, err := repo.UpsertArticle(ArticleRecord{PocketID: "102", URL: "https://example.com/b"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	article, err := repo.GetArticleByPocketID("102")
	if err != nil {
		t.Fatalf("Failed to load article: %v", err)
	}
	if article.Title != "Keep Me" {
		t.Errorf("Expected empty title to leave 'Keep Me' intact, got '%s'", article.Title)
	}
}

func TestUpsertArticleRejectsMissingURL(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	_, err := repo.UpsertArticle(ArticleRecord{PocketID: "103", Title: "No URL"})
	if err == nil {
		t.Fatal("Expected error for article without URL")
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("Expected ErrIntegrity, got %v", err)
	}
}

func TestUpsertArticleDuplicatePocketID(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	insertArticle(t, repo, "104", "https://example.com/c", "Original")

	_, err := repo.UpsertArticle(ArticleRecord{PocketID: "104", URL: "https://example.com/other", Title: "Clash"})
	if err == nil {
		t.Fatal("Expected error for duplicate Pocket ID under a different URL")
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("Expected ErrIntegrity, got %v", err)
	}

	count, err := repo.GetArticleCount()
	if err != nil {
		t.Fatalf("Failed to count articles: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected failed insert to leave 1 article, got %d", count)
	}
}

func TestSelectorsFollowArticleState(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	tagRepo := NewTagRepository(db)

	a := insertArticle(t, repo, "201", "https://example.com/one", "One")
	b := insertArticle(t, repo, "202", "https://example.com/two", "Two")
	c := insertArticle(t, repo, "203", "https://example.com/three", "Three")

	missing, err := repo.GetArticlesMissingContent()
	if err != nil {
		t.Fatalf("Failed to select articles missing content: %v", err)
	}
	if len(missing) != 3 {
		t.Fatalf("Expected 3 articles missing content, got %d", len(missing))
	}
	if missing[0].ID != a.ID || missing[1].ID != b.ID || missing[2].ID != c.ID {
		t.Errorf("Expected ascending ID order, got %d, %d, %d", missing[0].ID, missing[1].ID, missing[2].ID)
	}

	err = repo.SaveContent(b.ID, ScrapedContent{Content: "Full text of two.", WordCount: 4, TotalPages: 1, RenderedPages: 1})
	if err != nil {
		t.Fatalf("Failed to save content: %v", err)
	}

	missing, err = repo.GetArticlesMissingContent()
	if err != nil {
		t.Fatalf("Failed to select articles missing content: %v", err)
	}
	if len(missing) != 2 {
		t.Errorf("Expected 2 articles missing content after enrichment, got %d", len(missing))
	}

	forGen, err := repo.GetArticlesForGeneration()
	if err != nil {
		t.Fatalf("Failed to select articles for generation: %v", err)
	}
	if len(forGen) != 1 || forGen[0].ID != b.ID {
		t.Fatalf("Expected only the enriched article for generation, got %d articles", len(forGen))
	}
	if forGen[0].Content != "Full text of two." {
		t.Errorf("Expected stored content in selector result, got '%s'", forGen[0].Content)
	}

	err = tagRepo.SaveGenerationResult(b.ID, "A short summary.", []string{"news"})
	if err != nil {
		t.Fatalf("Failed to save generation result: %v", err)
	}

	forGen, err = repo.GetArticlesForGeneration()
	if err != nil {
		t.Fatalf("Failed to select articles for generation: %v", err)
	}
	if len(forGen) != 0 {
		t.Errorf("Expected no articles for generation after summarizing, got %d", len(forGen))
	}

	forPub, err := repo.GetArticlesForPublication()
	if err != nil {
		t.Fatalf("Failed to select articles for publication: %v", err)
	}
	if len(forPub) != 1 || forPub[0].ID != b.ID {
		t.Fatalf("Expected only the tagged article for publication, got %d articles", len(forPub))
	}

	if err := repo.MarkSynced(b.ID); err != nil {
		t.Fatalf("Failed to mark synced: %v", err)
	}

	forPub, err = repo.GetArticlesForPublication()
	if err != nil {
		t.Fatalf("Failed to select articles for publication: %v", err)
	}
	if len(forPub) != 0 {
		t.Errorf("Expected no articles for publication after sync, got %d", len(forPub))
	}

	article, err := repo.GetArticleByPocketID("202")
	if err != nil {
		t.Fatalf("Failed to load article: %v", err)
	}
	if article.SyncedAt == nil {
		t.Error("Expected synced_at to be set after MarkSynced")
	}
}

func TestSaveContentRejectsEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	a := insertArticle(t, repo, "301", "https://example.com/d", "D")

	err := repo.SaveContent(a.ID, ScrapedContent{})
	if err == nil {
		t.Fatal("Expected error for empty content")
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("Expected ErrIntegrity, got %v", err)
	}
}

func TestSaveContentFillsOnlyEmptyFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	a := insertArticle(t, repo, "302", "https://example.com/e", "Listing Title")

	published := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	err := repo.SaveContent(a.ID, ScrapedContent{
		Content:       "The full text.",
		Title:         "Scraped Title",
		Author:        "Jane Writer",
		LeadImageURL:  "https://example.com/img.png",
		DatePublished: &published,
		WordCount:     3,
		TotalPages:    1,
		RenderedPages: 1,
	})
	if err != nil {
		t.Fatalf("Failed to save content: %v", err)
	}

	article, err := repo.GetArticleByPocketID("302")
	if err != nil {
		t.Fatalf("Failed to load article: %v", err)
	}
	if article.Title != "Listing Title" {
		t.Errorf("Expected listing title to be kept, got '%s'", article.Title)
	}
	if article.Author != "Jane Writer" {
		t.Errorf("Expected scraped author to fill empty field, got '%s'", article.Author)
	}
	if article.Content != "The full text." {
		t.Errorf("Expected content to be stored, got '%s'", article.Content)
	}
	if article.DatePublished == nil || !article.DatePublished.Equal(published) {
		t.Errorf("Expected published date %v, got %v", published, article.DatePublished)
	}
	if article.DateRetrieved == nil {
		t.Error("Expected date_retrieved to be set after SaveContent")
	}
}

func TestSyncCursorRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	cursor, err := repo.GetSyncCursor()
	if err != nil {
		t.Fatalf("Failed to get cursor: %v", err)
	}
	if cursor != "" {
		t.Errorf("Expected empty cursor on fresh store, got '%s'", cursor)
	}

	if err := repo.SetSyncCursor("1700000000"); err != nil {
		t.Fatalf("Failed to set cursor: %v", err)
	}
	if err := repo.SetSyncCursor("1700000999"); err != nil {
		t.Fatalf("Failed to overwrite cursor: %v", err)
	}

	cursor, err = repo.GetSyncCursor()
	if err != nil {
		t.Fatalf("Failed to get cursor: %v", err)
	}
	if cursor != "1700000999" {
		t.Errorf("Expected cursor '1700000999', got '%s'", cursor)
	}
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	tagRepo := NewTagRepository(db)

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Total != 0 || stats.WithContent != 0 || stats.WithSummary != 0 || stats.Synced != 0 || stats.Tags != 0 {
		t.Errorf("Expected all-zero stats on fresh store, got %+v", stats)
	}

	a := insertArticle(t, repo, "401", "https://example.com/f", "F")
	insertArticle(t, repo, "402", "https://example.com/g", "G")

	if err := repo.SaveContent(a.ID, ScrapedContent{Content: "text", WordCount: 1, TotalPages: 1, RenderedPages: 1}); err != nil {
		t.Fatalf("Failed to save content: %v", err)
	}
	if err := tagRepo.SaveGenerationResult(a.ID, "summary", []string{"go", "testing"}); err != nil {
		t.Fatalf("Failed to save generation result: %v", err)
	}
	if err := repo.MarkSynced(a.ID); err != nil {
		t.Fatalf("Failed to mark synced: %v", err)
	}

	stats, err = repo.GetStats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Expected 2 total articles, got %d", stats.Total)
	}
	if stats.WithContent != 1 {
		t.Errorf("Expected 1 article with content, got %d", stats.WithContent)
	}
	if stats.WithSummary != 1 {
		t.Errorf("Expected 1 summarized article, got %d", stats.WithSummary)
	}
	if stats.Synced != 1 {
		t.Errorf("Expected 1 synced article, got %d", stats.Synced)
	}
	if stats.Tags != 2 {
		t.Errorf("Expected 2 distinct tags, got %d", stats.Tags)
	}
}

func TestGetArticles(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	articles, err := repo.GetArticles()
	if err != nil {
		t.Fatalf("Failed to get articles: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("Expected no articles on fresh store, got %d", len(articles))
	}

	a := insertArticle(t, repo, "701", "https://example.com/o", "O")
	b := insertArticle(t, repo, "702", "https://example.com/p", "P")

	articles, err = repo.GetArticles()
	if err != nil {
		t.Fatalf("Failed to get articles: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}
	if articles[0].ID != a.ID || articles[1].ID != b.ID {
		t.Errorf("Expected articles in ID order, got %d, %d", articles[0].ID, articles[1].ID)
	}
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pocketag/app/database"
	"pocketag/app/scraper"
)

// EnrichTask fetches full-text content for articles that do not have any
// yet. A failed scrape leaves the article untouched; it is selected again on
// the next run. Articles that already have content are never re-fetched.
type EnrichTask struct {
	Task
	fetcher     ContentFetcher
	articleRepo database.ArticleRepository
}

func NewEnrichTask(fetcher ContentFetcher, articleRepo database.ArticleRepository) *EnrichTask {
	return &EnrichTask{
		Task:        NewTask(TaskTypeEnrich),
		fetcher:     fetcher,
		articleRepo: articleRepo,
	}
}

func (t *EnrichTask) Execute(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	articles, err := t.articleRepo.GetArticlesMissingContent()
	if err != nil {
		return Result{}, fmt.Errorf("failed to select articles for enrichment: %w", err)
	}

	if len(articles) == 0 {
		slog.Debug("No articles need content")
	}

	var result Result

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		scraped, err := t.fetcher.Fetch(ctx, article.URL)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			var fetchErr *scraper.FetchError
			if errors.As(err, &fetchErr) {
				slog.Warn("Failed to fetch article content", "article_id", article.ID, "url", article.URL, "error", err)
				result.Failed++
				continue
			}
			return result, fmt.Errorf("content fetch failed: %w", err)
		}

		err = t.articleRepo.SaveContent(article.ID, database.ScrapedContent{
			Content:       scraped.Content,
			Title:         scraped.Title,
			Author:        scraped.Author,
			Excerpt:       scraped.Excerpt,
			LeadImageURL:  scraped.LeadImageURL,
			DatePublished: scraped.DatePublished,
			WordCount:     scraped.WordCount,
			TotalPages:    scraped.TotalPages,
			RenderedPages: scraped.RenderedPages,
		})
		if err != nil {
			if errors.Is(err, database.ErrIntegrity) {
				slog.Error("Failed to save article content", "article_id", article.ID, "error", err)
				result.Failed++
				continue
			}
			return result, fmt.Errorf("failed to save article content: %w", err)
		}

		slog.Debug("Article enriched", "article_id", article.ID, "url", article.URL, "word_count", scraped.WordCount)
		result.Succeeded++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"selected", len(articles),
		"success", result.Succeeded,
		"errors", result.Failed)

	return result, nil
}

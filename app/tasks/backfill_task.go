package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pocketag/app/database"
	"pocketag/app/pocket"
)

// BackfillTask re-reads the complete Pocket list and inserts any saved
// article the local store is missing. Incremental ingestion can lose items
// when a record fails and later runs move past it; backfill is the recovery
// path. The sync cursor is never touched, so a backfill cannot shrink the
// incremental window of regular ingest runs.
type BackfillTask struct {
	Task
	source      ArticleSource
	articleRepo database.ArticleRepository
	pageSize    int
}

func NewBackfillTask(source ArticleSource, articleRepo database.ArticleRepository, pageSize int) *BackfillTask {
	return &BackfillTask{
		Task:        NewTask(TaskTypeBackfill),
		source:      source,
		articleRepo: articleRepo,
		pageSize:    pageSize,
	}
}

func (t *BackfillTask) Execute(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	items, _, err := t.source.Retrieve(ctx, "", t.pageSize)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if errors.Is(err, pocket.ErrTransient) {
			slog.Warn("Article listing failed, stage marked failed", "error", err)
			return Result{Failed: 1}, nil
		}
		return Result{}, fmt.Errorf("failed to retrieve article list: %w", err)
	}

	var result Result
	restored := 0

	for _, item := range items {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if item.URL == "" {
			result.Skipped++
			continue
		}

		existing, err := t.articleRepo.GetArticleByPocketID(item.ItemID)
		if err != nil {
			return result, fmt.Errorf("failed to check for article %s: %w", item.ItemID, err)
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		created, err := t.articleRepo.UpsertArticle(database.ArticleRecord{
			PocketID:  item.ItemID,
			Title:     item.Title,
			URL:       item.URL,
			Excerpt:   item.Excerpt,
			Author:    item.Author,
			WordCount: item.WordCount,
			DateAdded: item.DateAdded,
		})
		if err != nil {
			if errors.Is(err, database.ErrIntegrity) {
				slog.Warn("Skipping malformed article record", "item_id", item.ItemID, "url", item.URL, "error", err)
				result.Skipped++
				continue
			}
			slog.Error("Failed to restore article", "item_id", item.ItemID, "url", item.URL, "error", err)
			result.Failed++
			continue
		}

		if created {
			restored++
			slog.Debug("Article restored", "item_id", item.ItemID, "url", item.URL)
		}
		result.Succeeded++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"total", len(items),
		"restored", restored,
		"skipped", result.Skipped,
		"errors", result.Failed)

	return result, nil
}

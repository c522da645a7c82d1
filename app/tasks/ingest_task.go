package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pocketag/app/database"
	"pocketag/app/pocket"
)

// IngestTask pulls the saved-article list from Pocket and upserts every
// record into the store. A malformed record is logged and skipped; it never
// aborts the rest of the batch.
type IngestTask struct {
	Task
	source      ArticleSource
	articleRepo database.ArticleRepository
	pageSize    int
	fullIngest  bool
}

func NewIngestTask(source ArticleSource, articleRepo database.ArticleRepository, pageSize int, fullIngest bool) *IngestTask {
	return &IngestTask{
		Task:        NewTask(TaskTypeIngest),
		source:      source,
		articleRepo: articleRepo,
		pageSize:    pageSize,
		fullIngest:  fullIngest,
	}
}

func (t *IngestTask) Execute(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	since := ""
	if !t.fullIngest {
		cursor, err := t.articleRepo.GetSyncCursor()
		if err != nil {
			return Result{}, fmt.Errorf("failed to read sync cursor: %w", err)
		}
		since = cursor
	}

	items, cursor, err := t.source.Retrieve(ctx, since, t.pageSize)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if errors.Is(err, pocket.ErrTransient) {
			// Later stages work off the local store and do not need the
			// listing, so a flaky Pocket API only fails this stage.
			slog.Warn("Article listing failed, stage marked failed", "error", err)
			return Result{Failed: 1}, nil
		}
		return Result{}, fmt.Errorf("failed to retrieve article list: %w", err)
	}

	var result Result
	newCount := 0

	for _, item := range items {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if item.URL == "" {
			slog.Warn("Skipping article without URL", "item_id", item.ItemID, "title", item.Title)
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
			slog.Error("Failed to upsert article", "item_id", item.ItemID, "url", item.URL, "error", err)
			result.Failed++
			continue
		}

		if created {
			newCount++
		}
		result.Succeeded++
	}

	// The cursor only advances once every retrieved record has been applied.
	// A store failure holds it back so the failed articles stay inside the
	// incremental window and are re-fetched next run. Structurally malformed
	// records are counted as skipped and do not hold the cursor; re-fetching
	// cannot repair them.
	if cursor != "" && result.Failed == 0 {
		if err := t.articleRepo.SetSyncCursor(cursor); err != nil {
			return result, fmt.Errorf("failed to store sync cursor: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"total", len(items),
		"new", newCount,
		"updated", result.Succeeded-newCount,
		"skipped", result.Skipped,
		"errors", result.Failed)

	return result, nil
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pocketag/app/database"
	"pocketag/app/generator"
)

// GenerateTask produces a summary and tag set for every article that has
// content but no summary yet. The summary, tags and associations for one
// article commit in a single transaction; if either generation call fails,
// nothing is written and the article stays selectable.
type GenerateTask struct {
	Task
	generator   Generator
	articleRepo database.ArticleRepository
	tagRepo     database.TagRepository
}

func NewGenerateTask(gen Generator, articleRepo database.ArticleRepository, tagRepo database.TagRepository) *GenerateTask {
	return &GenerateTask{
		Task:        NewTask(TaskTypeGenerate),
		generator:   gen,
		articleRepo: articleRepo,
		tagRepo:     tagRepo,
	}
}

func (t *GenerateTask) Execute(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	articles, err := t.articleRepo.GetArticlesForGeneration()
	if err != nil {
		return Result{}, fmt.Errorf("failed to select articles for generation: %w", err)
	}

	var result Result

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		summary, err := t.generator.Summarize(ctx, article.Content)
		if err != nil {
			if failed := t.recordGenerationFailure(ctx, article.ID, err); failed != nil {
				return result, failed
			}
			result.Failed++
			continue
		}

		tags, err := t.generator.GenerateTags(ctx, article.Content)
		if err != nil {
			if failed := t.recordGenerationFailure(ctx, article.ID, err); failed != nil {
				return result, failed
			}
			result.Failed++
			continue
		}

		err = t.tagRepo.SaveGenerationResult(article.ID, summary, tags)
		if err != nil {
			if errors.Is(err, database.ErrIntegrity) {
				slog.Error("Failed to save generation result", "article_id", article.ID, "error", err)
				result.Failed++
				continue
			}
			return result, fmt.Errorf("failed to save generation result: %w", err)
		}

		slog.Debug("Article processed", "article_id", article.ID, "tags", len(tags))
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

// recordGenerationFailure logs a per-article generation failure and returns
// a non-nil error only for failures that must abort the whole run.
func (t *GenerateTask) recordGenerationFailure(ctx context.Context, articleID int64, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var genErr *generator.GenerationError
	if errors.As(err, &genErr) {
		slog.Warn("Generation failed for article", "article_id", articleID, "op", genErr.Op, "error", err)
		return nil
	}
	return fmt.Errorf("generation failed: %w", err)
}

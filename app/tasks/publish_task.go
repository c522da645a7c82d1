package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pocketag/app/database"
	"pocketag/app/pocket"
)

// PublishTask pushes locally generated tags back to the read-it-later
// service. An article is marked synced only after the upstream item has
// been read back and every local tag confirmed present; a failed
// verification leaves the article unsynced so the next run retries it.
type PublishTask struct {
	Task
	publisher   TagPublisher
	articleRepo database.ArticleRepository
	tagRepo     database.TagRepository
}

func NewPublishTask(publisher TagPublisher, articleRepo database.ArticleRepository, tagRepo database.TagRepository) *PublishTask {
	return &PublishTask{
		Task:        NewTask(TaskTypePublish),
		publisher:   publisher,
		articleRepo: articleRepo,
		tagRepo:     tagRepo,
	}
}

func (t *PublishTask) Execute(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	articles, err := t.articleRepo.GetArticlesForPublication()
	if err != nil {
		return Result{}, fmt.Errorf("failed to select articles for publication: %w", err)
	}

	var result Result

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		names, err := t.tagRepo.GetTagsForArticle(article.ID)
		if err != nil {
			return result, fmt.Errorf("failed to load tags for article %d: %w", article.ID, err)
		}
		if len(names) == 0 {
			slog.Warn("Article selected without tags, skipping", "article_id", article.ID)
			result.Skipped++
			continue
		}

		if err := t.publisher.AddTags(ctx, article.PocketID, names); err != nil {
			if errors.Is(err, pocket.ErrAuth) {
				return result, fmt.Errorf("authentication failed while publishing tags: %w", err)
			}
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			slog.Warn("Failed to publish tags", "article_id", article.ID, "pocket_id", article.PocketID, "error", err)
			result.Failed++
			continue
		}

		remote, err := t.publisher.GetItemTags(ctx, article.PocketID)
		if err != nil {
			if errors.Is(err, pocket.ErrAuth) {
				return result, fmt.Errorf("authentication failed while verifying tags: %w", err)
			}
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			slog.Warn("Failed to read back tags for verification", "article_id", article.ID, "pocket_id", article.PocketID, "error", err)
			result.Failed++
			continue
		}

		if missing := missingTags(names, remote); len(missing) > 0 {
			slog.Warn("Tag verification failed, article left unsynced",
				"article_id", article.ID,
				"pocket_id", article.PocketID,
				"missing", strings.Join(missing, ","))
			result.Failed++
			continue
		}

		if err := t.articleRepo.MarkSynced(article.ID); err != nil {
			return result, fmt.Errorf("failed to mark article %d synced: %w", article.ID, err)
		}

		slog.Debug("Article synced", "article_id", article.ID, "pocket_id", article.PocketID, "tags", len(names))
		result.Succeeded++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"selected", len(articles),
		"success", result.Succeeded,
		"skipped", result.Skipped,
		"errors", result.Failed)

	return result, nil
}

// missingTags returns the local tags not present upstream. Comparison is
// case-insensitive since the service folds tag case on write.
func missingTags(local, remote []string) []string {
	var missing []string
	for _, want := range local {
		found := false
		for _, have := range remote {
			if strings.EqualFold(want, have) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	return missing
}

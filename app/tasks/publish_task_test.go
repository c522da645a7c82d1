package tasks

import (
	"context"
	"errors"
	"testing"

	"pocketag/app/database"
	"pocketag/app/pocket"
	"pocketag/app/scraper"
)

// preparePublishable runs an article through ingest, enrich and generate so
// the publication selector picks it up.
func preparePublishable(t *testing.T, articleRepo database.ArticleRepository, tagRepo database.TagRepository, itemID, url string, tags []string) {
	t.Helper()
	ctx := context.Background()

	source := &fakeSource{items: []pocket.Item{{ItemID: itemID, URL: url, Title: "T " + itemID}}}
	if _, err := NewIngestTask(source, articleRepo, 30, false).Execute(ctx); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	fetcher := &fakeFetcher{results: map[string]*scraper.Result{
		url: {Content: "text for " + itemID, WordCount: 3, TotalPages: 1, RenderedPages: 1},
	}}
	if _, err := NewEnrichTask(fetcher, articleRepo).Execute(ctx); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	gen := &fakeGenerator{summary: "Summary for " + itemID, tags: tags}
	if _, err := NewGenerateTask(gen, articleRepo, tagRepo).Execute(ctx); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestPublishVerificationFailureLeavesArticleUnsynced(t *testing.T) {
	articleRepo, tagRepo := newTestRepos(t)

	preparePublishable(t, articleRepo, tagRepo, "81", "https://example.com/k", []string{"science", "space"})

	publisher := newFakePublisher()
	// Upstream drops one of the tags, so the read-back must not confirm.
	publisher.remoteTags["81"] = []string{"science"}

	result, err := NewPublishTask(publisher, articleRepo, tagRepo).Execute(context.Background())
	if err != nil {
		t.Fatalf("Publish returned fatal error: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failed article, got %d", result.Failed)
	}
	if result.Succeeded != 0 {
		t.Errorf("Expected no successes, got %d", result.Succeeded)
	}

	article, err := articleRepo.GetArticleByPocketID("81")
	if err != nil {
		t.Fatalf("Failed to load article: %v", err)
	}
	if article.SyncedAt != nil {
		t.Error("Expected article to stay unsynced after failed verification")
	}

	forPub, err := articleRepo.GetArticlesForPublication()
	if err != nil {
		t.Fatalf("Failed to select articles for publication: %v", err)
	}
	if len(forPub) != 1 {
		t.Errorf("Expected the article to stay selectable, got %d articles", len(forPub))
	}
}

func TestPublishVerificationIsCaseInsensitive(t *testing.T) {
	articleRepo, tagRepo := newTestRepos(t)

	preparePublishable(t, articleRepo, tagRepo, "82", "https://example.com/l", []string{"golang"})

	publisher := newFakePublisher()
	publisher.remoteTags["82"] = []string{"GoLang"}

	result, err := NewPublishTask(publisher, articleRepo, tagRepo).Execute(context.Background())
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if result.Succeeded != 1 {
		t.Errorf("Expected case-folded match to verify, got %+v", result)
	}
}

func TestPublishAuthErrorIsFatal(t *testing.T) {
	articleRepo, tagRepo := newTestRepos(t)

	preparePublishable(t, articleRepo, tagRepo, "83", "https://example.com/m", []string{"news"})

	publisher := newFakePublisher()
	publisher.addErr = pocket.ErrAuth

	_, err := NewPublishTask(publisher, articleRepo, tagRepo).Execute(context.Background())
	if err == nil {
		t.Fatal("Expected fatal error on auth failure")
	}
	if !errors.Is(err, pocket.ErrAuth) {
		t.Errorf("Expected wrapped auth error, got %v", err)
	}
}

func TestPublishUpdateErrorIsIsolated(t *testing.T) {
	articleRepo, tagRepo := newTestRepos(t)

	preparePublishable(t, articleRepo, tagRepo, "84", "https://example.com/n", []string{"history"})

	publisher := newFakePublisher()
	publisher.addErr = &pocket.UpdateError{ItemID: "84", Err: errors.New("server error")}

	result, err := NewPublishTask(publisher, articleRepo, tagRepo).Execute(context.Background())
	if err != nil {
		t.Fatalf("Expected per-article failure to be non-fatal, got %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failed article, got %d", result.Failed)
	}

	article, err := articleRepo.GetArticleByPocketID("84")
	if err != nil {
		t.Fatalf("Failed to load article: %v", err)
	}
	if article.SyncedAt != nil {
		t.Error("Expected article to stay unsynced after publish failure")
	}
}

func TestMissingTags(t *testing.T) {
	missing := missingTags([]string{"ai", "news"}, []string{"AI", "image", "news"})
	if len(missing) != 0 {
		t.Errorf("Expected no missing tags, got %v", missing)
	}

	missing = missingTags([]string{"ai", "news"}, []string{"ai"})
	if len(missing) != 1 || missing[0] != "news" {
		t.Errorf("Expected [news] missing, got %v", missing)
	}
}

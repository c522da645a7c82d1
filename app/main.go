package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pocketag/app/cfg"
	"pocketag/app/database"
	"pocketag/app/generator"
	"pocketag/app/pocket"
	"pocketag/app/scraper"
	"pocketag/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if len(appCfg.Stages) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no stages given, expected one or more of: ingest, backfill, enrich, generate, publish, status, list, list-incomplete")
		os.Exit(1)
	}

	slog.Info("Starting pocketag", "version", appCfg.Version, "stages", appCfg.Stages)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Debug("Database ready", "schema_version", version, "dirty", dirty)

	articleRepo := database.NewArticleRepository(db)
	tagRepo := database.NewTagRepository(db)

	taskList, err := buildTasks(appCfg, articleRepo, tagRepo)
	if err != nil {
		slog.Error("Failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := tasks.NewRunner(taskList)
	result, err := runner.Run(ctx)
	if err != nil {
		slog.Error("Pipeline aborted", "error", err)
		os.Exit(1)
	}

	for _, stage := range appCfg.Stages {
		var reportErr error
		switch stage {
		case "status":
			reportErr = printStatus(articleRepo)
		case "list":
			reportErr = printArticleList(articleRepo.GetArticles())
		case "list-incomplete":
			reportErr = printArticleList(articleRepo.GetArticlesMissingContent())
		}
		if reportErr != nil {
			slog.Error("Failed to collect report", "stage", stage, "error", reportErr)
			os.Exit(1)
		}
	}

	slog.Info("Pipeline completed",
		"success", result.Succeeded,
		"skipped", result.Skipped,
		"errors", result.Failed)

	if result.Failed > 0 {
		os.Exit(1)
	}
}

// buildTasks maps the requested stage names onto task instances, in the
// order given on the command line. The status stage has no task; it is
// handled after the pipeline run.
func buildTasks(appCfg *cfg.Cfg, articleRepo database.ArticleRepository, tagRepo database.TagRepository) ([]tasks.TaskInterface, error) {
	timeout := time.Duration(appCfg.RequestTimeout) * time.Second

	var taskList []tasks.TaskInterface

	for _, stage := range appCfg.Stages {
		switch stage {
		case "ingest":
			if appCfg.PocketConsumerKey == "" || appCfg.PocketAccessToken == "" {
				return nil, fmt.Errorf("ingest stage requires POCKET_CONSUMER_KEY and POCKET_ACCESS_TOKEN")
			}
			source := pocket.NewClient(appCfg.PocketConsumerKey, appCfg.PocketAccessToken, appCfg.UserAgent, timeout)
			taskList = append(taskList, tasks.NewIngestTask(source, articleRepo, appCfg.BatchSize, appCfg.FullIngest))
		case "backfill":
			if appCfg.PocketConsumerKey == "" || appCfg.PocketAccessToken == "" {
				return nil, fmt.Errorf("backfill stage requires POCKET_CONSUMER_KEY and POCKET_ACCESS_TOKEN")
			}
			source := pocket.NewClient(appCfg.PocketConsumerKey, appCfg.PocketAccessToken, appCfg.UserAgent, timeout)
			taskList = append(taskList, tasks.NewBackfillTask(source, articleRepo, appCfg.BatchSize))
		case "enrich":
			fetcher := scraper.New(appCfg.UserAgent, timeout, time.Duration(appCfg.ScrapeDelay)*time.Second)
			taskList = append(taskList, tasks.NewEnrichTask(fetcher, articleRepo))
		case "generate":
			prompts, err := generator.LoadPrompts(appCfg.PromptsFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load prompts: %w", err)
			}
			gen, err := generator.NewClient(appCfg.OpenAIAPIKey, appCfg.OpenAIModel, prompts, appCfg.SummaryWords, appCfg.MaxContentChars)
			if err != nil {
				return nil, err
			}
			taskList = append(taskList, tasks.NewGenerateTask(gen, articleRepo, tagRepo))
		case "publish":
			if appCfg.PocketConsumerKey == "" || appCfg.PocketAccessToken == "" {
				return nil, fmt.Errorf("publish stage requires POCKET_CONSUMER_KEY and POCKET_ACCESS_TOKEN")
			}
			publisher := pocket.NewClient(appCfg.PocketConsumerKey, appCfg.PocketAccessToken, appCfg.UserAgent, timeout)
			taskList = append(taskList, tasks.NewPublishTask(publisher, articleRepo, tagRepo))
		case "status", "list", "list-incomplete":
			// Handled after the run
		default:
			return nil, fmt.Errorf("unknown stage %q", stage)
		}
	}

	return taskList, nil
}

func printStatus(articleRepo database.ArticleRepository) error {
	stats, err := articleRepo.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("Articles:       %d\n", stats.Total)
	fmt.Printf("  with content: %d\n", stats.WithContent)
	fmt.Printf("  summarized:   %d\n", stats.WithSummary)
	fmt.Printf("  synced:       %d\n", stats.Synced)
	fmt.Printf("Distinct tags:  %d\n", stats.Tags)

	return nil
}

func printArticleList(articles []database.Article, err error) error {
	if err != nil {
		return err
	}

	for _, article := range articles {
		title := article.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%6d  %-12s  %s\n        %s\n", article.ID, article.PocketID, title, article.URL)
	}
	fmt.Printf("%d articles\n", len(articles))

	return nil
}

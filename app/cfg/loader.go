package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Pocket API credentials
	PocketConsumerKey string `long:"pocket-consumer-key" env:"POCKET_CONSUMER_KEY" description:"Pocket API consumer key"`
	PocketAccessToken string `long:"pocket-access-token" env:"POCKET_ACCESS_TOKEN" description:"Pocket API access token"`

	// OpenAI configuration
	OpenAIAPIKey    string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key"`
	OpenAIModel     string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"OpenAI model used for summaries and tags"`
	PromptsFile     string `long:"prompts-file" env:"PROMPTS_FILE" description:"Optional YAML file overriding the generation prompts"`
	SummaryWords    int    `long:"summary-words" env:"SUMMARY_WORDS" default:"100" description:"Target summary length in words"`
	MaxContentChars int    `long:"max-content-chars" env:"MAX_CONTENT_CHARS" default:"24000" description:"Maximum article characters sent to the generation model"`

	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/articles.db" description:"Path to the SQLite database file"`

	// Pipeline configuration
	BatchSize      int  `long:"batch-size" env:"BATCH_SIZE" default:"30" description:"Articles fetched per Pocket API page"`
	FullIngest     bool `long:"full" env:"FULL_INGEST" description:"Ignore the stored sync cursor and ingest the whole Pocket list"`
	RequestTimeout int  `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"HTTP request timeout in seconds"`
	ScrapeDelay    int  `long:"scrape-delay" env:"SCRAPE_DELAY" default:"3" description:"Minimum delay between scrape requests in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"pocketag/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		Stages []string `positional-arg-name:"stage" description:"Pipeline stages to run, in order: ingest, backfill, enrich, generate, publish, status, list, list-incomplete"`
	} `positional-args:"yes"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.Usage = "[OPTIONS] stage [stage...]"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		PocketConsumerKey: raw.PocketConsumerKey,
		PocketAccessToken: raw.PocketAccessToken,
		OpenAIAPIKey:      raw.OpenAIAPIKey,
		OpenAIModel:       raw.OpenAIModel,
		PromptsFile:       raw.PromptsFile,
		SummaryWords:      raw.SummaryWords,
		MaxContentChars:   raw.MaxContentChars,
		DBPath:            raw.DBPath,
		BatchSize:         raw.BatchSize,
		FullIngest:        raw.FullIngest,
		RequestTimeout:    raw.RequestTimeout,
		ScrapeDelay:       raw.ScrapeDelay,
		UserAgent:         raw.UserAgent,
		Debug:             raw.Debug,
		Version:           GetVersion(),
		Stages:            raw.Args.Stages,
	}

	return cfg, nil
}

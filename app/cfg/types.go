package cfg

type Cfg struct {
	// Pocket API credentials
	PocketConsumerKey string
	PocketAccessToken string

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string
	PromptsFile  string
	SummaryWords int
	MaxContentChars int

	// Database configuration
	DBPath string

	// Pipeline configuration
	BatchSize    int
	FullIngest   bool
	RequestTimeout int
	ScrapeDelay  int

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string

	// Stages requested on the command line
	Stages []string
}

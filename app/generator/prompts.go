package generator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts holds the chat prompts used for summary and tag generation. The
// user prompts are Sprintf templates: summary_user receives the word target
// and the article text, tags_user receives the article text.
type Prompts struct {
	SummarySystem string `yaml:"summary_system"`
	SummaryUser   string `yaml:"summary_user"`
	TagsSystem    string `yaml:"tags_system"`
	TagsUser      string `yaml:"tags_user"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		SummarySystem: "You are a helpful assistant that summarizes articles concisely and accurately.",
		SummaryUser:   "Summarize the following content in at most %d words. Prioritize key points and maintain clarity:\n\n%s",
		TagsSystem:    "You are a helpful assistant that generates relevant and concise tags for articles.",
		TagsUser:      "Generate a comma-separated list of relevant tags based on the key topics and themes in the following content:\n\n%s\n\nTags:",
	}
}

// LoadPrompts reads prompt overrides from a YAML file. Fields left empty in
// the file keep their defaults. An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prompts, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var overrides Prompts
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return prompts, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	if overrides.SummarySystem != "" {
		prompts.SummarySystem = overrides.SummarySystem
	}
	if overrides.SummaryUser != "" {
		prompts.SummaryUser = overrides.SummaryUser
	}
	if overrides.TagsSystem != "" {
		prompts.TagsSystem = overrides.TagsSystem
	}
	if overrides.TagsUser != "" {
		prompts.TagsUser = overrides.TagsUser
	}

	return prompts, nil
}

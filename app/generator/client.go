package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Client generates article summaries and tag sets via the OpenAI chat
// completion API.
type Client struct {
	client          *openai.Client
	model           string
	prompts         Prompts
	summaryWords    int
	maxContentChars int
}

// NewClient creates a generation client for the given model.
func NewClient(apiKey, model string, prompts Prompts, summaryWords, maxContentChars int) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if summaryWords <= 0 {
		summaryWords = 100
	}
	if maxContentChars <= 0 {
		maxContentChars = 24000
	}

	return &Client{
		client:          openai.NewClient(apiKey),
		model:           model,
		prompts:         prompts,
		summaryWords:    summaryWords,
		maxContentChars: maxContentChars,
	}, nil
}

// Summarize generates a summary of the article content at the configured
// word target.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	user := fmt.Sprintf(c.prompts.SummaryUser, c.summaryWords, c.truncate(content))

	summary, err := c.chat(ctx, c.prompts.SummarySystem, user)
	if err != nil {
		return "", &GenerationError{Op: "summary", Err: err}
	}
	if summary == "" {
		return "", &GenerationError{Op: "summary", Err: fmt.Errorf("model returned empty summary")}
	}

	return summary, nil
}

// GenerateTags extracts a normalized, deduplicated tag set from the article
// content.
func (c *Client) GenerateTags(ctx context.Context, content string) ([]string, error) {
	user := fmt.Sprintf(c.prompts.TagsUser, c.truncate(content))

	raw, err := c.chat(ctx, c.prompts.TagsSystem, user)
	if err != nil {
		return nil, &GenerationError{Op: "tags", Err: err}
	}

	tags := NormalizeTags(strings.Split(raw, ","))
	if len(tags) == 0 {
		return nil, &GenerationError{Op: "tags", Err: fmt.Errorf("model returned no usable tags")}
	}

	slog.Debug("Tags generated", "count", len(tags))
	return tags, nil
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// truncate caps the article text sent to the model so oversized articles do
// not blow the context window.
func (c *Client) truncate(content string) string {
	if len(content) <= c.maxContentChars {
		return content
	}
	return content[:c.maxContentChars]
}

// Package summarize turns article text into a short Korean summary and a
// category using Claude.
package summarize

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jdholdren/touchline/internal/touchline"
)

//go:embed system_prompt.txt
var systemTemplate string

//go:embed user_prompt.txt
var userTemplate string

const (
	DefaultModel = "claude-sonnet-4-5-20250929"

	// Anything shorter isn't worth a call.
	minContentLength = 20
	// Longer content is cut down to keep the prompt small.
	maxContentLength = 3000
	maxTokens        = 300
)

var (
	systemPrompt = fmt.Sprintf(systemTemplate, joinCategories())
	fences       = regexp.MustCompile("```(?:json)?\\s*")
)

// Summarizer asks Claude for a summary and category, one article at a time.
type Summarizer struct {
	client *anthropic.Client
	model  string
}

func New(client *anthropic.Client, model string) *Summarizer {
	if model == "" {
		model = DefaultModel
	}
	return &Summarizer{
		client: client,
		model:  model,
	}
}

// Summarize makes a single call to Claude for the given article.
//
// Every failure is a [*touchline.Failure]. Nothing is retried: a failed
// article is left for the caller to record.
func (s *Summarizer) Summarize(ctx context.Context, title, content string) (touchline.SummaryResult, error) {
	if utf8.RuneCountInString(content) < minContentLength {
		return touchline.SummaryResult{}, touchline.Fail(touchline.ReasonThinContent, errors.New("content too short to summarize"))
	}

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{{
			Text: systemPrompt,
		}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(title, content))),
		},
	}, option.WithMaxRetries(0)) // One attempt, whatever the client was built with
	// Handle Anthropic rate limit errors
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) {
		if claudeErr.StatusCode == http.StatusTooManyRequests {
			return touchline.SummaryResult{}, touchline.Fail(touchline.ReasonRateLimited, err)
		}
		return touchline.SummaryResult{}, touchline.Fail(touchline.ReasonService, err)
	}
	if err != nil {
		return touchline.SummaryResult{}, touchline.Fail(touchline.ReasonTransport, err)
	}

	// Only a leading text block counts
	var text string
	if len(resp.Content) > 0 && resp.Content[0].Type == "text" {
		text = resp.Content[0].Text
	}

	res, err := parse(text)
	if err != nil {
		slog.WarnContext(ctx, "unusable claude response", "error", err, "response", text)
		return touchline.SummaryResult{}, err
	}

	return res, nil
}

func userPrompt(title, content string) string {
	if utf8.RuneCountInString(content) > maxContentLength {
		content = string([]rune(content)[:maxContentLength]) + "..."
	}
	return fmt.Sprintf(userTemplate, title, content)
}

type claudeSummary struct {
	Summary  json.RawMessage `json:"summary"`
	Category json.RawMessage `json:"category"`
}

// Validates the model's reply, coercing anything off-list to the fallback category.
func parse(raw string) (touchline.SummaryResult, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(fences.ReplaceAllString(raw, ""), "```", ""))

	var cs claudeSummary
	if err := json.Unmarshal([]byte(cleaned), &cs); err != nil {
		return touchline.SummaryResult{}, touchline.Fail(touchline.ReasonParse, fmt.Errorf("error unmarshaling claude json: %s", err))
	}

	var summary string
	if err := json.Unmarshal(cs.Summary, &summary); err != nil || strings.TrimSpace(summary) == "" {
		return touchline.SummaryResult{}, touchline.Fail(touchline.ReasonValidation, errors.New("response has no summary"))
	}

	var category string
	if err := json.Unmarshal(cs.Category, &category); err != nil {
		category = ""
	}

	return touchline.SummaryResult{
		Summary:  strings.TrimSpace(summary),
		Category: touchline.NormalizeCategory(category),
	}, nil
}

func joinCategories() string {
	names := make([]string, len(touchline.Categories))
	for i, c := range touchline.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// Package pipeline runs one pass of ingestion: collect the feeds, store what's
// new, then extract and summarize the oldest pending articles one at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jdholdren/touchline/internal/extract"
	"github.com/jdholdren/touchline/internal/logger"
	"github.com/jdholdren/touchline/internal/touchline"
)

const DefaultBatchSize = 20

type (
	Collector interface {
		Collect(ctx context.Context, sources []touchline.FeedSource) []touchline.CollectedItem
	}

	Extractor interface {
		Content(ctx context.Context, link, description string) extract.Content
	}

	Summarizer interface {
		Summarize(ctx context.Context, title, content string) (touchline.SummaryResult, error)
	}

	// Gate is waited on between articles.
	Gate interface {
		Wait(ctx context.Context) error
	}

	Store interface {
		BulkInsertPending(ctx context.Context, items []touchline.CollectedItem) (int, error)
		FindPending(ctx context.Context, limit int) ([]touchline.Article, error)
		UpdateContent(ctx context.Context, id int64, content string) error
		UpdateSummaryAndMarkSummarized(ctx context.Context, id int64, result touchline.SummaryResult) error
		MarkFailed(ctx context.Context, id int64, reason touchline.Reason) error
		Stats(ctx context.Context) (touchline.Stats, error)
	}
)

// Deps are the collaborators of a run.
type Deps struct {
	Collector  Collector
	Store      Store
	Extractor  Extractor
	Summarizer Summarizer
	Gate       Gate
}

type Config struct {
	Sources   []touchline.FeedSource
	BatchSize int
}

// Report is the outcome of a single run.
type Report struct {
	RunID     string          `json:"run_id"`
	Collected int             `json:"collected"`
	Inserted  int             `json:"inserted"`
	Selected  int             `json:"selected"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Duration  time.Duration   `json:"duration"`
	Stats     touchline.Stats `json:"stats"`
}

type Pipeline struct {
	Deps
	cfg Config
}

func New(deps Deps, cfg Config) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	return &Pipeline{
		Deps: deps,
		cfg:  cfg,
	}
}

// Run does a single pass: Collect, Persist, Enrich, then Report.
//
// Only failing to store the collected items, find pending work, or read the
// final stats ends a run early. A single article failing never does.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{RunID: uuid.NewString()}
	ctx = logger.Ctx(ctx, slog.String("run_id", rep.RunID))

	slog.InfoContext(ctx, "starting pipeline", "sources", len(p.cfg.Sources), "batch_size", p.cfg.BatchSize)

	// Collect
	items := p.Collector.Collect(ctx, p.cfg.Sources)
	rep.Collected = len(items)

	// Persist
	inserted, err := p.Store.BulkInsertPending(ctx, items)
	if err != nil {
		return rep, fmt.Errorf("error inserting collected items: %w", err)
	}
	rep.Inserted = inserted
	slog.InfoContext(ctx, "stored collected items", "collected", rep.Collected, "inserted", rep.Inserted)

	// Enrich
	pending, err := p.Store.FindPending(ctx, p.cfg.BatchSize)
	if err != nil {
		return rep, fmt.Errorf("error finding pending articles: %w", err)
	}
	rep.Selected = len(pending)
	slog.InfoContext(ctx, "enriching pending articles", "count", rep.Selected)

	for i, article := range pending {
		if i > 0 {
			if err := p.Gate.Wait(ctx); err != nil {
				return rep, fmt.Errorf("error waiting between articles: %w", err)
			}
		}

		actx := logger.Ctx(ctx, slog.Int64("article_id", article.ID))
		if err := p.enrich(actx, article); err != nil {
			p.fail(actx, article, err)
			rep.Failed++
			continue
		}
		rep.Succeeded++
	}

	// Report
	stats, err := p.Store.Stats(ctx)
	if err != nil {
		return rep, fmt.Errorf("error fetching stats: %w", err)
	}
	rep.Stats = stats
	rep.Duration = time.Since(start)

	slog.InfoContext(ctx, "pipeline finished",
		"succeeded", rep.Succeeded,
		"failed", rep.Failed,
		"total", stats.Total,
		"summarized", stats.Summarized,
		"pending", stats.Pending,
		"failed_total", stats.Failed,
		"duration", rep.Duration,
	)

	return rep, nil
}

// Extracts and summarizes a single article, saving each result as it comes.
func (p *Pipeline) enrich(ctx context.Context, article touchline.Article) error {
	content := p.Extractor.Content(ctx, article.Link, article.Description)
	slog.DebugContext(ctx, "got content", "origin", content.Origin, "length", len(content.Text))

	if content.Text == "" {
		reason := content.Reason
		if reason == "" {
			reason = touchline.ReasonThinContent
		}
		return touchline.Fail(reason, errors.New("no content to summarize"))
	}

	if err := p.Store.UpdateContent(ctx, article.ID, content.Text); err != nil {
		return fmt.Errorf("error saving content: %w", err)
	}

	res, err := p.Summarizer.Summarize(ctx, article.Title, content.Text)
	if err != nil {
		return err
	}

	if err := p.Store.UpdateSummaryAndMarkSummarized(ctx, article.ID, res); err != nil {
		return fmt.Errorf("error saving summary: %w", err)
	}

	slog.InfoContext(ctx, "summarized article", "category", res.Category)
	return nil
}

// Records the failure, logging rather than returning so the batch carries on.
func (p *Pipeline) fail(ctx context.Context, article touchline.Article, err error) {
	reason := touchline.ReasonOf(err)
	slog.WarnContext(ctx, "article failed", "title", article.Title, "reason", reason, "error", err)

	if err := p.Store.MarkFailed(ctx, article.ID, reason); err != nil {
		slog.ErrorContext(ctx, "error marking article failed", "error", err)
	}
}

// Package touchline holds the domain types shared by the ingestion pipeline
// and the query API: feed sources, collected items, stored articles and the
// enrichment status machine.
package touchline

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("resource not found")

const (
	// UserAgent identifies every outbound fetch.
	UserAgent = "football-news-bot/0.1"
	// DefaultFetchTimeout bounds a single feed or page fetch.
	DefaultFetchTimeout = 10 * time.Second
)

// Status is where an article sits in its enrichment lifecycle.
//
// Articles start as pending and move exactly once to either summarized or failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSummarized Status = "summarized"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSummarized, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusSummarized || s == StatusFailed
}

type (
	// FeedSource is a syndication feed the collector pulls from.
	FeedSource struct {
		Name     string
		URL      string
		Language string
	}

	// CollectedItem is a normalized feed entry, waiting to be stored.
	CollectedItem struct {
		GUID        string
		Source      string
		Title       string
		Link        string
		PubDate     *time.Time
		Description string
	}

	// Article is a stored feed entry along with its enrichment results.
	Article struct {
		ID            int64      `db:"id"`
		GUID          string     `db:"guid"`
		Source        string     `db:"source"`
		Title         string     `db:"title"`
		Link          string     `db:"link"`
		PubDate       *time.Time `db:"pub_date"`
		Description   string     `db:"description"`
		RawContent    *string    `db:"raw_content"`
		Summary       *string    `db:"summary"`
		Category      *Category  `db:"category"`
		Status        Status     `db:"status"`
		FailureReason *Reason    `db:"failure_reason"`
		CreatedAt     time.Time  `db:"created_at"`
		UpdatedAt     time.Time  `db:"updated_at"`
	}

	// SummaryResult is a validated enrichment response.
	SummaryResult struct {
		Summary  string
		Category Category
	}

	// Stats are aggregate counts over every stored article.
	Stats struct {
		Total      int `db:"total" json:"total"`
		Pending    int `db:"pending" json:"pending"`
		Summarized int `db:"summarized" json:"summarized"`
		Failed     int `db:"failed" json:"failed"`
	}

	// ArticleFilter holds the optional filters for listing articles.
	ArticleFilter struct {
		Category Category
		Status   Status
		Limit    uint64
		Offset   uint64
	}
)

// ArticleRepo is the persistence surface for articles.
type ArticleRepo interface {
	Exists(ctx context.Context, guid string) (bool, error)
	BulkInsertPending(ctx context.Context, items []CollectedItem) (int, error)
	FindPending(ctx context.Context, limit int) ([]Article, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	UpdateSummaryAndMarkSummarized(ctx context.Context, id int64, result SummaryResult) error
	MarkFailed(ctx context.Context, id int64, reason Reason) error

	// Read paths for the query API
	Article(ctx context.Context, id int64) (Article, error)
	QueryArticles(ctx context.Context, filter ArticleFilter) ([]Article, error)
	Stats(ctx context.Context) (Stats, error)
}

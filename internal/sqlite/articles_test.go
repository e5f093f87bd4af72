package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/touchline/internal/touchline"
)

func newTestRepo(t *testing.T) Repo {
	t.Helper()

	dbx, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	return New(dbx)
}

func item(guid string) touchline.CollectedItem {
	return touchline.CollectedItem{
		GUID:        guid,
		Source:      "BBC Football",
		Title:       "Title for " + guid,
		Link:        "https://example.com/" + guid,
		Description: "Description for " + guid,
	}
}

func TestBulkInsertPending_Dedup(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	// Duplicates inside the same batch are skipped
	n, err := repo.BulkInsertPending(ctx, []touchline.CollectedItem{item("a"), item("b"), item("a")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// And so are ones already stored
	n, err = repo.BulkInsertPending(ctx, []touchline.CollectedItem{item("a")})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, touchline.Stats{Total: 2, Pending: 2}, stats)

	exists, err := repo.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "zzz")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBulkInsertPending_Empty(t *testing.T) {
	repo := newTestRepo(t)

	n, err := repo.BulkInsertPending(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkInsertPending_KeepsFields(t *testing.T) {
	var (
		ctx     = context.Background()
		repo    = newTestRepo(t)
		pubDate = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	)

	it := item("a")
	it.PubDate = &pubDate
	_, err := repo.BulkInsertPending(ctx, []touchline.CollectedItem{it, item("b")})
	require.NoError(t, err)

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	got := pending[0]
	assert.Equal(t, "a", got.GUID)
	assert.Equal(t, "BBC Football", got.Source)
	assert.Equal(t, "https://example.com/a", got.Link)
	assert.Equal(t, "Description for a", got.Description)
	assert.Equal(t, touchline.StatusPending, got.Status)
	require.NotNil(t, got.PubDate)
	assert.True(t, pubDate.Equal(*got.PubDate))
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.Category)
	assert.Nil(t, got.RawContent)

	assert.Nil(t, pending[1].PubDate)
}

func TestFindPending_OldestFirst(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
		base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	)

	// Inserted first, but stamped later
	repo.now = func() time.Time { return base.Add(time.Hour) }
	_, err := repo.BulkInsertPending(ctx, []touchline.CollectedItem{item("late")})
	require.NoError(t, err)

	repo.now = func() time.Time { return base }
	_, err = repo.BulkInsertPending(ctx, []touchline.CollectedItem{item("early-1"), item("early-2")})
	require.NoError(t, err)

	pending, err := repo.FindPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "early-1", pending[0].GUID)
	assert.Equal(t, "early-2", pending[1].GUID)

	pending, err = repo.FindPending(ctx, 20)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "late", pending[2].GUID)
}

func TestStatusTransitions_AreMonotone(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	_, err := repo.BulkInsertPending(ctx, []touchline.CollectedItem{item("a"), item("b")})
	require.NoError(t, err)
	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	var (
		summarized = pending[0]
		failed     = pending[1]
	)

	require.NoError(t, repo.UpdateContent(ctx, summarized.ID, "full body"))
	require.NoError(t, repo.UpdateSummaryAndMarkSummarized(ctx, summarized.ID, touchline.SummaryResult{
		Summary:  "요약입니다.",
		Category: touchline.CategoryTransfer,
	}))
	require.NoError(t, repo.MarkFailed(ctx, failed.ID, touchline.ReasonTimeout))

	// None of these should move a terminal article
	require.NoError(t, repo.MarkFailed(ctx, summarized.ID, touchline.ReasonService))
	require.NoError(t, repo.UpdateContent(ctx, summarized.ID, "other body"))
	require.NoError(t, repo.UpdateSummaryAndMarkSummarized(ctx, failed.ID, touchline.SummaryResult{
		Summary:  "다른 요약",
		Category: touchline.CategoryResult,
	}))

	got, err := repo.Article(ctx, summarized.ID)
	require.NoError(t, err)
	assert.Equal(t, touchline.StatusSummarized, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "요약입니다.", *got.Summary)
	require.NotNil(t, got.Category)
	assert.Equal(t, touchline.CategoryTransfer, *got.Category)
	require.NotNil(t, got.RawContent)
	assert.Equal(t, "full body", *got.RawContent)
	assert.Nil(t, got.FailureReason)

	got, err = repo.Article(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, touchline.StatusFailed, got.Status)
	assert.Nil(t, got.Summary)
	require.NotNil(t, got.FailureReason)
	assert.Equal(t, touchline.ReasonTimeout, *got.FailureReason)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, touchline.Stats{Total: 2, Summarized: 1, Failed: 1}, stats)
}

func TestUpdates_UnknownIDIsNoop(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	assert.NoError(t, repo.UpdateContent(ctx, 999, "body"))
	assert.NoError(t, repo.MarkFailed(ctx, 999, touchline.ReasonParse))
	assert.NoError(t, repo.UpdateSummaryAndMarkSummarized(ctx, 999, touchline.SummaryResult{Summary: "s", Category: touchline.CategoryOther}))

	_, err := repo.Article(ctx, 999)
	assert.ErrorIs(t, err, touchline.ErrNotFound)
}

func TestUpdateSummary_RejectsEmptySummary(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	_, err := repo.BulkInsertPending(ctx, []touchline.CollectedItem{item("a")})
	require.NoError(t, err)
	pending, err := repo.FindPending(ctx, 1)
	require.NoError(t, err)

	err = repo.UpdateSummaryAndMarkSummarized(ctx, pending[0].ID, touchline.SummaryResult{Category: touchline.CategoryOther})
	require.Error(t, err)

	got, err := repo.Article(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, touchline.StatusPending, got.Status)
}

func TestQueryArticles_Filters(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	_, err := repo.BulkInsertPending(ctx, []touchline.CollectedItem{item("a"), item("b"), item("c")})
	require.NoError(t, err)
	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	require.NoError(t, repo.UpdateSummaryAndMarkSummarized(ctx, pending[0].ID, touchline.SummaryResult{Summary: "one", Category: touchline.CategoryInjury}))
	require.NoError(t, repo.UpdateSummaryAndMarkSummarized(ctx, pending[1].ID, touchline.SummaryResult{Summary: "two", Category: touchline.CategoryResult}))

	got, err := repo.QueryArticles(ctx, touchline.ArticleFilter{Category: touchline.CategoryInjury, Limit: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].GUID)

	got, err = repo.QueryArticles(ctx, touchline.ArticleFilter{Status: touchline.StatusSummarized, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.QueryArticles(ctx, touchline.ArticleFilter{Status: touchline.StatusPending, Limit: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].GUID)

	// Pagination over everything
	got, err = repo.QueryArticles(ctx, touchline.ArticleFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	got, err = repo.QueryArticles(ctx, touchline.ArticleFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = repo.QueryArticles(ctx, touchline.ArticleFilter{Offset: 1})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

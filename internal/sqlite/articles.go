package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/touchline/internal/touchline"
)

func (r Repo) Exists(ctx context.Context, guid string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM articles WHERE guid = ?);`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, guid); err != nil {
		return false, fmt.Errorf("error checking article existence: %s", err)
	}

	return exists, nil
}

// BulkInsertPending stores the items as pending articles in a single transaction.
//
// Items whose guid is already stored, or repeated within the batch, are skipped.
// Returns the number of articles actually inserted.
func (r Repo) BulkInsertPending(ctx context.Context, items []touchline.CollectedItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO articles (guid, source, title, link, pub_date, description, status, created_at, updated_at)
	VALUES (:guid, :source, :title, :link, :pub_date, :description, :status, :created_at, :updated_at)
	ON CONFLICT(guid) DO NOTHING;`
	stmt, err := tx.PrepareNamedContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	var (
		now      = r.now()
		inserted = 0
	)
	for _, item := range items {
		res, err := stmt.ExecContext(ctx, touchline.Article{
			GUID:        item.GUID,
			Source:      item.Source,
			Title:       item.Title,
			Link:        item.Link,
			PubDate:     item.PubDate,
			Description: item.Description,
			Status:      touchline.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return 0, fmt.Errorf("error inserting article %q: %w", item.GUID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("error reading rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}

	return inserted, nil
}

// FindPending returns up to limit pending articles, oldest first.
func (r Repo) FindPending(ctx context.Context, limit int) ([]touchline.Article, error) {
	const q = `SELECT * FROM articles WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?;`

	articles := []touchline.Article{}
	if err := r.db.SelectContext(ctx, &articles, q, touchline.StatusPending, limit); err != nil {
		return nil, fmt.Errorf("error selecting pending articles: %s", err)
	}

	return articles, nil
}

// The mutations below only touch pending rows, which keeps summarized and
// failed articles frozen. An unknown id updates nothing and isn't an error.

func (r Repo) UpdateContent(ctx context.Context, id int64, content string) error {
	const q = `UPDATE articles SET raw_content = ?, updated_at = ? WHERE id = ? AND status = ?;`

	if _, err := r.db.ExecContext(ctx, q, content, r.now(), id, touchline.StatusPending); err != nil {
		return fmt.Errorf("error updating article content: %s", err)
	}

	return nil
}

func (r Repo) UpdateSummaryAndMarkSummarized(ctx context.Context, id int64, result touchline.SummaryResult) error {
	if result.Summary == "" {
		return errors.New("refusing to store an empty summary")
	}

	const q = `UPDATE articles
	SET summary = ?, category = ?, status = ?, failure_reason = NULL, updated_at = ?
	WHERE id = ? AND status = ?;`
	if _, err := r.db.ExecContext(ctx, q,
		result.Summary,
		touchline.NormalizeCategory(string(result.Category)),
		touchline.StatusSummarized,
		r.now(),
		id,
		touchline.StatusPending,
	); err != nil {
		return fmt.Errorf("error updating article summary: %s", err)
	}

	return nil
}

func (r Repo) MarkFailed(ctx context.Context, id int64, reason touchline.Reason) error {
	const q = `UPDATE articles SET status = ?, failure_reason = ?, updated_at = ? WHERE id = ? AND status = ?;`

	if _, err := r.db.ExecContext(ctx, q, touchline.StatusFailed, reason, r.now(), id, touchline.StatusPending); err != nil {
		return fmt.Errorf("error marking article failed: %s", err)
	}

	return nil
}

func (r Repo) Article(ctx context.Context, id int64) (touchline.Article, error) {
	const q = `SELECT * FROM articles WHERE id = ?;`

	var article touchline.Article
	err := r.db.GetContext(ctx, &article, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return touchline.Article{}, touchline.ErrNotFound
	}
	if err != nil {
		return touchline.Article{}, fmt.Errorf("error fetching article: %s", err)
	}

	return article, nil
}

// QueryArticles lists articles newest first, narrowed by the optional filters.
func (r Repo) QueryArticles(ctx context.Context, filter touchline.ArticleFilter) ([]touchline.Article, error) {
	q := sq.Select("*").From("articles").OrderBy("pub_date DESC", "created_at DESC", "id DESC")

	where := sq.Eq{}
	if filter.Category != "" {
		where["category"] = filter.Category
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	if len(where) > 0 {
		q = q.Where(where)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		// sqlite won't take an OFFSET without a LIMIT
		if filter.Limit == 0 {
			q = q.Limit(math.MaxInt64)
		}
		q = q.Offset(filter.Offset)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	articles := []touchline.Article{}
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("error selecting articles: %s", err)
	}

	return articles, nil
}

func (r Repo) Stats(ctx context.Context) (touchline.Stats, error) {
	const q = `
	SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
		COALESCE(SUM(CASE WHEN status = 'summarized' THEN 1 ELSE 0 END), 0) AS summarized,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed
	FROM
		articles;
	`

	var stats touchline.Stats
	if err := r.db.GetContext(ctx, &stats, q); err != nil {
		return touchline.Stats{}, fmt.Errorf("error fetching stats: %s", err)
	}

	return stats, nil
}

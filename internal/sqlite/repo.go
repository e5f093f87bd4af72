// Package sqlite is the sqlite-backed article store.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/touchline/internal/migrations"
	"github.com/jdholdren/touchline/internal/touchline"
)

// Ensure Repo implements the repository interface
var _ touchline.ArticleRepo = (*Repo)(nil)

type Repo struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) Repo {
	return Repo{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Open connects to the database file at path and brings its schema up to date.
//
// The caller owns the returned handle and must close it.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %s", err)
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_time_format=sqlite&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	dbx, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %s", err)
	}
	if err := dbx.PingContext(ctx); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error pinging database: %s", err)
	}

	// Migrate, always
	if err := migrations.Run(dbx); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error running migrations: %s", err)
	}

	return dbx, nil
}

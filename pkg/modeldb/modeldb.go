// Package modeldb reads metadata from a building energy model's SQLite
// indicators database.
package modeldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/raterudder/pvsizer/pkg/log"
)

// ErrDatabaseMissing is returned when the database file does not exist.
var ErrDatabaseMissing = errors.New("model database missing")

// open opens the database at path read-only.
func open(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseMissing, path)
		}
		return nil, fmt.Errorf("failed to stat model database: %w", err)
	}

	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open model database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping model database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// ModelName returns the name of the first model in the database. A database
// without a models table or without rows yields an empty name.
func ModelName(ctx context.Context, path string) (string, error) {
	db, err := open(ctx, path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var name sql.NullString
	err = db.QueryRowContext(ctx, "SELECT name FROM models LIMIT 1").Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.Ctx(ctx).WarnContext(ctx, "model database has no models", slog.String("path", path))
		return "", nil
	case err != nil && strings.Contains(err.Error(), "no such table"):
		log.Ctx(ctx).WarnContext(ctx, "model database has no models table", slog.String("path", path))
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to query model name: %w", err)
	}
	return name.String, nil
}

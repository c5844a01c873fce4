package triviacards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// CacheDB is a sqlite backed TextCache
type CacheDB struct {
	db *sql.DB
}

// OpenCacheDB opens a new database connection
func OpenCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &CacheDB{db: db}, nil
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	return c.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (c *CacheDB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS loaded_files (
			session_id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			content TEXT NOT NULL,
			loaded_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS loaded_files_loaded_at ON loaded_files (loaded_at)`,
	}

	for _, query := range queries {
		if _, err := c.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// Put stores or replaces the file for a session
func (c *CacheDB) Put(ctx context.Context, sessionID string, file LoadedFile) error {
	if file.LoadedAt.IsZero() {
		file.LoadedAt = time.Now()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO loaded_files (session_id, file_name, content, loaded_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET file_name = excluded.file_name, content = excluded.content, loaded_at = excluded.loaded_at`,
		sessionID, file.Name, file.Content, file.LoadedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store loaded file: %w", err)
	}
	return nil
}

// Get retrieves the file for a session
func (c *CacheDB) Get(ctx context.Context, sessionID string) (LoadedFile, error) {
	var file LoadedFile
	err := c.db.QueryRowContext(ctx,
		"SELECT file_name, content, loaded_at FROM loaded_files WHERE session_id = ?",
		sessionID,
	).Scan(&file.Name, &file.Content, &file.LoadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoadedFile{}, ErrCacheMiss
		}
		return LoadedFile{}, fmt.Errorf("failed to get loaded file: %w", err)
	}
	return file, nil
}

// Delete removes the file for a session
func (c *CacheDB) Delete(ctx context.Context, sessionID string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM loaded_files WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete loaded file: %w", err)
	}
	return nil
}

// Prune removes files loaded before olderThan
func (c *CacheDB) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM loaded_files WHERE loaded_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune loaded files: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned files: %w", err)
	}
	return int(n), nil
}

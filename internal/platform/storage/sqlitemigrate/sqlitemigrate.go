// Package sqlitemigrate applies embedded SQL migrations to a SQLite database.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const (
	migrationTable = "schema_migrations"
	upMarker       = "-- +migrate Up"
	downMarker     = "-- +migrate Down"
)

// ApplyMigrations executes the *.sql files under root in lexical order, each
// at most once. A migration and its bookkeeping row commit together.
func ApplyMigrations(ctx context.Context, sqlDB *sql.DB, migrationFS fs.FS, root string) error {
	if sqlDB == nil {
		return fmt.Errorf("sql db is required")
	}

	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		root = "."
	}

	files, err := migrationFiles(migrationFS, root)
	if err != nil {
		return err
	}

	if _, err := sqlDB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		key := file
		if root != "." {
			key = path.Join(root, file)
		}
		if err := applyOne(ctx, sqlDB, migrationFS, path.Join(root, file), key); err != nil {
			return fmt.Errorf("migration %s: %w", key, err)
		}
	}
	return nil
}

func migrationFiles(migrationFS fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

func applyOne(ctx context.Context, sqlDB *sql.DB, migrationFS fs.FS, filePath, key string) error {
	applied, err := isApplied(ctx, sqlDB, key)
	if err != nil {
		return fmt.Errorf("check applied: %w", err)
	}
	if applied {
		return nil
	}

	content, err := fs.ReadFile(migrationFS, filePath)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	upSQL := ExtractUpMigration(string(content))
	if strings.TrimSpace(upSQL) == "" {
		return nil
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upSQL); err != nil && !IsAlreadyExistsError(err) {
		_ = tx.Rollback()
		return fmt.Errorf("exec: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
		key,
		time.Now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ExtractUpMigration returns the SQL in the -- +migrate Up section, or the
// whole content when no markers are present.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, upMarker)
	if upIdx == -1 {
		return content
	}
	body := content[upIdx+len(upMarker):]
	if downIdx := strings.Index(body, downMarker); downIdx != -1 {
		body = body[:downIdx]
	}
	return body
}

// IsAlreadyExistsError reports whether this error indicates idempotent DDL success.
func IsAlreadyExistsError(err error) bool {
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}

func isApplied(ctx context.Context, sqlDB *sql.DB, name string) (bool, error) {
	var found int
	err := sqlDB.QueryRowContext(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

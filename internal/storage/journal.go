/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "labeldesigner/internal/log"
	"labeldesigner/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// JournalDirName stores per-workspace disposable data under the workspace root.
	JournalDirName  = ".lbd"
	JournalFileName = "journal.sqlite"

	// schemaVersion tracks the local SQLite schema for the journal.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// Journal is the workspace's embedded database of drafts and print jobs.
type Journal struct {
	db   *sql.DB
	path string
}

// JournalPath returns the full path to the workspace's journal database file.
func JournalPath(root string) string {
	return filepath.Join(root, JournalDirName, JournalFileName)
}

// OpenJournal ensures the journal exists at .lbd/journal.sqlite, opens it,
// enables WAL mode and brings the schema up to date.
func OpenJournal(root string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(
		slog.String("root", root),
	)
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, JournalDirName), 0o755); err != nil {
		l.Error("create .lbd dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .lbd dir: %w", err)
	}

	path := JournalPath(root)
	// Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureJournalSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure journal schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready", slog.String("path", path))
	return &Journal{db: db, path: path}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// DB exposes the underlying handle for maintenance tools.
func (j *Journal) DB() *sql.DB { return j.db }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureJournalSchema creates the v1 tables if they do not exist.
func ensureJournalSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Autosaved editor states, one row per autosave.
		`CREATE TABLE IF NOT EXISTS drafts (
			id       INTEGER PRIMARY KEY,
			session  TEXT NOT NULL,
			name     TEXT NOT NULL,
			ts       TEXT NOT NULL,
			state    BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_ts ON drafts(ts);`,

		// Print jobs sent from this workspace.
		`CREATE TABLE IF NOT EXISTS print_log (
			id        INTEGER PRIMARY KEY,
			job_id    TEXT,
			reference TEXT,
			template  TEXT NOT NULL,
			copies    INTEGER NOT NULL,
			mode      TEXT NOT NULL,
			status    TEXT NOT NULL,
			message   TEXT,
			ts        TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure journal schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Lookups by session and by printed reference
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_drafts_session ON drafts(session, ts);`,
				`CREATE INDEX IF NOT EXISTS idx_print_log_reference ON print_log(reference);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		default:
			// Unknown future step
		}
		cur = next
	}
	return nil
}

// RepairJournal checks the journal for corruption and recreates it if
// needed, keeping a timestamped copy of the damaged file. It reports whether
// the journal was recreated.
func RepairJournal(ctx context.Context, root string) (bool, error) {
	path := JournalPath(root)
	j, err := OpenJournal(root)
	if err == nil {
		needs := false
		var chk string
		if qerr := j.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); qerr != nil || !strings.Contains(strings.ToLower(chk), "ok") {
			needs = true
		}
		if !needs {
			if _, perr := j.db.ExecContext(ctx, `SELECT 1 FROM drafts LIMIT 1;`); perr != nil {
				needs = true
			}
		}
		_ = j.Close()
		if !needs {
			return false, nil
		}
	}
	backupJournalFile(path)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
	fresh, rerr := OpenJournal(root)
	if rerr != nil {
		return false, fmt.Errorf("recreate journal: %w (open err: %v)", rerr, err)
	}
	_ = fresh.Close()
	applog.WithComponent("storage").Warn("journal recreated", slog.String("path", path))
	return true, nil
}

// backupJournalFile copies the journal into a timestamped backup in .lbd/backups.
func backupJournalFile(path string) {
	bdir := filepath.Join(filepath.Dir(path), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	if data, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

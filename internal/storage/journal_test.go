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
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"labeldesigner/internal/domain"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestDraftsSaveLatestPrune(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	d, err := j.LatestDraft(ctx)
	if err != nil || d != nil {
		t.Fatalf("empty journal LatestDraft = %+v, %v", d, err)
	}
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		state := []byte(fmt.Sprintf(`{"n":%d}`, i))
		if err := j.SaveDraft(ctx, "s1", "Item Label", state, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("SaveDraft: %v", err)
		}
	}
	d, err = j.LatestDraft(ctx)
	if err != nil || d == nil {
		t.Fatalf("LatestDraft: %v", err)
	}
	if string(d.State) != `{"n":4}` || d.Session != "s1" || !d.TS.Equal(base.Add(4*time.Second)) {
		t.Fatalf("unexpected latest draft %+v", d)
	}

	n, err := j.PruneDrafts(ctx, 2)
	if err != nil || n != 3 {
		t.Fatalf("PruneDrafts = %d, %v", n, err)
	}
	list, err := j.ListDrafts(ctx, 10)
	if err != nil {
		t.Fatalf("ListDrafts: %v", err)
	}
	if len(list) != 2 || string(list[0].State) != `{"n":4}` || string(list[1].State) != `{"n":3}` {
		t.Fatalf("unexpected drafts after prune: %+v", list)
	}
}

func TestPrintLog(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	entries := []PrintEntry{
		{JobID: "job-1", Reference: "ITEM001", Template: "Item Label", Copies: 2, Mode: domain.PrintPDF, Status: "sent", TS: ts},
		{Template: "Item Label", Copies: 1, Mode: domain.PrintThermal, Status: "failed", Message: "printer offline", TS: ts.Add(time.Minute)},
	}
	for _, e := range entries {
		if err := j.LogPrint(ctx, e); err != nil {
			t.Fatalf("LogPrint: %v", err)
		}
	}
	got, err := j.PrintLog(ctx, 0)
	if err != nil {
		t.Fatalf("PrintLog: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Status != "failed" || got[0].Message != "printer offline" || got[0].Mode != domain.PrintThermal {
		t.Fatalf("newest entry mismatch: %+v", got[0])
	}
	if got[1].JobID != "job-1" || got[1].Copies != 2 || !got[1].TS.Equal(ts) {
		t.Fatalf("oldest entry mismatch: %+v", got[1])
	}
}

// TestMigrations_UpgradeV1ToV2 ensures that an older journal (schema=1) is migrated and the new indexes exist.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	root := t.TempDir()
	path := JournalPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mk .lbd: %v", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE IF NOT EXISTS drafts (id INTEGER PRIMARY KEY, session TEXT NOT NULL, name TEXT NOT NULL, ts TEXT NOT NULL, state BLOB NOT NULL);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	j, err := OpenJournal(root)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	defer j.Close()
	var schema int
	if err := j.DB().QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("expected schema %d after migration, got %d", schemaVersion, schema)
	}
	var cnt int
	if err := j.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name in ('idx_drafts_session','idx_print_log_reference')`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected migration indexes, got %d", cnt)
	}
}

func TestRepairJournal_OnCorruption(t *testing.T) {
	root := t.TempDir()
	j, err := OpenJournal(root)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	_ = j.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rebuilt, err := RepairJournal(ctx, root)
	if err != nil || rebuilt {
		t.Fatalf("healthy journal should not be rebuilt: %v %v", rebuilt, err)
	}

	path := JournalPath(root)
	for _, p := range []string{path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
	if err := os.WriteFile(path, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	rebuilt, err = RepairJournal(ctx, root)
	if err != nil {
		t.Fatalf("RepairJournal: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	entries, _ := os.ReadDir(filepath.Join(root, JournalDirName, "backups"))
	if len(entries) == 0 {
		t.Fatalf("expected backup of the damaged journal")
	}
	j, err = OpenJournal(root)
	if err != nil {
		t.Fatalf("reopen after repair: %v", err)
	}
	defer j.Close()
	if d, err := j.LatestDraft(ctx); err != nil || d != nil {
		t.Fatalf("fresh journal should be empty: %+v %v", d, err)
	}
}

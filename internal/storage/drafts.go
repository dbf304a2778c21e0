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
	"time"

	"labeldesigner/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertDraftSQL = `INSERT INTO drafts(session, name, ts, state) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestDraftSQL = `SELECT id, session, name, ts, state FROM drafts ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listDraftsSQL = `SELECT id, session, name, ts, state FROM drafts ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneDraftsSQL = `DELETE FROM drafts WHERE id NOT IN (
	SELECT id FROM drafts ORDER BY ts DESC, id DESC LIMIT ?
)`

// language=SQL
// dialect=SQLite
const insertPrintSQL = `INSERT INTO print_log(job_id, reference, template, copies, mode, status, message, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listPrintsSQL = `SELECT job_id, reference, template, copies, mode, status, message, ts FROM print_log ORDER BY ts DESC, id DESC LIMIT ?`

// tsLayout keeps a fixed width so timestamps sort lexicographically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Draft is one autosaved editor state.
type Draft struct {
	ID      int64
	Session string
	Name    string
	TS      time.Time
	State   []byte
}

// PrintEntry records one print job.
type PrintEntry struct {
	JobID     string
	Reference string
	Template  string
	Copies    int
	Mode      domain.PrintMode
	Status    string // "sent" or "failed"
	Message   string
	TS        time.Time
}

// SaveDraft stores an editor state blob.
func (j *Journal) SaveDraft(ctx context.Context, session, name string, state []byte, ts time.Time) error {
	_, err := j.db.ExecContext(ctx, insertDraftSQL, session, name, ts.UTC().Format(tsLayout), state)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// LatestDraft returns the most recent draft, or nil if there is none.
func (j *Journal) LatestDraft(ctx context.Context) (*Draft, error) {
	d, err := scanDraft(j.db.QueryRowContext(ctx, selectLatestDraftSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest draft: %w", err)
	}
	return d, nil
}

// ListDrafts returns up to limit most recent drafts.
func (j *Journal) ListDrafts(ctx context.Context, limit int) ([]Draft, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, listDraftsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()
	var out []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// PruneDrafts keeps only the keep most recent drafts.
func (j *Journal) PruneDrafts(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := j.db.ExecContext(ctx, pruneDraftsSQL, keep)
	if err != nil {
		return 0, fmt.Errorf("prune drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanDraft(s scanner) (*Draft, error) {
	var d Draft
	var ts string
	if err := s.Scan(&d.ID, &d.Session, &d.Name, &ts, &d.State); err != nil {
		return nil, err
	}
	// return the draft even if ts parse fails
	d.TS, _ = time.Parse(tsLayout, ts)
	return &d, nil
}

// LogPrint appends a print job to the log.
func (j *Journal) LogPrint(ctx context.Context, e PrintEntry) error {
	if e.TS.IsZero() {
		e.TS = time.Now()
	}
	_, err := j.db.ExecContext(ctx, insertPrintSQL, e.JobID, e.Reference, e.Template, e.Copies, string(e.Mode), e.Status, e.Message, e.TS.UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("log print: %w", err)
	}
	return nil
}

// PrintLog returns up to limit most recent print jobs.
func (j *Journal) PrintLog(ctx context.Context, limit int) ([]PrintEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, listPrintsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("print log: %w", err)
	}
	defer rows.Close()
	var out []PrintEntry
	for rows.Next() {
		var e PrintEntry
		var jobID, ref, msg sql.NullString
		var mode, ts string
		if err := rows.Scan(&jobID, &ref, &e.Template, &e.Copies, &mode, &e.Status, &msg, &ts); err != nil {
			return nil, err
		}
		e.JobID, e.Reference, e.Message = jobID.String, ref.String, msg.String
		e.Mode = domain.PrintMode(mode)
		e.TS, _ = time.Parse(tsLayout, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

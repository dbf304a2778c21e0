/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"bytes"
	"sync"
	"time"
)

// Snapshot is an immutable serialized scene state. Blob content is opaque to
// the history; size is estimated as len(Blob). Label names the mutation that
// produced it ("move", "resize", "paste", ...).
type Snapshot struct {
	Label string
	Blob  []byte
	TS    time.Time
}

// Config controls depth and memory caps and coalescing behavior.
type Config struct {
	// MaxEntries caps the number of retained snapshots; the oldest is evicted first.
	MaxEntries int
	// MaxBytes is a soft memory cap; older entries are pruned when exceeded.
	// Zero means unlimited.
	MaxBytes int
	// Coalesce merges a commit into the current entry when both carry the same
	// non-empty label and were taken within the interval (e.g. typing into a
	// property field). Zero disables coalescing.
	Coalesce time.Duration
}

// DefaultMaxEntries is the history depth used when Config.MaxEntries is unset.
const DefaultMaxEntries = 50

// History is a linear snapshot log with a cursor at the active entry.
// Undo and redo move the cursor; a commit truncates everything after it.
// It is safe for concurrent use.
type History struct {
	cfg     Config
	mu      sync.Mutex
	entries []Snapshot
	cursor  int
	// accounting
	totalBytes int
}

// New returns an empty history.
func New(cfg Config) *History {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &History{cfg: cfg, cursor: -1}
}

// Commit appends s after the cursor, discarding any redoable entries.
func (h *History) Commit(s Snapshot) {
	s.Blob = bytes.Clone(s.Blob)
	if s.TS.IsZero() {
		s.TS = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.truncateLocked()
	if h.coalescesLocked(s) {
		last := h.entries[h.cursor]
		h.totalBytes += len(s.Blob) - len(last.Blob)
		h.entries[h.cursor] = s
		h.enforceCapsLocked()
		return
	}
	h.entries = append(h.entries, s)
	h.cursor = len(h.entries) - 1
	h.totalBytes += len(s.Blob)
	h.enforceCapsLocked()
}

// Reset drops all entries and seeds the log with s as its base state.
func (h *History) Reset(s Snapshot) {
	h.mu.Lock()
	h.entries = nil
	h.cursor = -1
	h.totalBytes = 0
	h.mu.Unlock()
	s.Label = ""
	h.Commit(s)
}

// Undo moves the cursor back and returns the snapshot now active. It returns
// false when there is nothing to undo.
func (h *History) Undo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor <= 0 {
		return Snapshot{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo moves the cursor forward and returns the snapshot now active. It
// returns false when there is nothing to redo.
func (h *History) Redo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor >= len(h.entries)-1 {
		return Snapshot{}, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Jump moves the cursor to entry i, as a history panel would.
func (h *History) Jump(i int) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 || i >= len(h.entries) || i == h.cursor {
		return Snapshot{}, false
	}
	h.cursor = i
	return h.entries[i], true
}

// Current returns the active snapshot.
func (h *History) Current() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < 0 {
		return Snapshot{}, false
	}
	return h.entries[h.cursor], true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.entries)-1
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index returns the cursor position, -1 when empty.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// Entry describes one retained snapshot for display.
type Entry struct {
	Index  int
	Label  string
	TS     time.Time
	Active bool
}

// Entries lists the retained snapshots, oldest first.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	for i, s := range h.entries {
		out[i] = Entry{Index: i, Label: s.Label, TS: s.TS, Active: i == h.cursor}
	}
	return out
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (totalBytes int, entries int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalBytes, len(h.entries)
}

func (h *History) truncateLocked() {
	if h.cursor < len(h.entries)-1 {
		for _, s := range h.entries[h.cursor+1:] {
			h.totalBytes -= len(s.Blob)
		}
		h.entries = h.entries[:h.cursor+1]
	}
}

// coalescesLocked reports whether s replaces the entry at the cursor. The base
// entry is never replaced so the state before the first edit stays reachable.
func (h *History) coalescesLocked(s Snapshot) bool {
	if h.cfg.Coalesce <= 0 || s.Label == "" || h.cursor <= 0 {
		return false
	}
	last := h.entries[h.cursor]
	return last.Label == s.Label && s.TS.Sub(last.TS) < h.cfg.Coalesce
}

func (h *History) enforceCapsLocked() {
	for len(h.entries) > h.cfg.MaxEntries {
		h.dropOldestLocked()
	}
	// Memory cap: prune oldest but always keep the active entry
	for h.cfg.MaxBytes > 0 && h.totalBytes > h.cfg.MaxBytes && h.cursor > 0 {
		h.dropOldestLocked()
	}
}

func (h *History) dropOldestLocked() {
	h.totalBytes -= len(h.entries[0].Blob)
	h.entries = append([]Snapshot{}, h.entries[1:]...)
	h.cursor--
	if h.cursor < 0 && len(h.entries) > 0 {
		h.cursor = 0
	}
}

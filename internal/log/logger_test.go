/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func lastJSONLine(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines in %s", path)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

func TestInitWritesScopedRecordsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designer.log")
	Init(Options{Level: "debug", Format: "json", File: path})
	t.Cleanup(func() { _ = Close() })

	l := WithOperation(WithComponent("editor"), "template_save")
	ctx := ContextWithTemplate(ContextWithSession(context.Background(), "sess-1"), "tpl-9")
	l.InfoContext(ctx, "template saved", slog.String("name", "Item"))

	m := lastJSONLine(t, path)
	want := map[string]string{
		"app":       "labeldesigner",
		"component": "editor",
		"op":        "template_save",
		"session":   "sess-1",
		"template":  "tpl-9",
		"name":      "Item",
		"msg":       "template saved",
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("%s = %v, want %q (record %v)", k, m[k], v, m)
		}
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
}

func TestInitReplacesFileAndCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.log")
	second := filepath.Join(dir, "b.log")

	Init(Options{Format: "json", File: first})
	L().Info("to first")
	Init(Options{Format: "json", File: second})
	L().Warn("to second")

	if m := lastJSONLine(t, first); m["msg"] != "to first" {
		t.Fatalf("first file got %v", m["msg"])
	}
	if m := lastJSONLine(t, second); m["msg"] != "to second" {
		t.Fatalf("second file got %v", m["msg"])
	}
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestFileLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warn.log")
	Init(Options{Level: "warn", Format: "json", File: path})
	t.Cleanup(func() { _ = Close() })

	L().Info("dropped")
	L().Error("kept")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(b), "dropped") || !strings.Contains(string(b), "kept") {
		t.Fatalf("level filter not applied: %s", b)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LBD_LOG_LEVEL", "warn")
	t.Setenv("LBD_LOG_FORMAT", "json")
	t.Setenv("LBD_LOG_SOURCE", "TRUE")
	t.Setenv("LBD_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}

	t.Setenv("LBD_LOG_LEVEL", "  ")
	if got := FromEnv().Level; got != "info" {
		t.Fatalf("blank level should default to info, got %q", got)
	}
}

func TestScopeContext(t *testing.T) {
	if _, ok := SessionFrom(context.Background()); ok {
		t.Fatalf("expected no session on empty context")
	}
	ctx := ContextWithSession(context.Background(), "abc")
	ctx = ContextWithTemplate(ctx, "t1")
	if id, ok := SessionFrom(ctx); !ok || id != "abc" {
		t.Fatalf("session lost after adding template: %q %v", id, ok)
	}
	if s := scopeFrom(ctx); s.template != "t1" {
		t.Fatalf("template = %q", s.template)
	}
	if _, ok := SessionFrom(ContextWithSession(context.Background(), "")); ok {
		t.Fatalf("empty session id should not count")
	}
}

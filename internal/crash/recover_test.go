/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labeldesigner/internal/storage"
)

// TestRecover_SavesReportAndDraft ensures Recover handles a panic, writes a report,
// stores the draft in the journal, and does not terminate the test process due to injected exitFn.
func TestRecover_SavesReportAndDraft(t *testing.T) {
	// Capture stderr temporarily to avoid noisy test logs
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	root := t.TempDir()
	ws, err := storage.InitWorkspace(root)
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	j, err := storage.OpenJournal(root)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	defer j.Close()

	target := &Target{
		Workspace: ws,
		Journal:   j,
		Session:   "sess-crash",
		Draft:     func() (string, []byte, error) { return "Item Label", []byte(`{"n":1}`), nil },
	}
	func() {
		defer Recover(target)
		panic("boom")
	}()

	var found string
	bdir := filepath.Join(root, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			found = filepath.Join(bdir, f.Name())
			break
		}
	}
	if found == "" {
		t.Fatalf("expected crash report file under backups dir")
	}
	b, err := os.ReadFile(found)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}

	d, err := j.LatestDraft(context.Background())
	if err != nil || d == nil {
		t.Fatalf("expected crash draft in journal: %v", err)
	}
	if d.Session != "sess-crash" || d.Name != "Item Label" || string(d.State) != `{"n":1}` {
		t.Fatalf("unexpected draft %+v", d)
	}

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
}

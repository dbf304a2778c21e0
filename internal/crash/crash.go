/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and a saved draft.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "labeldesigner/internal/log"
	"labeldesigner/internal/notify"
	"labeldesigner/internal/storage"
	"labeldesigner/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Target describes where a crash report goes and which editor state to keep.
// Every field is optional.
type Target struct {
	Workspace *storage.Workspace
	Journal   *storage.Journal
	Session   string
	// Draft returns the label name and serialized state of the open editor.
	Draft func() (name string, state []byte, err error)
}

// Recover captures a panic, logs an error with stacktrace, writes an error
// report file, and attempts a crash-safe autosave of the open label.
//
// Usage: defer crash.Recover(target)
func Recover(t *Target) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(t, r, stack)
		if t != nil && t.Draft != nil {
			if where, err := autosave(t); err != nil {
				l.Error("autosave crash draft failed", slog.Any("err", err))
			} else {
				l.Info("autosave crash draft written", slog.String("to", where))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

// autosave stores the draft in the journal, or as a JSON file in the
// workspace backups when no journal is open.
func autosave(t *Target) (string, error) {
	name, state, err := t.Draft()
	if err != nil {
		return "", err
	}
	if t.Journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := t.Journal.SaveDraft(ctx, t.Session, name, state, time.Now()); err != nil {
			return "", err
		}
		return "journal", nil
	}
	dir := os.TempDir()
	if t.Workspace != nil && t.Workspace.Root != "" {
		dir = filepath.Join(t.Workspace.Root, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-draft-%s.json", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, state, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func writeReport(t *Target, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if t != nil && t.Workspace != nil && t.Workspace.Root != "" {
		dir = filepath.Join(t.Workspace.Root, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Label Designer Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if t != nil {
		if t.Workspace != nil {
			_, _ = fmt.Fprintf(&buf, "Workspace: %s\n", t.Workspace.Root)
		}
		if t.Session != "" {
			_, _ = fmt.Fprintf(&buf, "Session: %s\n", t.Session)
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// upload only when LBD_CRASH_UPLOAD_URL is set
	notify.UploadCrash(buf.Bytes())
	return path, nil
}

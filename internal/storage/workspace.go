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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"labeldesigner/internal/domain"
	applog "labeldesigner/internal/log"
	tpl "labeldesigner/internal/template"
)

const (
	TemplatesDirName = "templates"
	BackupsDirName   = "backups"
	ExportsDirName   = "exports"
	StylesDirName    = "styles"
	templateExt      = ".json"
)

var standardSubDirs = []string{
	TemplatesDirName,
	ExportsDirName,
	BackupsDirName,
	StylesDirName,
}

// Workspace is a folder of template documents. It also serves as a local
// template store for the editor when no backend is configured.
type Workspace struct {
	Root string
}

// InitWorkspace creates root (if needed) and scaffolds the standard subfolders.
func InitWorkspace(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return &Workspace{Root: root}, nil
}

var fileNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName maps a template name to its file name inside the templates folder.
func FileName(name string) string {
	s := strings.Trim(fileNameRe.ReplaceAllString(strings.TrimSpace(name), "_"), "._")
	if s == "" {
		s = "template"
	}
	return s + templateExt
}

// TemplatePath returns where the template called name is stored.
func (w *Workspace) TemplatePath(name string) string {
	return filepath.Join(w.Root, TemplatesDirName, FileName(name))
}

// Save writes doc with transactional semantics and a timestamped backup of
// the previous version (if present). The name is required and documents that
// fail schema validation are rejected before anything is written.
func (w *Workspace) Save(ctx context.Context, doc domain.TemplateDocument) (domain.SaveResult, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "template_save")
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return domain.SaveResult{Success: false, Error: "template name is required"}, &domain.ValidationError{Field: "name", Reason: "template name is required"}
	}
	data, err := tpl.Encode(doc)
	if err != nil {
		return domain.SaveResult{Error: err.Error()}, err
	}
	if err := tpl.Validate(data); err != nil {
		l.WarnContext(ctx, "template rejected", slog.String("name", name), slog.Any("err", err))
		return domain.SaveResult{Error: err.Error()}, err
	}
	data = append(data, '\n')
	path := w.TemplatePath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.SaveResult{Error: err.Error()}, fmt.Errorf("ensure templates dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := w.backup(path); err != nil {
			return domain.SaveResult{Error: err.Error()}, err
		}
	}
	if err := writeAtomic(path, data); err != nil {
		l.ErrorContext(ctx, "template write failed", slog.String("name", name), slog.Any("err", err))
		return domain.SaveResult{Error: err.Error()}, err
	}
	l.InfoContext(ctx, "template saved", slog.String("name", name), slog.String("path", path))
	return domain.SaveResult{Success: true, Name: name}, nil
}

// Load reads the template called name. If the current file exists but cannot
// be read or parsed, the latest backup is used instead.
func (w *Workspace) Load(ctx context.Context, name string) (domain.TemplateDocument, error) {
	path := w.TemplatePath(name)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.TemplateDocument{}, &domain.NotFoundError{What: "template", Key: name}
	}
	if err == nil {
		doc, derr := tpl.Decode(b)
		if derr == nil {
			return doc, nil
		}
		err = derr
	}
	doc, berr := w.latestBackup(name)
	if berr == nil {
		applog.WithComponent("storage").WarnContext(ctx, "template restored from backup", slog.String("name", name), slog.Any("err", err))
		return doc, nil
	}
	return domain.TemplateDocument{}, fmt.Errorf("open template %q: %w; backup attempt: %v", name, err, berr)
}

// List returns the metadata of every readable template matching f, sorted by name.
func (w *Workspace) List(ctx context.Context, f domain.TemplateFilter) ([]domain.TemplateMeta, error) {
	dir := filepath.Join(w.Root, TemplatesDirName)
	ents, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}
	var out []domain.TemplateMeta
	for _, e := range ents {
		if e.IsDir() || filepath.Ext(e.Name()) != templateExt {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		doc, err := tpl.Decode(b)
		if err != nil {
			applog.WithComponent("storage").DebugContext(ctx, "skipping unreadable template", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		if f.Match(&doc) {
			out = append(out, doc.TemplateMeta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a template file. Backups are kept.
func (w *Workspace) Delete(name string) error {
	path := w.TemplatePath(name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &domain.NotFoundError{What: "template", Key: name}
		}
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

func (w *Workspace) backup(path string) error {
	bdir := filepath.Join(w.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	if err := copyFile(path, bpath); err != nil {
		return fmt.Errorf("backup current template: %w", err)
	}
	return nil
}

// Backups lists the backup files of a template, oldest first.
func (w *Workspace) Backups(name string) ([]string, error) {
	bdir := filepath.Join(w.Root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := FileName(name) + "."
	var out []string
	for _, e := range ents {
		n := e.Name()
		if strings.HasPrefix(n, prefix) && strings.HasSuffix(n, ".bak") {
			out = append(out, filepath.Join(bdir, n))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func (w *Workspace) latestBackup(name string) (domain.TemplateDocument, error) {
	candidates, err := w.Backups(name)
	if err != nil {
		return domain.TemplateDocument{}, err
	}
	if len(candidates) == 0 {
		return domain.TemplateDocument{}, errors.New("no backups found")
	}
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return domain.TemplateDocument{}, fmt.Errorf("read latest backup: %w", err)
	}
	doc, err := tpl.Decode(b)
	if err != nil {
		return domain.TemplateDocument{}, fmt.Errorf("parse latest backup: %w", err)
	}
	return doc, nil
}

// writeAtomic writes to a temp file in the same directory, then renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

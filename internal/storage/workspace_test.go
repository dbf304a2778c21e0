/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"labeldesigner/internal/domain"
)

func sampleTemplate(name string) domain.TemplateDocument {
	return domain.TemplateDocument{
		TemplateMeta: domain.TemplateMeta{Name: name, TemplateType: domain.TemplateItem},
		LabelWidth:   50,
		LabelHeight:  30,
		Elements: []domain.TemplateElement{
			{Type: "field", Field: "item_code", X: 10, Y: 10, Width: 80, Height: 20, FontSize: 12, Content: "ITEM001", ZIndex: 1},
		},
	}
}

func TestInitWorkspaceCreatesStructure(t *testing.T) {
	root := t.TempDir()
	if _, err := InitWorkspace(root); err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	for _, d := range []string{TemplatesDirName, ExportsDirName, BackupsDirName, StylesDirName} {
		p := filepath.Join(root, d)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", p)
		}
	}
	if _, err := InitWorkspace("  "); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	w, err := InitWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	res, err := w.Save(ctx, sampleTemplate("Item Label"))
	if err != nil || !res.Success || res.Name != "Item Label" {
		t.Fatalf("Save = %+v, %v", res, err)
	}
	if filepath.Base(w.TemplatePath("Item Label")) != "Item_Label.json" {
		t.Fatalf("unexpected path %s", w.TemplatePath("Item Label"))
	}
	got, err := w.Load(ctx, "Item Label")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "Item Label" || len(got.Elements) != 1 || got.Elements[0].Field != "item_code" {
		t.Fatalf("loaded document mismatch: %+v", got)
	}
}

func TestSaveRequiresName(t *testing.T) {
	w, _ := InitWorkspace(t.TempDir())
	res, err := w.Save(context.Background(), sampleTemplate(" "))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if res.Success {
		t.Fatalf("save should not succeed")
	}
	ents, _ := os.ReadDir(filepath.Join(w.Root, TemplatesDirName))
	if len(ents) != 0 {
		t.Fatalf("nothing should be written, found %d files", len(ents))
	}
}

func TestSaveRejectsSchemaViolations(t *testing.T) {
	ctx := context.Background()
	w, _ := InitWorkspace(t.TempDir())
	doc := sampleTemplate("Aligned")
	doc.Elements[0].Content = "v1"
	if _, err := w.Save(ctx, doc); err != nil {
		t.Fatalf("first save: %v", err)
	}

	doc.Elements[0].Content = "v2"
	doc.Elements[0].TextAlign = "middle"
	res, err := w.Save(ctx, doc)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if res.Success || !strings.Contains(res.Error, "textAlign") {
		t.Fatalf("unexpected result %+v", res)
	}
	if baks, _ := w.Backups("Aligned"); len(baks) != 0 {
		t.Fatalf("a rejected save must not rotate backups, found %v", baks)
	}

	got, err := w.Load(ctx, "Aligned")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Elements[0].Content != "v1" || got.Elements[0].TextAlign != "" {
		t.Fatalf("stored template changed: %+v", got.Elements[0])
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	ctx := context.Background()
	w, _ := InitWorkspace(t.TempDir())
	doc := sampleTemplate("Backup Test")
	if _, err := w.Save(ctx, doc); err != nil {
		t.Fatalf("first save: %v", err)
	}
	doc.BackgroundColor = "#eeeeee"
	if _, err := w.Save(ctx, doc); err != nil {
		t.Fatalf("second save: %v", err)
	}
	baks, err := w.Backups("Backup Test")
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	if len(baks) == 0 {
		t.Fatalf("expected at least one backup")
	}
	if !strings.HasPrefix(filepath.Base(baks[0]), "Backup_Test.json.") {
		t.Fatalf("unexpected backup name %s", baks[0])
	}
}

func TestLoadFallsBackToBackup(t *testing.T) {
	ctx := context.Background()
	w, _ := InitWorkspace(t.TempDir())
	doc := sampleTemplate("Broken")
	if _, err := w.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := w.Save(ctx, doc); err != nil {
		t.Fatalf("save again: %v", err)
	}
	if err := os.WriteFile(w.TemplatePath("Broken"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := w.Load(ctx, "Broken")
	if err != nil {
		t.Fatalf("Load should use backup: %v", err)
	}
	if got.Name != "Broken" {
		t.Fatalf("backup content mismatch: %+v", got)
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	w, _ := InitWorkspace(t.TempDir())
	_, err := w.Load(context.Background(), "nope")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Key != "nope" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := w.Delete("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete missing = %v", err)
	}
}

func TestListFiltersAndSkipsInvalid(t *testing.T) {
	ctx := context.Background()
	w, _ := InitWorkspace(t.TempDir())
	batch := sampleTemplate("Batch Label")
	batch.TemplateType = domain.TemplateBatch
	for _, d := range []domain.TemplateDocument{sampleTemplate("Zeta"), sampleTemplate("Alpha"), batch} {
		if _, err := w.Save(ctx, d); err != nil {
			t.Fatalf("save %s: %v", d.Name, err)
		}
	}
	_ = os.WriteFile(filepath.Join(w.Root, TemplatesDirName, "junk.json"), []byte("[]"), 0o644)

	all, err := w.List(ctx, domain.TemplateFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Alpha" || all[2].Name != "Zeta" {
		t.Fatalf("unexpected listing %+v", all)
	}
	items, _ := w.List(ctx, domain.TemplateFilter{TemplateType: domain.TemplateItem})
	if len(items) != 2 {
		t.Fatalf("expected 2 item templates, got %d", len(items))
	}
}

func TestPackageRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := InitWorkspace(t.TempDir())
	for _, n := range []string{"One", "Two"} {
		if _, err := src.Save(ctx, sampleTemplate(n)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	var buf bytes.Buffer
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := src.ExportPackage(ctx, &buf, nil, created); err != nil {
		t.Fatalf("ExportPackage: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": "1.0"`) {
		t.Fatalf("package missing version: %s", buf.String())
	}

	dst, _ := InitWorkspace(t.TempDir())
	names, err := dst.ImportPackage(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ImportPackage: %v", err)
	}
	if len(names) != 2 || names[0] != "One" || names[1] != "Two" {
		t.Fatalf("imported %v", names)
	}
	if _, err := dst.Load(ctx, "Two"); err != nil {
		t.Fatalf("load imported: %v", err)
	}
}

func TestReadPackageRejectsInvalidTemplates(t *testing.T) {
	bad := `{"version":"1.0","created":"2025-01-01T00:00:00Z","templates":[{"name":"x","label_width":50,"label_height":30,"elements":[{"type":"hologram","x":0,"y":0,"width":10,"height":10,"zIndex":1}]}]}`
	if _, err := ReadPackage(strings.NewReader(bad)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ReadPackage(strings.NewReader(`{"templates":[]}`)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing version should be rejected, got %v", err)
	}
}

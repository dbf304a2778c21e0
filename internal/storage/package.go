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
	"encoding/json"
	"fmt"
	"io"
	"time"

	"labeldesigner/internal/domain"
	tpl "labeldesigner/internal/template"
)

// PackageVersion is written into every template package.
const PackageVersion = "1.0"

// Package bundles template documents for exchange between installations.
type Package struct {
	Version   string                    `json:"version"`
	Created   time.Time                 `json:"created"`
	Templates []domain.TemplateDocument `json:"templates"`
}

// WritePackage encodes docs as a package.
func WritePackage(w io.Writer, docs []domain.TemplateDocument, now time.Time) error {
	pkg := Package{Version: PackageVersion, Created: now.UTC(), Templates: docs}
	if pkg.Templates == nil {
		pkg.Templates = []domain.TemplateDocument{}
	}
	for i := range pkg.Templates {
		if pkg.Templates[i].Elements == nil {
			pkg.Templates[i].Elements = []domain.TemplateElement{}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pkg); err != nil {
		return fmt.Errorf("encode package: %w", err)
	}
	return nil
}

// ReadPackage decodes a package and validates every template in it. The
// first invalid template aborts the import.
func ReadPackage(r io.Reader) (Package, error) {
	var raw struct {
		Version   string            `json:"version"`
		Created   time.Time         `json:"created"`
		Templates []json.RawMessage `json:"templates"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Package{}, &domain.ValidationError{Field: "package", Reason: fmt.Sprintf("not a template package: %v", err)}
	}
	if raw.Version == "" {
		return Package{}, &domain.ValidationError{Field: "version", Reason: "package version is missing"}
	}
	pkg := Package{Version: raw.Version, Created: raw.Created}
	for i, t := range raw.Templates {
		doc, err := tpl.Decode(t)
		if err != nil {
			return Package{}, fmt.Errorf("template %d: %w", i+1, err)
		}
		pkg.Templates = append(pkg.Templates, doc)
	}
	return pkg, nil
}

// ImportPackage saves every template of pkg into the workspace and returns
// the saved names.
func (w *Workspace) ImportPackage(ctx context.Context, r io.Reader) ([]string, error) {
	pkg, err := ReadPackage(r)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(pkg.Templates))
	for _, doc := range pkg.Templates {
		res, err := w.Save(ctx, doc)
		if err != nil {
			return names, err
		}
		names = append(names, res.Name)
	}
	return names, nil
}

// ExportPackage writes the named templates (all when names is empty) as a package.
func (w *Workspace) ExportPackage(ctx context.Context, out io.Writer, names []string, now time.Time) error {
	if len(names) == 0 {
		metas, err := w.List(ctx, domain.TemplateFilter{})
		if err != nil {
			return err
		}
		for _, m := range metas {
			names = append(names, m.Name)
		}
	}
	docs := make([]domain.TemplateDocument, 0, len(names))
	for _, n := range names {
		doc, err := w.Load(ctx, n)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return WritePackage(out, docs, now)
}

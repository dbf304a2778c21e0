/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stylepack shares style presets and themes between workspaces.
// A pack is a zip of the workspace's styles folder; each YAML file in that
// folder may declare presets and themes that are registered with the editor.
package stylepack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"labeldesigner/internal/editor"
	applog "labeldesigner/internal/log"
	"labeldesigner/internal/storage"
)

// ManifestName is the manifest entry at the root of every pack.
const ManifestName = "stylepack.yaml"

// Manifest describes a pack.
type Manifest struct {
	Workspace string    `yaml:"workspace"`
	Created   time.Time `yaml:"created"`
	Files     []string  `yaml:"files"`
}

// File is the content of one style file.
type File struct {
	Presets []editor.Preset `yaml:"presets"`
	Themes  []editor.Theme  `yaml:"themes"`
}

func stylesDir(root string) string { return filepath.Join(root, storage.StylesDirName) }

// ExportStyles zips the workspace's styles folder into destZipPath. Entries
// keep their path below the workspace root and a manifest is added. A
// missing styles folder is created and the pack then holds only the manifest.
func ExportStyles(root, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("workspace", root))
	if strings.TrimSpace(root) == "" {
		return errors.New("workspace root is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destination path is required")
	}
	dir := stylesDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure styles dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	man := Manifest{Workspace: filepath.Base(root), Created: time.Now().UTC()}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		fw, err := zw.Create(name)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		man.Files = append(man.Files, name)
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	buf, err := yaml.Marshal(man)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	w, err := zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("files", len(man.Files)), slog.String("zip", destZipPath))
	return nil
}

// target maps a zip entry to its path below the workspace root. Entries
// outside the styles folder are placed inside it; entries that would escape
// it are rejected.
func target(name string) (string, bool) {
	rel := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if rel == "." || rel == ".." || path.IsAbs(rel) || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if rel != storage.StylesDirName && !strings.HasPrefix(rel, storage.StylesDirName+"/") {
		rel = storage.StylesDirName + "/" + rel
	}
	return filepath.FromSlash(rel), true
}

// InstallPack extracts a pack into the workspace's styles folder. Existing
// files are kept. It returns how many files were written.
func InstallPack(root, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("workspace", root))
	if strings.TrimSpace(root) == "" {
		return 0, errors.New("workspace root is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("pack path is required")
	}
	if err := os.MkdirAll(stylesDir(root), 0o755); err != nil {
		return 0, fmt.Errorf("ensure styles dir: %w", err)
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.Name == ManifestName {
			continue
		}
		rel, ok := target(f.Name)
		if !ok {
			l.Warn("skip unsafe entry", slog.String("entry", f.Name))
			continue
		}
		dst := filepath.Join(root, rel)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if _, err := os.Stat(dst); err == nil {
			l.Warn("skip existing file", slog.String("path", dst))
			continue
		}
		if err := extract(f, dst); err != nil {
			return installed, fmt.Errorf("install %s: %w", f.Name, err)
		}
		installed++
	}
	l.Info("style pack installed", slog.Int("files", installed))
	return installed, nil
}

func extract(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Load reads every YAML file in the workspace's styles folder and merges
// their presets and themes in file name order.
func Load(root string) (File, error) {
	var all File
	err := filepath.WalkDir(stylesDir(root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		ext := strings.ToLower(filepath.Ext(p))
		if d.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parse %s: %w", filepath.Base(p), err)
		}
		all.Presets = append(all.Presets, f.Presets...)
		all.Themes = append(all.Themes, f.Themes...)
		return nil
	})
	return all, err
}

// Register loads the workspace's styles and registers them with the editor.
// It returns how many presets and themes were registered; invalid entries
// are skipped and reported in the returned error.
func Register(root string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "register")
	f, err := Load(root)
	if err != nil {
		return 0, err
	}
	var errs []error
	n := 0
	for _, p := range f.Presets {
		if err := editor.RegisterPreset(p); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	for _, t := range f.Themes {
		if err := editor.RegisterTheme(t); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	if n > 0 {
		l.Debug("styles registered", slog.Int("count", n))
	}
	return n, errors.Join(errs...)
}

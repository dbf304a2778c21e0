/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.
type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Designer      DesignerConfig  `yaml:"designer"`
	Backend       BackendConfig   `yaml:"backend"`
	Logging       LoggingConfig   `yaml:"logging"`
	Workspace     WorkspaceConfig `yaml:"workspace"`
}

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
	// Autosave writes a draft of the open label to the workspace after each committed edit.
	Autosave bool `yaml:"autosave"`
}

// DesignerConfig holds canvas and editing defaults.
type DesignerConfig struct {
	HistoryCap        int     `yaml:"history_cap"`
	HistoryCoalesceMs int     `yaml:"history_coalesce_ms"`
	GridSize          float64 `yaml:"grid_size"`
	SnapToGrid        bool    `yaml:"snap_to_grid"`
	SmartGuides       bool    `yaml:"smart_guides"`
	GuideThreshold    float64 `yaml:"guide_threshold"`
	MinWidth          float64 `yaml:"min_width"`
	MinHeight         float64 `yaml:"min_height"`
	LabelWidthMm      float64 `yaml:"label_width_mm"`
	LabelHeightMm     float64 `yaml:"label_height_mm"`
	Preset            string  `yaml:"preset"`
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// BarcodeURL and QRURL are the image service endpoints used in previews.
	BarcodeURL string `yaml:"barcode_url"`
	QRURL      string `yaml:"qr_url"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type WorkspaceConfig struct {
	Dir        string `yaml:"dir"`
	KeepDrafts int    `yaml:"keep_drafts"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", Autosave: true},
		Designer: DesignerConfig{
			HistoryCap:     50,
			GridSize:       10,
			SnapToGrid:     false,
			SmartGuides:    true,
			GuideThreshold: 4,
			MinWidth:       20,
			MinHeight:      10,
			LabelWidthMm:   50,
			LabelHeightMm:  30,
			Preset:         "minimal",
		},
		Backend: BackendConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutMs:  15000,
			BarcodeURL: "/barcode",
			QRURL:      "/qrcode",
		},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Workspace: WorkspaceConfig{KeepDrafts: 20},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "LBD_BACKEND_URL"
	EnvBackendTimeoutMs = "LBD_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "LBD_TLS_INSECURE"
	EnvHistoryCap       = "LBD_HISTORY_CAP"
	EnvGridSize         = "LBD_GRID_SIZE"
	EnvSnapToGrid       = "LBD_SNAP_TO_GRID"
	EnvWorkspaceDir     = "LBD_WORKSPACE_DIR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "LBD_LOG_LEVEL"
	EnvLogFormat = "LBD_LOG_FORMAT"
	EnvLogSource = "LBD_LOG_SOURCE"
	EnvLogFile   = "LBD_LOG_FILE"
)

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "LabelDesigner")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "LabelDesigner")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "labeldesigner")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from the keyring (returned separately, never kept in the struct).
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return cfg, "", err
	}
	tok, _ := Token()
	return cfg, tok, nil
}

// LoadFrom reads the config at path without touching the keyring. A missing file yields defaults.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		// Keys missing from the file keep their default values.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), err
		}
		normalize(&cfg)
	}
	applyEnvOverrides(&cfg)
	if cfg.Workspace.Dir == "" {
		if dir, err := ConfigDir(); err == nil {
			cfg.Workspace.Dir = filepath.Join(dir, "workspace")
		}
	}
	return cfg, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := SaveTo(path, cfg); err != nil {
		return err
	}
	if token != "" {
		if err := SetToken(token); err != nil {
			return err
		}
	}
	return nil
}

// SaveTo writes cfg as YAML to path.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// normalize trims string settings and puts back the default for any value a
// file blanked out or set out of range.
func normalize(cfg *AppConfig) {
	def := Defaults()
	if cfg.ConfigVersion <= 0 {
		cfg.ConfigVersion = def.ConfigVersion
	}
	if cfg.General.Theme = strings.ToLower(strings.TrimSpace(cfg.General.Theme)); cfg.General.Theme == "" {
		cfg.General.Theme = def.General.Theme
	}
	d := &cfg.Designer
	if d.HistoryCap <= 0 {
		d.HistoryCap = def.Designer.HistoryCap
	}
	if d.HistoryCoalesceMs < 0 {
		d.HistoryCoalesceMs = 0
	}
	if d.GridSize <= 0 {
		d.GridSize = def.Designer.GridSize
	}
	if d.GuideThreshold <= 0 {
		d.GuideThreshold = def.Designer.GuideThreshold
	}
	if d.MinWidth <= 0 {
		d.MinWidth = def.Designer.MinWidth
	}
	if d.MinHeight <= 0 {
		d.MinHeight = def.Designer.MinHeight
	}
	if d.LabelWidthMm <= 0 {
		d.LabelWidthMm = def.Designer.LabelWidthMm
	}
	if d.LabelHeightMm <= 0 {
		d.LabelHeightMm = def.Designer.LabelHeightMm
	}
	if d.Preset = strings.ToLower(strings.TrimSpace(d.Preset)); d.Preset == "" {
		d.Preset = def.Designer.Preset
	}
	b := &cfg.Backend
	b.BaseURL = strings.TrimSpace(b.BaseURL)
	if b.TimeoutMs <= 0 {
		b.TimeoutMs = def.Backend.TimeoutMs
	}
	if b.BarcodeURL = strings.TrimSpace(b.BarcodeURL); b.BarcodeURL == "" {
		b.BarcodeURL = def.Backend.BarcodeURL
	}
	if b.QRURL = strings.TrimSpace(b.QRURL); b.QRURL == "" {
		b.QRURL = def.Backend.QRURL
	}
	lg := &cfg.Logging
	if lg.Level = strings.ToLower(strings.TrimSpace(lg.Level)); lg.Level == "" {
		lg.Level = def.Logging.Level
	}
	if lg.Format = strings.ToLower(strings.TrimSpace(lg.Format)); lg.Format == "" {
		lg.Format = def.Logging.Format
	}
	lg.File = strings.TrimSpace(lg.File)
	cfg.Workspace.Dir = strings.TrimSpace(cfg.Workspace.Dir)
	if cfg.Workspace.KeepDrafts <= 0 {
		cfg.Workspace.KeepDrafts = def.Workspace.KeepDrafts
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryCap)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Designer.HistoryCap = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvGridSize)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Designer.GridSize = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapToGrid)); v != "" {
		cfg.Designer.SnapToGrid = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvWorkspaceDir)); v != "" {
		cfg.Workspace.Dir = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"backend.base_url":      EnvBackendURL,
	"backend.timeout_ms":    EnvBackendTimeoutMs,
	"backend.tls_insecure":  EnvBackendTLSInsec,
	"designer.history_cap":  EnvHistoryCap,
	"designer.grid_size":    EnvGridSize,
	"designer.snap_to_grid": EnvSnapToGrid,
	"workspace.dir":         EnvWorkspaceDir,
	"logging.level":         EnvLogLevel,
	"logging.format":        EnvLogFormat,
	"logging.source":        EnvLogSource,
	"logging.file":          EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the backend timeout, falling back to the default for non-positive values.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// CoalesceWindow returns the history coalescing interval; zero disables coalescing.
func (d DesignerConfig) CoalesceWindow() time.Duration {
	return time.Duration(d.HistoryCoalesceMs) * time.Millisecond
}

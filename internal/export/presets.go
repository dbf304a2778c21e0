/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"labeldesigner/internal/domain"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetProof   PresetName = "proof"
	PresetWeb     PresetName = "web"
	PresetThermal PresetName = "thermal"
)

// BatchOptions controls batch export of one template to several formats.
//
// Path semantics:
//   - Files are written to OutDir (or ./exports/<preset> when empty) as
//     <template-slug>.<ext>.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset        PresetName
	Formats       []string // allowed: pdf, png, svg, zpl; empty means preset defaults
	DPIOverride   int      // when > 0 overrides the PNG resolution
	IncludeGuides *bool    // when set, overrides preset's default for guides
	OutDir        string
	Options       Options // live data and copies
}

// BatchExport runs exports according to the given preset and returns the
// written paths in format order.
func BatchExport(doc domain.TemplateDocument, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		preset := opt.Preset
		if preset == "" {
			preset = PresetProof
		}
		baseOut = filepath.Join("exports", string(preset))
	}

	common := opt.Options
	common.IncludeGuides = presetIncludeGuides(opt.Preset)
	if opt.IncludeGuides != nil {
		common.IncludeGuides = *opt.IncludeGuides
	}

	stem := Slug(doc.Name)
	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		out := filepath.Join(baseOut, stem+"."+f)
		var err error
		switch f {
		case "pdf":
			err = ExportPDF(doc, out, PDFOptions{Options: common})
		case "png":
			err = ExportPNG(doc, out, PNGOptions{Options: common, DPI: opt.DPIOverride})
		case "svg":
			err = ExportSVG(doc, out, SVGOptions{Options: common})
		case "zpl":
			err = ExportZPL(doc, out, common)
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		if err != nil {
			return written, fmt.Errorf("%s %q: %w", f, doc.Name, err)
		}
		written = append(written, out)
	}
	return written, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a template name into a file-name-safe stem.
func Slug(name string) string {
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "label"
	}
	return s
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	case PresetThermal:
		return []string{"zpl"}
	default:
		return []string{"pdf", "png"}
	}
}

func presetIncludeGuides(p PresetName) bool {
	switch p {
	case PresetWeb, PresetThermal:
		return false
	default:
		return true
	}
}

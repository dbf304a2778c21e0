/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes local proofs of a label template (PDF, PNG, SVG) and
// ZPL for thermal printers. Proofs are drawn from the template document alone;
// barcode and QR symbols are approximated, the external image service remains
// the source of scannable output.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/render"
	tpl "labeldesigner/internal/template"
	"labeldesigner/internal/vector"
)

// Options is shared by the proof exporters.
//
//nolint:revive // clarity is preferred
type Options struct {
	// IncludeGuides draws a hairline around the label edge.
	IncludeGuides bool
	GuideColor    vector.Color
	// LiveMode substitutes Record values for bound elements.
	LiveMode bool
	Record   domain.Record
	// Copies applies to multi-page outputs (PDF, ZPL). Values < 1 mean 1.
	Copies int
}

func (o Options) copies() int {
	if o.Copies < 1 {
		return 1
	}
	return o.Copies
}

func (o Options) guide() vector.Color {
	if o.GuideColor == (vector.Color{}) {
		return vector.Color{R: 255, A: 255}
	}
	return o.GuideColor
}

// stroke with Width 0 draws nothing.
type stroke struct {
	Width float64 // px
	Color vector.Color
}

type textStyle struct {
	Size  float64 // px
	Bold  bool
	Color vector.Color
	Align string // left, center, right
}

// canvas is the drawing surface each proof format implements. Coordinates
// are label pixels at domain.DPI.
type canvas interface {
	rect(r vector.Rect, st stroke, fill *vector.Color)
	ellipse(r vector.Rect, st stroke)
	line(x0, y0, x1, y1 float64, st stroke)
	text(r vector.Rect, s string, ts textStyle)
}

var (
	placeholderFill = vector.Color{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	hairline        = stroke{Width: 1, Color: vector.Black}
)

// paint draws the label background and every element of doc onto c.
func paint(c canvas, doc domain.TemplateDocument, opt Options) {
	w, h := doc.LabelSize().Px()
	page := vector.R(0, 0, w, h)
	bg := colorOr(doc.BackgroundColor, vector.White)
	c.rect(page, stroke{}, &bg)

	ro := render.OptionsFor(doc.TemplateMeta, render.Options{LiveMode: opt.LiveMode, Record: opt.Record})
	for _, e := range tpl.Elements(doc) {
		paintElement(c, e, ro)
	}
	if opt.IncludeGuides {
		c.rect(page, stroke{Width: 0.5, Color: opt.guide()}, nil)
	}
}

func paintElement(c canvas, e domain.Element, ro render.Options) {
	r := e.Rect()
	fg := colorOr(e.Style.Color, vector.Black)
	border, hasBorder := parseBorder(e.Style.Border, fg)
	content, bound := render.Content(e, ro)
	ts := textStyle{Size: e.Style.FontSize, Bold: strings.EqualFold(e.Style.FontWeight, "bold"), Color: fg, Align: e.Style.TextAlign}
	if ts.Size <= 0 {
		ts.Size = 12
	}

	switch e.Kind {
	case domain.KindLine:
		if !hasBorder {
			border = stroke{Width: 1, Color: fg}
		}
		c.line(r.X, r.Y, r.Right(), r.Y, border)
	case domain.KindBox:
		if hasBorder {
			c.rect(r, border, nil)
		}
	case domain.KindCircle:
		if !hasBorder {
			border = stroke{Width: 1, Color: fg}
		}
		c.ellipse(r, border)
	case domain.KindTable:
		paintTable(c, e, r)
	case domain.KindBarcode:
		if !bound && content == "" {
			content = render.BarcodePlaceholder
		}
		paintBars(c, r, content, fg)
		if hasBorder {
			c.rect(r, border, nil)
		}
	case domain.KindQR:
		paintQR(c, r)
	case domain.KindImage, domain.KindLogo:
		fill := placeholderFill
		c.rect(r, stroke{}, &fill)
		label := content
		if label == "" {
			label = string(e.Kind)
		}
		c.text(r, label, textStyle{Size: 10, Color: vector.Black, Align: "center"})
	default:
		if hasBorder {
			c.rect(r, border, nil)
		}
		c.text(r, content, ts)
	}
}

func paintTable(c canvas, e domain.Element, r vector.Rect) {
	rows, cols := max(e.TableRows, 1), max(e.TableCols, 1)
	cw, ch := r.W/float64(cols), r.H/float64(rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			cell := vector.R(r.X+float64(j)*cw, r.Y+float64(i)*ch, cw, ch)
			c.rect(cell, hairline, nil)
			c.text(cell.Inset(2, 2), fmt.Sprintf("Cell %d,%d", i+1, j+1), textStyle{Size: 8, Color: vector.Black})
		}
	}
}

// paintBars draws proof bars derived from the value bytes. The pattern is
// deterministic but is not a scannable symbology.
func paintBars(c canvas, r vector.Rect, value string, col vector.Color) {
	mods := barModules(value)
	if len(mods) == 0 {
		return
	}
	barH := r.H * 0.75
	mw := r.W / float64(len(mods))
	fill := col
	for i, on := range mods {
		if on {
			c.rect(vector.R(r.X+float64(i)*mw, r.Y, mw, barH), stroke{}, &fill)
		}
	}
	c.text(vector.R(r.X, r.Y+barH, r.W, r.H-barH), value, textStyle{Size: max(6, (r.H-barH)*0.8), Color: col, Align: "center"})
}

func barModules(value string) []bool {
	guard := []bool{true, false, true}
	out := append([]bool(nil), guard...)
	for i := 0; i < len(value); i++ {
		b := value[i]
		for bit := 7; bit >= 0; bit-- {
			out = append(out, b&(1<<bit) != 0)
		}
	}
	return append(out, guard...)
}

// paintQR draws the three finder squares of a QR symbol.
func paintQR(c canvas, r vector.Rect) {
	side := min(r.W, r.H)
	sq := vector.R(r.X, r.Y, side, side)
	c.rect(sq, hairline, nil)
	f := side * 0.28
	black, white := vector.Black, vector.White
	for _, p := range []vector.Pt{{X: sq.X, Y: sq.Y}, {X: sq.Right() - f, Y: sq.Y}, {X: sq.X, Y: sq.Bottom() - f}} {
		outer := vector.R(p.X, p.Y, f, f)
		c.rect(outer, stroke{}, &black)
		c.rect(outer.Inset(f/7, f/7), stroke{}, &white)
		c.rect(outer.Inset(2*f/7, 2*f/7), stroke{}, &black)
	}
}

// parseBorder reads a CSS shorthand such as "1px solid #000". It reports
// false for empty or "none" borders.
func parseBorder(s string, def vector.Color) (stroke, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return stroke{}, false
	}
	st := stroke{Width: 1, Color: def}
	for _, tok := range strings.Fields(s) {
		if strings.HasSuffix(tok, "px") {
			if v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "px"), 64); err == nil {
				st.Width = v
			}
			continue
		}
		if tok == "currentColor" {
			continue
		}
		if c, err := vector.ParseColor(tok); err == nil {
			st.Color = c
		}
	}
	return st, st.Width > 0
}

func colorOr(s string, def vector.Color) vector.Color {
	if strings.TrimSpace(s) == "" {
		return def
	}
	if c, err := vector.ParseColor(s); err == nil {
		return c
	}
	return def
}

func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}

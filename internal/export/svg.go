/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/vector"
)

// SVGOptions controls SVG export behavior.
// The viewBox is in label pixels; width and height carry the physical size in mm.
type SVGOptions struct {
	Options
}

// RenderSVG returns the SVG proof of doc.
func RenderSVG(doc domain.TemplateDocument, opt SVGOptions) ([]byte, error) {
	ls := doc.LabelSize()
	w, h := ls.Px()
	c := &svgCanvas{}
	c.wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	c.wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gmm\" height=\"%gmm\" viewBox=\"0 0 %g %g\">\n", ls.WidthMm, ls.HeightMm, w, h)
	if doc.Name != "" {
		c.wf("  <title>%s</title>\n", escText(doc.Name))
	}
	paint(c, doc, opt.Options)
	c.wf("</svg>\n")
	if c.err != nil {
		return nil, fmt.Errorf("build svg: %w", c.err)
	}
	return c.buf.Bytes(), nil
}

// ExportSVG writes the SVG proof of doc to outPath.
func ExportSVG(doc domain.TemplateDocument, outPath string, opt SVGOptions) error {
	data, err := RenderSVG(doc, opt)
	if err != nil {
		return err
	}
	if err := ensureParent(outPath); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

type svgCanvas struct {
	buf bytes.Buffer
	err error
}

func (c *svgCanvas) wf(format string, args ...any) {
	if c.err != nil {
		return
	}
	_, c.err = fmt.Fprintf(&c.buf, format, args...)
}

func (c *svgCanvas) rect(r vector.Rect, st stroke, fill *vector.Color) {
	f := "none"
	if fill != nil && fill.A > 0 {
		f = fill.Hex()
	}
	c.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"%s/>\n", r.X, r.Y, r.W, r.H, f, strokeAttrs(st))
}

func (c *svgCanvas) ellipse(r vector.Rect, st stroke) {
	ctr := r.Center()
	c.wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"none\"%s/>\n", ctr.X, ctr.Y, r.W/2, r.H/2, strokeAttrs(st))
}

func (c *svgCanvas) line(x0, y0, x1, y1 float64, st stroke) {
	c.wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"%s/>\n", x0, y0, x1, y1, strokeAttrs(st))
}

func (c *svgCanvas) text(r vector.Rect, s string, ts textStyle) {
	if s == "" {
		return
	}
	x, anchor := r.X, "start"
	switch ts.Align {
	case "center":
		x, anchor = r.X+r.W/2, "middle"
	case "right":
		x, anchor = r.Right(), "end"
	}
	weight := "normal"
	if ts.Bold {
		weight = "bold"
	}
	c.wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"%g\" font-weight=\"%s\" text-anchor=\"%s\" dominant-baseline=\"middle\" fill=\"%s\">%s</text>\n",
		x, r.Y+r.H/2, escAttr("Helvetica, Arial, sans-serif"), ts.Size, weight, anchor, ts.Color.Hex(), escText(s))
}

func strokeAttrs(st stroke) string {
	if st.Width <= 0 {
		return ""
	}
	return fmt.Sprintf(" stroke=\"%s\" stroke-width=\"%g\"", st.Color.Hex(), st.Width)
}

func escAttr(s string) string {
	// naive escaping sufficient for our simple usage
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

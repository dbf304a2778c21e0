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
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/textlayout"
	"labeldesigner/internal/vector"
)

// PNGOptions controls PNG export behavior.
//   - DPI: output resolution; defaults to the screen DPI so one label pixel is
//     one image pixel.
//   - Fonts, FontFamily: the font library and the family text is drawn with.
//     A family missing from the library, or a nil library, falls back to the
//     7x13 bitmap face regardless of font size.
type PNGOptions struct {
	Options
	DPI        int
	Fonts      *textlayout.FontLibrary
	FontFamily string
}

// RasterizeLabel draws doc into a new RGBA image.
func RasterizeLabel(doc domain.TemplateDocument, opt PNGOptions) *image.RGBA {
	dpi := float64(opt.DPI)
	if dpi <= 0 {
		dpi = domain.DPI
	}
	scale := dpi / domain.DPI
	w, h := doc.LabelSize().Px()
	pixW := max(1, int(math.Round(w*scale)))
	pixH := max(1, int(math.Round(h*scale)))
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	c := &rasterCanvas{img: img, scale: scale, fonts: textlayout.OTProvider{Lib: opt.Fonts}, family: opt.FontFamily}
	paint(c, doc, opt.Options)
	return img
}

// WritePNG encodes the raster proof of doc to w.
func WritePNG(w io.Writer, doc domain.TemplateDocument, opt PNGOptions) error {
	if err := png.Encode(w, RasterizeLabel(doc, opt)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPNG writes the raster proof of doc to outPath.
func ExportPNG(doc domain.TemplateDocument, outPath string, opt PNGOptions) error {
	if err := ensureParent(outPath); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := WritePNG(f, doc, opt); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

type rasterCanvas struct {
	img    *image.RGBA
	scale  float64
	fonts  textlayout.Provider
	family string
}

func (c *rasterCanvas) px(v float64) int { return int(math.Round(v * c.scale)) }

func (c *rasterCanvas) lw(st stroke) int { return max(1, c.px(st.Width)) }

func (c *rasterCanvas) rect(r vector.Rect, st stroke, fill *vector.Color) {
	x0, y0 := c.px(r.X), c.px(r.Y)
	x1, y1 := c.px(r.Right())-1, c.px(r.Bottom())-1
	if fill != nil && fill.A > 0 {
		fillRect(c.img, x0, y0, x1, y1, toRGBA(*fill))
	}
	if st.Width > 0 {
		col := toRGBA(st.Color)
		for i := 0; i < c.lw(st); i++ {
			strokeRect(c.img, x0+i, y0+i, x1-i, y1-i, col)
		}
	}
}

func (c *rasterCanvas) ellipse(r vector.Rect, st stroke) {
	if st.Width <= 0 {
		return
	}
	col := toRGBA(st.Color)
	ctr := r.Center()
	cx, cy := ctr.X*c.scale, ctr.Y*c.scale
	for i := 0; i < c.lw(st); i++ {
		rx, ry := r.W/2*c.scale-float64(i), r.H/2*c.scale-float64(i)
		if rx <= 0 || ry <= 0 {
			break
		}
		steps := int(math.Ceil(2 * math.Pi * math.Max(rx, ry)))
		for s := 0; s < steps; s++ {
			t := 2 * math.Pi * float64(s) / float64(steps)
			c.img.SetRGBA(int(math.Round(cx+rx*math.Cos(t))), int(math.Round(cy+ry*math.Sin(t))), col)
		}
	}
}

func (c *rasterCanvas) line(x0, y0, x1, y1 float64, st stroke) {
	if st.Width <= 0 {
		return
	}
	col := toRGBA(st.Color)
	lw := c.lw(st)
	ax, ay, bx, by := x0*c.scale, y0*c.scale, x1*c.scale, y1*c.scale
	steps := int(math.Ceil(math.Max(math.Abs(bx-ax), math.Abs(by-ay))))
	for s := 0; s <= steps; s++ {
		t := 0.0
		if steps > 0 {
			t = float64(s) / float64(steps)
		}
		x := int(math.Round(ax + (bx-ax)*t))
		y := int(math.Round(ay + (by-ay)*t))
		fillRect(c.img, x, y, x, y+lw-1, col)
	}
}

func (c *rasterCanvas) text(r vector.Rect, s string, ts textStyle) {
	if s == "" || r.Empty() {
		return
	}
	bounds := image.Rect(c.px(r.X), c.px(r.Y), c.px(r.Right()), c.px(r.Bottom())).Intersect(c.img.Bounds())
	if bounds.Empty() {
		return
	}
	spec := textlayout.FontSpec{Family: c.family, SizePx: ts.Size * c.scale, Bold: ts.Bold}
	face, _ := c.fonts.Resolve(spec)
	block := textlayout.Wrap(c.fonts, s, spec, float64(bounds.Dx()), float64(bounds.Dy()))
	d := &font.Drawer{
		Dst:  c.img.SubImage(bounds).(*image.RGBA),
		Src:  image.NewUniform(toRGBA(ts.Color)),
		Face: face,
	}
	lh := block.Metrics.LineHeight()
	y := float64(bounds.Min.Y) + (float64(bounds.Dy())-block.Height)/2 + block.Metrics.Ascent
	for _, l := range block.Lines {
		x := bounds.Min.X
		switch ts.Align {
		case "center":
			x += (bounds.Dx() - int(l.Width)) / 2
		case "right":
			x += bounds.Dx() - int(l.Width)
		}
		d.Dot = fixed.P(x, int(math.Round(y)))
		d.DrawString(l.Text)
		y += lh
	}
}

func toRGBA(c vector.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 || y1 < y0 {
		return
	}
	// top and bottom
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	// left and right
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

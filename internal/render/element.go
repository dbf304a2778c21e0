/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render maps elements to display markup for the editing canvas, the
// read-only preview and the printable HTML document. Rendering is pure: it
// never mutates a scene. Barcode and QR images are delegated to the external
// image service by URL.
package render

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"labeldesigner/internal/domain"
)

// Options control substitution and image service addressing.
type Options struct {
	// LiveMode substitutes bound field values from Record for literal content.
	LiveMode bool
	Record   domain.Record

	BarcodeURL    string // defaults to "/barcode"
	QRURL         string // defaults to "/qrcode"
	BarcodeType   string // used when an element has none
	BarcodeWidth  int
	BarcodeHeight int

	// Editing marks elements with their id and selection state for the canvas.
	Editing bool
}

func (o Options) withDefaults() Options {
	if o.BarcodeURL == "" {
		o.BarcodeURL = "/barcode"
	}
	if o.QRURL == "" {
		o.QRURL = "/qrcode"
	}
	if o.BarcodeType == "" {
		o.BarcodeType = domain.BarcodeCode128
	}
	if o.BarcodeWidth <= 0 {
		o.BarcodeWidth = domain.DefaultBarcodeWidth
	}
	if o.BarcodeHeight <= 0 {
		o.BarcodeHeight = domain.DefaultBarcodeHeight
	}
	return o
}

// BarcodePlaceholder is shown for barcodes without a live value.
const BarcodePlaceholder = "||||| |||| |||||"

// Content returns the text shown for e and whether it came from a live binding.
func Content(e domain.Element, opts Options) (string, bool) {
	if opts.LiveMode && e.FieldKey != "" && opts.Record != nil {
		if v, ok := opts.Record[e.FieldKey]; ok {
			return v, true
		}
	}
	return e.Content, false
}

// BarcodeImageURL builds the image service URL for a 1-D barcode.
func BarcodeImageURL(base, typ, value string, width, height int) string {
	q := url.Values{}
	q.Set("type", typ)
	q.Set("value", value)
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	return joinQuery(base, q)
}

// QRImageURL builds the image service URL for a QR code.
func QRImageURL(base, data string, size int) string {
	q := url.Values{}
	q.Set("data", data)
	q.Set("size", strconv.Itoa(size))
	return joinQuery(base, q)
}

func joinQuery(base string, q url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// Element renders one element as an absolutely positioned fragment. Group
// elements render nothing; their members are rendered individually.
func Element(e domain.Element, opts Options) string {
	if e.IsGroup() {
		return ""
	}
	opts = opts.withDefaults()
	var b strings.Builder
	b.WriteString(`<div class="label-element element-`)
	b.WriteString(string(e.Kind))
	if opts.Editing && e.Selected {
		b.WriteString(" selected")
	}
	b.WriteString(`"`)
	if opts.Editing {
		fmt.Fprintf(&b, ` data-id="%d"`, e.ID)
	}
	b.WriteString(` style="`)
	b.WriteString(html.EscapeString(boxStyle(e)))
	b.WriteString(`">`)
	b.WriteString(body(e, opts))
	b.WriteString(`</div>`)
	return b.String()
}

func boxStyle(e domain.Element) string {
	g := e.Geometry
	var sb strings.Builder
	fmt.Fprintf(&sb, "position:absolute;left:%spx;top:%spx;width:%spx;height:%spx;z-index:%d;",
		num(g.X), num(g.Y), num(g.Width), num(g.Height), e.ZIndex)
	s := e.Style
	if s.FontSize > 0 {
		fmt.Fprintf(&sb, "font-size:%spx;", num(s.FontSize))
	}
	if s.FontWeight != "" {
		sb.WriteString("font-weight:" + s.FontWeight + ";")
	}
	if s.Color != "" {
		sb.WriteString("color:" + s.Color + ";")
	}
	if s.TextAlign != "" {
		sb.WriteString("text-align:" + s.TextAlign + ";")
	}
	switch e.Kind {
	case domain.KindLine:
		border := s.Border
		if border == "" {
			border = "1px solid currentColor"
		}
		sb.WriteString("border-top:" + border + ";height:0;")
	case domain.KindBox, domain.KindTable:
		if s.Border != "" {
			sb.WriteString("border:" + s.Border + ";")
		}
	case domain.KindCircle:
		if s.Border != "" {
			sb.WriteString("border:" + s.Border + ";")
		}
		sb.WriteString("border-radius:50%;")
	default:
		if s.Border != "" {
			sb.WriteString("border:" + s.Border + ";")
		}
	}
	return sb.String()
}

func body(e domain.Element, opts Options) string {
	content, bound := Content(e, opts)
	switch e.Kind {
	case domain.KindBarcode:
		if !bound {
			return `<span style="font-family:monospace">` + html.EscapeString(BarcodePlaceholder) + `</span>`
		}
		typ := e.BarcodeType
		if typ == "" {
			typ = opts.BarcodeType
		}
		src := BarcodeImageURL(opts.BarcodeURL, typ, content, opts.BarcodeWidth, opts.BarcodeHeight)
		return `<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(content) + `" style="width:100%;height:100%;object-fit:contain">`
	case domain.KindQR:
		if !bound {
			return `<div style="width:100%;height:100%;background:#000;color:#fff;display:flex;align-items:center;justify-content:center;font-size:10px">QR</div>`
		}
		size := int(min(e.Geometry.Width, e.Geometry.Height))
		src := QRImageURL(opts.QRURL, content, size)
		return `<img src="` + html.EscapeString(src) + `" alt="QR" style="width:100%;height:100%;object-fit:contain">`
	case domain.KindImage, domain.KindLogo:
		if e.ImageURL != "" {
			return `<img src="` + html.EscapeString(e.ImageURL) + `" style="width:100%;height:100%;object-fit:contain">`
		}
		label := content
		if label == "" {
			label = string(e.Kind)
		}
		return `<div style="background:#f0f0f0;width:100%;height:100%;display:flex;align-items:center;justify-content:center;font-size:10px">` + html.EscapeString(label) + `</div>`
	case domain.KindLine, domain.KindBox, domain.KindCircle:
		return ""
	case domain.KindTable:
		return table(e)
	default:
		return strings.ReplaceAll(html.EscapeString(content), "\n", "<br>")
	}
}

func table(e domain.Element) string {
	rows, cols := max(e.TableRows, 1), max(e.TableCols, 1)
	var b strings.Builder
	b.WriteString(`<table style="width:100%;height:100%;border-collapse:collapse">`)
	for i := 0; i < rows; i++ {
		b.WriteString("<tr>")
		for j := 0; j < cols; j++ {
			fmt.Fprintf(&b, `<td style="border:1px solid #000;padding:2px">Cell %d,%d</td>`, i+1, j+1)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

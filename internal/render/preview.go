/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"

	"labeldesigner/internal/domain"
	tpl "labeldesigner/internal/template"
)

// OptionsFor fills barcode defaults in base from template metadata.
func OptionsFor(meta domain.TemplateMeta, base Options) Options {
	if meta.BarcodeType != "" && meta.BarcodeType != domain.BarcodeQR {
		base.BarcodeType = meta.BarcodeType
	}
	base.BarcodeWidth, base.BarcodeHeight = meta.BarcodeSize()
	return base
}

// Canvas renders elements on a label-sized surface for on-screen display.
func Canvas(els []domain.Element, label domain.LabelSize, meta domain.TemplateMeta, opts Options) string {
	w, h := label.Px()
	var b strings.Builder
	style := fmt.Sprintf("position:relative;overflow:hidden;width:%spx;height:%spx;background:%s;border:%s",
		num(w), num(h), cssValue(meta.BackgroundColor, "#ffffff"), cssValue(meta.BorderStyle, "1px solid #000"))
	b.WriteString(`<div class="label-canvas" style="` + html.EscapeString(style) + `">`)
	for _, e := range els {
		b.WriteString(Element(e, opts))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Preview renders a template document read-only.
func Preview(doc domain.TemplateDocument, opts Options) string {
	opts = OptionsFor(doc.TemplateMeta, opts)
	opts.Editing = false
	return Canvas(tpl.Elements(doc), doc.LabelSize(), doc.TemplateMeta, opts)
}

func cssOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// cssValue returns v for use as a single CSS declaration value, or def when
// v is blank or could end the declaration or the surrounding markup.
func cssValue(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, ";{}<>\"'\\") {
		return def
	}
	return v
}

var printPage = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<style>
@page { size: {{.WidthMm}}mm {{.HeightMm}}mm; margin: 0; }
body { margin: 0; padding: 0; font-family: Arial, sans-serif; }
.label { width: {{.WidthMm}}mm; height: {{.HeightMm}}mm; position: relative; overflow: hidden; background: {{.Background}}; page-break-after: always; border: 1px solid #000; }
.label:last-child { page-break-after: avoid; }
.label-element { position: absolute; }
@media print { .label { border: none; } }
</style>
</head>
<body>
{{range .Labels}}<div class="label">{{.}}</div>
{{end}}</body>
</html>
`))

type printData struct {
	Title      string
	WidthMm    string
	HeightMm   string
	Background string
	Labels     []template.HTML
}

// PrintDocument renders doc as a standalone HTML page with one label per copy,
// sized with @page in millimeters.
func PrintDocument(doc domain.TemplateDocument, opts Options, copies int) (string, error) {
	if copies < 1 {
		copies = 1
	}
	if doc.LabelWidth <= 0 || doc.LabelHeight <= 0 {
		return "", &domain.ValidationError{Field: "label_width", Reason: "label size must be positive"}
	}
	opts = OptionsFor(doc.TemplateMeta, opts).withDefaults()
	opts.Editing = false
	var body strings.Builder
	for _, e := range tpl.Elements(doc) {
		body.WriteString(Element(e, opts))
	}
	data := printData{
		Title:      cssOr(doc.Name, "Label Print"),
		WidthMm:    num(doc.LabelWidth),
		HeightMm:   num(doc.LabelHeight),
		Background: cssValue(doc.BackgroundColor, "white"),
	}
	label := template.HTML(body.String())
	for i := 0; i < copies; i++ {
		data.Labels = append(data.Labels, label)
	}
	var buf bytes.Buffer
	if err := printPage.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render print document: %w", err)
	}
	return buf.String(), nil
}

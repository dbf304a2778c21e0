/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"strings"
	"testing"

	"labeldesigner/internal/domain"
)

func field(key, content string) domain.Element {
	return domain.Element{
		ID: 1, Kind: domain.KindField, FieldKey: key, Content: content,
		Geometry: domain.Geometry{X: 10, Y: 10, Width: 80, Height: 20},
		Style:    domain.Style{FontSize: 14, FontWeight: "bold", Color: "#000000"},
	}
}

func TestContentSubstitution(t *testing.T) {
	e := field("item_code", "ITEM001")
	rec := domain.Record{"item_code": "A-100"}

	if got, bound := Content(e, Options{Record: rec}); got != "ITEM001" || bound {
		t.Fatalf("live mode off must keep literal content, got %q bound=%v", got, bound)
	}
	if got, bound := Content(e, Options{LiveMode: true, Record: rec}); got != "A-100" || !bound {
		t.Fatalf("live mode should substitute, got %q bound=%v", got, bound)
	}
	if got, _ := Content(field("batch_no", "BATCH001"), Options{LiveMode: true, Record: rec}); got != "BATCH001" {
		t.Fatalf("missing binding must keep literal, got %q", got)
	}
}

func TestElementMarkupEscapesAndPositions(t *testing.T) {
	e := field("item_code", "<b>&")
	out := Element(e, Options{})
	if !strings.Contains(out, "left:10px;top:10px;width:80px;height:20px") {
		t.Fatalf("missing geometry: %s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;&amp;") {
		t.Fatalf("content not escaped: %s", out)
	}
	if strings.Contains(out, "data-id") {
		t.Fatalf("preview markup must not carry ids: %s", out)
	}
	e.Selected = true
	edit := Element(e, Options{Editing: true})
	if !strings.Contains(edit, `data-id="1"`) || !strings.Contains(edit, "selected") {
		t.Fatalf("editing markup missing id or selection: %s", edit)
	}
}

func TestBarcodeUsesImageServiceOnlyWhenBound(t *testing.T) {
	e := domain.Element{ID: 2, Kind: domain.KindBarcode, FieldKey: "item_code", BarcodeType: "Code39",
		Geometry: domain.Geometry{Width: 120, Height: 40}}
	placeholder := Element(e, Options{})
	if !strings.Contains(placeholder, BarcodePlaceholder) || strings.Contains(placeholder, "<img") {
		t.Fatalf("expected placeholder glyphs: %s", placeholder)
	}
	live := Element(e, Options{LiveMode: true, Record: domain.Record{"item_code": "A 100"}, BarcodeURL: "https://img.example/barcode"})
	want := "https://img.example/barcode?height=100&amp;type=Code39&amp;value=A+100&amp;width=200"
	if !strings.Contains(live, want) {
		t.Fatalf("expected %s in %s", want, live)
	}
}

func TestQRImageURL(t *testing.T) {
	if got := QRImageURL("/qrcode", "SN 1", 80); got != "/qrcode?data=SN+1&size=80" {
		t.Fatalf("qr url = %s", got)
	}
	if got := BarcodeImageURL("/api?x=1", "EAN-13", "123", 10, 20); got != "/api?x=1&height=20&type=EAN-13&value=123&width=10" {
		t.Fatalf("barcode url = %s", got)
	}
	e := domain.Element{Kind: domain.KindQR, FieldKey: "serial_no", Geometry: domain.Geometry{Width: 80, Height: 60}}
	out := Element(e, Options{LiveMode: true, Record: domain.Record{"serial_no": "SN9"}})
	if !strings.Contains(out, "/qrcode?data=SN9&amp;size=60") {
		t.Fatalf("qr markup: %s", out)
	}
	if !strings.Contains(Element(e, Options{}), ">QR<") {
		t.Fatalf("qr placeholder missing")
	}
}

func TestShapesAndGroups(t *testing.T) {
	if Element(domain.Element{Kind: domain.KindGroup}, Options{}) != "" {
		t.Fatalf("groups render nothing")
	}
	c := Element(domain.Element{Kind: domain.KindCircle, Style: domain.Style{Border: "1px solid #000"}}, Options{})
	if !strings.Contains(c, "border-radius:50%") {
		t.Fatalf("circle style: %s", c)
	}
	tbl := Element(domain.Element{Kind: domain.KindTable, TableRows: 2, TableCols: 2}, Options{})
	if strings.Count(tbl, "<td") != 4 || !strings.Contains(tbl, "Cell 2,2") {
		t.Fatalf("table: %s", tbl)
	}
}

func TestPrintDocument(t *testing.T) {
	doc := domain.TemplateDocument{
		TemplateMeta: domain.TemplateMeta{Name: "Item", BarcodeType: domain.BarcodeCode128},
		LabelWidth:   50,
		LabelHeight:  30,
		Elements: []domain.TemplateElement{
			{Type: "field", Field: "item_code", X: 10, Y: 10, Width: 80, Height: 20, Content: "ITEM001"},
			{Type: "text", X: 10, Y: 40, Width: 80, Height: 20, Content: "Made in EU"},
		},
	}
	out, err := PrintDocument(doc, Options{LiveMode: true, Record: domain.Record{"item_code": "X-1"}}, 3)
	if err != nil {
		t.Fatalf("PrintDocument: %v", err)
	}
	if strings.Count(out, `<div class="label">`) != 3 {
		t.Fatalf("expected 3 labels: %s", out)
	}
	if !strings.Contains(out, "size: 50mm 30mm") {
		t.Fatalf("missing @page size: %s", out)
	}
	if !strings.Contains(out, "X-1") || strings.Contains(out, "ITEM001") {
		t.Fatalf("live value not substituted")
	}
	if _, err := PrintDocument(domain.TemplateDocument{}, Options{}, 1); err == nil {
		t.Fatalf("expected error for zero label size")
	}
}

func TestPreviewCanvas(t *testing.T) {
	doc := domain.TemplateDocument{
		TemplateMeta: domain.TemplateMeta{Name: "x", BackgroundColor: "#ffeecc"},
		LabelWidth:   25.4, LabelHeight: 25.4,
		Elements: []domain.TemplateElement{{Type: "box", X: 1, Y: 1, Width: 30, Height: 30, ZIndex: 2}, {Type: "text", Content: "under", Width: 30, Height: 10, ZIndex: 1}},
	}
	out := Preview(doc, Options{})
	if !strings.Contains(out, "background:#ffeecc;border:1px solid #000") {
		t.Fatalf("canvas sizing: %s", out)
	}
	if strings.Index(out, "under") > strings.Index(out, "element-box") {
		t.Fatalf("elements must render in z-order")
	}
}

func TestHostileMetadataStaysInsideStyle(t *testing.T) {
	doc := domain.TemplateDocument{
		TemplateMeta: domain.TemplateMeta{
			Name:            "x",
			BackgroundColor: `red;}</style><script>alert(1)</script>`,
			BorderStyle:     `1px" onmouseover="alert(1)`,
		},
		LabelWidth:  50,
		LabelHeight: 30,
	}
	out := Preview(doc, Options{})
	if strings.Contains(out, "<script>") || strings.Contains(out, "onmouseover") {
		t.Fatalf("metadata escaped the style attribute: %s", out)
	}
	if !strings.Contains(out, "background:#ffffff;border:1px solid #000") {
		t.Fatalf("hostile values should fall back to defaults: %s", out)
	}

	page, err := PrintDocument(doc, Options{}, 1)
	if err != nil {
		t.Fatalf("PrintDocument: %v", err)
	}
	if strings.Contains(page, "<script>") || strings.Contains(page, "alert(1)") {
		t.Fatalf("metadata escaped the style block: %s", page)
	}
	if !strings.Contains(page, "background: white;") {
		t.Fatalf("hostile background should fall back to white: %s", page)
	}

	doc.BackgroundColor = "#ffeecc"
	page, err = PrintDocument(doc, Options{}, 1)
	if err != nil {
		t.Fatalf("PrintDocument: %v", err)
	}
	if !strings.Contains(page, "background: #ffeecc;") {
		t.Fatalf("plain color lost: %s", page)
	}
}

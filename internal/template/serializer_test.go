/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/scene"
)

func sampleDoc() domain.TemplateDocument {
	return domain.TemplateDocument{
		TemplateMeta: domain.TemplateMeta{
			Name:          "Batch 50x30",
			TemplateType:  domain.TemplateBatch,
			BarcodeType:   domain.BarcodeCode128,
			BarcodeWidth:  200,
			BarcodeHeight: 100,
		},
		LabelWidth:  50,
		LabelHeight: 30,
		Elements: []domain.TemplateElement{
			{Type: "field", Field: "item_code", X: 10, Y: 10, Width: 80, Height: 20, FontSize: 14, FontWeight: "bold", Color: "#000000", Content: "ITEM001", ZIndex: 1},
			{Type: "barcode", Field: "batch_no", X: 10, Y: 40, Width: 120, Height: 40, BarcodeType: "Code128", ZIndex: 2, Group: 1},
			{Type: "text", X: 140, Y: 40, Width: 40, Height: 20, Content: "LOT", ZIndex: 3, Group: 1},
			{Type: "box", X: 0, Y: 0, Width: 188, Height: 113, Border: "1px solid #000", ZIndex: 0},
			{Type: "table", X: 5, Y: 85, Width: 120, Height: 25, Rows: 2, Cols: 3, ZIndex: 4},
			{Type: "qr", Field: "serial_no", X: 150, Y: 70, Width: 35, Height: 35, QRContent: "serial_no", ZIndex: 5},
		},
	}
}

func sortedElements(doc domain.TemplateDocument) []domain.TemplateElement {
	out := append([]domain.TemplateElement(nil), doc.Elements...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func TestRoundTripModuloOrdering(t *testing.T) {
	in := sampleDoc()
	s, err := FromTemplate(in, scene.DefaultOptions())
	require.NoError(t, err)
	out := ToTemplate(s, in.TemplateMeta)

	assert.Equal(t, in.TemplateMeta, out.TemplateMeta)
	assert.Equal(t, in.LabelWidth, out.LabelWidth)
	assert.Equal(t, in.LabelHeight, out.LabelHeight)
	assert.Equal(t, sortedElements(in), sortedElements(out))
}

func TestFieldScenarioEmitsDocument(t *testing.T) {
	s := scene.New(scene.DefaultOptions())
	id, err := s.AddElement(domain.KindField, "item_code", nil)
	require.NoError(t, err)
	s.UpdateElement(id, func(e *domain.Element) { e.Content = "ITEM001" })
	s.SetSelection([]domain.ElementID{id})

	doc := ToTemplate(s, domain.TemplateMeta{Name: "Item"})
	require.Len(t, doc.Elements, 1)
	e := doc.Elements[0]
	assert.Equal(t, "field", e.Type)
	assert.Equal(t, "item_code", e.Field)
	assert.Equal(t, "ITEM001", e.Content)
	assert.Equal(t, 10.0, e.X)
	assert.Equal(t, 10.0, e.Y)

	raw, err := Encode(doc)
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(string(raw)), "selected")
	assert.NotContains(t, string(raw), `"id"`)
	require.NoError(t, Validate(raw))
}

func TestFromTemplateBuildsGroups(t *testing.T) {
	s, err := FromTemplate(sampleDoc(), scene.DefaultOptions())
	require.NoError(t, err)
	var groups []domain.Element
	for _, e := range s.Elements() {
		if e.IsGroup() {
			groups = append(groups, e)
		}
	}
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Members, 2)
	assert.Equal(t, domain.Geometry{X: 10, Y: 40, Width: 170, Height: 40}, groups[0].Geometry)
	assert.Equal(t, 50.0, s.LabelSize().WidthMm)
}

func TestFromTemplateClampsAndRejects(t *testing.T) {
	doc := sampleDoc()
	doc.Elements = []domain.TemplateElement{{Type: "text", X: 1, Y: 1, Width: 2, Height: 3}}
	s, err := FromTemplate(doc, scene.DefaultOptions())
	require.NoError(t, err)
	e := s.Elements()[0]
	assert.Equal(t, 20.0, e.Geometry.Width)
	assert.Equal(t, 10.0, e.Geometry.Height)

	doc.Elements = []domain.TemplateElement{{Type: "hexagon", Width: 30, Height: 30}}
	_, err = FromTemplate(doc, scene.DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrValidation)

	doc.Elements = nil
	doc.LabelWidth = 0
	_, err = FromTemplate(doc, scene.DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFromTemplateRejectsNonCanonicalGroups(t *testing.T) {
	cases := map[string]func(d *domain.TemplateDocument){
		"ordinal gap": func(d *domain.TemplateDocument) {
			for i := range d.Elements {
				if d.Elements[i].Group == 1 {
					d.Elements[i].Group = 7
				}
			}
		},
		"single member": func(d *domain.TemplateDocument) {
			d.Elements[5].Group = 2
		},
		"out of order": func(d *domain.TemplateDocument) {
			d.Elements[0].Group = 2
			d.Elements[4].Group = 2
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			doc := sampleDoc()
			mutate(&doc)
			_, err := FromTemplate(doc, scene.DefaultOptions())
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Field, "group")
		})
	}
}

func TestFieldOnlyOnBindableKinds(t *testing.T) {
	doc := sampleDoc()
	doc.Elements[2].Field = "item_code"

	_, err := FromTemplate(doc, scene.DefaultOptions())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "elements[2].field", ve.Field)

	raw, err := Encode(doc)
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(raw), domain.ErrValidation)
}

func TestRoundTripEdgeDocuments(t *testing.T) {
	docs := map[string][]domain.TemplateElement{
		"two groups interleaved": {
			{Type: "text", X: 0, Y: 0, Width: 30, Height: 12, Content: "A", ZIndex: 0, Group: 1},
			{Type: "box", X: 40, Y: 0, Width: 30, Height: 30, ZIndex: 1, Group: 2},
			{Type: "text", X: 0, Y: 20, Width: 30, Height: 12, Content: "B", ZIndex: 2, Group: 1},
			{Type: "circle", X: 40, Y: 40, Width: 30, Height: 30, ZIndex: 3, Group: 2},
		},
		"unbound kinds and ties": {
			{Type: "text", X: -5, Y: 2, Width: 40, Height: 12, Content: "edge", TextAlign: "justify", ZIndex: 1},
			{Type: "line", X: 0, Y: 30, Width: 100, Height: 10, ZIndex: 1},
			{Type: "image", X: 60, Y: 0, Width: 30, Height: 30, ImageURL: "https://example.com/a.png", ZIndex: 2},
			{Type: "field", Field: "batch_no", X: 0, Y: 50, Width: 80, Height: 20, ZIndex: 2},
		},
	}
	for name, els := range docs {
		t.Run(name, func(t *testing.T) {
			in := sampleDoc()
			in.Elements = els
			raw, err := Encode(in)
			require.NoError(t, err)
			require.NoError(t, Validate(raw))

			s, err := FromTemplate(in, scene.DefaultOptions())
			require.NoError(t, err)
			out := ToTemplate(s, in.TemplateMeta)
			assert.Equal(t, sortedElements(in), sortedElements(out))
		})
	}
}

func TestValidateReportsSchemaErrors(t *testing.T) {
	err := Validate([]byte(`{"label_width": 50, "label_height": 30, "elements": [{"type": "hexagon", "x": 0, "y": 0, "width": 10, "height": 10}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "name")

	assert.Error(t, Validate([]byte(`{"name": "x"`)))
}

func TestDecodeEncode(t *testing.T) {
	raw, err := Encode(sampleDoc())
	require.NoError(t, err)
	doc, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc(), doc)

	empty, err := Encode(domain.TemplateDocument{TemplateMeta: domain.TemplateMeta{Name: "e"}, LabelWidth: 10, LabelHeight: 10})
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"elements": []`)
	assert.NotEmpty(t, Schema())
}

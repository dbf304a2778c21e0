/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package template converts between a scene and the template document
// exchanged with the external store, renderer and print dispatcher.
package template

import (
	"fmt"
	"sort"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/scene"
)

// ToTemplate flattens s into a template document. Elements are emitted in
// z-order with absolute pixel geometry; groups are not emitted themselves but
// as a shared ordinal on their members, numbered by first appearance.
func ToTemplate(s *scene.Scene, meta domain.TemplateMeta) domain.TemplateDocument {
	label := s.LabelSize()
	doc := domain.TemplateDocument{
		TemplateMeta: meta,
		LabelWidth:   label.WidthMm,
		LabelHeight:  label.HeightMm,
		Elements:     []domain.TemplateElement{},
	}
	ordinals := map[domain.ElementID]int{}
	for _, e := range s.Elements() {
		if e.IsGroup() {
			continue
		}
		te := flatten(e)
		if e.GroupID != 0 {
			n, ok := ordinals[e.GroupID]
			if !ok {
				n = len(ordinals) + 1
				ordinals[e.GroupID] = n
			}
			te.Group = n
		}
		doc.Elements = append(doc.Elements, te)
	}
	return doc
}

func flatten(e domain.Element) domain.TemplateElement {
	return domain.TemplateElement{
		Type:        string(e.Kind),
		Field:       e.FieldKey,
		X:           e.Geometry.X,
		Y:           e.Geometry.Y,
		Width:       e.Geometry.Width,
		Height:      e.Geometry.Height,
		FontSize:    e.Style.FontSize,
		FontWeight:  e.Style.FontWeight,
		Color:       e.Style.Color,
		TextAlign:   e.Style.TextAlign,
		Border:      e.Style.Border,
		Content:     e.Content,
		ZIndex:      e.ZIndex,
		ImageURL:    e.ImageURL,
		QRContent:   e.QRContent,
		BarcodeType: e.BarcodeType,
		Rows:        e.TableRows,
		Cols:        e.TableCols,
	}
}

// FromTemplate builds a new scene from doc. Elements get fresh ids; sizes
// below the scene minimum are raised to it. opts supplies grid and minimum
// size; the label size always comes from the document.
func FromTemplate(doc domain.TemplateDocument, opts scene.Options) (*scene.Scene, error) {
	if doc.LabelWidth <= 0 || doc.LabelHeight <= 0 {
		return nil, &domain.ValidationError{Field: "label_width", Reason: "label size must be positive"}
	}
	if err := checkElements(doc.Elements); err != nil {
		return nil, err
	}
	opts.LabelSize = doc.LabelSize()
	els := make([]domain.Element, 0, len(doc.Elements))
	groups := map[int]*domain.Element{}
	var groupOrder []int
	for i, te := range doc.Elements {
		e := expand(te)
		e.ID = domain.ElementID(i + 1)
		if te.Group > 0 {
			g, ok := groups[te.Group]
			if !ok {
				g = &domain.Element{Kind: domain.KindGroup, ID: domain.ElementID(len(doc.Elements) + len(groups) + 1), ZIndex: te.ZIndex}
				groups[te.Group] = g
				groupOrder = append(groupOrder, te.Group)
			}
			g.Members = append(g.Members, e.ID)
			g.ZIndex = max(g.ZIndex, e.ZIndex)
			e.GroupID = g.ID
		}
		els = append(els, e)
	}
	sort.Ints(groupOrder)
	for _, n := range groupOrder {
		els = append(els, *groups[n])
	}
	s := scene.New(opts)
	s.Populate(els)
	return s, nil
}

// checkElements rejects what a scene cannot hold: a field binding on a kind
// that does not bind, or group ordinals that are not 1..n in order of first
// appearance in z-order with at least two members each.
func checkElements(tes []domain.TemplateElement) error {
	order := make([]int, len(tes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return tes[order[a]].ZIndex < tes[order[b]].ZIndex })

	count := map[int]int{}
	next := 1
	for _, i := range order {
		te := tes[i]
		k := domain.Kind(te.Type)
		if !k.Valid() || k == domain.KindGroup {
			return &domain.ValidationError{Field: fmt.Sprintf("elements[%d].type", i), Reason: fmt.Sprintf("unknown element type %q", te.Type)}
		}
		if te.Field != "" && !k.Bindable() {
			return &domain.ValidationError{Field: fmt.Sprintf("elements[%d].field", i), Reason: fmt.Sprintf("%s elements cannot bind a field", te.Type)}
		}
		if te.Group <= 0 {
			continue
		}
		if count[te.Group] == 0 {
			if te.Group != next {
				return &domain.ValidationError{Field: fmt.Sprintf("elements[%d].group", i), Reason: fmt.Sprintf("group %d out of sequence, expected %d", te.Group, next)}
			}
			next++
		}
		count[te.Group]++
	}
	for n := 1; n < next; n++ {
		if count[n] < 2 {
			return &domain.ValidationError{Field: "elements.group", Reason: fmt.Sprintf("group %d has a single member", n)}
		}
	}
	return nil
}

func expand(te domain.TemplateElement) domain.Element {
	k := domain.Kind(te.Type)
	e := domain.Element{
		Kind:     k,
		Geometry: domain.Geometry{X: te.X, Y: te.Y, Width: te.Width, Height: te.Height},
		Style: domain.Style{
			FontSize:   te.FontSize,
			FontWeight: te.FontWeight,
			Color:      te.Color,
			TextAlign:  te.TextAlign,
			Border:     te.Border,
		},
		Content:     te.Content,
		ZIndex:      te.ZIndex,
		ImageURL:    te.ImageURL,
		QRContent:   te.QRContent,
		BarcodeType: te.BarcodeType,
		TableRows:   te.Rows,
		TableCols:   te.Cols,
	}
	if k.Bindable() {
		e.FieldKey = te.Field
	}
	return e
}

// Elements expands the document's elements in z-order without building a
// scene. Ids are the 1-based document positions; groups are not materialized.
func Elements(doc domain.TemplateDocument) []domain.Element {
	out := make([]domain.Element, 0, len(doc.Elements))
	for i, te := range doc.Elements {
		if !domain.Kind(te.Type).Valid() {
			continue
		}
		e := expand(te)
		e.ID = domain.ElementID(i + 1)
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

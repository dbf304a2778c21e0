/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene holds the canvas state of one label being edited: the
// z-ordered elements, the selection, the label size and grid settings.
//
// A Scene is owned by a single editing session and is not safe for
// concurrent use. Every mutation keeps these invariants: ids are unique and
// never reused, width and height stay at or above the minimum size, a member
// belongs to at most one group and no group references a missing member.
package scene

import (
	"fmt"
	"sort"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/vector"
)

// Options configure a new scene.
type Options struct {
	LabelSize domain.LabelSize
	Grid      domain.GridSnap
	MinSize   domain.MinSize
}

// DefaultOptions returns a 50×30 mm label with a 10 px grid (snap off).
func DefaultOptions() Options {
	return Options{
		LabelSize: domain.DefaultLabelSize,
		Grid:      domain.GridSnap{Enabled: false, Size: 10},
		MinSize:   domain.DefaultMinSize,
	}
}

// Scene is the mutable canvas state.
type Scene struct {
	elements []*domain.Element // z-order ascending, ties in insertion order
	byID     map[domain.ElementID]*domain.Element
	nextID   domain.ElementID
	label    domain.LabelSize
	grid     domain.GridSnap
	min      domain.MinSize
}

// New returns an empty scene.
func New(opts Options) *Scene {
	if opts.LabelSize.WidthMm <= 0 || opts.LabelSize.HeightMm <= 0 {
		opts.LabelSize = domain.DefaultLabelSize
	}
	if opts.MinSize.Width <= 0 || opts.MinSize.Height <= 0 {
		opts.MinSize = domain.DefaultMinSize
	}
	return &Scene{
		byID:   make(map[domain.ElementID]*domain.Element),
		nextID: 1,
		label:  opts.LabelSize,
		grid:   opts.Grid,
		min:    opts.MinSize,
	}
}

const (
	cascadeStart = 10.0
	cascadeStep  = 10.0
)

// AddElement appends a new element of kind k and returns its id. Without an
// initial geometry the element is placed at (10,10), stepping down and right
// by 10 px while another element already sits at exactly that position.
func (s *Scene) AddElement(k domain.Kind, fieldKey string, initial *domain.Geometry) (domain.ElementID, error) {
	if !k.Valid() || k == domain.KindGroup {
		return 0, &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("cannot add element of kind %q", k)}
	}
	if fieldKey != "" && !k.Bindable() {
		return 0, &domain.ValidationError{Field: "fieldKey", Reason: fmt.Sprintf("kind %q cannot be bound to a field", k)}
	}
	g := domain.DefaultGeometry(k)
	if initial != nil {
		g.X, g.Y = initial.X, initial.Y
		if initial.Width > 0 {
			g.Width = initial.Width
		}
		if initial.Height > 0 {
			g.Height = initial.Height
		}
	} else {
		g.X, g.Y = s.cascadePosition()
	}
	e := &domain.Element{
		Kind:     k,
		FieldKey: fieldKey,
		Geometry: s.min.Clamp(g),
	}
	applyKindDefaults(e)
	e.ID = s.allocID()
	e.ZIndex = s.maxZ() + 1
	s.insert(e)
	return e.ID, nil
}

func (s *Scene) cascadePosition() (float64, float64) {
	x, y := cascadeStart, cascadeStart
	for s.occupied(x, y) {
		x += cascadeStep
		y += cascadeStep
	}
	return x, y
}

func (s *Scene) occupied(x, y float64) bool {
	for _, e := range s.elements {
		if !e.IsGroup() && e.Geometry.X == x && e.Geometry.Y == y {
			return true
		}
	}
	return false
}

func applyKindDefaults(e *domain.Element) {
	switch e.Kind {
	case domain.KindField:
		if f, ok := domain.LookupField(e.FieldKey); ok {
			e.Content = f.Sample
			e.Style.FontSize = f.FontSize
			e.Style.FontWeight = f.FontWeight
		} else {
			e.Content = e.FieldKey
			e.Style.FontSize = 12
		}
	case domain.KindText:
		e.Content = "Text"
		e.Style.FontSize = 12
	case domain.KindLine:
		e.Style.Border = "1px solid #000"
	case domain.KindBox, domain.KindCircle, domain.KindTable:
		e.Style.Border = "1px solid #000"
		if e.Kind == domain.KindTable {
			e.TableRows, e.TableCols = 3, 2
		}
	case domain.KindBarcode:
		e.BarcodeType = domain.BarcodeCode128
		if f, ok := domain.LookupField("barcode"); ok {
			e.Content = f.Sample
		}
	case domain.KindQR:
		e.QRContent = e.FieldKey
	}
	if e.Style.Color == "" {
		e.Style.Color = "#000000"
	}
}

// RemoveElement deletes id. Deleting a group deletes its members; deleting a
// member drops it from its group, dissolving the group when fewer than two
// members remain. It reports false if id does not exist.
func (s *Scene) RemoveElement(id domain.ElementID) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	doomed := map[domain.ElementID]bool{id: true}
	if e.IsGroup() {
		for _, m := range e.Members {
			doomed[m] = true
		}
	}
	s.drop(doomed)
	s.normalizeGroups()
	return true
}

// RemoveElements deletes every id and returns how many were removed.
func (s *Scene) RemoveElements(ids []domain.ElementID) int {
	n := 0
	for _, id := range ids {
		if s.RemoveElement(id) {
			n++
		}
	}
	return n
}

func (s *Scene) drop(doomed map[domain.ElementID]bool) {
	kept := s.elements[:0]
	for _, e := range s.elements {
		if doomed[e.ID] {
			delete(s.byID, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.elements); i++ {
		s.elements[i] = nil
	}
	s.elements = kept
}

// normalizeGroups removes dangling member references, dissolves groups with
// fewer than two members and recomputes group bounds. A group's member list is
// authoritative; each member's GroupID is rewritten from it.
func (s *Scene) normalizeGroups() {
	owner := map[domain.ElementID]domain.ElementID{}
	dissolve := map[domain.ElementID]bool{}
	for _, g := range s.elements {
		if !g.IsGroup() {
			continue
		}
		members := g.Members[:0]
		for _, m := range g.Members {
			me, ok := s.byID[m]
			if !ok || me.IsGroup() || owner[m] != 0 {
				continue
			}
			owner[m] = g.ID
			members = append(members, m)
		}
		g.Members = members
		if len(g.Members) < 2 {
			dissolve[g.ID] = true
			for _, m := range g.Members {
				delete(owner, m)
			}
		}
	}
	for _, e := range s.elements {
		if e.IsGroup() {
			e.GroupID = 0
		} else {
			e.GroupID = owner[e.ID]
		}
	}
	if len(dissolve) > 0 {
		s.drop(dissolve)
	}
	for _, g := range s.elements {
		if g.IsGroup() {
			s.refreshGroupBounds(g)
		}
	}
}

func (s *Scene) refreshGroupBounds(g *domain.Element) {
	rects := make([]vector.Rect, 0, len(g.Members))
	for _, m := range g.Members {
		if me, ok := s.byID[m]; ok {
			rects = append(rects, me.Rect())
		}
	}
	if b, ok := vector.Bounds(rects); ok {
		g.Geometry = domain.GeometryOf(b)
	}
}

func (s *Scene) allocID() domain.ElementID {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Scene) insert(e *domain.Element) {
	s.elements = append(s.elements, e)
	s.byID[e.ID] = e
	s.sortZ()
}

func (s *Scene) sortZ() {
	sort.SliceStable(s.elements, func(i, j int) bool { return s.elements[i].ZIndex < s.elements[j].ZIndex })
}

func (s *Scene) maxZ() int {
	if len(s.elements) == 0 {
		return 0
	}
	return s.elements[len(s.elements)-1].ZIndex
}

func (s *Scene) minZ() int {
	if len(s.elements) == 0 {
		return 0
	}
	return s.elements[0].ZIndex
}

// Len returns the number of elements, groups included.
func (s *Scene) Len() int { return len(s.elements) }

// Element returns a copy of the element with the given id.
func (s *Scene) Element(id domain.ElementID) (domain.Element, bool) {
	e, ok := s.byID[id]
	if !ok {
		return domain.Element{}, false
	}
	return cloneElement(e), true
}

// Elements returns copies of all elements in z-order.
func (s *Scene) Elements() []domain.Element {
	out := make([]domain.Element, len(s.elements))
	for i, e := range s.elements {
		out[i] = cloneElement(e)
	}
	return out
}

// IDs returns all element ids in z-order.
func (s *Scene) IDs() []domain.ElementID {
	out := make([]domain.ElementID, len(s.elements))
	for i, e := range s.elements {
		out[i] = e.ID
	}
	return out
}

func cloneElement(e *domain.Element) domain.Element {
	c := *e
	if e.Members != nil {
		c.Members = append([]domain.ElementID(nil), e.Members...)
	}
	return c
}

// TopLevel returns the group containing id, or id itself when ungrouped.
func (s *Scene) TopLevel(id domain.ElementID) domain.ElementID {
	if e, ok := s.byID[id]; ok && e.GroupID != 0 {
		return e.GroupID
	}
	return id
}

// LabelSize returns the physical label size.
func (s *Scene) LabelSize() domain.LabelSize { return s.label }

// SetLabelSize changes the label size; non-positive dimensions are rejected.
func (s *Scene) SetLabelSize(l domain.LabelSize) error {
	if l.WidthMm <= 0 || l.HeightMm <= 0 {
		return &domain.ValidationError{Field: "labelSize", Reason: "label width and height must be positive"}
	}
	s.label = l
	return nil
}

// Canvas returns the label area in device pixels.
func (s *Scene) Canvas() vector.Rect { return s.label.Rect() }

func (s *Scene) Grid() domain.GridSnap     { return s.grid }
func (s *Scene) SetGrid(g domain.GridSnap) { s.grid = g }
func (s *Scene) MinSize() domain.MinSize   { return s.min }

// HitTest returns the topmost non-group element containing p.
func (s *Scene) HitTest(p vector.Pt) (domain.ElementID, bool) {
	for i := len(s.elements) - 1; i >= 0; i-- {
		e := s.elements[i]
		if !e.IsGroup() && e.Rect().Contains(p) {
			return e.ID, true
		}
	}
	return 0, false
}

// Intersecting returns the non-group elements whose boxes intersect r, in z-order.
func (s *Scene) Intersecting(r vector.Rect) []domain.ElementID {
	r = r.Normalize()
	var out []domain.ElementID
	for _, e := range s.elements {
		if !e.IsGroup() && e.Rect().Intersects(r) {
			out = append(out, e.ID)
		}
	}
	return out
}

// Bounds returns the union of the boxes of ids; unknown ids are skipped.
func (s *Scene) Bounds(ids []domain.ElementID) (vector.Rect, bool) {
	rects := make([]vector.Rect, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.byID[id]; ok {
			rects = append(rects, e.Rect())
		}
	}
	return vector.Bounds(rects)
}

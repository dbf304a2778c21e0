/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"labeldesigner/internal/domain"
	"labeldesigner/internal/vector"
)

// MoveElement translates id by (dx, dy). With grid snapping enabled the
// resulting x and y are rounded to the grid. Moving a group moves its members
// together, snapping the group's origin. It reports false if id does not exist.
func (s *Scene) MoveElement(id domain.ElementID, dx, dy float64) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	x := s.grid.Apply(e.Geometry.X + dx)
	y := s.grid.Apply(e.Geometry.Y + dy)
	s.moveTo(e, x, y)
	return true
}

// MoveTo places id's top-left corner at (x, y) without snapping.
func (s *Scene) MoveTo(id domain.ElementID, x, y float64) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	s.moveTo(e, x, y)
	return true
}

func (s *Scene) moveTo(e *domain.Element, x, y float64) {
	dx, dy := x-e.Geometry.X, y-e.Geometry.Y
	if e.IsGroup() {
		for _, m := range e.Members {
			if me, ok := s.byID[m]; ok {
				me.Geometry.X += dx
				me.Geometry.Y += dy
			}
		}
		s.refreshGroupBounds(e)
		return
	}
	e.Geometry.X, e.Geometry.Y = x, y
	if g, ok := s.byID[e.GroupID]; ok {
		s.refreshGroupBounds(g)
	}
}

// ResizeElement grows id by (dw, dh), clamping to the minimum size. Groups
// have no size of their own and are left unchanged (false).
func (s *Scene) ResizeElement(id domain.ElementID, dw, dh float64) bool {
	e, ok := s.byID[id]
	if !ok || e.IsGroup() {
		return false
	}
	g := e.Geometry
	g.Width += dw
	g.Height += dh
	e.Geometry = s.min.Clamp(g)
	if grp, ok := s.byID[e.GroupID]; ok {
		s.refreshGroupBounds(grp)
	}
	return true
}

// SetSelection replaces the selection; unknown ids are ignored.
func (s *Scene) SetSelection(ids []domain.ElementID) {
	want := make(map[domain.ElementID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, e := range s.elements {
		e.Selected = want[e.ID]
	}
}

// ToggleSelection flips id's selected flag.
func (s *Scene) ToggleSelection(id domain.ElementID) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	e.Selected = !e.Selected
	return true
}

// ClearSelection deselects everything.
func (s *Scene) ClearSelection() {
	for _, e := range s.elements {
		e.Selected = false
	}
}

// SelectAll selects every top-level element: groups and ungrouped elements.
func (s *Scene) SelectAll() {
	for _, e := range s.elements {
		e.Selected = e.GroupID == 0
	}
}

// Selection returns the selected ids in z-order.
func (s *Scene) Selection() []domain.ElementID {
	var out []domain.ElementID
	for _, e := range s.elements {
		if e.Selected {
			out = append(out, e.ID)
		}
	}
	return out
}

// IsSelected reports whether id is selected.
func (s *Scene) IsSelected(id domain.ElementID) bool {
	e, ok := s.byID[id]
	return ok && e.Selected
}

// Edge is an alignment target.
type Edge string

const (
	AlignLeft   Edge = "left"
	AlignCenter Edge = "center"
	AlignRight  Edge = "right"
	AlignTop    Edge = "top"
	AlignMiddle Edge = "middle"
	AlignBottom Edge = "bottom"
)

// AlignMargin is the inset from the label edge used by left and right alignment.
const AlignMargin = 5.0

// Align positions ids horizontally against the label canvas (left, center,
// right, with a 5 px margin) or vertically against the bounds of ids
// themselves (top, middle, bottom). Groups move as a unit. It reports false
// for an unknown edge or when no id exists.
func (s *Scene) Align(ids []domain.ElementID, edge Edge) bool {
	var units []*domain.Element
	seen := map[domain.ElementID]bool{}
	for _, id := range ids {
		if e, ok := s.byID[id]; ok && !seen[id] {
			seen[id] = true
			units = append(units, e)
		}
	}
	if len(units) == 0 {
		return false
	}
	canvas := s.Canvas()
	rects := make([]vector.Rect, len(units))
	for i, u := range units {
		rects[i] = u.Rect()
	}
	sel, _ := vector.Bounds(rects)
	for _, u := range units {
		g := u.Geometry
		x, y := g.X, g.Y
		switch edge {
		case AlignLeft:
			x = canvas.X + AlignMargin
		case AlignCenter:
			x = canvas.X + (canvas.W-g.Width)/2
		case AlignRight:
			x = canvas.Right() - g.Width - AlignMargin
		case AlignTop:
			y = sel.Y
		case AlignMiddle:
			y = sel.Center().Y - g.Height/2
		case AlignBottom:
			y = sel.Bottom() - g.Height
		default:
			return false
		}
		s.moveTo(u, x, y)
	}
	return true
}

// expand returns the existing ids plus the members of any group among them,
// in z-order.
func (s *Scene) expand(ids []domain.ElementID) map[domain.ElementID]bool {
	set := map[domain.ElementID]bool{}
	for _, id := range ids {
		e, ok := s.byID[id]
		if !ok {
			continue
		}
		set[id] = true
		for _, m := range e.Members {
			set[m] = true
		}
	}
	return set
}

// BringToFront moves ids above every other element, keeping their relative order.
func (s *Scene) BringToFront(ids []domain.ElementID) bool {
	set := s.expand(ids)
	if len(set) == 0 {
		return false
	}
	z := s.maxZ()
	for _, e := range s.elements {
		if set[e.ID] {
			z++
			e.ZIndex = z
		}
	}
	s.sortZ()
	return true
}

// SendToBack moves ids below every other element, keeping their relative order.
func (s *Scene) SendToBack(ids []domain.ElementID) bool {
	set := s.expand(ids)
	if len(set) == 0 {
		return false
	}
	z := s.minZ() - len(set)
	for _, e := range s.elements {
		if set[e.ID] {
			e.ZIndex = z
			z++
		}
	}
	s.sortZ()
	return true
}

// Group creates a group over ids and returns its id. A member id stands for
// its whole group and existing groups are absorbed, so groups never nest.
// Fewer than two resulting members is a no-op returning false.
func (s *Scene) Group(ids []domain.ElementID) (domain.ElementID, bool) {
	leaves := map[domain.ElementID]bool{}
	absorbed := map[domain.ElementID]bool{}
	for _, id := range ids {
		e, ok := s.byID[id]
		if !ok {
			continue
		}
		if e.GroupID != 0 {
			e = s.byID[e.GroupID]
		}
		if e.IsGroup() {
			absorbed[e.ID] = true
			for _, m := range e.Members {
				leaves[m] = true
			}
			continue
		}
		leaves[e.ID] = true
	}
	if len(leaves) < 2 {
		return 0, false
	}
	g := &domain.Element{Kind: domain.KindGroup}
	g.ID = s.allocID()
	selected := false
	for _, e := range s.elements {
		if leaves[e.ID] {
			selected = selected || e.Selected
			g.Members = append(g.Members, e.ID)
			e.GroupID = g.ID
			g.ZIndex = e.ZIndex // ascending, ends on the topmost member
			e.Selected = false
		}
	}
	for gid := range absorbed {
		if old, ok := s.byID[gid]; ok && old.Selected {
			selected = true
		}
	}
	s.drop(absorbed)
	g.Selected = selected
	s.insert(g)
	s.normalizeGroups()
	return g.ID, true
}

// Ungroup removes the group element, leaving members in place and selecting
// them if the group was selected. A non-group id is a no-op.
func (s *Scene) Ungroup(groupID domain.ElementID) bool {
	g, ok := s.byID[groupID]
	if !ok || !g.IsGroup() {
		return false
	}
	for _, m := range g.Members {
		if me, ok := s.byID[m]; ok {
			me.GroupID = 0
			me.Selected = me.Selected || g.Selected
		}
	}
	g.Members = nil
	s.drop(map[domain.ElementID]bool{groupID: true})
	s.normalizeGroups()
	return true
}

// UpdateElement applies fn to a copy of id and stores the result. The id,
// kind and group wiring cannot be changed this way; the size is clamped and
// a group's geometry is always recomputed from its members.
func (s *Scene) UpdateElement(id domain.ElementID, fn func(*domain.Element)) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	c := cloneElement(e)
	fn(&c)
	c.ID, c.Kind, c.GroupID, c.Members, c.Selected = e.ID, e.Kind, e.GroupID, e.Members, e.Selected
	if !c.Kind.Bindable() {
		c.FieldKey = ""
	}
	if e.IsGroup() {
		c.Geometry = e.Geometry
	} else {
		c.Geometry = s.min.Clamp(c.Geometry)
	}
	zChanged := c.ZIndex != e.ZIndex
	*e = c
	if g, ok := s.byID[e.GroupID]; ok {
		s.refreshGroupBounds(g)
	}
	if zChanged {
		s.sortZ()
	}
	return true
}

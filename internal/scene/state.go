/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"
	"fmt"
	"sort"

	"labeldesigner/internal/domain"
)

// State is the serializable part of a scene used for history snapshots.
// Selection is UI state and is not included.
type State struct {
	LabelSize domain.LabelSize `json:"labelSize"`
	Elements  []domain.Element `json:"elements"`
}

// State returns a deep copy of the scene's elements and label size.
func (s *Scene) State() State {
	return State{LabelSize: s.label, Elements: s.Elements()}
}

// MarshalState encodes the current state as a snapshot blob.
func (s *Scene) MarshalState() ([]byte, error) {
	return json.Marshal(s.State())
}

// RestoreState replaces the elements and label size from a snapshot blob.
// Elements that still exist keep their selection. The id counter never moves
// backwards, so ids deleted before the restore are not handed out again.
func (s *Scene) RestoreState(blob []byte) error {
	var st State
	if err := json.Unmarshal(blob, &st); err != nil {
		return fmt.Errorf("decode scene state: %w", err)
	}
	byID := make(map[domain.ElementID]*domain.Element, len(st.Elements))
	elems := make([]*domain.Element, 0, len(st.Elements))
	for i := range st.Elements {
		e := st.Elements[i]
		if e.ID <= 0 || byID[e.ID] != nil {
			return fmt.Errorf("decode scene state: invalid or duplicate id %d", e.ID)
		}
		if !e.Kind.Valid() {
			return fmt.Errorf("decode scene state: unknown kind %q", e.Kind)
		}
		if !e.IsGroup() {
			e.Geometry = s.min.Clamp(e.Geometry)
		}
		e.Selected = s.IsSelected(e.ID)
		byID[e.ID] = &e
		elems = append(elems, &e)
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	if st.LabelSize.WidthMm > 0 && st.LabelSize.HeightMm > 0 {
		s.label = st.LabelSize
	}
	s.elements = elems
	s.byID = byID
	s.sortZ()
	s.normalizeGroups()
	return nil
}

// Insert adds copies of els with fresh ids, offset by (dx, dy) and stacked
// above everything else in their original relative order. Group wiring inside
// els is preserved; references to groups outside els are dropped. The new
// top-level elements become the selection and their ids are returned.
func (s *Scene) Insert(els []domain.Element, dx, dy float64) []domain.ElementID {
	added := s.adopt(els, dx, dy, true)
	s.ClearSelection()
	var top []domain.ElementID
	for _, id := range added {
		if e, ok := s.byID[id]; ok && e.GroupID == 0 {
			e.Selected = true
			top = append(top, id)
		}
	}
	return top
}

// Populate adds copies of els with fresh ids, keeping their geometry and
// z-index. It is used to build a scene from a template.
func (s *Scene) Populate(els []domain.Element) []domain.ElementID {
	return s.adopt(els, 0, 0, false)
}

func (s *Scene) adopt(els []domain.Element, dx, dy float64, restack bool) []domain.ElementID {
	src := make([]domain.Element, 0, len(els))
	for _, e := range els {
		if e.Kind.Valid() {
			src = append(src, e)
		}
	}
	sort.SliceStable(src, func(i, j int) bool { return src[i].ZIndex < src[j].ZIndex })

	remap := make(map[domain.ElementID]domain.ElementID, len(src))
	fresh := make([]domain.ElementID, len(src))
	for i, e := range src {
		fresh[i] = s.allocID()
		if _, dup := remap[e.ID]; e.ID != 0 && !dup {
			remap[e.ID] = fresh[i]
		}
	}
	z := s.maxZ()
	added := make([]domain.ElementID, 0, len(src))
	for i, e := range src {
		id := fresh[i]
		c := e
		c.ID = id
		c.Selected = false
		if c.GroupID != 0 {
			c.GroupID = remap[c.GroupID]
		}
		if c.IsGroup() {
			members := make([]domain.ElementID, 0, len(e.Members))
			for _, m := range e.Members {
				if nm, ok := remap[m]; ok {
					members = append(members, nm)
				}
			}
			c.Members = members
			c.GroupID = 0
		} else {
			c.Geometry.X += dx
			c.Geometry.Y += dy
			c.Geometry = s.min.Clamp(c.Geometry)
			c.Members = nil
		}
		if restack {
			z++
			c.ZIndex = z
		}
		s.elements = append(s.elements, &c)
		s.byID[c.ID] = &c
		added = append(added, c.ID)
	}
	s.sortZ()
	s.normalizeGroups()
	out := added[:0]
	for _, id := range added {
		if _, ok := s.byID[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"github.com/jinzhu/copier"

	"labeldesigner/internal/domain"
)

// PasteOffset is how far each successive paste is shifted right and down.
const PasteOffset = 10.0

// clipboard holds deep copies of elements, never references into the scene.
type clipboard struct {
	items  []domain.Element
	pastes int
}

func cloneAll(els []domain.Element) ([]domain.Element, error) {
	out := make([]domain.Element, 0, len(els))
	if err := copier.CopyWithOption(&out, &els, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return out, nil
}

// selectionElements returns the selected top-level elements and the members
// of selected groups, in z-order.
func (c *Controller) selectionElements() []domain.Element {
	want := map[domain.ElementID]bool{}
	for _, u := range c.selectedUnits() {
		want[u] = true
	}
	var out []domain.Element
	for _, e := range c.scene.Elements() {
		if want[e.ID] || want[e.GroupID] {
			out = append(out, e)
		}
	}
	return out
}

// Copy puts the selection on the clipboard and returns how many elements
// were copied. An empty selection leaves the clipboard unchanged.
func (c *Controller) Copy() int {
	els := c.selectionElements()
	if len(els) == 0 {
		return 0
	}
	items, err := cloneAll(els)
	if err != nil {
		c.log.Error("copy failed", slog.Any("err", err))
		return 0
	}
	c.clip = clipboard{items: items}
	return len(items)
}

// Cut copies the selection and deletes it.
func (c *Controller) Cut() bool {
	if c.Copy() == 0 {
		return false
	}
	return c.Delete()
}

// Paste inserts the clipboard with fresh ids, offset a further 10 px on
// every paste, selects the new elements and commits.
func (c *Controller) Paste() []domain.ElementID {
	if len(c.clip.items) == 0 {
		return nil
	}
	items, err := cloneAll(c.clip.items)
	if err != nil {
		c.log.Error("paste failed", slog.Any("err", err))
		return nil
	}
	c.clip.pastes++
	off := PasteOffset * float64(c.clip.pastes)
	ids := c.scene.Insert(items, off, off)
	c.Commit("paste")
	return ids
}

// Duplicate clones the selection 10 px away without touching the clipboard.
func (c *Controller) Duplicate() []domain.ElementID {
	els := c.selectionElements()
	if len(els) == 0 {
		return nil
	}
	items, err := cloneAll(els)
	if err != nil {
		c.log.Error("duplicate failed", slog.Any("err", err))
		return nil
	}
	ids := c.scene.Insert(items, PasteOffset, PasteOffset)
	c.Commit("duplicate")
	return ids
}

// HasClipboard reports whether there is anything to paste.
func (c *Controller) HasClipboard() bool { return len(c.clip.items) > 0 }

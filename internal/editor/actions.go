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

	"labeldesigner/internal/domain"
	"labeldesigner/internal/scene"
	"labeldesigner/internal/undo"
)

// Add places a new element, applies the configured preset and commits.
func (c *Controller) Add(k domain.Kind, fieldKey string, g *domain.Geometry) (domain.ElementID, error) {
	id, err := c.scene.AddElement(k, fieldKey, g)
	if err != nil {
		return 0, err
	}
	if p, ok := LookupPreset(c.opts.Preset); ok {
		c.scene.UpdateElement(id, p.decorate)
	}
	c.scene.SetSelection([]domain.ElementID{id})
	c.Commit("add")
	return id, nil
}

// Update edits one element's properties and commits.
func (c *Controller) Update(id domain.ElementID, fn func(*domain.Element)) bool {
	if !c.scene.UpdateElement(id, fn) {
		return false
	}
	c.Commit("edit")
	return true
}

// Delete removes the selection. An empty selection is a no-op.
func (c *Controller) Delete() bool {
	sel := c.scene.Selection()
	if len(sel) == 0 {
		return false
	}
	if c.scene.RemoveElements(sel) == 0 {
		return false
	}
	c.Commit("delete")
	return true
}

// SelectAll selects every top-level element.
func (c *Controller) SelectAll() { c.scene.SelectAll() }

// ClearSelection deselects everything.
func (c *Controller) ClearSelection() { c.scene.ClearSelection() }

// Group groups the selection. Fewer than two elements is a no-op.
func (c *Controller) Group() (domain.ElementID, bool) {
	id, ok := c.scene.Group(c.scene.Selection())
	if !ok {
		return 0, false
	}
	c.scene.SetSelection([]domain.ElementID{id})
	c.Commit("group")
	return id, true
}

// Ungroup dissolves every selected group.
func (c *Controller) Ungroup() bool {
	changed := false
	for _, id := range c.scene.Selection() {
		if c.scene.Ungroup(id) {
			changed = true
		}
	}
	if changed {
		c.Commit("ungroup")
	}
	return changed
}

// Align aligns the selection to edge.
func (c *Controller) Align(edge scene.Edge) bool {
	if !c.scene.Align(c.selectedUnits(), edge) {
		return false
	}
	c.Commit("align")
	return true
}

// BringToFront raises the selection above everything else.
func (c *Controller) BringToFront() bool {
	if !c.scene.BringToFront(c.scene.Selection()) {
		return false
	}
	c.Commit("order")
	return true
}

// SendToBack lowers the selection below everything else.
func (c *Controller) SendToBack() bool {
	if !c.scene.SendToBack(c.scene.Selection()) {
		return false
	}
	c.Commit("order")
	return true
}

// Nudge moves the selection by (dx, dy) steps: one pixel per step, or one
// grid cell when snapping is on.
func (c *Controller) Nudge(dx, dy float64) bool {
	if g := c.scene.Grid(); g.Enabled && g.Size > 0 {
		dx, dy = dx*g.Size, dy*g.Size
	}
	return c.move(dx, dy, "nudge")
}

// MoveSelection moves the selection by (dx, dy) pixels and commits.
func (c *Controller) MoveSelection(dx, dy float64) bool {
	return c.move(dx, dy, "move")
}

func (c *Controller) move(dx, dy float64, label string) bool {
	units := c.selectedUnits()
	if len(units) == 0 {
		return false
	}
	for _, u := range units {
		c.scene.MoveElement(u, dx, dy)
	}
	c.Commit(label)
	return true
}

// SetLabelSize changes the physical label size and commits.
func (c *Controller) SetLabelSize(l domain.LabelSize) error {
	if err := c.scene.SetLabelSize(l); err != nil {
		return err
	}
	c.Commit("label size")
	return nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (c *Controller) Undo() bool {
	c.Cancel()
	s, ok := c.history.Undo()
	if !ok {
		return false
	}
	return c.restore(s)
}

// Redo restores the next snapshot. It reports false when there is nothing
// to redo.
func (c *Controller) Redo() bool {
	c.Cancel()
	s, ok := c.history.Redo()
	if !ok {
		return false
	}
	return c.restore(s)
}

// JumpTo restores history entry i.
func (c *Controller) JumpTo(i int) bool {
	c.Cancel()
	s, ok := c.history.Jump(i)
	if !ok {
		return false
	}
	return c.restore(s)
}

func (c *Controller) restore(s undo.Snapshot) bool {
	if err := c.scene.RestoreState(s.Blob); err != nil {
		c.log.Error("restore snapshot failed", slog.String("label", s.Label), slog.Any("err", err))
		return false
	}
	return true
}

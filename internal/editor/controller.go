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
	applog "labeldesigner/internal/log"
	"labeldesigner/internal/scene"
	"labeldesigner/internal/undo"
	"labeldesigner/internal/vector"
)

// Mode is the controller's gesture state.
type Mode int

const (
	Idle Mode = iota
	Dragging
	Resizing
	MarqueeSelecting
)

func (m Mode) String() string {
	switch m {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case MarqueeSelecting:
		return "marquee"
	default:
		return "idle"
	}
}

// HandleSize is the edge length of the resize handle drawn at the
// bottom-right corner of a selected element.
const HandleSize = 8.0

// Options tune the controller.
type Options struct {
	// SmartGuides snaps dragged elements to the label and to other elements
	// while grid snapping is off.
	SmartGuides    bool
	GuideThreshold float64
	// Preset names the style preset applied to newly added elements.
	Preset string
}

// Controller translates pointer and keyboard input into scene mutations.
// Only one gesture is active at a time and every completed gesture commits
// exactly one history snapshot. It is not safe for concurrent use.
type Controller struct {
	scene   *scene.Scene
	history *undo.History
	opts    Options
	log     *slog.Logger

	mode        Mode
	start       vector.Pt
	additive    bool
	primary     domain.ElementID
	primaryRect vector.Rect
	units       []domain.ElementID
	origins     map[domain.ElementID]vector.Pt
	moving      map[domain.ElementID]bool
	startGeom   domain.Geometry
	dx, dy      float64
	marquee     vector.Rect
	guides      []vector.GuideLine

	clip      clipboard
	attached  bool
	textFocus bool

	// OnCommit runs after each committed snapshot.
	OnCommit func(label string)
	// OnSave is called for the save shortcut.
	OnSave func()
}

// NewController binds a controller to s and seeds h with the scene's state.
func NewController(s *scene.Scene, h *undo.History, opts Options) *Controller {
	if opts.GuideThreshold <= 0 {
		opts.GuideThreshold = 4
	}
	c := &Controller{history: h, opts: opts, log: applog.WithComponent("editor")}
	c.Bind(s)
	return c
}

// Bind switches the controller to a new scene, abandoning any gesture and
// restarting the history from the scene's current state. The clipboard is kept.
func (c *Controller) Bind(s *scene.Scene) {
	c.scene = s
	c.end()
	c.clip.pastes = 0
	blob, err := s.MarshalState()
	if err != nil {
		c.log.Error("snapshot failed", slog.Any("err", err))
		return
	}
	c.history.Reset(undo.Snapshot{Blob: blob})
}

func (c *Controller) Scene() *scene.Scene    { return c.scene }
func (c *Controller) History() *undo.History { return c.history }
func (c *Controller) Mode() Mode             { return c.mode }

// Guides returns the smart guides of the active drag.
func (c *Controller) Guides() []vector.GuideLine { return c.guides }

// Marquee returns the selection rectangle while marquee selecting.
func (c *Controller) Marquee() (vector.Rect, bool) {
	return c.marquee, c.mode == MarqueeSelecting
}

// Commit snapshots the scene under label. Callers that mutate the scene
// directly use it to make the change undoable.
func (c *Controller) Commit(label string) {
	blob, err := c.scene.MarshalState()
	if err != nil {
		c.log.Error("snapshot failed", slog.String("label", label), slog.Any("err", err))
		return
	}
	c.history.Commit(undo.Snapshot{Label: label, Blob: blob})
	c.log.Debug("committed", slog.String("label", label), slog.Int("history", c.history.Len()))
	if c.OnCommit != nil {
		c.OnCommit(label)
	}
}

// HandleRect returns the resize handle of id.
func (c *Controller) HandleRect(id domain.ElementID) (vector.Rect, bool) {
	e, ok := c.scene.Element(id)
	if !ok || e.IsGroup() {
		return vector.Rect{}, false
	}
	r := e.Rect()
	return vector.R(r.Right()-HandleSize/2, r.Bottom()-HandleSize/2, HandleSize, HandleSize), true
}

func (c *Controller) handleAt(p vector.Pt) (domain.ElementID, bool) {
	sel := c.scene.Selection()
	for i := len(sel) - 1; i >= 0; i-- {
		if r, ok := c.HandleRect(sel[i]); ok && r.Contains(p) {
			return sel[i], true
		}
	}
	return 0, false
}

// selectedUnits returns the selection reduced to top-level elements.
func (c *Controller) selectedUnits() []domain.ElementID {
	seen := map[domain.ElementID]bool{}
	var out []domain.ElementID
	for _, id := range c.scene.Selection() {
		u := c.scene.TopLevel(id)
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// PointerDown starts a gesture at p: resizing on a selection handle,
// dragging on an element, marquee selection on empty canvas. With additive
// set (shift) the hit element's selection is toggled and the marquee adds to
// the selection. It returns false while another gesture is active.
func (c *Controller) PointerDown(p vector.Pt, additive bool) bool {
	if c.mode != Idle {
		return false
	}
	c.start, c.additive = p, additive
	c.dx, c.dy = 0, 0

	if id, ok := c.handleAt(p); ok && !additive {
		e, _ := c.scene.Element(id)
		c.primary, c.startGeom = id, e.Geometry
		c.mode = Resizing
		return true
	}
	if id, ok := c.scene.HitTest(p); ok {
		unit := c.scene.TopLevel(id)
		if additive {
			c.scene.ToggleSelection(unit)
			if !c.scene.IsSelected(unit) {
				return true
			}
		} else if !c.scene.IsSelected(unit) {
			c.scene.SetSelection([]domain.ElementID{unit})
		}
		c.beginDrag(unit)
		return true
	}
	if !additive {
		c.scene.ClearSelection()
	}
	c.marquee = vector.R(p.X, p.Y, 0, 0)
	c.mode = MarqueeSelecting
	return true
}

func (c *Controller) beginDrag(primary domain.ElementID) {
	c.primary = primary
	c.units = c.selectedUnits()
	c.origins = make(map[domain.ElementID]vector.Pt, len(c.units))
	c.moving = map[domain.ElementID]bool{}
	for _, u := range c.units {
		e, _ := c.scene.Element(u)
		c.origins[u] = vector.Pt{X: e.Geometry.X, Y: e.Geometry.Y}
		c.moving[u] = true
		for _, m := range e.Members {
			c.moving[m] = true
		}
		if u == primary {
			c.primaryRect = e.Rect()
		}
	}
	c.mode = Dragging
}

// PointerMove updates the active gesture.
func (c *Controller) PointerMove(p vector.Pt) {
	switch c.mode {
	case Dragging:
		c.dx, c.dy = c.guided(p.X-c.start.X, p.Y-c.start.Y)
		for _, u := range c.units {
			o := c.origins[u]
			c.scene.MoveTo(u, o.X+c.dx, o.Y+c.dy)
		}
	case Resizing:
		c.resizeTo(c.startGeom.Width+p.X-c.start.X, c.startGeom.Height+p.Y-c.start.Y)
	case MarqueeSelecting:
		c.marquee = vector.R(c.start.X, c.start.Y, p.X-c.start.X, p.Y-c.start.Y).Normalize()
	}
}

func (c *Controller) resizeTo(w, h float64) {
	cur, ok := c.scene.Element(c.primary)
	if !ok {
		return
	}
	c.scene.ResizeElement(c.primary, w-cur.Geometry.Width, h-cur.Geometry.Height)
}

// guided adjusts a drag offset with smart guides against the label and the
// elements that are not being dragged.
func (c *Controller) guided(dx, dy float64) (float64, float64) {
	c.guides = nil
	if !c.opts.SmartGuides || c.scene.Grid().Enabled {
		return dx, dy
	}
	anchors := []vector.Anchor{{Rect: c.scene.Canvas(), Weight: 2}}
	for _, e := range c.scene.Elements() {
		if e.IsGroup() || c.moving[e.ID] {
			continue
		}
		anchors = append(anchors, vector.Anchor{Rect: e.Rect(), Weight: 1})
	}
	moving := c.primaryRect.Translate(dx, dy)
	snapped, guides := vector.ComputeSmartGuides(moving, anchors, vector.SnapOptions{
		Threshold:     c.opts.GuideThreshold,
		SnapToEdges:   true,
		SnapToCenters: true,
	})
	c.guides = guides
	return dx + snapped.X - moving.X, dy + snapped.Y - moving.Y
}

// PointerUp finishes the active gesture at p and reports whether a history
// snapshot was committed.
func (c *Controller) PointerUp(p vector.Pt) bool {
	if c.mode == Idle {
		return false
	}
	c.PointerMove(p)
	switch c.mode {
	case Dragging:
		if c.scene.Grid().Enabled {
			for _, u := range c.units {
				o := c.origins[u]
				c.scene.MoveTo(u, o.X, o.Y)
				c.scene.MoveElement(u, c.dx, c.dy)
			}
		}
		moved := false
		for _, u := range c.units {
			if e, ok := c.scene.Element(u); ok && (e.Geometry.X != c.origins[u].X || e.Geometry.Y != c.origins[u].Y) {
				moved = true
			}
		}
		c.end()
		if moved {
			c.Commit("move")
		}
		return moved
	case Resizing:
		e, ok := c.scene.Element(c.primary)
		changed := ok && e.Geometry != c.startGeom
		c.end()
		if changed {
			c.Commit("resize")
		}
		return changed
	case MarqueeSelecting:
		var ids []domain.ElementID
		if c.additive {
			ids = c.scene.Selection()
		}
		if !c.marquee.Empty() {
			seen := map[domain.ElementID]bool{}
			for _, id := range ids {
				seen[id] = true
			}
			for _, id := range c.scene.Intersecting(c.marquee) {
				u := c.scene.TopLevel(id)
				if !seen[u] {
					seen[u] = true
					ids = append(ids, u)
				}
			}
		}
		c.scene.SetSelection(ids)
		c.end()
	}
	return false
}

// Cancel abandons the active gesture, putting moved or resized elements back.
func (c *Controller) Cancel() bool {
	switch c.mode {
	case Idle:
		return false
	case Dragging:
		for _, u := range c.units {
			o := c.origins[u]
			c.scene.MoveTo(u, o.X, o.Y)
		}
	case Resizing:
		c.resizeTo(c.startGeom.Width, c.startGeom.Height)
	}
	c.end()
	return true
}

func (c *Controller) end() {
	c.mode = Idle
	c.units, c.origins, c.moving, c.guides = nil, nil, nil, nil
	c.marquee = vector.Rect{}
	c.primary = 0
}

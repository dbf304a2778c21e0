/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "strings"

// Key is a key press as delivered by a front end. Name is the key value,
// a single character for printable keys ("c", "z") or a name such as
// "Delete", "Escape" or "ArrowLeft".
type Key struct {
	Name  string
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

// Attach activates keyboard shortcuts. Front ends call it when the designer
// view gains focus and Detach when it is hidden or torn down.
func (c *Controller) Attach() { c.attached = true }

// Detach deactivates keyboard shortcuts.
func (c *Controller) Detach() {
	c.attached = false
	c.textFocus = false
}

// Attached reports whether shortcuts are active.
func (c *Controller) Attached() bool { return c.attached }

// SetTextFocus tells the controller whether a text input has focus; keys
// then belong to the input.
func (c *Controller) SetTextFocus(focused bool) { c.textFocus = focused }

// HandleKey runs the shortcut bound to k and reports whether it was handled.
//
//	ctrl+c / ctrl+x / ctrl+v / ctrl+d   copy, cut, paste, duplicate
//	ctrl+z, ctrl+y or ctrl+shift+z      undo, redo
//	ctrl+a                              select all
//	ctrl+g, ctrl+shift+g                group, ungroup
//	ctrl+s                              save
//	Delete, Backspace                   delete selection
//	Escape                              cancel gesture or clear selection
//	arrows                              nudge (shift: 10 steps)
func (c *Controller) HandleKey(k Key) bool {
	if !c.attached || c.textFocus {
		return false
	}
	if k.Ctrl || k.Meta {
		switch strings.ToLower(k.Name) {
		case "c":
			return c.Copy() > 0
		case "x":
			return c.Cut()
		case "v":
			return c.Paste() != nil
		case "d":
			return c.Duplicate() != nil
		case "z":
			if k.Shift {
				return c.Redo()
			}
			return c.Undo()
		case "y":
			return c.Redo()
		case "a":
			c.SelectAll()
			return true
		case "g":
			if k.Shift {
				return c.Ungroup()
			}
			_, ok := c.Group()
			return ok
		case "s":
			if c.OnSave != nil {
				c.OnSave()
				return true
			}
			return false
		}
		return false
	}
	step := 1.0
	if k.Shift {
		step = 10
	}
	switch k.Name {
	case "Delete", "Backspace":
		return c.Delete()
	case "Escape":
		if c.Cancel() {
			return true
		}
		c.ClearSelection()
		return true
	case "ArrowUp":
		return c.Nudge(0, -step)
	case "ArrowDown":
		return c.Nudge(0, step)
	case "ArrowLeft":
		return c.Nudge(-step, 0)
	case "ArrowRight":
		return c.Nudge(step, 0)
	}
	return false
}

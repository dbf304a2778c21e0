/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/editor"
	applog "labeldesigner/internal/log"
	"labeldesigner/internal/scene"
)

// Result summarizes a run.
type Result struct {
	Applied int
	// Names maps "as" bindings to the elements they created.
	Names map[string]domain.ElementID
}

// Run executes s against ctl, one undoable step per editing command. It
// stops at the first failing command; the commands before it stay applied.
func Run(ctl *editor.Controller, s Script) (Result, error) {
	r := &runner{ctl: ctl, names: map[string]domain.ElementID{}}
	l := applog.WithOperation(applog.WithComponent("script"), "run")
	res := Result{Names: r.names}
	for _, cmd := range s.Commands {
		if err := r.exec(cmd); err != nil {
			l.Warn("script stopped", slog.Int("line", cmd.Line), slog.String("op", string(cmd.Op)), slog.Any("err", err))
			return res, &Error{Line: cmd.Line, Message: err.Error(), Err: err}
		}
		res.Applied++
	}
	l.Debug("script applied", slog.Int("commands", res.Applied))
	return res, nil
}

type runner struct {
	ctl   *editor.Controller
	names map[string]domain.ElementID
}

func (r *runner) lookup(name string) (domain.ElementID, error) {
	id, ok := r.names[name]
	if !ok {
		return 0, fmt.Errorf("unknown element %q", name)
	}
	if _, ok := r.ctl.Scene().Element(id); !ok {
		return 0, fmt.Errorf("element %q no longer exists", name)
	}
	return id, nil
}

func (r *runner) bind(name string, id domain.ElementID) error {
	if name != "" {
		r.names[name] = id
	}
	return nil
}

func (r *runner) exec(cmd Command) error {
	ctl, sc := r.ctl, r.ctl.Scene()
	switch cmd.Op {
	case OpLabel:
		return ctl.SetLabelSize(domain.LabelSize{WidthMm: cmd.W, HeightMm: cmd.H})
	case OpGrid:
		sc.SetGrid(domain.GridSnap{Enabled: cmd.Grid, Size: cmd.W})
	case OpAdd:
		var g *domain.Geometry
		if cmd.HasPos {
			g = &domain.Geometry{X: cmd.X, Y: cmd.Y, Width: cmd.W, Height: cmd.H}
		}
		id, err := ctl.Add(cmd.Kind, cmd.Field, g)
		if err != nil {
			return err
		}
		if !cmd.HasPos && cmd.W > 0 {
			ctl.Update(id, func(e *domain.Element) { e.Geometry.Width, e.Geometry.Height = cmd.W, cmd.H })
		}
		return r.bind(cmd.Name, id)
	case OpSelect:
		return r.selectTargets(cmd.Targets)
	case OpMove:
		if !ctl.MoveSelection(cmd.X, cmd.Y) {
			return fmt.Errorf("nothing selected")
		}
	case OpResize:
		id, err := r.lookup(cmd.Name)
		if err != nil {
			return err
		}
		e, _ := sc.Element(id)
		if !sc.ResizeElement(id, cmd.W-e.Geometry.Width, cmd.H-e.Geometry.Height) {
			return fmt.Errorf("%s elements cannot be resized", e.Kind)
		}
		ctl.Commit("resize")
	case OpAlign:
		if !ctl.Align(scene.Edge(cmd.Value)) {
			return fmt.Errorf("nothing selected")
		}
	case OpGroup:
		id, ok := ctl.Group()
		if !ok {
			return fmt.Errorf("group needs at least two selected elements")
		}
		return r.bind(cmd.Name, id)
	case OpUngroup:
		if !ctl.Ungroup() {
			return fmt.Errorf("no group selected")
		}
	case OpPreset:
		return ctl.ApplyPreset(cmd.Value)
	case OpTheme:
		return ctl.ApplyTheme(cmd.Value)
	case OpSet:
		return r.set(cmd.Key, cmd.Value)
	case OpFront:
		ctl.BringToFront()
	case OpBack:
		ctl.SendToBack()
	case OpDelete:
		ctl.Delete()
	case OpCopy:
		ctl.Copy()
	case OpPaste:
		ctl.Paste()
	case OpDuplicate:
		ctl.Duplicate()
	case OpUndo:
		ctl.Undo()
	case OpRedo:
		ctl.Redo()
	default:
		return fmt.Errorf("unknown command %q", cmd.Op)
	}
	return nil
}

func (r *runner) selectTargets(targets []string) error {
	sc := r.ctl.Scene()
	if len(targets) == 1 {
		switch strings.ToLower(targets[0]) {
		case "all":
			r.ctl.SelectAll()
			return nil
		case "none":
			r.ctl.ClearSelection()
			return nil
		}
	}
	ids := make([]domain.ElementID, 0, len(targets))
	for _, t := range targets {
		id, err := r.lookup(t)
		if err != nil {
			return err
		}
		ids = append(ids, sc.TopLevel(id))
	}
	sc.SetSelection(ids)
	return nil
}

// set changes one style property or the content of the selected elements,
// descending into groups, and commits once.
func (r *runner) set(key, value string) error {
	sc := r.ctl.Scene()
	var ids []domain.ElementID
	sel := map[domain.ElementID]bool{}
	for _, id := range sc.Selection() {
		sel[id] = true
	}
	for _, e := range sc.Elements() {
		if !e.IsGroup() && (sel[e.ID] || sel[e.GroupID]) {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("nothing selected")
	}
	apply := func(e *domain.Element) {
		switch key {
		case "fontSize":
			e.Style.FontSize, _ = strconv.ParseFloat(value, 64)
		case "fontWeight":
			e.Style.FontWeight = value
		case "color":
			e.Style.Color = value
		case "textAlign":
			e.Style.TextAlign = value
		case "border":
			e.Style.Border = value
		case "content":
			e.Content = value
		}
	}
	for _, id := range ids {
		sc.UpdateElement(id, apply)
	}
	r.ctl.Commit("edit")
	return nil
}

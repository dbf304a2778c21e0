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

	"labeldesigner/internal/domain"
)

// Script is a parsed batch of designer edits, one command per source line.
type Script struct {
	Commands []Command
}

// Op names a script command.
type Op string

const (
	OpLabel     Op = "label"
	OpGrid      Op = "grid"
	OpAdd       Op = "add"
	OpSelect    Op = "select"
	OpMove      Op = "move"
	OpResize    Op = "resize"
	OpAlign     Op = "align"
	OpGroup     Op = "group"
	OpUngroup   Op = "ungroup"
	OpPreset    Op = "preset"
	OpTheme     Op = "theme"
	OpSet       Op = "set"
	OpFront     Op = "front"
	OpBack      Op = "back"
	OpDelete    Op = "delete"
	OpCopy      Op = "copy"
	OpPaste     Op = "paste"
	OpDuplicate Op = "duplicate"
	OpUndo      Op = "undo"
	OpRedo      Op = "redo"
)

// Command is one parsed line. Only the fields its Op uses are set.
//
//	label 50x30                     label size in millimeters
//	grid on 10 | grid off
//	add KIND [FIELD] [at X,Y] [size WxH] [as NAME]
//	select all | none | NAME...
//	move DX,DY
//	resize NAME WxH
//	align left|center|right|top|middle|bottom
//	group [as NAME] | ungroup
//	preset NAME | theme NAME
//	set fontSize|fontWeight|color|textAlign|border|content VALUE
//	front | back | delete | copy | paste | duplicate | undo | redo
type Command struct {
	Op   Op
	Line int // 1-based line number in the source

	Kind  domain.Kind
	Field string
	// HasPos is set when X and Y were given.
	HasPos bool
	X, Y   float64
	W, H   float64
	Grid   bool

	// Name is the element a command creates ("as") or resizes.
	Name    string
	Targets []string
	Key     string
	Value   string
}

// Error represents a parse or run error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
	// Err is the underlying failure of a run error.
	Err error
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

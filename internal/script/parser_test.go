/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"testing"

	"labeldesigner/internal/domain"
)

func TestParse_Basic(t *testing.T) {
	input := `# shelf label
label 60x40

add field item_code at 10,10 size 80x20 as code
add text as title
  select code title
set content "Hello \"World\""
grid on
grid on 5
grid off
align Middle
group as pair
undo`

	s, errs := Parse(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if len(s.Commands) != 11 {
		t.Fatalf("expected 11 commands, got %d", len(s.Commands))
	}
	c := s.Commands[0]
	if c.Op != OpLabel || c.W != 60 || c.H != 40 || c.Line != 2 {
		t.Fatalf("unexpected label command: %+v", c)
	}
	c = s.Commands[1]
	if c.Op != OpAdd || c.Kind != domain.KindField || c.Field != "item_code" || !c.HasPos ||
		c.X != 10 || c.Y != 10 || c.W != 80 || c.H != 20 || c.Name != "code" || c.Line != 4 {
		t.Fatalf("unexpected add command: %+v", c)
	}
	if c = s.Commands[2]; c.Kind != domain.KindText || c.HasPos || c.Name != "title" {
		t.Fatalf("unexpected second add: %+v", c)
	}
	if c = s.Commands[3]; c.Op != OpSelect || strings.Join(c.Targets, ",") != "code,title" {
		t.Fatalf("unexpected select: %+v", c)
	}
	if c = s.Commands[4]; c.Key != "content" || c.Value != `Hello "World"` {
		t.Fatalf("unexpected set: %+v", c)
	}
	if c = s.Commands[5]; !c.Grid || c.W != 10 {
		t.Fatalf("grid on should default to 10: %+v", c)
	}
	if c = s.Commands[6]; !c.Grid || c.W != 5 {
		t.Fatalf("unexpected grid size: %+v", c)
	}
	if c = s.Commands[7]; c.Grid {
		t.Fatalf("grid off parsed as on")
	}
	if c = s.Commands[8]; c.Value != "middle" {
		t.Fatalf("edge not normalized: %+v", c)
	}
	if c = s.Commands[9]; c.Op != OpGroup || c.Name != "pair" {
		t.Fatalf("unexpected group: %+v", c)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		line   string
		column int
		msg    string
	}{
		{"frobnicate", 1, "unknown command"},
		{"add box item_code", 9, "cannot be bound"},
		{"add group", 5, "unknown element kind"},
		{"add text at", 10, "missing value"},
		{"move 10", 6, "expected X,Y"},
		{"label 0x10", 7, "must be positive"},
		{"resize code", 1, "takes 2 argument(s)"},
		{"align diagonal", 7, "unknown edge"},
		{"set size 10", 5, "unknown property"},
		{"set fontSize big", 14, "positive number"},
		{"set textAlign middle", 15, "must be one of left"},
		{"grid maybe", 6, "expected on or off"},
		{"add text as all", 13, "reserved"},
		{"delete now", 1, "takes no arguments"},
		{"select", 1, "needs all, none"},
		{`set content "unterminated`, 0, "unterminated quote"},
	}
	for _, tc := range cases {
		_, errs := Parse("label 50x30\n" + tc.line)
		if len(errs) != 1 {
			t.Fatalf("%q: expected 1 error, got %+v", tc.line, errs)
		}
		e := errs[0]
		if e.Line != 2 || e.Column != tc.column || !strings.Contains(e.Message, tc.msg) {
			t.Fatalf("%q: unexpected error %+v", tc.line, e)
		}
	}
}

func TestParse_KeepsValidLinesAroundErrors(t *testing.T) {
	s, errs := Parse("add box\nbogus\ndelete")
	if len(errs) != 1 || errs[0].Line != 2 {
		t.Fatalf("expected one error on line 2, got %+v", errs)
	}
	if len(s.Commands) != 2 || s.Commands[1].Line != 3 {
		t.Fatalf("expected the valid lines to survive: %+v", s.Commands)
	}
	if got := (&errs[0]).Error(); !strings.HasPrefix(got, "line 2:1: ") {
		t.Fatalf("unexpected error text %q", got)
	}
}

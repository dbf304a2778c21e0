/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestWrapBreaksOnSpaces(t *testing.T) {
	b := Wrap(BasicProvider{}, "Hello world from Go", FontSpec{}, 50, 0)
	if len(b.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(b.Lines))
	}
	for _, l := range b.Lines {
		if l.Width > 50 {
			t.Fatalf("line %q is %v wide", l.Text, l.Width)
		}
		if strings.HasPrefix(l.Text, " ") || strings.HasSuffix(l.Text, " ") {
			t.Fatalf("line %q carries spaces at its ends", l.Text)
		}
	}
	if b.Width <= 0 || b.Height != float64(len(b.Lines))*b.Metrics.LineHeight() {
		t.Fatalf("unexpected block size: %+v", b)
	}
}

func TestWrapSplitsLongWordsAndKeepsNewlines(t *testing.T) {
	// the bitmap face is 7px per character
	b := Wrap(BasicProvider{}, "ABCDEFGHIJ\nxy", FontSpec{}, 28, 0)
	got := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		got[i] = l.Text
	}
	want := []string{"ABCD", "EFGH", "IJ", "xy"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestWrapDropsLinesBeyondHeight(t *testing.T) {
	b := Wrap(BasicProvider{}, "one two three four", FontSpec{}, 30, 20)
	if len(b.Lines) != 1 || !b.Truncated {
		t.Fatalf("expected one line and truncation, got %+v", b)
	}
	if b := Wrap(BasicProvider{}, "one two", FontSpec{}, 0, 0); len(b.Lines) != 1 || b.Lines[0].Text != "one two" {
		t.Fatalf("zero width must not wrap: %+v", b.Lines)
	}
}

func TestMeasureDeterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, "ABC", FontSpec{})
	w2, h2 := Measure(nil, "ABC", FontSpec{SizePx: 30})
	if w1 != 21 || w1 != w2 || h1 != h2 {
		t.Fatalf("expected same measure, got w1=%v h1=%v vs w2=%v h2=%v", w1, h1, w2, h2)
	}
}

func TestFontLibraryRejectsGarbage(t *testing.T) {
	lib := NewFontLibrary()
	if err := lib.Add("Broken", false, []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
	path := filepath.Join(t.TempDir(), "missing.ttf")
	if err := lib.LoadTTF("Missing", false, path); err == nil || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if lib.Len() != 0 {
		t.Fatalf("nothing should be registered")
	}
	// unknown family falls back to the bitmap face
	_, m := OTProvider{Lib: lib}.Resolve(FontSpec{Family: "Missing"})
	if _, want := (BasicProvider{}).Resolve(FontSpec{}); m != want {
		t.Fatalf("fallback metrics %+v, want %+v", m, want)
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestRectIntersectsAndNormalize(t *testing.T) {
	a := R(0, 0, 50, 50)
	if !a.Intersects(R(40, 40, 20, 20)) {
		t.Fatalf("overlapping rects should intersect")
	}
	if a.Intersects(R(60, 0, 10, 10)) {
		t.Fatalf("disjoint rects should not intersect")
	}
	n := R(100, 100, -30, -20).Normalize()
	if n != R(70, 80, 30, 20) {
		t.Fatalf("unexpected normalize: %+v", n)
	}
}

func TestBoundsAndUnion(t *testing.T) {
	if _, ok := Bounds(nil); ok {
		t.Fatalf("empty bounds should report false")
	}
	b, ok := Bounds([]Rect{R(10, 10, 10, 10), R(50, 5, 10, 30)})
	if !ok || b != R(10, 5, 50, 30) {
		t.Fatalf("unexpected bounds: %+v", b)
	}
}

func TestSnapValue(t *testing.T) {
	cases := []struct{ v, step, want float64 }{
		{37, 10, 40},
		{52, 10, 50},
		{45, 10, 50},
		{3.2, 0, 3.2},
		{-7, 5, -5},
	}
	for _, c := range cases {
		if got := SnapValue(c.v, c.step); got != c.want {
			t.Fatalf("SnapValue(%v,%v)=%v want %v", c.v, c.step, got, c.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#1e40af")
	if err != nil || c != (Color{0x1e, 0x40, 0xaf, 0xff}) {
		t.Fatalf("unexpected color %+v err=%v", c, err)
	}
	if c, _ := ParseColor("#fff"); c != White {
		t.Fatalf("short hex: %+v", c)
	}
	if c, _ := ParseColor(""); c != Black {
		t.Fatalf("empty should be black: %+v", c)
	}
	if _, err := ParseColor("rgb(1,2,3)"); err == nil {
		t.Fatalf("expected error for unsupported syntax")
	}
	if got := (Color{0x25, 0x63, 0xeb, 0xff}).Hex(); got != "#2563eb" {
		t.Fatalf("hex = %q", got)
	}
}

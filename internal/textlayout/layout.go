/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout breaks label text into lines that fit an element box.
// Measurement goes through a Provider so proofs can use the built-in bitmap
// face or fonts loaded from disk.
package textlayout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePx float64
	Bold   bool
}

// Metrics are font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// LineHeight is the distance between two baselines.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Line is one laid out line.
type Line struct {
	Text  string
	Width float64
}

// Block is text laid out into a box.
type Block struct {
	Lines   []Line
	Width   float64
	Height  float64
	Metrics Metrics
	// Truncated is set when lines were dropped to fit the height limit.
	Truncated bool
}

// Provider maps a FontSpec to a concrete face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider always resolves to the 7x13 bitmap face.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s).Ceil())
}

// Measure returns the width and line height of text on a single line.
func Measure(p Provider, text string, spec FontSpec) (w, h float64) {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	return advance(&font.Drawer{Face: face}, text), met.Ascent + met.Descent
}

// Wrap breaks text on spaces and newlines so that no line is wider than
// maxWidth; a word wider than maxWidth is split between characters. When
// maxHeight is positive, lines that would not fit are dropped. Non-positive
// maxWidth disables wrapping.
func Wrap(p Provider, text string, spec FontSpec, maxWidth, maxHeight float64) Block {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	d := &font.Drawer{Face: face}
	b := Block{Metrics: met}
	space := advance(d, " ")

	var cur Line
	emit := func() {
		if maxHeight > 0 && len(b.Lines) > 0 && b.Height+met.LineHeight() > maxHeight {
			b.Truncated = true
			cur = Line{}
			return
		}
		b.Lines = append(b.Lines, cur)
		b.Width = max(b.Width, cur.Width)
		b.Height += met.LineHeight()
		cur = Line{}
	}
	for _, para := range strings.Split(text, "\n") {
		for _, word := range strings.Fields(para) {
			w := advance(d, word)
			if cur.Text != "" && maxWidth > 0 && cur.Width+space+w > maxWidth {
				emit()
			}
			if maxWidth > 0 && w > maxWidth {
				if cur.Text != "" {
					emit()
				}
				pieces := splitWord(d, word, maxWidth)
				for _, piece := range pieces[:len(pieces)-1] {
					cur = Line{Text: piece, Width: advance(d, piece)}
					emit()
				}
				last := pieces[len(pieces)-1]
				cur = Line{Text: last, Width: advance(d, last)}
				continue
			}
			if cur.Text != "" {
				cur.Text += " "
				cur.Width += space
			}
			cur.Text += word
			cur.Width += w
		}
		emit()
	}
	return b
}

// splitWord cuts word into pieces no wider than maxWidth. Each piece holds
// at least one character.
func splitWord(d *font.Drawer, word string, maxWidth float64) []string {
	var out []string
	start := 0
	for i := 0; i < len(word); {
		_, size := utf8.DecodeRuneInString(word[i:])
		if i > start && advance(d, word[start:i+size]) > maxWidth {
			out = append(out, word[start:i])
			start = i
		}
		i += size
	}
	return append(out, word[start:])
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the element model placed on a label canvas. Geometry is in
// device pixels relative to the label's top-left corner.

import "labeldesigner/internal/vector"

// Kind is the type of a placed element.
type Kind string

const (
	KindField   Kind = "field"
	KindText    Kind = "text"
	KindLine    Kind = "line"
	KindBox     Kind = "box"
	KindCircle  Kind = "circle"
	KindImage   Kind = "image"
	KindLogo    Kind = "logo"
	KindQR      Kind = "qr"
	KindBarcode Kind = "barcode"
	KindTable   Kind = "table"
	KindGroup   Kind = "group"
)

// Kinds lists every element kind in palette order.
var Kinds = []Kind{KindField, KindText, KindLine, KindBox, KindCircle, KindImage, KindLogo, KindQR, KindBarcode, KindTable, KindGroup}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Bindable reports whether elements of this kind may carry a field key.
func (k Kind) Bindable() bool { return k == KindField || k == KindBarcode || k == KindQR }

// ElementID identifies an element within one scene. Ids are never reused.
type ElementID int64

// Geometry is an element's position and size.
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (g Geometry) Rect() vector.Rect { return vector.R(g.X, g.Y, g.Width, g.Height) }

// GeometryOf converts a rect back to element geometry.
func GeometryOf(r vector.Rect) Geometry { return Geometry{X: r.X, Y: r.Y, Width: r.W, Height: r.H} }

// Style carries presentation attributes; the renderer ignores the ones that
// do not apply to an element's kind.
type Style struct {
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
	Border     string  `json:"border,omitempty"`
}

// TextAligns lists the accepted text alignments. An empty alignment means
// the kind's default.
var TextAligns = []string{"left", "center", "right", "justify"}

// ValidTextAlign reports whether a is empty or one of TextAligns.
func ValidTextAlign(a string) bool {
	if a == "" {
		return true
	}
	for _, v := range TextAligns {
		if a == v {
			return true
		}
	}
	return false
}

// Element is one placed object on the label.
type Element struct {
	ID       ElementID `json:"id"`
	Kind     Kind      `json:"kind"`
	FieldKey string    `json:"fieldKey,omitempty"`
	Geometry Geometry  `json:"geometry"`
	Style    Style     `json:"style"`
	Content  string    `json:"content,omitempty"`
	ZIndex   int       `json:"zIndex"`

	// Selected is UI state and never leaves the scene.
	Selected bool `json:"-"`

	GroupID ElementID   `json:"groupId,omitempty"`
	Members []ElementID `json:"members,omitempty"`

	ImageURL    string `json:"imageUrl,omitempty"`
	QRContent   string `json:"qrContent,omitempty"`
	BarcodeType string `json:"barcodeType,omitempty"`
	TableRows   int    `json:"rows,omitempty"`
	TableCols   int    `json:"cols,omitempty"`
}

// IsGroup reports whether e is a group container.
func (e *Element) IsGroup() bool { return e.Kind == KindGroup }

// Rect returns the element's bounding rectangle.
func (e *Element) Rect() vector.Rect { return e.Geometry.Rect() }

// MinSize is the floor applied to every element's width and height.
type MinSize struct {
	Width  float64
	Height float64
}

// DefaultMinSize is used when no configuration overrides it.
var DefaultMinSize = MinSize{Width: 20, Height: 10}

// Clamp returns g with width and height raised to the floor.
func (m MinSize) Clamp(g Geometry) Geometry {
	if g.Width < m.Width {
		g.Width = m.Width
	}
	if g.Height < m.Height {
		g.Height = m.Height
	}
	return g
}

// GridSnap configures position rounding.
type GridSnap struct {
	Enabled bool    `json:"enabled"`
	Size    float64 `json:"size"`
}

// Apply rounds v to the grid when snapping is enabled.
func (g GridSnap) Apply(v float64) float64 {
	if !g.Enabled {
		return v
	}
	return vector.SnapValue(v, g.Size)
}

// DPI is the fixed screen resolution used to convert label millimeters to pixels.
const DPI = 96.0

const mmPerInch = 25.4

// MmToPx converts millimeters to device pixels.
func MmToPx(mm float64) float64 { return mm * DPI / mmPerInch }

// PxToMm converts device pixels to millimeters.
func PxToMm(px float64) float64 { return px * mmPerInch / DPI }

// LabelSize is the physical label size.
type LabelSize struct {
	WidthMm  float64 `json:"widthMm"`
	HeightMm float64 `json:"heightMm"`
}

// Px returns the label size in device pixels.
func (l LabelSize) Px() (w, h float64) { return MmToPx(l.WidthMm), MmToPx(l.HeightMm) }

// Rect returns the label canvas as a rect anchored at the origin.
func (l LabelSize) Rect() vector.Rect {
	w, h := l.Px()
	return vector.R(0, 0, w, h)
}

// DefaultLabelSize is 50×30 mm.
var DefaultLabelSize = LabelSize{WidthMm: 50, HeightMm: 30}

// DefaultGeometry returns the initial size for a new element of kind k,
// anchored at the origin.
func DefaultGeometry(k Kind) Geometry {
	switch k {
	case KindField:
		return Geometry{Width: 80, Height: 20}
	case KindText:
		return Geometry{Width: 100, Height: 20}
	case KindLine:
		return Geometry{Width: 100, Height: 10}
	case KindBox:
		return Geometry{Width: 80, Height: 40}
	case KindCircle:
		return Geometry{Width: 40, Height: 40}
	case KindImage, KindLogo:
		return Geometry{Width: 60, Height: 40}
	case KindQR:
		return Geometry{Width: 80, Height: 80}
	case KindBarcode:
		return Geometry{Width: 120, Height: 40}
	case KindTable:
		return Geometry{Width: 120, Height: 60}
	default:
		return Geometry{Width: 20, Height: 10}
	}
}

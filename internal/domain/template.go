/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Template documents are the wire form of a scene exchanged with the external
// store, renderer and print dispatcher. Element ids never appear here; order
// and position are the durable identity.

// Template types offered by the designer.
const (
	TemplateItem     = "Item"
	TemplateBatch    = "Batch"
	TemplateSerialNo = "Serial No"
	TemplateGeneral  = "General"
)

// TemplateTypes lists the accepted template_type values.
var TemplateTypes = []string{TemplateItem, TemplateBatch, TemplateSerialNo, TemplateGeneral}

// Barcode symbologies understood by the barcode image service.
const (
	BarcodeCode128 = "Code128"
	BarcodeCode39  = "Code39"
	BarcodeEAN13   = "EAN-13"
	BarcodeQR      = "QR Code"
)

// BarcodeTypes lists the accepted barcode_type values.
var BarcodeTypes = []string{BarcodeCode128, BarcodeCode39, BarcodeEAN13, BarcodeQR}

// Default barcode image size requested from the image service.
const (
	DefaultBarcodeWidth  = 200
	DefaultBarcodeHeight = 100
)

// TemplateMeta is the descriptive part of a template document.
type TemplateMeta struct {
	Name            string `json:"name"`
	TemplateType    string `json:"template_type,omitempty"`
	BarcodeType     string `json:"barcode_type,omitempty"`
	BarcodeWidth    int    `json:"barcode_width,omitempty"`
	BarcodeHeight   int    `json:"barcode_height,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	BorderStyle     string `json:"border_style,omitempty"`
	IsDefault       bool   `json:"is_default,omitempty"`
}

// BarcodeSize returns the configured barcode size or the defaults.
func (m TemplateMeta) BarcodeSize() (w, h int) {
	w, h = m.BarcodeWidth, m.BarcodeHeight
	if w <= 0 {
		w = DefaultBarcodeWidth
	}
	if h <= 0 {
		h = DefaultBarcodeHeight
	}
	return w, h
}

// TemplateDocument is one label template.
type TemplateDocument struct {
	TemplateMeta
	LabelWidth  float64           `json:"label_width"`
	LabelHeight float64           `json:"label_height"`
	Elements    []TemplateElement `json:"elements"`
}

// LabelSize returns the declared physical size.
func (d *TemplateDocument) LabelSize() LabelSize {
	return LabelSize{WidthMm: d.LabelWidth, HeightMm: d.LabelHeight}
}

// TemplateElement is the flattened form of a non-group element. Group
// membership is carried as a document-local ordinal shared by all members
// of the same group; zero means ungrouped.
type TemplateElement struct {
	Type        string  `json:"type"`
	Field       string  `json:"field,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FontSize    float64 `json:"fontSize,omitempty"`
	FontWeight  string  `json:"fontWeight,omitempty"`
	Color       string  `json:"color,omitempty"`
	TextAlign   string  `json:"textAlign,omitempty"`
	Border      string  `json:"border,omitempty"`
	Content     string  `json:"content,omitempty"`
	ZIndex      int     `json:"zIndex"`
	Group       int     `json:"group,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	QRContent   string  `json:"qrContent,omitempty"`
	BarcodeType string  `json:"barcodeType,omitempty"`
	Rows        int     `json:"rows,omitempty"`
	Cols        int     `json:"cols,omitempty"`
}

// TemplateFilter narrows a template listing.
type TemplateFilter struct {
	TemplateType string
	NameContains string
}

// Match reports whether doc passes the filter.
func (f TemplateFilter) Match(doc *TemplateDocument) bool {
	if f.TemplateType != "" && doc.TemplateType != f.TemplateType {
		return false
	}
	if f.NameContains != "" && !containsFold(doc.Name, f.NameContains) {
		return false
	}
	return true
}

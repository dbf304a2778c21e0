/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"strings"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/render"
	tpl "labeldesigner/internal/template"
)

// Thermal printers run at 203 dpi: 8 dots per mm.
const (
	dotsPerMm = 8
	pxPerMm   = 3.78
)

// ZPL returns the command stream for a thermal printer. Only barcodes and
// text-bearing elements (text, field) are emitted; shapes and images have no
// ZPL counterpart here.
func ZPL(doc domain.TemplateDocument, opt Options) string {
	var b strings.Builder
	b.WriteString("^XA^LH0,0^FS")
	fmt.Fprintf(&b, "^PW%d^FS", int(doc.LabelWidth*dotsPerMm))

	ro := render.OptionsFor(doc.TemplateMeta, render.Options{LiveMode: opt.LiveMode, Record: opt.Record})
	for _, e := range tpl.Elements(doc) {
		x := int(e.Geometry.X * dotsPerMm / pxPerMm)
		y := int(e.Geometry.Y * dotsPerMm / pxPerMm)
		content, _ := render.Content(e, ro)
		switch e.Kind {
		case domain.KindBarcode:
			fmt.Fprintf(&b, "^FO%d,%d^BY2,3,50^BCN,,Y,N^FD%s^FS", x, y, zplData(content))
		case domain.KindText, domain.KindField:
			fs := e.Style.FontSize
			if fs <= 0 {
				fs = 12
			}
			h := max(1, int(fs/4))
			fmt.Fprintf(&b, "^FO%d,%d^A0N,%d,%d^FD%s^FS", x, y, h, h, zplData(content))
		}
	}
	fmt.Fprintf(&b, "^PQ%d^XZ", opt.copies())
	return b.String()
}

// ExportZPL writes the ZPL stream for doc to outPath.
func ExportZPL(doc domain.TemplateDocument, outPath string, opt Options) error {
	if err := ensureParent(outPath); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(ZPL(doc, opt)), 0o644); err != nil {
		return fmt.Errorf("write zpl: %w", err)
	}
	return nil
}

// zplData strips the command prefixes so field data cannot start a command.
func zplData(s string) string {
	return strings.NewReplacer("^", " ", "~", " ", "\n", " ").Replace(s)
}

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
	"io"

	"github.com/jung-kurt/gofpdf"
	"labeldesigner/internal/domain"
	"labeldesigner/internal/vector"
)

// PDFOptions controls PDF export behavior.
// Pages are sized to the label in millimeters; one page is written per copy.
// Text uses the built-in Helvetica so nothing needs embedding.
type PDFOptions struct {
	Options
	Title string
}

// WritePDF renders doc as a PDF proof to w.
func WritePDF(w io.Writer, doc domain.TemplateDocument, opt PDFOptions) error {
	pdf := buildPDF(doc, opt)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes the PDF proof of doc to outPath, creating parent folders.
func ExportPDF(doc domain.TemplateDocument, outPath string, opt PDFOptions) error {
	if err := ensureParent(outPath); err != nil {
		return err
	}
	pdf := buildPDF(doc, opt)
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func buildPDF(doc domain.TemplateDocument, opt PDFOptions) *gofpdf.Fpdf {
	ls := doc.LabelSize()
	size := gofpdf.SizeType{Wd: ls.WidthMm, Ht: ls.HeightMm}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "mm",
		Size:           size,
		OrientationStr: "P",
	})
	title := opt.Title
	if title == "" {
		title = doc.Name
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("Label Designer", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)

	c := &pdfCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for i := 0; i < opt.copies(); i++ {
		pdf.AddPageFormat("P", size)
		paint(c, doc, opt.Options)
	}
	return pdf
}

type pdfCanvas struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func mm(px float64) float64 { return domain.PxToMm(px) }

func (c *pdfCanvas) rect(r vector.Rect, st stroke, fill *vector.Color) {
	style := ""
	if fill != nil && fill.A > 0 {
		setFillColor(c.pdf, *fill)
		style += "F"
	}
	if st.Width > 0 {
		setDrawColor(c.pdf, st.Color)
		c.pdf.SetLineWidth(mm(st.Width))
		style += "D"
	}
	if style == "" {
		return
	}
	c.pdf.Rect(mm(r.X), mm(r.Y), mm(r.W), mm(r.H), style)
}

func (c *pdfCanvas) ellipse(r vector.Rect, st stroke) {
	if st.Width <= 0 {
		return
	}
	setDrawColor(c.pdf, st.Color)
	c.pdf.SetLineWidth(mm(st.Width))
	ctr := r.Center()
	c.pdf.Ellipse(mm(ctr.X), mm(ctr.Y), mm(r.W/2), mm(r.H/2), 0, "D")
}

func (c *pdfCanvas) line(x0, y0, x1, y1 float64, st stroke) {
	if st.Width <= 0 {
		return
	}
	setDrawColor(c.pdf, st.Color)
	c.pdf.SetLineWidth(mm(st.Width))
	c.pdf.Line(mm(x0), mm(y0), mm(x1), mm(y1))
}

func (c *pdfCanvas) text(r vector.Rect, s string, ts textStyle) {
	if s == "" || r.Empty() {
		return
	}
	style := ""
	if ts.Bold {
		style = "B"
	}
	// 1px = 0.75pt at 96 DPI
	c.pdf.SetFont("Helvetica", style, ts.Size*0.75)
	c.pdf.SetTextColor(int(ts.Color.R), int(ts.Color.G), int(ts.Color.B))
	align := "LM"
	switch ts.Align {
	case "center":
		align = "CM"
	case "right":
		align = "RM"
	}
	c.pdf.ClipRect(mm(r.X), mm(r.Y), mm(r.W), mm(r.H), false)
	c.pdf.SetXY(mm(r.X), mm(r.Y))
	c.pdf.CellFormat(mm(r.W), mm(r.H), c.tr(s), "", 0, align, false, 0, "")
	c.pdf.ClipEnd()
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

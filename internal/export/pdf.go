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

	"github.com/jung-kurt/gofpdf"

	"notewright/internal/domain"
	"notewright/internal/rhythm"
)

// PDFOptions controls letter-notation sheet export.
// Units are points (pt) unless otherwise noted.
// Vector text is used throughout; we rely on built-in Courier so cell columns
// stay aligned without font embedding.
type PDFOptions struct {
	PageWidth  float64 // default 595 (A4 portrait)
	PageHeight float64 // default 842
	Margin     float64 // default 56
	FontSize   float64 // default 14
	// DrawBeatArcs renders grouping arcs under beats with two or more
	// rhythm counts.
	DrawBeatArcs bool
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.PageWidth <= 0 {
		o.PageWidth = 595
	}
	if o.PageHeight <= 0 {
		o.PageHeight = 842
	}
	if o.Margin <= 0 {
		o.Margin = 56
	}
	if o.FontSize <= 0 {
		o.FontSize = 14
	}
	return o
}

// SheetPDF writes the document as a typeset letter-notation sheet: the title,
// then each line in a fixed-pitch grid with its label, lyrics and beat arcs.
// It renders the typed surface, not engraved staves; engraving goes through
// the MusicXML and LilyPond exporters.
func SheetPDF(outPath string, doc *domain.Document, opt PDFOptions) error {
	if doc == nil {
		return fmt.Errorf("export pdf: document is nil")
	}
	opt = opt.withDefaults()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight},
		OrientationStr: "",
	})
	title := doc.Title
	if title == "" {
		title = "Untitled"
	}
	pdf.SetTitle(title, false)
	pdf.SetAuthor("NoteWright", false)
	pdf.AddPage()

	y := opt.Margin
	pdf.SetFont("Helvetica", "B", opt.FontSize+6)
	pdf.Text(opt.Margin, y, title)
	y += opt.FontSize * 2.5

	charW := opt.FontSize * 0.6 // Courier advance width
	lineGap := opt.FontSize * 2.2

	for _, line := range doc.Lines {
		if y+lineGap > opt.PageHeight-opt.Margin {
			pdf.AddPage()
			y = opt.Margin
		}
		if line.Label != "" {
			pdf.SetFont("Helvetica", "I", opt.FontSize-3)
			pdf.Text(opt.Margin, y-opt.FontSize*0.9, line.Label)
		}

		pdf.SetFont("Courier", "", opt.FontSize)
		x := opt.Margin
		for _, c := range line.Cells {
			pdf.Text(x, y, c.Char)
			x += charW * float64(len([]rune(c.Char)))
		}

		if opt.DrawBeatArcs {
			drawBeatArcs(pdf, line, opt.Margin, y, charW, opt.FontSize)
		}
		if line.Lyrics != "" {
			pdf.SetFont("Helvetica", "", opt.FontSize-3)
			pdf.Text(opt.Margin, y+opt.FontSize*0.9, line.Lyrics)
			y += opt.FontSize
		}
		y += lineGap
	}

	return pdf.OutputFileAndClose(outPath)
}

// drawBeatArcs draws a shallow arc under every beat that groups two or more
// rhythm counts, mirroring the editor's beat loops.
func drawBeatArcs(pdf *gofpdf.Fpdf, line domain.Line, x0, y, charW, fontSize float64) {
	pdf.SetLineWidth(0.6)
	pdf.SetDrawColor(60, 60, 60)
	for _, b := range rhythm.ComputeBeats(line) {
		if !b.HasArc() {
			continue
		}
		// Cell columns to x positions: cells are variable-width in runes.
		startX := x0 + cellOffset(line, b.Start)*charW
		endX := x0 + (cellOffset(line, b.End)+float64(len([]rune(line.Cells[b.End].Char))))*charW
		midY := y + fontSize*0.45
		pdf.Curve(startX, midY, (startX+endX)/2, midY+fontSize*0.5, endX, midY, "D")
	}
}

func cellOffset(line domain.Line, col int) float64 {
	runes := 0
	for i := 0; i < col && i < len(line.Cells); i++ {
		runes += len([]rune(line.Cells[i].Char))
	}
	return float64(runes)
}

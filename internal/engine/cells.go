/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"log/slog"
	"strings"

	"notewright/internal/domain"
)

// InsertText inserts typed content at (line, col). Newlines split the line.
// A lone accidental character typed directly after a natural pitched cell
// composes into that cell instead of creating a new one; the model never
// keeps a dangling accidental as its own cell.
func (e *Engine) InsertText(line, col int, text string) error {
	if !e.doc.InBounds(line, col, true) {
		return ErrInvalidRange
	}
	if text == "" {
		return nil
	}

	if first, rest, found := strings.Cut(text, "\n"); found {
		if err := e.InsertText(line, col, first); err != nil {
			return err
		}
		e.splitLine(line, col+cellLen(first, e.doc.PitchSystem))
		return e.InsertText(line+1, 0, rest)
	}

	// Accidental composition onto the preceding cell.
	if acc, ok := accidentalFor(text); ok && col > 0 {
		prev := &e.doc.Lines[line].Cells[col-1]
		if prev.Kind == domain.KindPitched && prev.Pitch != nil && prev.Pitch.Acc == domain.Natural {
			prev.Pitch.Acc = acc
			prev.Char += text
			e.resync()
			e.log.Debug("composed accidental", slog.Int("line", line), slog.Int("col", col-1), slog.String("cell", prev.Char))
			return nil
		}
	}

	cells := domain.ParseLine(text, e.doc.PitchSystem)
	l := &e.doc.Lines[line]
	l.Cells = append(l.Cells[:col:col], append(cells, l.Cells[col:]...)...)
	e.shiftAnnotations(line, col, len(cells))
	e.resync()
	return nil
}

// cellLen counts how many cells a text fragment parses into.
func cellLen(text string, ps domain.PitchSystem) int {
	return len(domain.ParseLine(text, ps))
}

// accidentalFor maps a single-character insertion onto an accidental.
func accidentalFor(text string) (domain.Accidental, bool) {
	switch text {
	case "#":
		return domain.Sharp, true
	case "b":
		return domain.Flat, true
	case "~":
		return domain.HalfFlat, true
	}
	return domain.Natural, false
}

// splitLine breaks a line in two at col, moving annotations right of the
// split onto the new line.
func (e *Engine) splitLine(line, col int) {
	src := &e.doc.Lines[line]
	moved := append([]domain.Cell(nil), src.Cells[min(col, len(src.Cells)):]...)
	src.Cells = src.Cells[:min(col, len(src.Cells))]
	newLine := domain.Line{Cells: moved}
	e.doc.Lines = append(e.doc.Lines[:line+1], append([]domain.Line{newLine}, e.doc.Lines[line+1:]...)...)

	for i := range e.doc.Slurs {
		s := &e.doc.Slurs[i]
		if s.Line > line {
			s.Line++
		} else if s.Line == line && s.StartCol >= col {
			s.Line, s.StartCol, s.EndCol = line+1, s.StartCol-col, s.EndCol-col
		}
	}
	for i := range e.doc.Ornaments {
		o := &e.doc.Ornaments[i]
		if o.Line > line {
			o.Line++
		} else if o.Line == line && o.Col >= col {
			o.Line, o.Col = line+1, o.Col-col
			if o.SpanStart >= 0 {
				o.SpanStart -= col
				o.SpanEnd -= col
			}
		}
	}
	for i := range e.doc.Lyrics {
		ly := &e.doc.Lyrics[i]
		if ly.Line > line {
			ly.Line++
		} else if ly.Line == line && ly.Col >= col {
			ly.Line, ly.Col = line+1, ly.Col-col
		}
	}
}

// DeleteRange removes cells [startCol, endCol) on a line. Annotations whose
// anchors fall inside the range are removed; endpoints at or after the range
// shift left by its length.
func (e *Engine) DeleteRange(line, startCol, endCol int) error {
	if line < 0 || line >= len(e.doc.Lines) {
		return ErrInvalidRange
	}
	n := len(e.doc.Lines[line].Cells)
	if startCol < 0 || endCol > n || startCol > endCol {
		return ErrInvalidRange
	}
	if startCol == endCol {
		return nil
	}
	l := &e.doc.Lines[line]
	l.Cells = append(l.Cells[:startCol:startCol], l.Cells[endCol:]...)
	e.dropAnnotationsIn(line, startCol, endCol)
	e.shiftAnnotations(line, startCol, startCol-endCol)
	e.resync()
	return nil
}

// DeleteBackwards implements a backspace at (line, col): it removes the cell
// before col. When that cell is an accidental composite ("1#"), it degrades
// to its natural base in place instead of disappearing; the surviving cell
// is logically natural (the accidental is cleared, not latent).
func (e *Engine) DeleteBackwards(line, col int) error {
	if line < 0 || line >= len(e.doc.Lines) || col <= 0 || col > len(e.doc.Lines[line].Cells) {
		return ErrInvalidRange
	}
	c := &e.doc.Lines[line].Cells[col-1]
	if c.Kind == domain.KindPitched && c.Pitch != nil && c.Pitch.Acc != domain.Natural && len([]rune(c.Char)) > 1 {
		base := []rune(c.Char)[:1]
		c.Char = string(base)
		c.Pitch.Acc = domain.Natural
		e.resync()
		return nil
	}
	return e.DeleteRange(line, col-1, col)
}

// SetLineText replaces a line's cells wholesale by re-parsing text.
// Annotations on the line are dropped: a wholesale replacement severs any
// correspondence between old and new columns.
func (e *Engine) SetLineText(line int, text string) error {
	if line < 0 || line > len(e.doc.Lines) {
		return ErrInvalidRange
	}
	if line == len(e.doc.Lines) {
		e.doc.Lines = append(e.doc.Lines, domain.Line{})
	}
	e.doc.Lines[line].Cells = domain.ParseLine(text, e.doc.PitchSystem)
	e.dropAnnotationsIn(line, 0, int(^uint(0)>>1))
	e.resync()
	return nil
}

// SetPitch rewrites the pitch of a cell in place, preserving decorations.
func (e *Engine) SetPitch(line, col int, pc domain.PitchCode) error {
	if !e.doc.InBounds(line, col, false) || !pc.Valid() {
		return ErrInvalidRange
	}
	c := &e.doc.Lines[line].Cells[col]
	p := pc
	c.Kind = domain.KindPitched
	c.Pitch = &p
	c.Char = pc.String(e.doc.PitchSystem)
	e.resync()
	return nil
}

// ShiftOctave offsets the octave of every pitched cell in [startCol, endCol]
// on a line by delta.
func (e *Engine) ShiftOctave(line, startCol, endCol, delta int) error {
	if line < 0 || line >= len(e.doc.Lines) {
		return ErrInvalidRange
	}
	cells := e.doc.Lines[line].Cells
	if startCol < 0 || endCol >= len(cells) || startCol > endCol {
		return ErrInvalidRange
	}
	for col := startCol; col <= endCol; col++ {
		if cells[col].Kind == domain.KindPitched {
			cells[col].Octave += delta
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

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

	"notewright/internal/domain"
)

// validOrnamentNotation checks that the notation text parses to at least one
// pitched or unpitched cell in the document's pitch system.
func (e *Engine) validOrnamentNotation(notation string) bool {
	for _, c := range domain.ParseLine(notation, e.doc.PitchSystem) {
		if c.Kind == domain.KindPitched || c.Kind == domain.KindUnpitched {
			return true
		}
	}
	return false
}

// ApplyOrnamentLayered attaches ornament notation to the cell at (line, col)
// without consuming any main-line cells. The anchor keeps its own rhythmic
// value; the ornament contributes grace cells only. A second ornament at the
// same anchor replaces the first.
func (e *Engine) ApplyOrnamentLayered(line, col int, notation string, placement domain.Placement) error {
	if !e.doc.InBounds(line, col, false) {
		return ErrInvalidRange
	}
	if !e.validOrnamentNotation(notation) {
		return ErrMalformedNotation
	}
	orn := domain.Ornament{
		Line:      line,
		Col:       col,
		Notation:  notation,
		Placement: placement,
		SpanStart: -1,
		SpanEnd:   -1,
	}
	replaced := false
	for i := range e.doc.Ornaments {
		if e.doc.Ornaments[i].Line == line && e.doc.Ornaments[i].Col == col {
			e.doc.Ornaments[i] = orn
			replaced = true
			break
		}
	}
	if !replaced {
		e.doc.Ornaments = append(e.doc.Ornaments, orn)
	}
	e.resync()
	e.log.Debug("ornament applied",
		slog.Int("line", line), slog.Int("col", col),
		slog.String("placement", placement.String()), slog.Bool("replaced", replaced))
	return nil
}

// ApplyOrnamentFromSelection converts the main-line cells in the selection
// [startCol, endCol] into an ornament span anchored on a neighboring pitch.
// For before/on-top placement the anchor is the first pitched cell after the
// selection; for after placement it is the last pitched cell before it. The
// spanned cells stay in the line but are marked ornament-internal, so the
// beat analyzer no longer counts them.
func (e *Engine) ApplyOrnamentFromSelection(line, startCol, endCol int, placement domain.Placement) error {
	startCol, endCol = normalize(startCol, endCol)
	if !e.doc.InBounds(line, startCol, false) || !e.doc.InBounds(line, endCol, false) {
		return ErrInvalidRange
	}
	cells := e.doc.Lines[line].Cells

	notation := ""
	sounding := 0
	for col := startCol; col <= endCol; col++ {
		notation += cells[col].Char
		if cells[col].Kind == domain.KindPitched || cells[col].Kind == domain.KindUnpitched {
			sounding++
		}
	}
	if sounding == 0 {
		return ErrMalformedNotation
	}

	anchor := -1
	if placement == domain.PlaceAfter {
		for col := startCol - 1; col >= 0; col-- {
			if cells[col].Kind == domain.KindPitched || cells[col].Kind == domain.KindUnpitched {
				anchor = col
				break
			}
		}
	} else {
		for col := endCol + 1; col < len(cells); col++ {
			if cells[col].Kind == domain.KindPitched || cells[col].Kind == domain.KindUnpitched {
				anchor = col
				break
			}
		}
	}
	if anchor < 0 {
		return ErrInvalidRange
	}

	orn := domain.Ornament{
		Line:      line,
		Col:       anchor,
		Notation:  notation,
		Placement: placement,
		SpanStart: startCol,
		SpanEnd:   endCol,
	}
	replaced := false
	for i := range e.doc.Ornaments {
		if e.doc.Ornaments[i].Line == line && e.doc.Ornaments[i].Col == anchor {
			e.doc.Ornaments[i] = orn
			replaced = true
			break
		}
	}
	if !replaced {
		e.doc.Ornaments = append(e.doc.Ornaments, orn)
	}
	e.resync()
	return nil
}

// GetOrnamentAt returns the ornament anchored at (line, col), if any.
func (e *Engine) GetOrnamentAt(line, col int) (domain.Ornament, bool) {
	for _, o := range e.doc.Ornaments {
		if o.Line == line && o.Col == col {
			return o, true
		}
	}
	return domain.Ornament{}, false
}

// GetOrnamentsForLine returns the ornaments anchored on a line, in insertion
// order.
func (e *Engine) GetOrnamentsForLine(line int) []domain.Ornament {
	var out []domain.Ornament
	for _, o := range e.doc.Ornaments {
		if o.Line == line {
			out = append(out, o)
		}
	}
	return out
}

// RemoveOrnamentAt deletes the ornament anchored at (line, col). It is a
// no-op when none exists.
func (e *Engine) RemoveOrnamentAt(line, col int) {
	for i := range e.doc.Ornaments {
		if e.doc.Ornaments[i].Line == line && e.doc.Ornaments[i].Col == col {
			e.doc.Ornaments = append(e.doc.Ornaments[:i], e.doc.Ornaments[i+1:]...)
			e.resync()
			return
		}
	}
}

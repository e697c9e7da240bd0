/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import "notewright/internal/domain"

// AddSlur records a slur spanning [startCol, endCol] on a line. Exact
// duplicates are rejected silently (no stacked identical slurs).
func (e *Engine) AddSlur(line, startCol, endCol int) error {
	startCol, endCol = normalize(startCol, endCol)
	if !e.doc.InBounds(line, startCol, false) || !e.doc.InBounds(line, endCol, false) {
		return ErrInvalidRange
	}
	for _, s := range e.doc.Slurs {
		if s.Line == line && s.StartCol == startCol && s.EndCol == endCol {
			return nil
		}
	}
	e.doc.Slurs = append(e.doc.Slurs, domain.Slur{Line: line, StartCol: startCol, EndCol: endCol})
	e.resync()
	return nil
}

// ToggleSlur adds a slur over the range, or removes it if one with exactly
// these endpoints already exists. Two identical calls always return the
// annotation set to its prior state.
func (e *Engine) ToggleSlur(line, startCol, endCol int) error {
	startCol, endCol = normalize(startCol, endCol)
	if !e.doc.InBounds(line, startCol, false) || !e.doc.InBounds(line, endCol, false) {
		return ErrInvalidRange
	}
	for i, s := range e.doc.Slurs {
		if s.Line == line && s.StartCol == startCol && s.EndCol == endCol {
			e.doc.Slurs = append(e.doc.Slurs[:i], e.doc.Slurs[i+1:]...)
			e.resync()
			return nil
		}
	}
	e.doc.Slurs = append(e.doc.Slurs, domain.Slur{Line: line, StartCol: startCol, EndCol: endCol})
	e.resync()
	return nil
}

// GetSlursForLine returns the slurs anchored on a line, in insertion order.
func (e *Engine) GetSlursForLine(line int) []domain.Slur {
	var out []domain.Slur
	for _, s := range e.doc.Slurs {
		if s.Line == line {
			out = append(out, s)
		}
	}
	return out
}

// RemoveAnnotationsAt removes every annotation anchored at (line, col):
// ornaments and lyrics at the cell, and slurs starting there.
func (e *Engine) RemoveAnnotationsAt(line, col int) error {
	if !e.doc.InBounds(line, col, false) {
		return ErrInvalidRange
	}
	slurs := e.doc.Slurs[:0]
	for _, s := range e.doc.Slurs {
		if !(s.Line == line && s.StartCol == col) {
			slurs = append(slurs, s)
		}
	}
	e.doc.Slurs = slurs
	orns := e.doc.Ornaments[:0]
	for _, o := range e.doc.Ornaments {
		if !(o.Line == line && o.Col == col) {
			orns = append(orns, o)
		}
	}
	e.doc.Ornaments = orns
	lyr := e.doc.Lyrics[:0]
	for _, l := range e.doc.Lyrics {
		if !(l.Line == line && l.Col == col) {
			lyr = append(lyr, l)
		}
	}
	e.doc.Lyrics = lyr
	e.resync()
	return nil
}

// shiftAnnotations re-anchors every annotation endpoint on a line at or
// after fromCol by the signed delta. Endpoints strictly before fromCol are
// untouched. Called by the cell model on every insert/delete so queries
// always return the columns the user originally selected.
func (e *Engine) shiftAnnotations(line, fromCol, delta int) {
	shift := func(col int) int {
		if col >= fromCol {
			col += delta
			if col < fromCol {
				col = fromCol
			}
		}
		return col
	}
	for i := range e.doc.Slurs {
		s := &e.doc.Slurs[i]
		if s.Line != line {
			continue
		}
		s.StartCol = shift(s.StartCol)
		s.EndCol = shift(s.EndCol)
	}
	for i := range e.doc.Ornaments {
		o := &e.doc.Ornaments[i]
		if o.Line != line {
			continue
		}
		o.Col = shift(o.Col)
		if o.SpanStart >= 0 {
			o.SpanStart = shift(o.SpanStart)
			o.SpanEnd = shift(o.SpanEnd)
		}
	}
	for i := range e.doc.Lyrics {
		l := &e.doc.Lyrics[i]
		if l.Line == line {
			l.Col = shift(l.Col)
		}
	}
}

// dropAnnotationsIn removes annotations whose anchor falls inside the
// deleted range [startCol, endCol) on a line. Slurs survive if either
// endpoint survives; ornaments and lyrics die with their anchor cell.
func (e *Engine) dropAnnotationsIn(line, startCol, endCol int) {
	inRange := func(col int) bool { return col >= startCol && col < endCol }
	slurs := e.doc.Slurs[:0]
	for _, s := range e.doc.Slurs {
		if s.Line == line && inRange(s.StartCol) && inRange(s.EndCol) {
			continue
		}
		slurs = append(slurs, s)
	}
	e.doc.Slurs = slurs
	orns := e.doc.Ornaments[:0]
	for _, o := range e.doc.Ornaments {
		if o.Line == line && inRange(o.Col) {
			continue
		}
		orns = append(orns, o)
	}
	e.doc.Ornaments = orns
	lyr := e.doc.Lyrics[:0]
	for _, l := range e.doc.Lyrics {
		if l.Line == line && inRange(l.Col) {
			continue
		}
		lyr = append(lyr, l)
	}
	e.doc.Lyrics = lyr
}

// normalize orders a selection's endpoints so downstream anchoring logic is
// direction-agnostic; backward selections behave like their forward twins.
func normalize(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

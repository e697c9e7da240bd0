/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package engine implements the notation engine: an explicit handle owning
// one document, exposing the mutation and query surface the host calls.
//
// Every mutating method is atomic with respect to the caller: it validates
// first, applies the cell-model change, re-anchors the annotation layer and
// refreshes the per-cell indicator caches before returning. No operation is
// ever observable half-applied; on error the document is untouched.
package engine

import (
	"errors"
	"log/slog"

	"notewright/internal/domain"
	"notewright/internal/ir"
	applog "notewright/internal/log"
)

// Error taxonomy surfaced at the call boundary. All mutation errors leave the
// document in its last valid state.
var (
	// ErrInvalidRange is returned when a (line, col) or range falls outside
	// the current document bounds. Mutations never clamp silently.
	ErrInvalidRange = errors.New("position or range out of document bounds")
	// ErrMalformedNotation is returned when ornament notation fails to parse
	// into any pitched cell.
	ErrMalformedNotation = errors.New("notation does not parse to grace cells")
	// ErrOutOfRange is returned for system-start counts above the supported
	// maximum. Values are rejected, never clamped.
	ErrOutOfRange = errors.New("system start count out of range")
	// ErrBackwardSelection is reserved for hosts that cannot normalize
	// selections; the engine itself normalizes endpoints and never returns it.
	ErrBackwardSelection = errors.New("backward selection not supported")
	// ErrExportInconsistency signals an internal invariant violation detected
	// while exporting. The export fails; the document is not corrupted. It is
	// the same sentinel the score flattener wraps, so errors.Is works on
	// export errors regardless of which layer the caller imported.
	ErrExportInconsistency = ir.ErrInconsistent
)

// Engine owns one mutable document. The host constructs it and holds its
// lifetime; there are no package-level instances. Callers are expected to be
// single-writer: the engine does no internal locking.
type Engine struct {
	doc *domain.Document
	log *slog.Logger
}

// New creates an engine with an empty one-line document.
func New() *Engine {
	return &Engine{doc: domain.NewDocument(), log: applog.WithComponent("engine")}
}

// Load wraps an existing document (e.g. from the persisted model) and
// resyncs its derived state.
func Load(doc *domain.Document) *Engine {
	e := &Engine{doc: doc, log: applog.WithComponent("engine")}
	e.resync()
	return e
}

// Document returns a deep snapshot of the current document. Exports and
// host re-renders read from snapshots, so concurrent readers never observe
// a mutation in progress.
func (e *Engine) Document() *domain.Document {
	return e.doc.Clone()
}

// Restore replaces the current document with a snapshot, typically one
// popped from the undo manager. The engine keeps its own copy.
func (e *Engine) Restore(doc *domain.Document) {
	e.doc = doc.Clone()
	e.resync()
}

// LineCount returns the number of lines.
func (e *Engine) LineCount() int { return len(e.doc.Lines) }

// LineText returns the typed surface of a line.
func (e *Engine) LineText(line int) (string, error) {
	if line < 0 || line >= len(e.doc.Lines) {
		return "", ErrInvalidRange
	}
	return e.doc.Lines[line].Text(), nil
}

// resync recomputes every per-cell indicator cache from the annotation
// layer. It runs at the end of every mutating call, so callers never have to
// remember a manual sync step; the public ApplyAnnotationOrnamentsToCells
// remains as an idempotent explicit entry point.
func (e *Engine) resync() {
	for li := range e.doc.Lines {
		cells := e.doc.Lines[li].Cells
		for ci := range cells {
			cells[ci].SlurIndicator = domain.RoleNone
			cells[ci].OrnamentIndicator = domain.RoleNone
			cells[ci].Ornament = nil
		}
	}
	for _, s := range e.doc.Slurs {
		e.markSlur(s)
	}
	for _, o := range e.doc.Ornaments {
		e.markOrnament(o)
	}
}

func (e *Engine) markSlur(s domain.Slur) {
	if s.Line < 0 || s.Line >= len(e.doc.Lines) {
		return
	}
	cells := e.doc.Lines[s.Line].Cells
	for col := s.StartCol; col <= s.EndCol && col < len(cells); col++ {
		switch {
		case col == s.StartCol:
			cells[col].SlurIndicator = domain.RoleStart
		case col == s.EndCol:
			cells[col].SlurIndicator = domain.RoleEnd
		default:
			cells[col].SlurIndicator = domain.RoleMiddle
		}
	}
}

func (e *Engine) markOrnament(o domain.Ornament) {
	if o.Line < 0 || o.Line >= len(e.doc.Lines) {
		return
	}
	cells := e.doc.Lines[o.Line].Cells
	if o.Col < 0 || o.Col >= len(cells) {
		return
	}
	// Anchor cell carries the grace payload.
	payload := &domain.OrnamentPayload{Placement: o.Placement}
	for _, gc := range domain.ParseLine(o.Notation, e.doc.PitchSystem) {
		if gc.Kind == domain.KindPitched || gc.Kind == domain.KindUnpitched {
			payload.Cells = append(payload.Cells, gc)
		}
	}
	cells[o.Col].Ornament = payload

	// Span cells (when the ornament was layered over a selection) are marked
	// ornament-internal so the beat analyzer skips them.
	if o.SpanStart < 0 || o.SpanEnd < o.SpanStart {
		return
	}
	start, end := roleEndpoints(o.Placement)
	for col := o.SpanStart; col <= o.SpanEnd && col < len(cells); col++ {
		switch {
		case col == o.SpanStart:
			cells[col].OrnamentIndicator = start
		case col == o.SpanEnd:
			cells[col].OrnamentIndicator = end
		default:
			cells[col].OrnamentIndicator = domain.RoleMiddle
		}
	}
}

func roleEndpoints(p domain.Placement) (domain.IndicatorRole, domain.IndicatorRole) {
	switch p {
	case domain.PlaceAfter:
		return domain.RoleAfterStart, domain.RoleAfterEnd
	case domain.PlaceOnTop:
		return domain.RoleOnTopStart, domain.RoleOnTopEnd
	default:
		return domain.RoleBeforeStart, domain.RoleBeforeEnd
	}
}

// ApplyAnnotationOrnamentsToCells re-derives the per-cell ornament caches
// from the annotation layer. Since every mutating call already resyncs, the
// call is idempotent and exists for host compatibility.
func (e *Engine) ApplyAnnotationOrnamentsToCells() {
	e.resync()
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"errors"
	"testing"

	"notewright/internal/domain"
)

func newWithLine(t *testing.T, text string) *Engine {
	t.Helper()
	e := New()
	if err := e.SetLineText(0, text); err != nil {
		t.Fatalf("SetLineText: %v", err)
	}
	return e
}

func TestInsertShiftsAnnotations(t *testing.T) {
	e := newWithLine(t, "12345")
	if err := e.ToggleSlur(0, 1, 3); err != nil {
		t.Fatalf("ToggleSlur: %v", err)
	}
	if err := e.ApplyOrnamentLayered(0, 4, "23", domain.PlaceBefore); err != nil {
		t.Fatalf("ApplyOrnamentLayered: %v", err)
	}

	// Insert two cells at the line start: every endpoint moves right by 2.
	if err := e.InsertText(0, 0, "67"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	slurs := e.GetSlursForLine(0)
	if len(slurs) != 1 || slurs[0].StartCol != 3 || slurs[0].EndCol != 5 {
		t.Fatalf("slur after insert: %+v", slurs)
	}
	if _, ok := e.GetOrnamentAt(0, 6); !ok {
		t.Fatalf("ornament did not follow its anchor: %+v", e.GetOrnamentsForLine(0))
	}

	// Insert after all endpoints: nothing moves.
	if err := e.InsertText(0, 7, "1"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	if got := e.GetSlursForLine(0)[0]; got.StartCol != 3 || got.EndCol != 5 {
		t.Fatalf("trailing insert moved slur: %+v", got)
	}
}

func TestDeleteShiftsAndDropsAnnotations(t *testing.T) {
	e := newWithLine(t, "1234567")
	if err := e.ToggleSlur(0, 4, 6); err != nil {
		t.Fatalf("ToggleSlur: %v", err)
	}
	if err := e.ApplyOrnamentLayered(0, 2, "1", domain.PlaceBefore); err != nil {
		t.Fatalf("ApplyOrnamentLayered: %v", err)
	}

	// Delete cells 0..1: slur shifts to 2..4, ornament anchor to 0.
	if err := e.DeleteRange(0, 0, 2); err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if got := e.GetSlursForLine(0)[0]; got.StartCol != 2 || got.EndCol != 4 {
		t.Fatalf("slur after delete: %+v", got)
	}
	if _, ok := e.GetOrnamentAt(0, 0); !ok {
		t.Fatalf("ornament after delete: %+v", e.GetOrnamentsForLine(0))
	}

	// Delete the ornament's anchor cell: the ornament goes with it.
	if err := e.DeleteRange(0, 0, 1); err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if orns := e.GetOrnamentsForLine(0); len(orns) != 0 {
		t.Fatalf("ornament survived anchor deletion: %+v", orns)
	}
}

func TestToggleSlurTwiceIsNetZero(t *testing.T) {
	e := newWithLine(t, "12345")
	if err := e.ToggleSlur(0, 0, 4); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if len(e.GetSlursForLine(0)) != 1 {
		t.Fatalf("slur not added")
	}
	if err := e.ToggleSlur(0, 0, 4); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if got := e.GetSlursForLine(0); len(got) != 0 {
		t.Fatalf("slur not removed by second toggle: %+v", got)
	}
	// Overlapping but non-identical ranges coexist.
	if err := e.ToggleSlur(0, 0, 2); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := e.ToggleSlur(0, 1, 3); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := e.GetSlursForLine(0); len(got) != 2 {
		t.Fatalf("overlapping slurs: %+v", got)
	}
}

func TestBackwardSelectionNormalized(t *testing.T) {
	e := newWithLine(t, "12345")
	if err := e.ToggleSlur(0, 4, 1); err != nil {
		t.Fatalf("backward toggle: %v", err)
	}
	got := e.GetSlursForLine(0)
	if len(got) != 1 || got[0].StartCol != 1 || got[0].EndCol != 4 {
		t.Fatalf("backward selection not normalized: %+v", got)
	}
	// Forward toggle over the same cells removes it.
	if err := e.ToggleSlur(0, 1, 4); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := e.GetSlursForLine(0); len(got) != 0 {
		t.Fatalf("normalized twin did not cancel: %+v", got)
	}
}

func TestAccidentalComposesIntoPrecedingCell(t *testing.T) {
	e := newWithLine(t, "12")
	if err := e.InsertText(0, 1, "#"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	doc := e.Document()
	cells := doc.Lines[0].Cells
	if len(cells) != 2 {
		t.Fatalf("composition added a cell: %d cells", len(cells))
	}
	if cells[0].Char != "1#" || cells[0].Pitch == nil || cells[0].Pitch.Acc != domain.Sharp {
		t.Fatalf("cell 0 = %+v, want sharp composite", cells[0])
	}
	// Annotations after the composed cell must not shift.
	e2 := newWithLine(t, "12")
	if err := e2.ToggleSlur(0, 1, 1); err != nil {
		t.Fatalf("ToggleSlur: %v", err)
	}
	if err := e2.InsertText(0, 1, "b"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	if got := e2.GetSlursForLine(0)[0]; got.StartCol != 1 {
		t.Fatalf("composition shifted annotations: %+v", got)
	}
}

func TestBackspaceDegradesCompositeToNatural(t *testing.T) {
	e := newWithLine(t, "1#2")
	if err := e.DeleteBackwards(0, 1); err != nil {
		t.Fatalf("DeleteBackwards: %v", err)
	}
	doc := e.Document()
	cells := doc.Lines[0].Cells
	if len(cells) != 2 {
		t.Fatalf("backspace removed the whole composite: %d cells", len(cells))
	}
	c := cells[0]
	if c.Char != "1" || c.Pitch.Acc != domain.Natural {
		t.Fatalf("composite did not degrade to natural: %+v", c)
	}
	// A second backspace removes the now-natural cell entirely.
	if err := e.DeleteBackwards(0, 1); err != nil {
		t.Fatalf("DeleteBackwards: %v", err)
	}
	if got := len(e.Document().Lines[0].Cells); got != 1 {
		t.Fatalf("cells after second backspace = %d, want 1", got)
	}
}

func TestInsertNewlineSplitsLineAndAnnotations(t *testing.T) {
	e := newWithLine(t, "1234")
	if err := e.ToggleSlur(0, 2, 3); err != nil {
		t.Fatalf("ToggleSlur: %v", err)
	}
	if err := e.InsertText(0, 2, "\n"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	if e.LineCount() != 2 {
		t.Fatalf("lines = %d, want 2", e.LineCount())
	}
	t0, _ := e.LineText(0)
	t1, _ := e.LineText(1)
	if t0 != "12" || t1 != "34" {
		t.Fatalf("split texts = %q / %q", t0, t1)
	}
	if got := e.GetSlursForLine(1); len(got) != 1 || got[0].StartCol != 0 || got[0].EndCol != 1 {
		t.Fatalf("slur did not move to the new line: %+v", got)
	}
}

func TestLayeredOrnamentDoesNotConsumeCells(t *testing.T) {
	e := newWithLine(t, "123")
	before := len(e.Document().Lines[0].Cells)
	if err := e.ApplyOrnamentLayered(0, 1, "45", domain.PlaceAfter); err != nil {
		t.Fatalf("ApplyOrnamentLayered: %v", err)
	}
	doc := e.Document()
	if got := len(doc.Lines[0].Cells); got != before {
		t.Fatalf("cells = %d, want %d", got, before)
	}
	orn, ok := e.GetOrnamentAt(0, 1)
	if !ok || orn.Notation != "45" || orn.Placement != domain.PlaceAfter {
		t.Fatalf("GetOrnamentAt = %+v, %v", orn, ok)
	}
	if orn.SpanStart != -1 || orn.SpanEnd != -1 {
		t.Fatalf("layered ornament must carry no span: %+v", orn)
	}
	if doc.Lines[0].Cells[1].Ornament == nil || len(doc.Lines[0].Cells[1].Ornament.Cells) != 2 {
		t.Fatalf("anchor cell payload: %+v", doc.Lines[0].Cells[1].Ornament)
	}

	// Replacement, not stacking.
	if err := e.ApplyOrnamentLayered(0, 1, "6", domain.PlaceBefore); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := e.GetOrnamentsForLine(0); len(got) != 1 || got[0].Notation != "6" {
		t.Fatalf("replacement stacked instead: %+v", got)
	}
}

func TestOrnamentRejectsMalformedNotation(t *testing.T) {
	e := newWithLine(t, "123")
	err := e.ApplyOrnamentLayered(0, 0, "---", domain.PlaceBefore)
	if !errors.Is(err, ErrMalformedNotation) {
		t.Fatalf("err = %v, want ErrMalformedNotation", err)
	}
	if got := e.GetOrnamentsForLine(0); len(got) != 0 {
		t.Fatalf("malformed notation left state behind: %+v", got)
	}
}

func TestOrnamentFromSelectionMarksSpan(t *testing.T) {
	e := newWithLine(t, "12345")
	if err := e.ApplyOrnamentFromSelection(0, 1, 2, domain.PlaceBefore); err != nil {
		t.Fatalf("ApplyOrnamentFromSelection: %v", err)
	}
	orn, ok := e.GetOrnamentAt(0, 3)
	if !ok || orn.SpanStart != 1 || orn.SpanEnd != 2 {
		t.Fatalf("anchor/span: %+v %v", orn, ok)
	}
	doc := e.Document()
	if !doc.Lines[0].Cells[1].OrnamentIndicator.OrnamentInternal() ||
		!doc.Lines[0].Cells[2].OrnamentIndicator.OrnamentInternal() {
		t.Fatalf("span cells not marked ornament-internal")
	}
	if doc.Lines[0].Cells[3].OrnamentIndicator.OrnamentInternal() {
		t.Fatalf("anchor cell must stay rhythmic")
	}
}

func TestSystemStartRangeAndRoles(t *testing.T) {
	e := New()
	for i, txt := range []string{"1", "2", "3", "4"} {
		if err := e.SetLineText(i, txt); err != nil {
			t.Fatalf("SetLineText(%d): %v", i, err)
		}
	}
	if err := e.SetSystemStart(0, MaxSystemSize+1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("oversized count: err = %v, want ErrOutOfRange", err)
	}
	if err := e.SetSystemStart(0, 3); err != nil {
		t.Fatalf("SetSystemStart: %v", err)
	}
	wantRoles := []SystemRole{RoleSystemStart, RoleSystemMiddle, RoleSystemEnd, RoleStandalone}
	wantCounts := []int{3, 0, 0, 0}
	for i, want := range wantRoles {
		got, count, err := e.GetLineSystemRole(i)
		if err != nil || got != want || count != wantCounts[i] {
			t.Fatalf("role(%d) = %v count %d (%v), want %v count %d", i, got, count, err, want, wantCounts[i])
		}
	}

	// A later explicit marker truncates the earlier span.
	if err := e.SetSystemStart(2, 2); err != nil {
		t.Fatalf("SetSystemStart: %v", err)
	}
	sys := e.Systems()
	if len(sys) != 2 || sys[0].Count != 2 || sys[1].Count != 2 {
		t.Fatalf("systems = %+v, want [0:2 2:2]", sys)
	}
}

func TestMarkedSingleLineReportsStart(t *testing.T) {
	e := New()
	for i, txt := range []string{"1", "2"} {
		if err := e.SetLineText(i, txt); err != nil {
			t.Fatalf("SetLineText(%d): %v", i, err)
		}
	}
	if err := e.SetSystemStart(0, 1); err != nil {
		t.Fatalf("SetSystemStart: %v", err)
	}
	role, count, err := e.GetLineSystemRole(0)
	if err != nil || role != RoleSystemStart || count != 1 {
		t.Fatalf("marked one-line system: role %v count %d (%v), want start 1", role, count, err)
	}
	// The unmarked line stays standalone.
	role, count, err = e.GetLineSystemRole(1)
	if err != nil || role != RoleStandalone || count != 0 {
		t.Fatalf("unmarked line: role %v count %d (%v), want standalone 0", role, count, err)
	}
	// A trivial one-line system still draws no bracket: its span count is 1.
	sys := e.Systems()
	if len(sys) != 2 || sys[0].Count != 1 {
		t.Fatalf("systems = %+v, want two one-line spans", sys)
	}
}

func TestCycleSystemStartWraps(t *testing.T) {
	e := newWithLine(t, "1")
	for want := 1; want <= MaxSystemSize; want++ {
		got, err := e.CycleSystemStart(0)
		if err != nil || got != want {
			t.Fatalf("cycle -> %d (%v), want %d", got, err, want)
		}
	}
	got, err := e.CycleSystemStart(0)
	if err != nil || got != 0 {
		t.Fatalf("cycle past max -> %d (%v), want 0", got, err)
	}
}

func TestMutationsRejectOutOfBounds(t *testing.T) {
	e := newWithLine(t, "123")
	if err := e.InsertText(5, 0, "1"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("InsertText: %v", err)
	}
	if err := e.DeleteRange(0, 2, 9); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("DeleteRange: %v", err)
	}
	if err := e.ToggleSlur(0, 0, 10); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("ToggleSlur: %v", err)
	}
	// The failed calls left the document untouched.
	if txt, _ := e.LineText(0); txt != "123" {
		t.Fatalf("document mutated on error: %q", txt)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e := newWithLine(t, "123 45")
	if err := e.ToggleSlur(0, 0, 2); err != nil {
		t.Fatalf("ToggleSlur: %v", err)
	}
	snap := e.Document()

	if err := e.SetLineText(0, "777"); err != nil {
		t.Fatalf("SetLineText: %v", err)
	}
	e.Restore(snap)

	if txt, _ := e.LineText(0); txt != "123 45" {
		t.Fatalf("restore lost text: %q", txt)
	}
	if got := e.GetSlursForLine(0); len(got) != 1 {
		t.Fatalf("restore lost slur: %+v", got)
	}
	// The snapshot is detached from the engine's copy.
	snap.Lines[0].Cells = nil
	if txt, _ := e.LineText(0); txt != "123 45" {
		t.Fatalf("snapshot aliased engine state: %q", txt)
	}
}

func TestEffectiveKeySignatureFallsThrough(t *testing.T) {
	e := New()
	for i := 0; i < 3; i++ {
		if err := e.SetLineText(i, "1"); err != nil {
			t.Fatalf("SetLineText: %v", err)
		}
	}
	e.SetDocumentKeySignature("D")
	if err := e.SetLineKeySignature(1, "Bb"); err != nil {
		t.Fatalf("SetLineKeySignature: %v", err)
	}
	if got := e.EffectiveKeySignature(0); got != "D" {
		t.Fatalf("line 0 key = %q, want D", got)
	}
	for _, line := range []int{1, 2} {
		if got := e.EffectiveKeySignature(line); got != "Bb" {
			t.Fatalf("line %d key = %q, want Bb", line, got)
		}
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ir holds the export-facing score model. Exporters never look at
// cells or annotations directly; Build flattens the document, the beat
// analyzer and the dash resolver into plain timed events once, and both the
// MusicXML and the MIDI writers read from that.
package ir

import "errors"

// ErrInconsistent reports an internal invariant violation found while
// flattening: the document can no longer be expressed as a valid score. The
// engine re-exports it as ErrExportInconsistency.
var ErrInconsistent = errors.New("export invariant violation")

// Pitch is a concert pitch spelled against the document tonic.
type Pitch struct {
	Step   string  // C..B
	Alter  float64 // semitone offset, quarter tones allowed
	Octave int     // scientific, octave 4 holds middle C
}

// Grace is one grace note attached to a main note.
type Grace struct {
	Pitch Pitch
	// Slash marks the group as stolen-time ("fioritura") graces played after
	// their anchor.
	Slash bool
}

// Note is one timed event inside a measure. Duration is in measure divisions;
// a beat always spans exactly one quarter (= Divisions ticks).
type Note struct {
	Rest  bool
	Pitch Pitch

	Duration int
	Type     string // notated type: "quarter", "eighth", ...
	Dots     int

	// Tuplet bookkeeping. Actual/Normal are zero outside tuplets.
	TupletActual int
	TupletNormal int
	TupletStart  bool
	TupletStop   bool

	TieStart bool
	TieStop  bool

	SlurStart bool
	SlurStop  bool

	GraceBefore []Grace
	GraceAfter  []Grace

	// BeamGroup ties consecutive sub-quarter notes of one beat together;
	// zero means unbeamed.
	BeamGroup int

	Lyric string
}

// Measure is one barline-delimited span of a part.
type Measure struct {
	Number    int
	Divisions int
	Notes     []Note
}

// Part is one notation line rendered as a MusicXML part / LilyPond staff.
type Part struct {
	ID     string // P1, P2, ... unique across the score
	Name   string // line label, may be empty
	Line   int    // source line index
	Fifths int

	Measures []Measure
}

// System groups consecutive parts under one bracket. Single-part systems
// draw no bracket.
type System struct {
	Parts   []Part
	Bracket bool
}

// Score is the complete flattened document.
type Score struct {
	Title   string
	Fifths  int // document-level key
	Systems []System
}

// AllParts returns the parts of every system in order.
func (s *Score) AllParts() []Part {
	var out []Part
	for _, sys := range s.Systems {
		out = append(out, sys.Parts...)
	}
	return out
}

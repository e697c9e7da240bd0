/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "testing"

func TestConcertPitchInC(t *testing.T) {
	cases := []struct {
		pc     PitchCode
		step   string
		alter  float64
		octave int
	}{
		{PitchCode{Degree: 1}, "C", 0, 4},
		{PitchCode{Degree: 2}, "D", 0, 4},
		{PitchCode{Degree: 7}, "B", 0, 4},
		{PitchCode{Degree: 1, Acc: Sharp}, "C", 1, 4},
		{PitchCode{Degree: 7, Acc: Flat}, "B", -1, 4},
		{PitchCode{Degree: 4, Acc: DoubleSharp}, "F", 2, 4},
		{PitchCode{Degree: 3, Acc: HalfFlat}, "E", -0.5, 4},
	}
	for _, c := range cases {
		step, alter, oct := ConcertPitch(c.pc, 0, DefaultTonic)
		if step != c.step || alter != c.alter || oct != c.octave {
			t.Errorf("ConcertPitch(%v) = %s/%v/%d, want %s/%v/%d", c.pc, step, alter, oct, c.step, c.alter, c.octave)
		}
	}
}

func TestConcertPitchTransposed(t *testing.T) {
	d, err := ParseTonic("D")
	if err != nil {
		t.Fatalf("ParseTonic: %v", err)
	}
	// Degree 1 in D is D; degree 7 is C# an octave boundary short of the next D.
	step, alter, oct := ConcertPitch(PitchCode{Degree: 1}, 0, d)
	if step != "D" || alter != 0 || oct != 4 {
		t.Fatalf("degree 1 in D = %s/%v/%d", step, alter, oct)
	}
	step, alter, oct = ConcertPitch(PitchCode{Degree: 7}, 0, d)
	if step != "C" || alter != 1 || oct != 5 {
		t.Fatalf("degree 7 in D = %s/%v/%d, want C/1/5", step, alter, oct)
	}
}

func TestConcertPitchFlatTonic(t *testing.T) {
	bb, err := ParseTonic("Bb")
	if err != nil {
		t.Fatalf("ParseTonic: %v", err)
	}
	step, alter, oct := ConcertPitch(PitchCode{Degree: 4}, 0, bb)
	if step != "E" || alter != -1 || oct != 5 {
		t.Fatalf("degree 4 in Bb = %s/%v/%d, want E/-1/5", step, alter, oct)
	}
}

func TestMIDIKeyOctaves(t *testing.T) {
	if k := MIDIKey(PitchCode{Degree: 1}, 0, DefaultTonic); k != 60 {
		t.Fatalf("C4 key = %d, want 60", k)
	}
	if k := MIDIKey(PitchCode{Degree: 1}, 1, DefaultTonic); k != 72 {
		t.Fatalf("C5 key = %d, want 72", k)
	}
	if k := MIDIKey(PitchCode{Degree: 5, Acc: Sharp}, -1, DefaultTonic); k != 56 {
		t.Fatalf("G#3 key = %d, want 56", k)
	}
}

func TestKeySignatureFifths(t *testing.T) {
	cases := map[string]int{"C": 0, "G": 1, "D": 2, "F": -1, "Bb": -2, "F#": 6, "Eb": -3}
	for name, want := range cases {
		got, err := KeySignatureFifths(name)
		if err != nil {
			t.Fatalf("KeySignatureFifths(%s): %v", name, err)
		}
		if got != want {
			t.Errorf("KeySignatureFifths(%s) = %d, want %d", name, got, want)
		}
	}
}

func TestPitchStringPerSystem(t *testing.T) {
	pc := PitchCode{Degree: 4, Acc: Sharp}
	if s := pc.String(SystemNumber); s != "4#" {
		t.Errorf("number = %q", s)
	}
	if s := pc.String(SystemWestern); s != "f#" {
		t.Errorf("western = %q", s)
	}
	if s := pc.String(SystemSargam); s != "M" {
		t.Errorf("sargam = %q", s)
	}
	komal := PitchCode{Degree: 2, Acc: Flat}
	if s := komal.String(SystemSargam); s != "r" {
		t.Errorf("komal re = %q", s)
	}
}

func TestParseLineComposites(t *testing.T) {
	cells := ParseLine("1#2 -|'", SystemNumber)
	kinds := []CellKind{KindPitched, KindPitched, KindSpace, KindDash, KindBarline, KindBreathMark}
	if len(cells) != len(kinds) {
		t.Fatalf("got %d cells, want %d: %#v", len(cells), len(kinds), cells)
	}
	for i, k := range kinds {
		if cells[i].Kind != k {
			t.Errorf("cell %d kind = %v, want %v", i, cells[i].Kind, k)
		}
	}
	if cells[0].Char != "1#" || cells[0].Pitch == nil || cells[0].Pitch.Acc != Sharp {
		t.Fatalf("composite cell not collapsed: %#v", cells[0])
	}
}

func TestParseLineNeverLeavesDanglingAccidental(t *testing.T) {
	cells := ParseLine("1b", SystemNumber)
	if len(cells) != 1 {
		t.Fatalf("expected single composite cell, got %d", len(cells))
	}
	if cells[0].Pitch.Acc != Flat {
		t.Fatalf("accidental not applied: %#v", cells[0])
	}
}

func TestParseLineDoubleAccidentals(t *testing.T) {
	cells := ParseLine("1##2bb", SystemNumber)
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d: %#v", len(cells), cells)
	}
	if cells[0].Pitch.Acc != DoubleSharp || cells[1].Pitch.Acc != DoubleFlat {
		t.Fatalf("double accidentals wrong: %#v", cells)
	}
}

func TestLineTextRoundTrip(t *testing.T) {
	src := "1# 2b- | '34"
	l := Line{Cells: ParseLine(src, SystemNumber)}
	if got := l.Text(); got != src {
		t.Fatalf("round trip = %q, want %q", got, src)
	}
}

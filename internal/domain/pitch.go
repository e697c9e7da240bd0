/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"
)

// Accidental modifies a scale degree.
type Accidental int8

const (
	Natural Accidental = iota
	Sharp
	Flat
	DoubleSharp
	DoubleFlat
	HalfFlat
)

// Alter returns the MusicXML <alter> value for the accidental.
// HalfFlat uses the quarter-tone convention (-0.5).
func (a Accidental) Alter() float64 {
	switch a {
	case Sharp:
		return 1
	case Flat:
		return -1
	case DoubleSharp:
		return 2
	case DoubleFlat:
		return -2
	case HalfFlat:
		return -0.5
	default:
		return 0
	}
}

// Suffix returns the notation suffix typed after a degree ("#", "b", ...).
func (a Accidental) Suffix() string {
	switch a {
	case Sharp:
		return "#"
	case Flat:
		return "b"
	case DoubleSharp:
		return "##"
	case DoubleFlat:
		return "bb"
	case HalfFlat:
		return "~"
	default:
		return ""
	}
}

// PitchSystem selects the notation vocabulary a document is typed in.
type PitchSystem int8

const (
	SystemNumber  PitchSystem = iota // 1 2 3 4 5 6 7
	SystemWestern                    // c d e f g a b
	SystemSargam                     // S R G M P D N
)

func (ps PitchSystem) String() string {
	switch ps {
	case SystemWestern:
		return "western"
	case SystemSargam:
		return "sargam"
	default:
		return "number"
	}
}

// ParsePitchSystem resolves a persisted pitch-system name.
func ParsePitchSystem(s string) (PitchSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "number":
		return SystemNumber, nil
	case "western":
		return SystemWestern, nil
	case "sargam":
		return SystemSargam, nil
	}
	return SystemNumber, fmt.Errorf("unknown pitch system %q", s)
}

// PitchCode is a scale degree (1..7) plus an accidental, relative to the
// document tonic. It is the pitch-system-independent internal form; the typed
// surface ("4#", "f#", "M") is reconstructed per system on demand.
type PitchCode struct {
	Degree int // 1..7
	Acc    Accidental
}

// Valid reports whether the degree is in range.
func (p PitchCode) Valid() bool { return p.Degree >= 1 && p.Degree <= 7 }

// Natural strips the accidental.
func (p PitchCode) Natural() PitchCode { return PitchCode{Degree: p.Degree} }

// String renders the pitch in the given system's vocabulary.
func (p PitchCode) String(ps PitchSystem) string {
	switch ps {
	case SystemWestern:
		letters := []string{"c", "d", "e", "f", "g", "a", "b"}
		return letters[p.Degree-1] + p.Acc.Suffix()
	case SystemSargam:
		return p.sargamString()
	default:
		return fmt.Sprintf("%d%s", p.Degree, p.Acc.Suffix())
	}
}

// sargamString follows the usual convention: lowercase r g d n are the komal
// (flat) degrees, M is tivra (sharp) ma. Everything else keeps its suffix.
func (p PitchCode) sargamString() string {
	upper := []string{"S", "R", "G", "m", "P", "D", "N"}
	switch {
	case p.Acc == Flat && (p.Degree == 2 || p.Degree == 3 || p.Degree == 6 || p.Degree == 7):
		return strings.ToLower(upper[p.Degree-1])
	case p.Acc == Sharp && p.Degree == 4:
		return "M"
	default:
		return upper[p.Degree-1] + p.Acc.Suffix()
	}
}

// majorScale maps degree index (0-based) to semitones above the tonic.
var majorScale = [7]int{0, 2, 4, 5, 7, 9, 11}

// naturalSemis maps letter index (0=C..6=B) to semitones above C.
var naturalSemis = [7]int{0, 2, 4, 5, 7, 9, 11}

// Tonic is the concert pitch of scale degree 1 (movable-do).
type Tonic struct {
	Step  int // 0=C .. 6=B
	Alter int // -1 flat, +1 sharp
}

// DefaultTonic is C.
var DefaultTonic = Tonic{}

var stepLetters = [7]string{"C", "D", "E", "F", "G", "A", "B"}

// ParseTonic accepts names like "C", "F#", "Bb", "eb".
func ParseTonic(name string) (Tonic, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return Tonic{}, fmt.Errorf("empty tonic name")
	}
	letter := strings.ToUpper(s[:1])
	idx := strings.Index("CDEFGAB", letter)
	if idx < 0 {
		return Tonic{}, fmt.Errorf("unknown tonic %q", name)
	}
	t := Tonic{Step: idx}
	switch strings.ToLower(s[1:]) {
	case "":
	case "#":
		t.Alter = 1
	case "b":
		t.Alter = -1
	case "##":
		t.Alter = 2
	case "bb":
		t.Alter = -2
	default:
		return Tonic{}, fmt.Errorf("unknown tonic %q", name)
	}
	return t, nil
}

// Name returns the display name, e.g. "F#".
func (t Tonic) Name() string {
	n := stepLetters[t.Step]
	switch t.Alter {
	case 1:
		n += "#"
	case -1:
		n += "b"
	case 2:
		n += "##"
	case -2:
		n += "bb"
	}
	return n
}

// semitone returns the tonic's semitone distance above C.
func (t Tonic) semitone() int { return naturalSemis[t.Step] + t.Alter }

// ConcertPitch spells a pitch code in concert pitch relative to the tonic.
// octaveOffset is the cell's offset from the base octave (4). The returned
// step is a letter "C".."B", alter the chromatic adjustment of that letter,
// and octave the scientific octave number.
func ConcertPitch(pc PitchCode, octaveOffset int, t Tonic) (step string, alter float64, octave int) {
	degIdx := pc.Degree - 1
	letterIdx := (t.Step + degIdx) % 7
	octCarry := (t.Step + degIdx) / 7

	target := float64(t.semitone()+majorScale[degIdx]) + pc.Acc.Alter()
	natural := float64(naturalSemis[letterIdx] + 12*octCarry)
	return stepLetters[letterIdx], target - natural, 4 + octaveOffset + octCarry
}

// MIDIKey returns the MIDI note number for a pitch code, rounding half-flats
// down to the nearest semitone. Base octave 4 maps degree 1 of C to 60.
func MIDIKey(pc PitchCode, octaveOffset int, t Tonic) int {
	target := float64(60+t.semitone()+majorScale[pc.Degree-1]) + pc.Acc.Alter() + float64(12*octaveOffset)
	return int(target) // truncation rounds -0.5 toward the flat side of the natural
}

// KeySignatureFifths maps a key name ("C", "G", "Bb", "f#" minor not
// supported) onto the circle-of-fifths count used by MusicXML <fifths>.
func KeySignatureFifths(name string) (int, error) {
	t, err := ParseTonic(name)
	if err != nil {
		return 0, err
	}
	// Fifths from C: derived from the step's natural position plus 7 per sharp.
	naturalFifths := [7]int{0, 2, 4, -1, 1, 3, 5}
	return naturalFifths[t.Step] + 7*t.Alter, nil
}

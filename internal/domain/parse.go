/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

// ParseLine tokenizes a raw notation string into cells under the given pitch
// system. A pitch character followed immediately by an accidental suffix
// collapses into a single composite cell ("1" + "#" => one cell "1#"); the
// parser never leaves a dangling accidental character as its own cell.
//
// Recognized tokens:
//   - pitches per system (number: 1-7, western: a-g, sargam: S r R g G m M P d D n N)
//   - accidental suffixes: "#", "##", "b", "bb", "~" (half-flat)
//   - "-" duration dash, " " beat separator, "|" barline, "'" breath mark
//   - "x"/"X" unpitched strike
//
// Anything else becomes a KindOther cell so edits round-trip byte-exactly.
func ParseLine(text string, ps PitchSystem) []Cell {
	var cells []Cell
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t':
			cells = append(cells, Cell{Char: string(r), Kind: KindSpace})
		case r == '-':
			cells = append(cells, Cell{Char: "-", Kind: KindDash})
		case r == '|':
			cells = append(cells, Cell{Char: "|", Kind: KindBarline})
		case r == '\'':
			cells = append(cells, Cell{Char: "'", Kind: KindBreathMark})
		case r == 'x' || r == 'X':
			cells = append(cells, Cell{Char: string(r), Kind: KindUnpitched})
		default:
			if pc, ok := pitchFor(r, ps); ok {
				consumed, cell := pitchCell(runes, i, pc, ps)
				cells = append(cells, cell)
				i += consumed
				continue
			}
			cells = append(cells, Cell{Char: string(r), Kind: KindOther})
		}
	}
	return cells
}

// pitchCell builds a pitched cell starting at index i, consuming a trailing
// accidental suffix when present. Returns the number of extra runes consumed.
func pitchCell(runes []rune, i int, pc PitchCode, ps PitchSystem) (int, Cell) {
	consumed := 0
	rest := string(runes[i+1:])
	// Longest suffix first so "##" wins over "#".
	for _, suf := range []struct {
		s   string
		acc Accidental
	}{
		{"##", DoubleSharp}, {"bb", DoubleFlat}, {"#", Sharp}, {"b", Flat}, {"~", HalfFlat},
	} {
		if strings.HasPrefix(rest, suf.s) {
			// Western "b" is a pitch letter; a flat suffix still applies since
			// degrees never follow each other without a separator mid-token.
			if pc.Acc == Natural {
				pc.Acc = suf.acc
				consumed = len(suf.s)
			}
			break
		}
	}
	char := string(runes[i : i+1+consumed])
	p := pc
	return consumed, Cell{Char: char, Kind: KindPitched, Pitch: &p}
}

// pitchFor maps a single rune to a pitch code under the pitch system.
func pitchFor(r rune, ps PitchSystem) (PitchCode, bool) {
	switch ps {
	case SystemWestern:
		idx := strings.IndexRune("cdefgab", r)
		if idx < 0 {
			idx = strings.IndexRune("CDEFGAB", r)
		}
		if idx >= 0 {
			return PitchCode{Degree: idx + 1}, true
		}
	case SystemSargam:
		switch r {
		case 'S', 's':
			return PitchCode{Degree: 1}, true
		case 'R':
			return PitchCode{Degree: 2}, true
		case 'r':
			return PitchCode{Degree: 2, Acc: Flat}, true
		case 'G':
			return PitchCode{Degree: 3}, true
		case 'g':
			return PitchCode{Degree: 3, Acc: Flat}, true
		case 'm':
			return PitchCode{Degree: 4}, true
		case 'M':
			return PitchCode{Degree: 4, Acc: Sharp}, true
		case 'P', 'p':
			return PitchCode{Degree: 5}, true
		case 'D':
			return PitchCode{Degree: 6}, true
		case 'd':
			return PitchCode{Degree: 6, Acc: Flat}, true
		case 'N':
			return PitchCode{Degree: 7}, true
		case 'n':
			return PitchCode{Degree: 7, Acc: Flat}, true
		}
	default: // SystemNumber
		if r >= '1' && r <= '7' {
			return PitchCode{Degree: int(r - '0')}, true
		}
	}
	return PitchCode{}, false
}

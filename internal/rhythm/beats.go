/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package rhythm derives beat structure from notation lines: beat grouping,
// subdivision counting, tuplet ratios and the dash-run rest/extension rules.
// It is a pure derivation layer; it never mutates the document.
package rhythm

import "notewright/internal/domain"

// Beat is a maximal run of cells between beat separators (space, barline,
// line boundaries). RhythmCount counts pitched/unpitched cells that are not
// ornament-internal; breath marks and grace cells sit inside the span but
// never count. Subdivisions additionally counts dash cells, since each dash
// occupies one duration slot of the beat.
type Beat struct {
	Start        int // inclusive column
	End          int // inclusive column
	RhythmCount  int
	Subdivisions int
}

// HasArc reports whether the beat draws a grouping arc / emits a tuplet.
// RhythmCount >= 2 is the sole condition.
func (b Beat) HasArc() bool { return b.RhythmCount >= 2 }

// TupletRatio returns the single tuplet ratio for the beat, or ok=false when
// the subdivision count is a power of two (no tuplet). A beat emits at most
// one tuplet; it is never split into smaller ones.
func (b Beat) TupletRatio() (actual, normal int, ok bool) {
	n := b.Subdivisions
	if n < 3 || isPowerOfTwo(n) {
		return 0, 0, false
	}
	return n, nextPowerOfTwoBelow(n), true
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

func nextPowerOfTwoBelow(n int) int {
	p := 1
	for p*2 < n {
		p *= 2
	}
	return p
}

// ComputeBeats groups a line's cells into beats. Space and barline cells are
// beat boundaries; breath marks and ornament-internal cells sit inside the
// [start, end] span for rendering but contribute to no count.
func ComputeBeats(line domain.Line) []Beat {
	var beats []Beat
	cur := Beat{Start: -1}

	flush := func() {
		if cur.Start >= 0 {
			beats = append(beats, cur)
		}
		cur = Beat{Start: -1}
	}

	for col, c := range line.Cells {
		switch c.Kind {
		case domain.KindSpace, domain.KindBarline:
			flush()
		case domain.KindPitched, domain.KindUnpitched:
			if cur.Start < 0 {
				cur.Start = col
			}
			cur.End = col
			if c.OrnamentIndicator.OrnamentInternal() {
				continue
			}
			cur.RhythmCount++
			cur.Subdivisions++
		case domain.KindDash:
			if cur.Start < 0 {
				cur.Start = col
			}
			cur.End = col
			cur.Subdivisions++
		case domain.KindBreathMark:
			// Included in the span for rendering, excluded from all counts.
			if cur.Start < 0 {
				cur.Start = col
			}
			cur.End = col
		default:
			flush()
		}
	}
	flush()
	return beats
}

// MeasureSpan is a run of beats between barlines on one line.
type MeasureSpan struct {
	Beats []Beat
}

// SplitMeasures partitions a line's beats at barline cells. A line with no
// barlines yields a single measure. Empty segments (e.g. a trailing barline)
// are dropped.
func SplitMeasures(line domain.Line) []MeasureSpan {
	beats := ComputeBeats(line)
	var (
		measures []MeasureSpan
		cur      MeasureSpan
		bi       int
	)
	for col, c := range line.Cells {
		if c.Kind != domain.KindBarline {
			continue
		}
		for bi < len(beats) && beats[bi].End < col {
			cur.Beats = append(cur.Beats, beats[bi])
			bi++
		}
		if len(cur.Beats) > 0 {
			measures = append(measures, cur)
			cur = MeasureSpan{}
		}
	}
	for bi < len(beats) {
		cur.Beats = append(cur.Beats, beats[bi])
		bi++
	}
	if len(cur.Beats) > 0 {
		measures = append(measures, cur)
	}
	return measures
}

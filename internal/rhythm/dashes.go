/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package rhythm

import "notewright/internal/domain"

// EventKind distinguishes sounding notes from rests in a resolved beat.
type EventKind int8

const (
	EventNote EventKind = iota
	EventRest
)

// Event is one duration slot holder inside a resolved beat.
//
// For EventNote, Col is the column of the sounding pitch cell. When a dash
// run continues a pitch from an earlier beat, TieFromPrev is set and Col
// still points at the originating pitch cell so exporters can repeat it as a
// tied note rather than a fresh attack.
type Event struct {
	Kind        EventKind
	Col         int
	Subdivs     int
	TieFromPrev bool
	// TieToNext is set on the source event when a later beat extends it.
	TieToNext bool
}

// ResolvedBeat pairs a beat with its duration events. The sum of event
// Subdivs always equals Beat.Subdivisions.
type ResolvedBeat struct {
	Beat
	Events []Event
}

// ResolveLine applies the dash rules to a whole line and returns its beats
// with rest/extension decisions made.
//
// A dash run becomes a rest only when it has no rhythm context: at the start
// of a line before any pitch, or immediately after a breath mark. In every
// other case it extends the most recent pitched/unpitched cell, including
// across beat-separating spaces, in which case the extension is emitted as a
// tied continuation of that pitch rather than a new attack.
func ResolveLine(line domain.Line) []ResolvedBeat {
	beats := ComputeBeats(line)
	resolved := make([]ResolvedBeat, len(beats))

	// lastPitch tracks rhythm context across the whole line; breath marks
	// reset it. Holds the (beat index, event index, column) of the most
	// recent sounding cell.
	type ref struct{ beat, event, col int }
	var lastPitch *ref

	// Breath marks live between beats or inside spans; scan cells in step
	// with beats so resets happen in order.
	bi := 0
	for col := 0; col < len(line.Cells); col++ {
		c := line.Cells[col]
		for bi < len(beats) && col > beats[bi].End {
			bi++
		}
		inBeat := bi < len(beats) && col >= beats[bi].Start && col <= beats[bi].End

		switch c.Kind {
		case domain.KindBreathMark:
			lastPitch = nil
		case domain.KindPitched, domain.KindUnpitched:
			if !inBeat || c.OrnamentIndicator.OrnamentInternal() {
				continue
			}
			rb := &resolved[bi]
			rb.Events = append(rb.Events, Event{Kind: EventNote, Col: col, Subdivs: 1})
			lastPitch = &ref{beat: bi, event: len(rb.Events) - 1, col: col}
		case domain.KindDash:
			if !inBeat {
				continue
			}
			rb := &resolved[bi]
			if lastPitch == nil {
				// Rest run: extend a trailing rest event or open one.
				if n := len(rb.Events); n > 0 && rb.Events[n-1].Kind == EventRest {
					rb.Events[n-1].Subdivs++
				} else {
					rb.Events = append(rb.Events, Event{Kind: EventRest, Col: col, Subdivs: 1})
				}
				continue
			}
			if lastPitch.beat == bi {
				// Same beat: the dash lengthens the source event directly.
				resolved[bi].Events[lastPitch.event].Subdivs++
				continue
			}
			// Cross-beat extension: tie from the source pitch.
			if n := len(rb.Events); n > 0 && rb.Events[n-1].Kind == EventNote && rb.Events[n-1].TieFromPrev && rb.Events[n-1].Col == lastPitch.col {
				rb.Events[n-1].Subdivs++
				continue
			}
			rb.Events = append(rb.Events, Event{Kind: EventNote, Col: lastPitch.col, Subdivs: 1, TieFromPrev: true})
			resolved[lastPitch.beat].Events[lastPitch.event].TieToNext = true
			lastPitch = &ref{beat: bi, event: len(rb.Events) - 1, col: lastPitch.col}
		}
	}

	for i := range resolved {
		resolved[i].Beat = beats[i]
	}
	return resolved
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"notewright/internal/domain"
	"notewright/internal/ir"
)

// MIDIOptions controls Standard MIDI File export.
type MIDIOptions struct {
	TicksPerQuarter int     // default 480
	TempoBPM        float64 // default 120
	Velocity        uint8   // default 80
}

func (o MIDIOptions) withDefaults() MIDIOptions {
	if o.TicksPerQuarter <= 0 {
		o.TicksPerQuarter = 480
	}
	if o.TempoBPM <= 0 {
		o.TempoBPM = 120
	}
	if o.Velocity == 0 {
		o.Velocity = 80
	}
	return o
}

// MIDI renders the document as a type-1 Standard MIDI File with one track
// per part. A beat always lasts one quarter note; tuplet beats compress
// their subdivisions accordingly, and dash extensions simply lengthen the
// sounding note. Grace notes steal a sliver from their anchor.
func MIDI(doc *domain.Document, opt MIDIOptions) (*smf.SMF, error) {
	opt = opt.withDefaults()
	score, err := ir.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("export midi: %w", err)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(opt.TicksPerQuarter)

	for pi, p := range score.AllParts() {
		var tr smf.Track
		name := p.Name
		if name == "" {
			name = p.ID
		}
		tr.Add(0, smf.MetaTrackSequenceName(name))
		if pi == 0 {
			tr.Add(0, smf.MetaTempo(opt.TempoBPM))
		}
		writeTrackNotes(&tr, p, opt)
		tr.Close(0)
		s.Add(tr)
	}
	return s, nil
}

// WriteMIDI renders and writes the SMF bytes to w.
func WriteMIDI(w io.Writer, doc *domain.Document, opt MIDIOptions) error {
	s, err := MIDI(doc, opt)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("export midi: write: %w", err)
	}
	return nil
}

// timedNote is a tie-merged sounding note or gap on the track timeline.
type timedNote struct {
	rest   bool
	key    uint8
	ticks  int64
	before []uint8 // grace keys played ahead of the attack
	after  []uint8 // grace keys played at the tail
}

func writeTrackNotes(tr *smf.Track, p ir.Part, opt MIDIOptions) {
	const ch = 0
	merged := mergeTies(p, opt.TicksPerQuarter)

	graceTicks := int64(opt.TicksPerQuarter / 8)
	var wait int64
	for _, tn := range merged {
		if tn.rest {
			wait += tn.ticks
			continue
		}
		main := tn.ticks

		// Before-graces steal from the head of the anchor.
		if n := int64(len(tn.before)); n > 0 {
			steal := graceTicks
			if steal*n > main/2 {
				steal = main / 2 / n
			}
			for _, gk := range tn.before {
				tr.Add(uint32(wait), midi.NoteOn(ch, gk, opt.Velocity))
				tr.Add(uint32(steal), midi.NoteOff(ch, gk))
				wait = 0
				main -= steal
			}
		}
		// After-graces steal from the tail.
		var tail int64
		if n := int64(len(tn.after)); n > 0 {
			steal := graceTicks
			if steal*n > main/2 {
				steal = main / 2 / n
			}
			tail = steal * n
			main -= tail
		}

		tr.Add(uint32(wait), midi.NoteOn(ch, tn.key, opt.Velocity))
		tr.Add(uint32(main), midi.NoteOff(ch, tn.key))
		wait = 0
		if n := int64(len(tn.after)); n > 0 {
			per := tail / n
			for _, gk := range tn.after {
				tr.Add(0, midi.NoteOn(ch, gk, opt.Velocity))
				tr.Add(uint32(per), midi.NoteOff(ch, gk))
			}
		}
	}
}

// mergeTies flattens a part's measures into a timeline, folding tied
// continuations into their source note.
func mergeTies(p ir.Part, tpq int) []timedNote {
	var out []timedNote
	for _, m := range p.Measures {
		for _, nt := range m.Notes {
			ticks := int64(nt.Duration) * int64(tpq) / int64(m.Divisions)
			if nt.Rest {
				if n := len(out); n > 0 && out[n-1].rest {
					out[n-1].ticks += ticks
				} else {
					out = append(out, timedNote{rest: true, ticks: ticks})
				}
				continue
			}
			key := midiKey(nt.Pitch)
			if nt.TieStop {
				if n := len(out); n > 0 && !out[n-1].rest && out[n-1].key == key {
					out[n-1].ticks += ticks
					continue
				}
			}
			tn := timedNote{key: key, ticks: ticks}
			for _, g := range nt.GraceBefore {
				tn.before = append(tn.before, midiKey(g.Pitch))
			}
			for _, g := range nt.GraceAfter {
				tn.after = append(tn.after, midiKey(g.Pitch))
			}
			out = append(out, tn)
		}
	}
	return out
}

var stepSemis = map[string]int{"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11}

// midiKey converts a spelled pitch to its MIDI key number. Quarter-tone
// alters truncate toward the unaltered pitch; SMF has no finer resolution
// without pitch-bend.
func midiKey(p ir.Pitch) uint8 {
	k := 12*(p.Octave+1) + stepSemis[p.Step] + int(p.Alter)
	if k < 0 {
		k = 0
	}
	if k > 127 {
		k = 127
	}
	return uint8(k)
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ir

import (
	"fmt"
	"strings"

	"notewright/internal/domain"
	"notewright/internal/rhythm"
)

// Build flattens a document into a Score. Every line becomes a part; the
// document's system markers group parts under brackets. Part IDs are unique
// across the whole score so the MusicXML part-list stays valid regardless of
// grouping.
func Build(doc *domain.Document) (*Score, error) {
	tonic := doc.TonicOrDefault()

	docFifths := 0
	if doc.KeySignature != "" {
		f, err := domain.KeySignatureFifths(doc.KeySignature)
		if err != nil {
			return nil, fmt.Errorf("document key: %w", err)
		}
		docFifths = f
	}

	score := &Score{Title: doc.Title, Fifths: docFifths}
	partNum := 0
	for _, span := range doc.DeriveSystems() {
		sys := System{Bracket: span.Count >= 2}
		for li := span.Start; li < span.Start+span.Count; li++ {
			partNum++
			p, err := buildPart(doc, li, partNum, tonic)
			if err != nil {
				return nil, err
			}
			sys.Parts = append(sys.Parts, p)
		}
		score.Systems = append(score.Systems, sys)
	}
	return score, nil
}

func buildPart(doc *domain.Document, li, partNum int, tonic domain.Tonic) (Part, error) {
	line := doc.Lines[li]
	p := Part{
		ID:   fmt.Sprintf("P%d", partNum),
		Name: line.Label,
		Line: li,
	}
	if key := doc.LineKey(li); key != "" {
		f, err := domain.KeySignatureFifths(key)
		if err != nil {
			return Part{}, fmt.Errorf("line %d key: %w", li, err)
		}
		p.Fifths = f
	}

	resolved := rhythm.ResolveLine(line)
	spans := rhythm.SplitMeasures(line)
	syllables := strings.Fields(line.Lyrics)
	sylIdx := 0
	beamGroup := 0

	// notes collects every emitted note across measures so slurs can be
	// attached by source column afterwards.
	type emitted struct {
		measure, index, col int
		attack              bool
	}
	var all []emitted

	ri := 0
	for mi, span := range spans {
		m := Measure{Number: mi + 1, Divisions: 1}
		for _, b := range span.Beats {
			if n := b.Subdivisions; n > 0 {
				m.Divisions = lcm(m.Divisions, n)
			}
		}
		for _, b := range span.Beats {
			rb := resolved[ri]
			ri++
			n := b.Subdivisions
			if n == 0 {
				continue
			}
			actual, normal, tuplet := b.TupletRatio()
			nominal := n
			if tuplet {
				nominal = normal
			}
			if n > 1 {
				beamGroup++
			}
			for ei, ev := range rb.Events {
				nt := Note{
					Duration: ev.Subdivs * m.Divisions / n,
					TieStart: ev.TieToNext,
					TieStop:  ev.TieFromPrev,
				}
				nt.Type, nt.Dots = notatedType(ev.Subdivs, nominal)
				if tuplet {
					nt.TupletActual, nt.TupletNormal = actual, normal
					nt.TupletStart = ei == 0
					nt.TupletStop = ei == len(rb.Events)-1
				}
				if n > 1 {
					nt.BeamGroup = beamGroup
				}
				if ev.Kind == rhythm.EventRest {
					nt.Rest = true
				} else {
					cell := line.Cells[ev.Col]
					if cell.Pitch == nil {
						return Part{}, fmt.Errorf("%w: line %d col %d sounding cell without pitch", ErrInconsistent, li, ev.Col)
					}
					nt.Pitch = concert(*cell.Pitch, cell.Octave, tonic)
					attack := !ev.TieFromPrev
					if attack {
						if cell.Ornament != nil {
							attachGraces(&nt, cell.Ornament, tonic)
						}
						if sylIdx < len(syllables) {
							nt.Lyric = syllables[sylIdx]
							sylIdx++
						}
					}
					all = append(all, emitted{mi, len(m.Notes), ev.Col, attack})
				}
				m.Notes = append(m.Notes, nt)
			}
		}
		p.Measures = append(p.Measures, m)
	}

	// Lines with no rhythmic content still yield one silent measure so the
	// part renders.
	if len(p.Measures) == 0 {
		p.Measures = []Measure{{Number: 1, Divisions: 1, Notes: []Note{{Rest: true, Duration: 4, Type: "whole"}}}}
	}

	// Slur endpoints attach to the first and last sounding notes whose source
	// columns fall inside the annotated range.
	for _, s := range doc.Slurs {
		if s.Line != li {
			continue
		}
		first, last := -1, -1
		for i, em := range all {
			if em.col >= s.StartCol && em.col <= s.EndCol {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		if first < 0 || first == last {
			continue
		}
		f, l := all[first], all[last]
		p.Measures[f.measure].Notes[f.index].SlurStart = true
		p.Measures[l.measure].Notes[l.index].SlurStop = true
	}

	return p, nil
}

func attachGraces(nt *Note, payload *domain.OrnamentPayload, tonic domain.Tonic) {
	for _, gc := range payload.Cells {
		if gc.Pitch == nil {
			continue
		}
		g := Grace{Pitch: concert(*gc.Pitch, gc.Octave, tonic)}
		if payload.Placement == domain.PlaceAfter {
			g.Slash = true
			nt.GraceAfter = append(nt.GraceAfter, g)
		} else {
			nt.GraceBefore = append(nt.GraceBefore, g)
		}
	}
}

func concert(pc domain.PitchCode, octave int, tonic domain.Tonic) Pitch {
	step, alter, oct := domain.ConcertPitch(pc, octave, tonic)
	return Pitch{Step: step, Alter: alter, Octave: oct}
}

// notatedType maps a nominal length of num/den quarters to a MusicXML note
// type plus dot count. Tuplet members pass their normal-count denominator, so
// a triplet eighth still reads "eighth".
func notatedType(num, den int) (string, int) {
	for num%2 == 0 && den%2 == 0 {
		num, den = num/2, den/2
	}
	switch num {
	case 3:
		t, _ := notatedType(2, den)
		return t, 1
	case 7:
		t, _ := notatedType(4, den)
		return t, 2
	}
	if den == 1 {
		switch num {
		case 1:
			return "quarter", 0
		case 2:
			return "half", 0
		case 4:
			return "whole", 0
		case 8:
			return "breve", 0
		}
	}
	if num == 1 {
		switch den {
		case 2:
			return "eighth", 0
		case 4:
			return "16th", 0
		case 8:
			return "32nd", 0
		case 16:
			return "64th", 0
		case 32:
			return "128th", 0
		}
	}
	// Irregular lengths inside tuplets fall back to the nearest fit.
	if num > den {
		return "quarter", 0
	}
	return "eighth", 0
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int { return a / gcd(a, b) * b }

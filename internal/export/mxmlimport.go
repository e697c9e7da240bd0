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
	"strconv"
	"strings"

	xml "github.com/subchen/go-xmldom"

	"notewright/internal/domain"
)

// ImportMusicXML converts a partwise MusicXML score back into a notation
// document. The import is a best-effort inverse of the exporter: parts
// become lines, bracketed part-groups become system markers, pitches are
// respelled as scale degrees against the imported key's tonic. Rhythms
// coarser than one beat come back as dash extensions; finer subdivision
// detail inside tuplets is preserved per beat.
func ImportMusicXML(musicXML string) (*domain.Document, error) {
	x, err := xml.ParseXML(musicXML)
	if err != nil {
		return nil, fmt.Errorf("import musicxml: %w", err)
	}
	root := x.Root
	if root.Name != "score-partwise" {
		return nil, fmt.Errorf("import musicxml: unsupported root element %q", root.Name)
	}

	doc := &domain.Document{PitchSystem: domain.SystemNumber}
	if work := firstChild(root, "work"); work != nil {
		doc.Title = childText(work, "work-title")
	}

	names := map[string]string{}
	groups := partGroups(root, names)
	parts := map[string]*xml.Node{}
	for _, p := range root.GetChildren("part") {
		parts[p.GetAttributeValue("id")] = p
	}

	tonic := domain.DefaultTonic
	li := 0
	for _, g := range groups {
		for idx, id := range g.partIDs {
			pn := parts[id]
			if pn == nil {
				return nil, fmt.Errorf("import musicxml: part %s listed but missing", id)
			}
			line, err := importPart(doc, pn, li, tonic)
			if err != nil {
				return nil, err
			}
			if names[id] != id {
				line.Label = names[id]
			}
			if idx == 0 && g.bracket && len(g.partIDs) >= 2 {
				line.SystemStartCount = len(g.partIDs)
			}
			doc.Lines = append(doc.Lines, *line)
			li++
		}
	}
	if len(doc.Lines) == 0 {
		doc.Lines = []domain.Line{{}}
	}
	return doc, nil
}

// importPart converts one part element into a line, appending its slur,
// ornament and lyric annotations to the document.
func importPart(doc *domain.Document, pn *xml.Node, li int, tonic domain.Tonic) (*domain.Line, error) {
	var (
		tokens  []string // one token per cell
		octaves = map[int]int{}
		lyrics  []string
	)
	col := func() int { return len(tokens) }

	var pendingGrace []string
	var slurOpen []int
	var lastNoteCol = -1
	fifths := 0

	for mi, m := range pn.GetChildren("measure") {
		if mi > 0 {
			tokens = append(tokens, "|")
		}
		if attrs := firstChild(m, "attributes"); attrs != nil {
			if key := firstChild(attrs, "key"); key != nil {
				fifths, _ = strconv.Atoi(childText(key, "fifths"))
			}
		}
		firstInMeasure := true
		for _, n := range m.GetChildren("note") {
			divisions := measureDivisions(m)
			grace := firstChild(n, "grace")
			isRest := firstChild(n, "rest") != nil

			if grace != nil && !isRest {
				txt, err := degreeText(n, tonic)
				if err != nil {
					return nil, err
				}
				if grace.GetAttributeValue("steal-time-following") != "" && lastNoteCol >= 0 {
					appendGrace(doc, li, lastNoteCol, txt, domain.PlaceAfter)
				} else {
					pendingGrace = append(pendingGrace, txt)
				}
				continue
			}

			beats := 1
			if divisions > 0 {
				if d, _ := strconv.Atoi(childText(n, "duration")); d > divisions {
					beats = d / divisions
				}
			}

			if !firstInMeasure {
				tokens = append(tokens, " ")
			}
			firstInMeasure = false

			if isRest {
				// A breath mark severs the dash from earlier pitches so the
				// run reads back as silence.
				if lastNoteCol >= 0 {
					tokens = append(tokens, "'")
				}
				tokens = append(tokens, "-")
				for i := 1; i < beats; i++ {
					tokens = append(tokens, " ", "-")
				}
				continue
			}

			txt, err := degreeText(n, tonic)
			if err != nil {
				return nil, err
			}
			noteCol := col()
			if oct := importOctave(n, tonic); oct != 0 {
				octaves[noteCol] = oct
			}
			tokens = append(tokens, txt)
			lastNoteCol = noteCol
			for i := 1; i < beats; i++ {
				tokens = append(tokens, " ", "-")
			}

			if len(pendingGrace) > 0 {
				appendGrace(doc, li, noteCol, strings.Join(pendingGrace, ""), domain.PlaceBefore)
				pendingGrace = nil
			}
			for _, not := range n.GetChildren("notations") {
				for _, sl := range not.GetChildren("slur") {
					switch sl.GetAttributeValue("type") {
					case "start":
						slurOpen = append(slurOpen, noteCol)
					case "stop":
						if len(slurOpen) > 0 {
							start := slurOpen[len(slurOpen)-1]
							slurOpen = slurOpen[:len(slurOpen)-1]
							doc.Slurs = append(doc.Slurs, domain.Slur{Line: li, StartCol: start, EndCol: noteCol})
						}
					}
				}
			}
			if lt := lyricText(n); lt != "" {
				lyrics = append(lyrics, lt)
			}
		}
	}

	line := domain.Line{Cells: domain.ParseLine(strings.Join(tokens, ""), domain.SystemNumber)}
	for c, oct := range octaves {
		if c < len(line.Cells) {
			line.Cells[c].Octave = oct
		}
	}
	line.Lyrics = strings.Join(lyrics, " ")
	if fifths != 0 {
		line.KeySignature = keySignatureName(fifths)
	}
	return &line, nil
}

func appendGrace(doc *domain.Document, line, col int, notation string, pl domain.Placement) {
	doc.Ornaments = append(doc.Ornaments, domain.Ornament{
		Line: line, Col: col, Notation: notation, Placement: pl, SpanStart: -1, SpanEnd: -1,
	})
}

func measureDivisions(m *xml.Node) int {
	if attrs := firstChild(m, "attributes"); attrs != nil {
		if d, err := strconv.Atoi(childText(attrs, "divisions")); err == nil {
			return d
		}
	}
	return 0
}

var stepLetters = map[string]int{"C": 0, "D": 1, "E": 2, "F": 3, "G": 4, "A": 5, "B": 6}

// degreeText respells a concert pitch as a number-system degree token
// relative to the tonic.
func degreeText(n *xml.Node, tonic domain.Tonic) (string, error) {
	pitch := firstChild(n, "pitch")
	if pitch == nil {
		return "", fmt.Errorf("import musicxml: sounding note without pitch")
	}
	step := childText(pitch, "step")
	letter, ok := stepLetters[step]
	if !ok {
		return "", fmt.Errorf("import musicxml: bad step %q", step)
	}
	alter := 0.0
	if a := childText(pitch, "alter"); a != "" {
		alter, _ = strconv.ParseFloat(a, 64)
	}

	degree := ((letter-tonic.Step)%7+7)%7 + 1
	natStep, natAlter, _ := domain.ConcertPitch(domain.PitchCode{Degree: degree}, 0, tonic)
	if natStep != step {
		return "", fmt.Errorf("import musicxml: degree respell mismatch for %s", step)
	}
	var acc domain.Accidental
	switch alter - natAlter {
	case 0:
		acc = domain.Natural
	case 1:
		acc = domain.Sharp
	case -1:
		acc = domain.Flat
	case 2:
		acc = domain.DoubleSharp
	case -2:
		acc = domain.DoubleFlat
	case -0.5:
		acc = domain.HalfFlat
	default:
		acc = domain.Natural
	}
	return domain.PitchCode{Degree: degree, Acc: acc}.String(domain.SystemNumber), nil
}

// importOctave recovers the cell octave offset by comparing the written
// octave to where the unaltered degree sits.
func importOctave(n *xml.Node, tonic domain.Tonic) int {
	pitch := firstChild(n, "pitch")
	if pitch == nil {
		return 0
	}
	letter, ok := stepLetters[childText(pitch, "step")]
	if !ok {
		return 0
	}
	octave, err := strconv.Atoi(childText(pitch, "octave"))
	if err != nil {
		return 0
	}
	degree := ((letter-tonic.Step)%7+7)%7 + 1
	_, _, natOct := domain.ConcertPitch(domain.PitchCode{Degree: degree}, 0, tonic)
	return octave - natOct
}

var keySignatureNames = map[int]string{
	-7: "Cb", -6: "Gb", -5: "Db", -4: "Ab", -3: "Eb", -2: "Bb", -1: "F",
	0: "C", 1: "G", 2: "D", 3: "A", 4: "E", 5: "B", 6: "F#", 7: "C#",
}

func keySignatureName(fifths int) string {
	if n, ok := keySignatureNames[fifths]; ok {
		return n
	}
	return "C"
}

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

	xml "github.com/subchen/go-xmldom"

	"notewright/internal/domain"
	"notewright/internal/ir"
)

const musicXMLDoctype = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.0 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">`

// MusicXMLOptions controls MusicXML export behavior.
type MusicXMLOptions struct {
	// Software is recorded in identification/encoding; defaults to the
	// application name.
	Software string
	// EncodingDate is recorded verbatim (YYYY-MM-DD). Empty omits the
	// element, keeping repeated exports of the same document byte-identical.
	EncodingDate string
	// OmitLyrics suppresses lyric elements.
	OmitLyrics bool
}

// MusicXML renders the document as a partwise MusicXML 3.0 score. Every line
// becomes a part; systems of two or more lines are wrapped in a bracketed
// part-group. The export reads from a flattened score model, so the document
// itself is never touched.
func MusicXML(doc *domain.Document, opt MusicXMLOptions) (string, error) {
	score, err := ir.Build(doc)
	if err != nil {
		return "", fmt.Errorf("export musicxml: %w", err)
	}

	x := xml.NewDocument("score-partwise")
	x.Root.SetAttributeValue("version", "3.0")
	x.Directives = append(x.Directives, musicXMLDoctype)

	if score.Title != "" {
		work := x.Root.CreateNode("work")
		work.CreateNode("work-title").Text = score.Title
	}

	software := opt.Software
	if software == "" {
		software = "NoteWright"
	}
	ident := x.Root.CreateNode("identification")
	enc := ident.CreateNode("encoding")
	enc.CreateNode("software").Text = software
	if opt.EncodingDate != "" {
		enc.CreateNode("encoding-date").Text = opt.EncodingDate
	}

	writePartList(x.Root, score)
	for _, sys := range score.Systems {
		for _, p := range sys.Parts {
			writePart(x.Root, p, opt)
		}
	}
	return x.XMLPretty(), nil
}

func writePartList(root *xml.Node, score *ir.Score) {
	pl := root.CreateNode("part-list")
	groupNum := 0
	for _, sys := range score.Systems {
		if sys.Bracket {
			groupNum++
			pg := pl.CreateNode("part-group")
			pg.SetAttributeValue("type", "start")
			pg.SetAttributeValue("number", fmt.Sprint(groupNum))
			pg.CreateNode("group-symbol").Text = "bracket"
		}
		for _, p := range sys.Parts {
			sp := pl.CreateNode("score-part")
			sp.SetAttributeValue("id", p.ID)
			name := p.Name
			if name == "" {
				name = p.ID
			}
			sp.CreateNode("part-name").Text = name
		}
		if sys.Bracket {
			pg := pl.CreateNode("part-group")
			pg.SetAttributeValue("type", "stop")
			pg.SetAttributeValue("number", fmt.Sprint(groupNum))
		}
	}
}

func writePart(root *xml.Node, p ir.Part, opt MusicXMLOptions) {
	pn := root.CreateNode("part")
	pn.SetAttributeValue("id", p.ID)

	prevDiv := 0
	for mi, m := range p.Measures {
		mn := pn.CreateNode("measure")
		mn.SetAttributeValue("number", fmt.Sprint(m.Number))

		if m.Divisions != prevDiv || mi == 0 {
			attrs := mn.CreateNode("attributes")
			attrs.CreateNode("divisions").Text = fmt.Sprint(m.Divisions)
			if mi == 0 {
				key := attrs.CreateNode("key")
				key.CreateNode("fifths").Text = fmt.Sprint(p.Fifths)
				key.CreateNode("mode").Text = "major"
				clef := attrs.CreateNode("clef")
				clef.CreateNode("sign").Text = "G"
				clef.CreateNode("line").Text = "2"
			}
			prevDiv = m.Divisions
		}

		beams := beamStates(m.Notes)
		for ni, nt := range m.Notes {
			writeGraceRun(mn, nt.GraceBefore)
			writeNote(mn, nt, beams[ni], opt)
			writeGraceRun(mn, nt.GraceAfter)
		}
	}
}

// writeGraceRun emits the grace notes of one ornament. Runs of two or more
// are beamed begin/continue/end as a single group.
func writeGraceRun(mn *xml.Node, run []ir.Grace) {
	for i, g := range run {
		var beam string
		if len(run) >= 2 {
			switch i {
			case 0:
				beam = "begin"
			case len(run) - 1:
				beam = "end"
			default:
				beam = "continue"
			}
		}
		writeGrace(mn, g, beam)
	}
}

// writeGrace emits one grace note. Stolen-time graces (played after their
// anchor) carry steal-time-following; plain graces carry a bare grace
// element. Grace notes never carry time-modification even inside tuplet
// beats: they occupy no beat subdivision.
func writeGrace(mn *xml.Node, g ir.Grace, beam string) {
	nn := mn.CreateNode("note")
	gn := nn.CreateNode("grace")
	if g.Slash {
		gn.SetAttributeValue("steal-time-following", "50")
	}
	writePitch(nn, g.Pitch)
	nn.CreateNode("type").Text = "eighth"
	if beam != "" {
		bn := nn.CreateNode("beam")
		bn.SetAttributeValue("number", "1")
		bn.Text = beam
	}
}

func writeNote(mn *xml.Node, nt ir.Note, beam string, opt MusicXMLOptions) {
	nn := mn.CreateNode("note")
	if nt.Rest {
		nn.CreateNode("rest")
	} else {
		writePitch(nn, nt.Pitch)
	}
	nn.CreateNode("duration").Text = fmt.Sprint(nt.Duration)
	if nt.TieStop {
		nn.CreateNode("tie").SetAttributeValue("type", "stop")
	}
	if nt.TieStart {
		nn.CreateNode("tie").SetAttributeValue("type", "start")
	}
	nn.CreateNode("voice").Text = "1"
	nn.CreateNode("type").Text = nt.Type
	for i := 0; i < nt.Dots; i++ {
		nn.CreateNode("dot")
	}
	if nt.TupletActual > 0 {
		tm := nn.CreateNode("time-modification")
		tm.CreateNode("actual-notes").Text = fmt.Sprint(nt.TupletActual)
		tm.CreateNode("normal-notes").Text = fmt.Sprint(nt.TupletNormal)
	}
	if beam != "" {
		bn := nn.CreateNode("beam")
		bn.SetAttributeValue("number", "1")
		bn.Text = beam
	}

	if nt.TieStart || nt.TieStop || nt.SlurStart || nt.SlurStop || nt.TupletStart || nt.TupletStop {
		not := nn.CreateNode("notations")
		if nt.TieStop {
			not.CreateNode("tied").SetAttributeValue("type", "stop")
		}
		if nt.TieStart {
			not.CreateNode("tied").SetAttributeValue("type", "start")
		}
		if nt.SlurStart {
			sl := not.CreateNode("slur")
			sl.SetAttributeValue("type", "start")
			sl.SetAttributeValue("number", "1")
		}
		if nt.SlurStop {
			sl := not.CreateNode("slur")
			sl.SetAttributeValue("type", "stop")
			sl.SetAttributeValue("number", "1")
		}
		if nt.TupletStart {
			not.CreateNode("tuplet").SetAttributeValue("type", "start")
		}
		if nt.TupletStop {
			not.CreateNode("tuplet").SetAttributeValue("type", "stop")
		}
	}

	if nt.Lyric != "" && !opt.OmitLyrics {
		ly := nn.CreateNode("lyric")
		ly.SetAttributeValue("number", "1")
		ly.CreateNode("syllabic").Text = "single"
		ly.CreateNode("text").Text = nt.Lyric
	}
}

func writePitch(nn *xml.Node, p ir.Pitch) {
	pn := nn.CreateNode("pitch")
	pn.CreateNode("step").Text = p.Step
	if p.Alter != 0 {
		pn.CreateNode("alter").Text = trimFloat(p.Alter)
	}
	pn.CreateNode("octave").Text = fmt.Sprint(p.Octave)
}

// beamStates computes per-note beam values for a measure: runs of two or
// more consecutive sounding sub-quarter notes in the same beat group are
// beamed begin/continue/end; everything else is unbeamed.
func beamStates(notes []ir.Note) []string {
	out := make([]string, len(notes))
	for i := 0; i < len(notes); {
		nt := notes[i]
		if nt.Rest || nt.BeamGroup == 0 || !subQuarter(nt.Type) {
			i++
			continue
		}
		j := i
		for j+1 < len(notes) {
			nx := notes[j+1]
			if nx.Rest || nx.BeamGroup != nt.BeamGroup || !subQuarter(nx.Type) {
				break
			}
			j++
		}
		if j > i {
			out[i] = "begin"
			for k := i + 1; k < j; k++ {
				out[k] = "continue"
			}
			out[j] = "end"
		}
		i = j + 1
	}
	return out
}

func subQuarter(noteType string) bool {
	switch noteType {
	case "eighth", "16th", "32nd", "64th", "128th":
		return true
	}
	return false
}

// trimFloat prints an alter value without a trailing ".0" for whole
// semitones, keeping quarter-tone values like -0.5 intact.
func trimFloat(f float64) string {
	if f == float64(int(f)) {
		return fmt.Sprint(int(f))
	}
	return fmt.Sprint(f)
}

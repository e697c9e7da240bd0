/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	xml "github.com/subchen/go-xmldom"
	"github.com/xeipuuv/gojsonschema"
)

// LilySettings controls the MusicXML -> LilyPond conversion. The zero value
// is not usable; obtain one from DefaultLilySettings or ParseLilySettings.
type LilySettings struct {
	TargetVersion       string `json:"target_lilypond_version"`
	Language            string `json:"language"`
	ConvertDirections   bool   `json:"convert_directions"`
	ConvertLyrics       bool   `json:"convert_lyrics"`
	ConvertChordSymbols bool   `json:"convert_chord_symbols"`
}

// DefaultLilySettings returns the conversion defaults.
func DefaultLilySettings() LilySettings {
	return LilySettings{
		TargetVersion:     "2.24.0",
		Language:          "english",
		ConvertDirections: true,
		ConvertLyrics:     true,
	}
}

const lilySettingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "target_lilypond_version": {"type": "string", "pattern": "^[0-9]+\\.[0-9]+(\\.[0-9]+)?$"},
    "language": {"type": "string", "enum": ["english", "nederlands", "deutsch"]},
    "convert_directions": {"type": "boolean"},
    "convert_lyrics": {"type": "boolean"},
    "convert_chord_symbols": {"type": "boolean"}
  }
}`

// ParseLilySettings validates a settings JSON document against the schema
// and merges it over the defaults.
func ParseLilySettings(data []byte) (LilySettings, error) {
	s := DefaultLilySettings()
	if len(data) == 0 {
		return s, nil
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(lilySettingsSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return s, fmt.Errorf("settings: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			fmt.Fprintf(&sb, "%s; ", e)
		}
		return s, fmt.Errorf("settings invalid: %s", sb.String())
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("settings: %w", err)
	}
	return s, nil
}

// ConvertMusicXMLToLilyPond parses a partwise MusicXML score and renders
// LilyPond source. Bracketed part-groups become StaffGroup blocks; plain
// grace runs become \grace, stolen-time graces become \afterGrace with the
// grace notes rendered \tiny.
func ConvertMusicXMLToLilyPond(musicXML string, s LilySettings) (string, error) {
	doc, err := xml.ParseXML(musicXML)
	if err != nil {
		return "", fmt.Errorf("convert lilypond: parse musicxml: %w", err)
	}
	root := doc.Root
	if root.Name != "score-partwise" {
		return "", fmt.Errorf("convert lilypond: unsupported root element %q", root.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\\version %q\n", s.TargetVersion)
	fmt.Fprintf(&b, "\\language %q\n\n", s.Language)

	if work := firstChild(root, "work"); work != nil {
		if t := firstChild(work, "work-title"); t != nil && t.Text != "" {
			fmt.Fprintf(&b, "\\header {\n  title = %q\n}\n\n", t.Text)
		}
	}

	partNames := map[string]string{}
	groups := partGroups(root, partNames)

	parts := map[string]*xml.Node{}
	for _, p := range root.GetChildren("part") {
		parts[p.GetAttributeValue("id")] = p
	}

	b.WriteString("\\score {\n  <<\n")
	for _, g := range groups {
		indent := "    "
		if g.bracket && len(g.partIDs) > 1 {
			b.WriteString("    \\new StaffGroup <<\n")
			indent = "      "
		}
		for _, id := range g.partIDs {
			p := parts[id]
			if p == nil {
				return "", fmt.Errorf("convert lilypond: part %s listed but missing", id)
			}
			music, lyrics, err := convertPart(p, s)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "%s\\new Staff = %q {\n%s  %s\n%s}\n", indent, partNames[id], indent, music, indent)
			if s.ConvertLyrics && lyrics != "" {
				fmt.Fprintf(&b, "%s\\addlyrics { %s }\n", indent, lyrics)
			}
		}
		if g.bracket && len(g.partIDs) > 1 {
			b.WriteString("    >>\n")
		}
	}
	b.WriteString("  >>\n}\n")
	return b.String(), nil
}

type lilyGroup struct {
	bracket bool
	partIDs []string
}

// partGroups reads the part-list, grouping score-parts by the bracketed
// part-group start/stop markers around them. Ungrouped parts form their own
// single-part group.
func partGroups(root *xml.Node, names map[string]string) []lilyGroup {
	var out []lilyGroup
	var open *lilyGroup
	pl := firstChild(root, "part-list")
	if pl == nil {
		return out
	}
	for _, n := range pl.Children {
		switch n.Name {
		case "part-group":
			if n.GetAttributeValue("type") == "start" {
				out = append(out, lilyGroup{bracket: true})
				open = &out[len(out)-1]
			} else {
				open = nil
			}
		case "score-part":
			id := n.GetAttributeValue("id")
			if pn := firstChild(n, "part-name"); pn != nil && pn.Text != "" {
				names[id] = pn.Text
			} else {
				names[id] = id
			}
			if open != nil {
				open.partIDs = append(open.partIDs, id)
			} else {
				out = append(out, lilyGroup{partIDs: []string{id}})
			}
		}
	}
	return out
}

// mxNote is one note element classified for emission. Plain graces attach
// to the following main note; stolen-time graces attach to the preceding
// one. pre carries directions (tempo marks) to emit before the note.
type mxNote struct {
	node       *xml.Node
	text       string
	pre        string
	grace      bool
	stolenTime bool
}

func convertPart(p *xml.Node, s LilySettings) (music, lyrics string, err error) {
	var b strings.Builder
	var ly []string

	for mi, m := range p.GetChildren("measure") {
		if mi == 0 {
			if attrs := firstChild(m, "attributes"); attrs != nil {
				if key := firstChild(attrs, "key"); key != nil {
					fifths, _ := strconv.Atoi(childText(key, "fifths"))
					fmt.Fprintf(&b, "\\key %s \\major ", keyName(fifths))
				}
			}
		}

		// Walk measure children in order so directions and chord symbols
		// attach to the note they precede.
		var notes []mxNote
		var pre string
		var markups []string
		for _, n := range m.Children {
			switch n.Name {
			case "direction":
				if !s.ConvertDirections {
					continue
				}
				if dt := firstChild(n, "direction-type"); dt != nil {
					if w := strings.TrimSpace(childText(dt, "words")); w != "" {
						markups = append(markups, w)
					}
				}
				if snd := firstChild(n, "sound"); snd != nil {
					if t := snd.GetAttributeValue("tempo"); t != "" {
						if bpm, pErr := strconv.ParseFloat(t, 64); pErr == nil && bpm > 0 {
							pre += fmt.Sprintf("\\tempo 4 = %d ", int(bpm))
						}
					}
				}
			case "harmony":
				if !s.ConvertChordSymbols {
					continue
				}
				if c := chordSymbol(n); c != "" {
					markups = append(markups, c)
				}
			case "note":
				nt, nErr := classifyNote(n)
				if nErr != nil {
					return "", "", nErr
				}
				if !nt.grace {
					nt.pre, pre = pre, ""
					for _, mk := range markups {
						nt.text += fmt.Sprintf("^\\markup { %q }", mk)
					}
					markups = markups[:0]
				}
				notes = append(notes, nt)
			}
		}

		tupletDepth := 0
		for i := 0; i < len(notes); i++ {
			if notes[i].grace {
				// Plain grace run: buffered up to its anchor.
				j := i
				for j < len(notes) && notes[j].grace && !notes[j].stolenTime {
					j++
				}
				if j > i && j < len(notes) && !notes[j].grace {
					run := graceRun(notes[i:j])
					i = j
					emitTupletNote(&b, notes[i], "\\grace { "+run+" } "+notes[i].text, &tupletDepth)
					collectLyric(notes[i].node, s, &ly)
					continue
				}
				// Orphan graces (no following main note): render tiny.
				if j == i {
					j = i + 1
				}
				fmt.Fprintf(&b, "\\tiny %s \\normalsize ", graceRun(notes[i:j]))
				i = j - 1
				continue
			}

			// Stolen-time graces after this note become \afterGrace.
			j := i + 1
			for j < len(notes) && notes[j].grace && notes[j].stolenTime {
				j++
			}
			if j > i+1 {
				run := graceRun(notes[i+1 : j])
				emitTupletNote(&b, notes[i], "\\afterGrace "+notes[i].text+" { \\tiny "+run+" }", &tupletDepth)
				collectLyric(notes[i].node, s, &ly)
				i = j - 1
				continue
			}
			emitTupletNote(&b, notes[i], notes[i].text, &tupletDepth)
			collectLyric(notes[i].node, s, &ly)
		}
		b.WriteString("| ")
	}
	return strings.TrimSpace(b.String()), strings.Join(ly, " "), nil
}

// emitTupletNote writes the rendered note text, opening or closing a
// \tuplet block when the underlying note carries tuplet notations.
func emitTupletNote(b *strings.Builder, nt mxNote, text string, depth *int) {
	if nt.pre != "" {
		b.WriteString(nt.pre)
	}
	starts, stops, actual, normal := tupletMarks(nt.node)
	if starts && actual > 0 {
		fmt.Fprintf(b, "\\tuplet %d/%d { ", actual, normal)
		*depth++
	}
	b.WriteString(text + " ")
	if stops && *depth > 0 {
		b.WriteString("} ")
		*depth--
	}
}

func collectLyric(n *xml.Node, s LilySettings, ly *[]string) {
	if !s.ConvertLyrics {
		return
	}
	if lt := lyricText(n); lt != "" {
		*ly = append(*ly, lt)
	}
}

func graceRun(notes []mxNote) string {
	parts := make([]string, len(notes))
	for i, nt := range notes {
		parts[i] = nt.text
	}
	return strings.Join(parts, " ")
}

// classifyNote renders one note element to LilyPond text and flags whether
// it is a grace.
func classifyNote(n *xml.Node) (mxNote, error) {
	grace := firstChild(n, "grace")

	var name string
	if firstChild(n, "rest") != nil {
		name = "r"
	} else {
		pitch := firstChild(n, "pitch")
		if pitch == nil {
			return mxNote{}, fmt.Errorf("convert lilypond: note without pitch or rest")
		}
		alter := 0.0
		if a := childText(pitch, "alter"); a != "" {
			alter, _ = strconv.ParseFloat(a, 64)
		}
		octave, _ := strconv.Atoi(childText(pitch, "octave"))
		name = lilyPitch(childText(pitch, "step"), alter, octave)
	}

	if grace != nil {
		return mxNote{
			node:       n,
			text:       name + "8",
			grace:      true,
			stolenTime: grace.GetAttributeValue("steal-time-following") != "",
		}, nil
	}

	txt := name + lilyDuration(n)
	if tieStarts(n) {
		txt += "~"
	}
	for _, not := range n.GetChildren("notations") {
		for _, sl := range not.GetChildren("slur") {
			switch sl.GetAttributeValue("type") {
			case "start":
				txt += "("
			case "stop":
				txt += ")"
			}
		}
	}
	return mxNote{node: n, text: txt}, nil
}

// chordSymbol renders a harmony element as a compact chord name for markup
// above the staff.
func chordSymbol(h *xml.Node) string {
	root := firstChild(h, "root")
	if root == nil {
		return ""
	}
	name := childText(root, "root-step")
	if name == "" {
		return ""
	}
	switch childText(root, "root-alter") {
	case "1":
		name += "#"
	case "-1":
		name += "b"
	}
	switch childText(h, "kind") {
	case "", "major":
	case "minor":
		name += "m"
	case "dominant":
		name += "7"
	case "diminished":
		name += "dim"
	case "augmented":
		name += "aug"
	case "major-seventh":
		name += "maj7"
	case "minor-seventh":
		name += "m7"
	}
	return name
}

func tieStarts(n *xml.Node) bool {
	for _, t := range n.GetChildren("tie") {
		if t.GetAttributeValue("type") == "start" {
			return true
		}
	}
	return false
}

func tupletMarks(n *xml.Node) (starts, stops bool, actual, normal int) {
	if tm := firstChild(n, "time-modification"); tm != nil {
		actual, _ = strconv.Atoi(childText(tm, "actual-notes"))
		normal, _ = strconv.Atoi(childText(tm, "normal-notes"))
	}
	for _, not := range n.GetChildren("notations") {
		for _, tp := range not.GetChildren("tuplet") {
			switch tp.GetAttributeValue("type") {
			case "start":
				starts = true
			case "stop":
				stops = true
			}
		}
	}
	return starts, stops, actual, normal
}

func lyricText(n *xml.Node) string {
	if ly := firstChild(n, "lyric"); ly != nil {
		return childText(ly, "text")
	}
	return ""
}

// lilyDuration maps type+dots to a LilyPond duration suffix.
func lilyDuration(n *xml.Node) string {
	var d string
	switch childText(n, "type") {
	case "breve":
		d = "\\breve"
	case "whole":
		d = "1"
	case "half":
		d = "2"
	case "quarter":
		d = "4"
	case "eighth":
		d = "8"
	case "16th":
		d = "16"
	case "32nd":
		d = "32"
	case "64th":
		d = "64"
	case "128th":
		d = "128"
	default:
		d = "4"
	}
	for range n.GetChildren("dot") {
		d += "."
	}
	return d
}

// lilyPitch renders a concert pitch as an english-language LilyPond note
// with absolute octave marks (c' is middle C).
func lilyPitch(step string, alter float64, octave int) string {
	name := strings.ToLower(step)
	switch alter {
	case 1:
		name += "s"
	case -1:
		name += "f"
	case 2:
		name += "ss"
	case -2:
		name += "ff"
	case 0.5:
		name += "qs"
	case -0.5:
		name += "qf"
	}
	for o := octave; o > 3; o-- {
		name += "'"
	}
	for o := octave; o < 3; o++ {
		name += ","
	}
	return name
}

var keyNames = map[int]string{
	-7: "cf", -6: "gf", -5: "df", -4: "af", -3: "ef", -2: "bf", -1: "f",
	0: "c", 1: "g", 2: "d", 3: "a", 4: "e", 5: "b", 6: "fs", 7: "cs",
}

func keyName(fifths int) string {
	if n, ok := keyNames[fifths]; ok {
		return n
	}
	return "c"
}

func firstChild(n *xml.Node, name string) *xml.Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func childText(n *xml.Node, name string) string {
	if c := firstChild(n, name); c != nil {
		return c.Text
	}
	return ""
}

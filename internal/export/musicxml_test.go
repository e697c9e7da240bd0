/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"
	"testing"

	"notewright/internal/domain"
	"notewright/internal/engine"
)

func docWithLines(t *testing.T, lines ...string) *domain.Document {
	t.Helper()
	e := engine.New()
	for i, txt := range lines {
		if err := e.SetLineText(i, txt); err != nil {
			t.Fatalf("SetLineText(%d): %v", i, err)
		}
	}
	return e.Document()
}

func TestMusicXMLMeasureCount(t *testing.T) {
	doc := docWithLines(t, "1 2 3 4 | 5 6 7 1")
	out, err := MusicXML(doc, MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	if got := strings.Count(out, "<measure"); got != 2 {
		t.Fatalf("measures = %d, want 2\n%s", got, out)
	}
	if got := strings.Count(out, "<note>"); got != 8 {
		t.Fatalf("notes = %d, want 8", got)
	}
}

func TestMusicXMLTupletBeat(t *testing.T) {
	doc := docWithLines(t, "123 4")
	out, err := MusicXML(doc, MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	if !strings.Contains(out, "<actual-notes>3</actual-notes>") ||
		!strings.Contains(out, "<normal-notes>2</normal-notes>") {
		t.Fatalf("missing 3:2 time-modification:\n%s", out)
	}
	if got := strings.Count(out, `<tuplet type="start"`); got != 1 {
		t.Fatalf("tuplet starts = %d, want 1", got)
	}
	if got := strings.Count(out, `<tuplet type="stop"`); got != 1 {
		t.Fatalf("tuplet stops = %d, want 1", got)
	}
}

func TestMusicXMLGraceNeverCarriesTimeModification(t *testing.T) {
	// Ornament anchored inside a triplet beat: the anchor keeps its tuplet
	// time-modification, the grace notes never get one.
	e := engine.New()
	if err := e.SetLineText(0, "123"); err != nil {
		t.Fatalf("SetLineText: %v", err)
	}
	if err := e.ApplyOrnamentLayered(0, 1, "45", domain.PlaceBefore); err != nil {
		t.Fatalf("ApplyOrnamentLayered: %v", err)
	}
	out, err := MusicXML(e.Document(), MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	for _, note := range strings.Split(out, "<note>")[1:] {
		note = strings.SplitN(note, "</note>", 2)[0]
		if strings.Contains(note, "<grace") && strings.Contains(note, "time-modification") {
			t.Fatalf("grace note carries time-modification:\n%s", note)
		}
	}
	if got := strings.Count(out, "<grace"); got != 2 {
		t.Fatalf("grace notes = %d, want 2", got)
	}
	if !strings.Contains(out, "<actual-notes>3</actual-notes>") {
		t.Fatalf("anchor beat lost its tuplet:\n%s", out)
	}
}

func TestMusicXMLGraceRunIsBeamed(t *testing.T) {
	e := engine.New()
	if err := e.SetLineText(0, "1 2"); err != nil {
		t.Fatalf("SetLineText: %v", err)
	}
	if err := e.ApplyOrnamentLayered(0, 2, "34", domain.PlaceBefore); err != nil {
		t.Fatalf("ApplyOrnamentLayered: %v", err)
	}
	out, err := MusicXML(e.Document(), MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	var beamed int
	for _, note := range strings.Split(out, "<note>")[1:] {
		note = strings.SplitN(note, "</note>", 2)[0]
		if strings.Contains(note, "<grace") && strings.Contains(note, "<beam") {
			beamed++
		}
	}
	if beamed != 2 {
		t.Fatalf("beamed grace notes = %d, want 2:\n%s", beamed, out)
	}
	if !strings.Contains(out, `<beam number="1">begin</beam>`) ||
		!strings.Contains(out, `<beam number="1">end</beam>`) {
		t.Fatalf("grace run missing begin/end beams:\n%s", out)
	}
}

func TestMusicXMLRepeatedExportIsByteIdentical(t *testing.T) {
	doc := docWithLines(t, "123 4 | 5 -")
	first, err := MusicXML(doc, MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	second, err := MusicXML(doc, MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	if first != second {
		t.Fatalf("repeated export differs")
	}
	if strings.Contains(first, "<encoding-date>") {
		t.Fatalf("no date requested, none should be emitted")
	}
	dated, err := MusicXML(doc, MusicXMLOptions{EncodingDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	if !strings.Contains(dated, "<encoding-date>2025-06-01</encoding-date>") {
		t.Fatalf("explicit encoding date lost:\n%s", dated)
	}
}

func TestMusicXMLAfterGraceStealsTime(t *testing.T) {
	e := engine.New()
	if err := e.SetLineText(0, "1 2"); err != nil {
		t.Fatalf("SetLineText: %v", err)
	}
	if err := e.ApplyOrnamentLayered(0, 0, "32", domain.PlaceAfter); err != nil {
		t.Fatalf("ApplyOrnamentLayered: %v", err)
	}
	out, err := MusicXML(e.Document(), MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	if got := strings.Count(out, `steal-time-following="50"`); got != 2 {
		t.Fatalf("steal-time graces = %d, want 2:\n%s", got, out)
	}
}

func TestMusicXMLSystemBracket(t *testing.T) {
	e := engine.New()
	for i, txt := range []string{"1 2", "3 4", "5 6"} {
		if err := e.SetLineText(i, txt); err != nil {
			t.Fatalf("SetLineText: %v", err)
		}
	}
	if err := e.SetSystemStart(0, 2); err != nil {
		t.Fatalf("SetSystemStart: %v", err)
	}
	out, err := MusicXML(e.Document(), MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	if got := strings.Count(out, `<part-group type="start"`); got != 1 {
		t.Fatalf("part-group starts = %d, want 1 (standalone lines draw no bracket)", got)
	}
	if !strings.Contains(out, "<group-symbol>bracket</group-symbol>") {
		t.Fatalf("missing bracket symbol:\n%s", out)
	}
	if got := strings.Count(out, "</score-part>"); got != 3 {
		t.Fatalf("score-parts = %d, want 3", got)
	}
}

func TestMusicXMLTieAcrossBeats(t *testing.T) {
	doc := docWithLines(t, "1 -")
	out, err := MusicXML(doc, MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	if !strings.Contains(out, `<tie type="start"`) || !strings.Contains(out, `<tie type="stop"`) {
		t.Fatalf("dash extension lost its tie:\n%s", out)
	}
	if got := strings.Count(out, "<note>"); got != 2 {
		t.Fatalf("notes = %d, want 2 (attack + tied continuation)", got)
	}
}

func TestMusicXMLLeadingDashIsRest(t *testing.T) {
	doc := docWithLines(t, "- 1")
	out, err := MusicXML(doc, MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}
	if !strings.Contains(out, "<rest") {
		t.Fatalf("leading dash must render as a rest:\n%s", out)
	}
}

func TestImportMusicXMLRoundTrip(t *testing.T) {
	e := engine.New()
	if err := e.SetLineText(0, "1 2 | 3 4"); err != nil {
		t.Fatalf("SetLineText: %v", err)
	}
	if err := e.SetLineText(1, "5 6 | 7 1"); err != nil {
		t.Fatalf("SetLineText: %v", err)
	}
	if err := e.SetSystemStart(0, 2); err != nil {
		t.Fatalf("SetSystemStart: %v", err)
	}
	if err := e.ToggleSlur(0, 0, 2); err != nil {
		t.Fatalf("ToggleSlur: %v", err)
	}
	e.SetTitle("Round Trip")
	out, err := MusicXML(e.Document(), MusicXMLOptions{})
	if err != nil {
		t.Fatalf("MusicXML: %v", err)
	}

	doc, err := ImportMusicXML(out)
	if err != nil {
		t.Fatalf("ImportMusicXML: %v", err)
	}
	if doc.Title != "Round Trip" {
		t.Fatalf("title = %q", doc.Title)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(doc.Lines))
	}
	if doc.Lines[0].SystemStartCount != 2 {
		t.Fatalf("system marker = %d, want 2", doc.Lines[0].SystemStartCount)
	}
	if len(doc.Slurs) != 1 || doc.Slurs[0].Line != 0 {
		t.Fatalf("slurs = %+v", doc.Slurs)
	}
	// Pitch content round-trips degree for degree.
	var degrees []int
	for _, c := range doc.Lines[0].Cells {
		if c.Kind == domain.KindPitched {
			degrees = append(degrees, c.Pitch.Degree)
		}
	}
	want := []int{1, 2, 3, 4}
	if len(degrees) != len(want) {
		t.Fatalf("degrees = %v, want %v", degrees, want)
	}
	for i := range want {
		if degrees[i] != want[i] {
			t.Fatalf("degrees = %v, want %v", degrees, want)
		}
	}
}

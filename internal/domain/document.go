/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

// Pos addresses a cell by line and column.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Slur is an annotation spanning [StartCol, EndCol] on one line.
type Slur struct {
	Line     int `json:"line"`
	StartCol int `json:"startCol"`
	EndCol   int `json:"endCol"`
}

// Ornament is an annotation anchored at (Line, Col). Notation is the typed
// grace-note sequence; the referenced document cells stay in place, the
// ornament only projects them onto the anchor.
type Ornament struct {
	Line      int       `json:"line"`
	Col       int       `json:"col"`
	Notation  string    `json:"notation"`
	Placement Placement `json:"placement"`
	// SpanStart/SpanEnd record the selected cell range the ornament was
	// layered over, when it came from a selection. -1 when absent.
	SpanStart int `json:"spanStart"`
	SpanEnd   int `json:"spanEnd"`
}

// LyricAnnotation attaches a syllable to a cell.
type LyricAnnotation struct {
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Text string `json:"text"`
}

// Line is an ordered sequence of cells plus line-level metadata.
// SystemStartCount of 0 means "not a system start"; N>=1 means this line
// starts a system spanning N consecutive lines.
type Line struct {
	Cells            []Cell `json:"cells"`
	SystemStartCount int    `json:"systemStartCount,omitempty"`
	KeySignature     string `json:"keySignature,omitempty"`
	Label            string `json:"label,omitempty"`
	Lyrics           string `json:"lyrics,omitempty"`
}

// Text reconstructs the typed surface of the line.
func (l Line) Text() string {
	var b strings.Builder
	for _, c := range l.Cells {
		b.WriteString(c.Char)
	}
	return b.String()
}

// Clone returns a deep copy of the line.
func (l Line) Clone() Line {
	out := l
	out.Cells = make([]Cell, len(l.Cells))
	for i, c := range l.Cells {
		out.Cells[i] = c.Clone()
	}
	return out
}

// Document is the complete notation document: cell model, annotation layer
// and document-level metadata. The annotation slices are the authoritative
// store for decorations; per-cell indicators are caches refreshed on resync.
type Document struct {
	Title        string      `json:"title,omitempty"`
	PitchSystem  PitchSystem `json:"pitchSystem"`
	Tonic        string      `json:"tonic,omitempty"`        // empty means C
	KeySignature string      `json:"keySignature,omitempty"` // document-level default

	Lines []Line `json:"lines"`

	Slurs     []Slur            `json:"slurs,omitempty"`
	Ornaments []Ornament        `json:"ornaments,omitempty"`
	Lyrics    []LyricAnnotation `json:"lyrics,omitempty"`
}

// NewDocument returns an empty document with one empty line, matching the
// editor's initial state.
func NewDocument() *Document {
	return &Document{Lines: []Line{{}}}
}

// TonicOrDefault parses the document tonic, falling back to C.
func (d *Document) TonicOrDefault() Tonic {
	if d.Tonic == "" {
		return DefaultTonic
	}
	t, err := ParseTonic(d.Tonic)
	if err != nil {
		return DefaultTonic
	}
	return t
}

// LineKey returns the effective key signature name for a line, considering
// the line-level override and the document default.
func (d *Document) LineKey(line int) string {
	if line >= 0 && line < len(d.Lines) && d.Lines[line].KeySignature != "" {
		return d.Lines[line].KeySignature
	}
	return d.KeySignature
}

// InBounds reports whether (line, col) addresses an existing cell slot.
// col == len(cells) is allowed for insertion positions when insert is true.
func (d *Document) InBounds(line, col int, insert bool) bool {
	if line < 0 || line >= len(d.Lines) || col < 0 {
		return false
	}
	n := len(d.Lines[line].Cells)
	if insert {
		return col <= n
	}
	return col < n
}

// SystemSpan is a derived run of lines grouped into one rendered system.
type SystemSpan struct {
	Start int
	Count int
}

// DeriveSystems computes the effective line grouping. A marker of N claims
// the marked line plus the N-1 following ones, but a later explicit marker
// truncates the span that would have covered it. Unclaimed lines become
// standalone single-line systems.
func (d *Document) DeriveSystems() []SystemSpan {
	n := len(d.Lines)
	var out []SystemSpan
	for i := 0; i < n; {
		count := d.Lines[i].SystemStartCount
		if count <= 1 {
			out = append(out, SystemSpan{Start: i, Count: 1})
			i++
			continue
		}
		end := i + count
		if end > n {
			end = n
		}
		for j := i + 1; j < end; j++ {
			if d.Lines[j].SystemStartCount > 0 {
				end = j
				break
			}
		}
		out = append(out, SystemSpan{Start: i, Count: end - i})
		i = end
	}
	return out
}

// Clone returns a deep copy of the document, used for undo snapshots and
// copy-on-read export isolation.
func (d *Document) Clone() *Document {
	out := *d
	out.Lines = make([]Line, len(d.Lines))
	for i, l := range d.Lines {
		out.Lines[i] = l.Clone()
	}
	out.Slurs = append([]Slur(nil), d.Slurs...)
	out.Ornaments = append([]Ornament(nil), d.Ornaments...)
	out.Lyrics = append([]LyricAnnotation(nil), d.Lyrics...)
	return &out
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"notewright/internal/domain"
)

// Score save-file format: a plain text file. A header of #-directives
// (title, pitch system, tonic, key) is followed by the notation lines
// themselves, each optionally trailed by directives that attach to it
// (label, lyrics, key override, system marker, slurs, ornaments, octave
// offsets). The typed surface round-trips byte for byte; annotations
// round-trip value for value.

const saveFileVersion = 1

// MarshalDocument renders a document into save-file text.
func MarshalDocument(doc *domain.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#notewright: %d\n", saveFileVersion)
	if doc.Title != "" {
		fmt.Fprintf(&b, "#title: %s\n", doc.Title)
	}
	fmt.Fprintf(&b, "#pitchsystem: %s\n", doc.PitchSystem.String())
	if doc.Tonic != "" {
		fmt.Fprintf(&b, "#tonic: %s\n", doc.Tonic)
	}
	if doc.KeySignature != "" {
		fmt.Fprintf(&b, "#key: %s\n", doc.KeySignature)
	}

	for li, line := range doc.Lines {
		b.WriteString(line.Text())
		b.WriteByte('\n')
		if line.SystemStartCount > 0 {
			fmt.Fprintf(&b, "#system: %d\n", line.SystemStartCount)
		}
		if line.Label != "" {
			fmt.Fprintf(&b, "#label: %s\n", line.Label)
		}
		if line.KeySignature != "" {
			fmt.Fprintf(&b, "#keysig: %s\n", line.KeySignature)
		}
		if line.Lyrics != "" {
			fmt.Fprintf(&b, "#lyrics: %s\n", line.Lyrics)
		}
		for col, c := range line.Cells {
			if c.Octave != 0 {
				fmt.Fprintf(&b, "#octave: %d %d\n", col, c.Octave)
			}
		}
		for _, s := range doc.Slurs {
			if s.Line == li {
				fmt.Fprintf(&b, "#slur: %d %d\n", s.StartCol, s.EndCol)
			}
		}
		for _, o := range doc.Ornaments {
			if o.Line == li {
				fmt.Fprintf(&b, "#ornament: %d %s %d %d %s\n", o.Col, o.Placement.String(), o.SpanStart, o.SpanEnd, o.Notation)
			}
		}
		for _, la := range doc.Lyrics {
			if la.Line == li {
				fmt.Fprintf(&b, "#lyricat: %d %s\n", la.Col, la.Text)
			}
		}
	}
	return b.String()
}

// UnmarshalDocument parses save-file text back into a document.
func UnmarshalDocument(text string) (*domain.Document, error) {
	doc := &domain.Document{}
	inHeader := true
	curLine := -1

	for ln, raw := range strings.Split(text, "\n") {
		// Trailing newline yields one empty final element; real empty
		// notation lines inside the body are kept.
		if ln > 0 && raw == "" && ln == strings.Count(text, "\n") {
			break
		}
		key, val, isDirective := splitDirective(raw)
		if !isDirective {
			inHeader = false
			doc.Lines = append(doc.Lines, domain.Line{Cells: domain.ParseLine(raw, doc.PitchSystem)})
			curLine = len(doc.Lines) - 1
			continue
		}

		if inHeader {
			switch key {
			case "notewright":
				continue
			case "title":
				doc.Title = val
				continue
			case "pitchsystem":
				ps, err := domain.ParsePitchSystem(val)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", ln+1, err)
				}
				doc.PitchSystem = ps
				continue
			case "tonic":
				if _, err := domain.ParseTonic(val); err != nil {
					return nil, fmt.Errorf("line %d: %w", ln+1, err)
				}
				doc.Tonic = val
				continue
			case "key":
				doc.KeySignature = val
				continue
			}
			// Line-level directive before any line: malformed.
			return nil, fmt.Errorf("line %d: directive #%s before first notation line", ln+1, key)
		}

		if curLine < 0 {
			return nil, fmt.Errorf("line %d: directive #%s before first notation line", ln+1, key)
		}
		l := &doc.Lines[curLine]
		switch key {
		case "system":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("line %d: #system: %w", ln+1, err)
			}
			l.SystemStartCount = n
		case "label":
			l.Label = val
		case "keysig":
			l.KeySignature = val
		case "lyrics":
			l.Lyrics = val
		case "octave":
			var col, oct int
			if _, err := fmt.Sscanf(val, "%d %d", &col, &oct); err != nil {
				return nil, fmt.Errorf("line %d: #octave: %w", ln+1, err)
			}
			if col >= 0 && col < len(l.Cells) {
				l.Cells[col].Octave = oct
			}
		case "slur":
			var a, b int
			if _, err := fmt.Sscanf(val, "%d %d", &a, &b); err != nil {
				return nil, fmt.Errorf("line %d: #slur: %w", ln+1, err)
			}
			doc.Slurs = append(doc.Slurs, domain.Slur{Line: curLine, StartCol: a, EndCol: b})
		case "ornament":
			fields := strings.SplitN(val, " ", 5)
			if len(fields) < 5 {
				return nil, fmt.Errorf("line %d: #ornament: want col placement spanStart spanEnd notation", ln+1)
			}
			col, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: #ornament col: %w", ln+1, err)
			}
			pl, ok := domain.ParsePlacement(fields[1])
			if !ok {
				return nil, fmt.Errorf("line %d: #ornament placement %q", ln+1, fields[1])
			}
			spanStart, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: #ornament span: %w", ln+1, err)
			}
			spanEnd, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: #ornament span: %w", ln+1, err)
			}
			doc.Ornaments = append(doc.Ornaments, domain.Ornament{
				Line: curLine, Col: col, Notation: fields[4], Placement: pl,
				SpanStart: spanStart, SpanEnd: spanEnd,
			})
		case "lyricat":
			fields := strings.SplitN(val, " ", 2)
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: #lyricat: want col text", ln+1)
			}
			col, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: #lyricat col: %w", ln+1, err)
			}
			doc.Lyrics = append(doc.Lyrics, domain.LyricAnnotation{Line: curLine, Col: col, Text: fields[1]})
		default:
			// Unknown directives are preserved as notation text would be
			// surprising; fail loudly instead.
			return nil, fmt.Errorf("line %d: unknown directive #%s", ln+1, key)
		}
	}

	if len(doc.Lines) == 0 {
		doc.Lines = []domain.Line{{}}
	}
	return doc, nil
}

// splitDirective recognizes "#key: value" lines.
func splitDirective(raw string) (key, val string, ok bool) {
	if !strings.HasPrefix(raw, "#") {
		return "", "", false
	}
	rest := raw[1:]
	i := strings.Index(rest, ":")
	if i <= 0 {
		return "", "", false
	}
	key = rest[:i]
	for _, r := range key {
		if r < 'a' || r > 'z' {
			return "", "", false
		}
	}
	return key, strings.TrimPrefix(rest[i+1:], " "), true
}

// SaveDocument writes the document save-file transactionally.
func SaveDocument(path string, doc *domain.Document) error {
	return replaceFile(path, []byte(MarshalDocument(doc)))
}

// LoadDocument reads a document save-file.
func LoadDocument(path string) (*domain.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load score: %w", err)
	}
	return UnmarshalDocument(string(b))
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"notewright/internal/domain"
)

// SetTitle sets the document title used by exporters.
func (e *Engine) SetTitle(title string) { e.doc.Title = title }

// SetPitchSystem switches the document's notation system. Existing cells keep
// their pitch codes; only the typed surface of new input changes.
func (e *Engine) SetPitchSystem(ps domain.PitchSystem) { e.doc.PitchSystem = ps }

// SetDocumentTonic sets the document-level tonic that pitch codes are spelled
// against on export.
func (e *Engine) SetDocumentTonic(name string) error {
	if _, err := domain.ParseTonic(name); err != nil {
		return ErrMalformedNotation
	}
	e.doc.Tonic = name
	return nil
}

// SetDocumentKeySignature sets the document-wide key signature name used when
// a line carries no override.
func (e *Engine) SetDocumentKeySignature(name string) {
	e.doc.KeySignature = name
}

// SetLineKeySignature overrides the key signature from this line onward until
// another override appears. Empty clears the override.
func (e *Engine) SetLineKeySignature(line int, name string) error {
	if line < 0 || line >= len(e.doc.Lines) {
		return ErrInvalidRange
	}
	e.doc.Lines[line].KeySignature = name
	return nil
}

// SetLineLabel names a line (instrument or voice label shown on export).
func (e *Engine) SetLineLabel(line int, label string) error {
	if line < 0 || line >= len(e.doc.Lines) {
		return ErrInvalidRange
	}
	e.doc.Lines[line].Label = label
	return nil
}

// SetLineLyrics replaces a line's lyric text. Whitespace-separated syllables
// are distributed to sounding notes in order on export.
func (e *Engine) SetLineLyrics(line int, lyrics string) error {
	if line < 0 || line >= len(e.doc.Lines) {
		return ErrInvalidRange
	}
	e.doc.Lines[line].Lyrics = lyrics
	return nil
}

// EffectiveKeySignature resolves the key signature in force at a line: the
// nearest override at or above it, falling back to the document key.
func (e *Engine) EffectiveKeySignature(line int) string {
	for l := line; l >= 0 && l < len(e.doc.Lines); l-- {
		if e.doc.Lines[l].KeySignature != "" {
			return e.doc.Lines[l].KeySignature
		}
	}
	return e.doc.KeySignature
}

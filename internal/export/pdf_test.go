/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSheetPDFWritesDocument(t *testing.T) {
	doc := docWithLines(t, "123 45 671", "1 2 3 4")
	doc.Title = "Sheet Test"
	doc.Lines[0].Label = "A"
	doc.Lines[0].Lyrics = "la li lu"

	out := filepath.Join(t.TempDir(), "sheet.pdf")
	if err := SheetPDF(out, doc, PDFOptions{DrawBeatArcs: true}); err != nil {
		t.Fatalf("SheetPDF error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", b[:8])
	}
	if len(b) < 500 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(b))
	}
}

func TestSheetPDFNilDocument(t *testing.T) {
	if err := SheetPDF(filepath.Join(t.TempDir(), "x.pdf"), nil, PDFOptions{}); err == nil {
		t.Fatalf("expected error for nil document")
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"notewright/internal/domain"
)

// scoredProject scaffolds a project with one saved score and returns the
// handle. The score has searchable title, notation, lyrics and a label.
func scoredProject(t *testing.T) *ProjectHandle {
	t.Helper()
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{
		Name:     "Index Test",
		Metadata: domain.ProjectMetadata{Composer: "Traditional"},
		Scores:   []domain.ScoreRef{{ID: "s1", Title: "Evening Song", Path: "scores/s1.nw"}},
	})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	doc := &domain.Document{Title: "Evening Song", PitchSystem: domain.SystemNumber}
	doc.Lines = []domain.Line{
		{Cells: domain.ParseLine("123 45", doc.PitchSystem), Label: "refrain", Lyrics: "twilight falls gently"},
	}
	if err := SaveDocument(filepath.Join(root, "scores", "s1.nw"), doc); err != nil {
		t.Fatalf("SaveDocument error: %v", err)
	}
	return ph
}

func TestInitOrOpenIndexSeedsVersion(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	defer db.Close()

	var schema int
	if err := db.QueryRow(`SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read version row: %v", err)
	}
	if schema != indexSchemaVersion {
		t.Fatalf("schema version: got %d want %d", schema, indexSchemaVersion)
	}
	if _, err := os.Stat(IndexPath(root)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}
}

func TestUpdateIndexAndSearch(t *testing.T) {
	ph := scoredProject(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := UpdateIndex(ctx, ph.Root, ph.Project); err != nil {
		t.Fatalf("UpdateIndex error: %v", err)
	}

	res, err := Search(ctx, ph.Root, SearchQuery{Text: "twilight"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("want 1 lyrics hit, got %d: %+v", len(res), res)
	}
	if res[0].Type != "lyrics" || res[0].ScoreID != "s1" || res[0].LineNo != 0 {
		t.Fatalf("unexpected hit: %+v", res[0])
	}
	// The FTS table is contentless, so snippet() comes back NULL; rows must
	// still scan, with an empty excerpt.
	if res[0].Snippet != "" {
		t.Fatalf("snippet should be empty on contentless index: %q", res[0].Snippet)
	}

	// Type filter excludes the lyrics row.
	res, err = Search(ctx, ph.Root, SearchQuery{Text: "twilight", Types: []string{"title"}})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("type filter leaked rows: %+v", res)
	}

	// Non-FTS scan with score filter sees all rows for the score.
	res, err = Search(ctx, ph.Root, SearchQuery{ScoreID: "s1"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res) < 3 { // title, line, lyrics, label
		t.Fatalf("want at least 3 rows for score, got %d: %+v", len(res), res)
	}
}

func TestRebuildIndexRepopulates(t *testing.T) {
	ph := scoredProject(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := BuildIndexIfEmpty(ctx, ph.Root, ph.Project); err != nil {
		t.Fatalf("BuildIndexIfEmpty error: %v", err)
	}
	if err := RebuildIndex(ctx, ph.Root, ph.Project); err != nil {
		t.Fatalf("RebuildIndex error: %v", err)
	}
	res, err := Search(ctx, ph.Root, SearchQuery{Text: "Evening"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res) == 0 {
		t.Fatalf("rebuild lost the title row")
	}
}

func TestExportCacheRoundTrip(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	hash := ContentHash("#notewright: 1\n1 2 3\n")
	if _, ok, err := ExportCacheGet(ctx, db, hash, "musicxml"); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	want := []byte("<score-partwise/>")
	if err := ExportCachePut(ctx, db, hash, "musicxml", want); err != nil {
		t.Fatalf("ExportCachePut error: %v", err)
	}
	got, ok, err := ExportCacheGet(ctx, db, hash, "musicxml")
	if err != nil || !ok {
		t.Fatalf("cache get after put: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("cached output mismatch: %q", got)
	}

	// Replacing the same key keeps one row with the new output.
	if err := ExportCachePut(ctx, db, hash, "musicxml", []byte("v2")); err != nil {
		t.Fatalf("ExportCachePut replace error: %v", err)
	}
	got, _, _ = ExportCacheGet(ctx, db, hash, "musicxml")
	if string(got) != "v2" {
		t.Fatalf("replace did not win: %q", got)
	}

	// Pruning with an empty keep set clears everything.
	if err := ExportCachePrune(ctx, db, nil); err != nil {
		t.Fatalf("ExportCachePrune error: %v", err)
	}
	if _, ok, _ := ExportCacheGet(ctx, db, hash, "musicxml"); ok {
		t.Fatalf("prune left stale entry")
	}
}

func TestSnapshotsLifecycle(t *testing.T) {
	ph := scoredProject(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		text := MarshalDocument(&domain.Document{
			Title: "rev", PitchSystem: domain.SystemNumber,
			Lines: []domain.Line{{Cells: domain.ParseLine("1 2", domain.SystemNumber)}},
		})
		if err := SaveSnapshot(ctx, ph, "s1", text, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("SaveSnapshot error: %v", err)
		}
	}

	snaps, err := ListSnapshots(ctx, ph, "s1", 10)
	if err != nil {
		t.Fatalf("ListSnapshots error: %v", err)
	}
	if len(snaps) != 5 {
		t.Fatalf("want 5 snapshots, got %d", len(snaps))
	}
	if !snaps[0].TS.After(snaps[4].TS) {
		t.Fatalf("snapshots not newest-first: %v .. %v", snaps[0].TS, snaps[4].TS)
	}

	latest, ok, err := GetLatestSnapshot(ctx, ph, "s1")
	if err != nil || !ok {
		t.Fatalf("GetLatestSnapshot: ok=%v err=%v", ok, err)
	}
	if !latest.TS.Equal(base.Add(4 * time.Minute)) {
		t.Fatalf("latest ts mismatch: %v", latest.TS)
	}

	deleted, err := PruneOldSnapshots(ctx, ph, "s1", 2)
	if err != nil {
		t.Fatalf("PruneOldSnapshots error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("want 3 pruned, got %d", deleted)
	}
	snaps, _ = ListSnapshots(ctx, ph, "s1", 10)
	if len(snaps) != 2 {
		t.Fatalf("want 2 remaining, got %d", len(snaps))
	}

	if _, ok, err := GetLatestSnapshot(ctx, ph, "missing"); err != nil || ok {
		t.Fatalf("missing score should yield ok=false, got ok=%v err=%v", ok, err)
	}
}

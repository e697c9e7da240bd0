/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"notewright/internal/domain"
)

func TestInitProjectCreatesStructureAndManifest(t *testing.T) {
	root := t.TempDir()
	proj := domain.Project{Name: "Test Project"}

	ph, err := InitProject(root, proj)
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if ph == nil {
		t.Fatalf("InitProject returned nil handle")
	}
	if ph.ManifestPath == "" {
		t.Fatalf("ManifestPath not set")
	}
	b, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got domain.Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.Name != proj.Name {
		t.Fatalf("manifest name mismatch: got %q want %q", got.Name, proj.Name)
	}
	if got.SchemaVersion != domain.SchemaVersion {
		t.Fatalf("schema version not defaulted: got %d", got.SchemaVersion)
	}

	for _, d := range standardSubDirs {
		p := filepath.Join(root, d)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", p)
		}
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{Name: "Backup Test"})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}

	ph.Project.Metadata.Composer = "Anon."
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var found bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ManifestFileName) && strings.HasSuffix(e.Name(), ".bak") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a timestamped manifest backup, entries: %v", entries)
	}
}

func TestOpenFallsBackToBackupOnCorruptManifest(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{Name: "Recovery Test"})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	// Save once more so a backup of the valid manifest exists.
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(ph.ManifestPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}

	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open should recover from backup, got error: %v", err)
	}
	if got.Project.Name != "Recovery Test" {
		t.Fatalf("recovered name mismatch: got %q", got.Project.Name)
	}
}

func TestValidateManifestRejectsMissingName(t *testing.T) {
	bad := []byte(`{"schemaVersion": 1}`)
	if err := ValidateManifest(bad); err == nil {
		t.Fatalf("expected validation error for manifest without name")
	}
	good := []byte(`{"schemaVersion": 1, "name": "x", "scores": [{"id": "s1", "path": "scores/s1.nw"}]}`)
	if err := ValidateManifest(good); err != nil {
		t.Fatalf("valid manifest rejected: %v", err)
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{Name: "Crashy"})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	path, err := AutosaveCrashSnapshot(ph)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read autosave: %v", err)
	}
	var got domain.Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal autosave: %v", err)
	}
	if got.Name != "Crashy" {
		t.Fatalf("autosave name mismatch: %q", got.Name)
	}
}

func TestSaveAsWritesNewRoot(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{Name: "Move Me"})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	newRoot := filepath.Join(t.TempDir(), "elsewhere")
	if err := SaveAs(ph, newRoot); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if ph.Root != newRoot {
		t.Fatalf("handle root not updated: %q", ph.Root)
	}
	if _, err := os.Stat(filepath.Join(newRoot, ManifestFileName)); err != nil {
		t.Fatalf("manifest missing at new root: %v", err)
	}
}

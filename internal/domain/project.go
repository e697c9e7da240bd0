/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// SchemaVersion is the current manifest schema version.
const SchemaVersion = 1

// ScoreRef is one score entry in a project manifest. Path is relative to the
// project root and points at the score's text save-file.
type ScoreRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// ProjectMetadata carries free-form descriptive fields.
type ProjectMetadata struct {
	Composer string `json:"composer,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Project is the manifest of a score library on disk.
type Project struct {
	SchemaVersion int             `json:"schemaVersion"`
	Name          string          `json:"name"`
	Metadata      ProjectMetadata `json:"metadata,omitempty"`
	Scores        []ScoreRef      `json:"scores,omitempty"`
}

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
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// manifestSchema is the JSON Schema the notewright.json manifest must
// satisfy. Validation runs on every open so a hand-edited manifest fails
// loudly instead of producing a half-loaded project.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schemaVersion", "name"],
  "properties": {
    "schemaVersion": {"type": "integer", "minimum": 1},
    "name": {"type": "string", "minLength": 1},
    "metadata": {
      "type": "object",
      "properties": {
        "composer": {"type": "string"},
        "notes": {"type": "string"}
      }
    },
    "scores": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "path"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "path": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// ValidateManifest checks manifest bytes against the schema.
func ValidateManifest(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate manifest: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			fmt.Fprintf(&sb, "%s; ", e)
		}
		return fmt.Errorf("manifest invalid: %s", sb.String())
	}
	return nil
}

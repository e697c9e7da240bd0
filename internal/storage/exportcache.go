/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ContentHash returns the cache key for a score save-file's current text.
// Identical text always re-exports byte-identically, so the hash of the
// save-file fully determines every export output.
func ContentHash(saveText string) string {
	sum := sha256.Sum256([]byte(saveText))
	return hex.EncodeToString(sum[:])
}

// ExportCacheGet returns the cached export output for (contentHash, format),
// or ok=false when absent.
func ExportCacheGet(ctx context.Context, db *sql.DB, contentHash, format string) ([]byte, bool, error) {
	var out []byte
	err := db.QueryRowContext(ctx,
		`SELECT output FROM export_cache WHERE content_hash=? AND format=?`,
		contentHash, format).Scan(&out)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("export cache get: %w", err)
	}
	return out, true, nil
}

// ExportCachePut stores an export output, replacing any previous entry for
// the same key.
func ExportCachePut(ctx context.Context, db *sql.DB, contentHash, format string, output []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.ExecContext(ctx,
		`INSERT INTO export_cache(content_hash, format, output, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(content_hash, format) DO UPDATE SET output=excluded.output, updated_at=excluded.updated_at`,
		contentHash, format, output, now); err != nil {
		return fmt.Errorf("export cache put: %w", err)
	}
	return nil
}

// ExportCachePrune deletes entries whose content hash is not in keep,
// bounding cache growth to the scores that still exist.
func ExportCachePrune(ctx context.Context, db *sql.DB, keep []string) error {
	keepSet := make(map[string]bool, len(keep))
	for _, h := range keep {
		keepSet[h] = true
	}
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT content_hash FROM export_cache`)
	if err != nil {
		return fmt.Errorf("export cache prune: %w", err)
	}
	defer rows.Close()
	var stale []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return fmt.Errorf("export cache prune: %w", err)
		}
		if !keepSet[h] {
			stale = append(stale, h)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("export cache prune: %w", err)
	}
	for _, h := range stale {
		if _, err := db.ExecContext(ctx, `DELETE FROM export_cache WHERE content_hash=?`, h); err != nil {
			return fmt.Errorf("export cache prune: %w", err)
		}
	}
	return nil
}

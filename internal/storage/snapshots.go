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
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(score_id, ts, text) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, text FROM snapshots WHERE score_id = ? ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, text FROM snapshots WHERE score_id = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE score_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE score_id = ? ORDER BY ts DESC LIMIT ?
)`

// Snapshot is one saved revision of a score's save-file text.
type Snapshot struct {
	TS   time.Time
	Text string
}

// SaveSnapshot persists the score's save-file text with a timestamp.
// It opens the project's index database if needed and inserts the record.
func SaveSnapshot(ctx context.Context, ph *ProjectHandle, scoreID string, text string, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, scoreID, ts.UTC().Format(time.RFC3339Nano), text)
	return err
}

// GetLatestSnapshot returns the newest snapshot for a score, or an empty
// Snapshot and no error when none exists.
func GetLatestSnapshot(ctx context.Context, ph *ProjectHandle, scoreID string) (Snapshot, bool, error) {
	if ph == nil {
		return Snapshot{}, false, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer func() { _ = db.Close() }()
	var tsStr, text string
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL, scoreID).Scan(&tsStr, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return Snapshot{Text: text}, true, nil // keep text even if ts parse fails
	}
	return Snapshot{TS: ts, Text: text}, true, nil
}

// ListSnapshots returns up to limit most recent snapshots for a score,
// newest first.
func ListSnapshots(ctx context.Context, ph *ProjectHandle, scoreID string, limit int) ([]Snapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, scoreID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var tsStr, text string
		if err := rows.Scan(&tsStr, &text); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, Snapshot{TS: ts, Text: text})
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast snapshots for the score and deletes older ones.
func PruneOldSnapshots(ctx context.Context, ph *ProjectHandle, scoreID string, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, scoreID, scoreID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

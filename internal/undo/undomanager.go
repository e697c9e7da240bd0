/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot represents a reversible state blob for a score, typically the
// serialized save-file text of the whole document.
// Blob content is opaque to the manager; size is estimated as len(Blob).
// TS is when the snapshot was captured.
type Snapshot struct {
	ScoreID string
	Blob    []byte
	TS      time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerScore limits number of snapshots per score kept in memory (0 means unlimited).
	MaxPerScore int
	// MinInterval coalesces snapshots captured within the interval for the same score,
	// replacing the previous one instead of pushing a new entry. Rapid typing
	// produces one undo step per pause, not one per keystroke.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack per score with performance safeguards.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-score stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	// Set conservative defaults if not provided
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// PushSnapshot records a snapshot for a score. If within MinInterval from the last
// snapshot on the same score, it replaces the last one. Clears redo stack for that score.
func (m *Manager) PushSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.ScoreID]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// Coalesce: adjust accounting and replace
			m.totalBytes -= len(last.Blob)
			m.totalBytes += len(s.Blob)
			stack[n-1] = s
			m.undo[s.ScoreID] = stack
			m.redo[s.ScoreID] = nil
			m.enforceCapsLocked(s.ScoreID)
			return
		}
	}
	// Push new
	stack = append(stack, s)
	m.undo[s.ScoreID] = stack
	m.totalBytes += len(s.Blob)
	// Any new change invalidates redo for the score
	m.redo[s.ScoreID] = nil
	m.enforceCapsLocked(s.ScoreID)
}

// Undo pops from the score undo stack and pushes to redo stack, returning the snapshot.
func (m *Manager) Undo(scoreID string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[scoreID]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[scoreID] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[scoreID] = append(m.redo[scoreID], s)
	return s, true
}

// Redo pops from redo and pushes back to undo.
func (m *Manager) Redo(scoreID string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[scoreID]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[scoreID] = r[:len(r)-1]
	m.undo[scoreID] = append(m.undo[scoreID], s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(scoreID)
	return s, true
}

// ClearScore clears undo/redo stacks for a score to free memory.
func (m *Manager) ClearScore(scoreID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[scoreID] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, scoreID)
	delete(m.redo, scoreID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, scores int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scores = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, scores, totalSnapshots
}

func (m *Manager) enforceCapsLocked(scoreID string) {
	// Per-score depth cap
	if m.cfg.MaxPerScore > 0 {
		stack := m.undo[scoreID]
		if len(stack) > m.cfg.MaxPerScore {
			// drop the oldest extras
			toDrop := len(stack) - m.cfg.MaxPerScore
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[scoreID] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all scores
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestScore := ""
		oldestIdx := -1
		var oldestTS time.Time
		for score, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestIdx == -1 || stack[0].TS.Before(oldestTS) {
				oldestScore = score
				oldestIdx = 0
				oldestTS = stack[0].TS
			}
		}
		if oldestIdx == -1 {
			break
		}
		stack := m.undo[oldestScore]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestScore] = stack[1:]
		if len(m.undo[oldestScore]) == 0 {
			delete(m.undo, oldestScore)
		}
	}
}

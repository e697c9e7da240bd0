/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

// MaxSystemSize is the largest number of lines one system marker may group.
const MaxSystemSize = 8

// SystemRole describes where a line sits inside its system.
type SystemRole int8

const (
	RoleStandalone SystemRole = iota
	RoleSystemStart
	RoleSystemMiddle
	RoleSystemEnd
)

func (r SystemRole) String() string {
	switch r {
	case RoleSystemStart:
		return "start"
	case RoleSystemMiddle:
		return "middle"
	case RoleSystemEnd:
		return "end"
	default:
		return "standalone"
	}
}

// System is a contiguous run of lines rendered as one multi-part system.
type System struct {
	Start int // first line index
	Count int // number of lines
}

// SetSystemStart marks a line as the start of a system of count lines.
// Count 0 clears the marker. Values above MaxSystemSize are rejected with
// ErrOutOfRange, never clamped.
func (e *Engine) SetSystemStart(line, count int) error {
	if line < 0 || line >= len(e.doc.Lines) {
		return ErrInvalidRange
	}
	if count < 0 || count > MaxSystemSize {
		return ErrOutOfRange
	}
	e.doc.Lines[line].SystemStartCount = count
	return nil
}

// CycleSystemStart steps a line's marker 0 -> 1 -> ... -> MaxSystemSize -> 0
// and returns the new value.
func (e *Engine) CycleSystemStart(line int) (int, error) {
	if line < 0 || line >= len(e.doc.Lines) {
		return 0, ErrInvalidRange
	}
	next := (e.doc.Lines[line].SystemStartCount + 1) % (MaxSystemSize + 1)
	e.doc.Lines[line].SystemStartCount = next
	return next, nil
}

// GetSystemStart returns a line's marker value (0 when it starts no system).
func (e *Engine) GetSystemStart(line int) (int, error) {
	if line < 0 || line >= len(e.doc.Lines) {
		return 0, ErrInvalidRange
	}
	return e.doc.Lines[line].SystemStartCount, nil
}

// Systems derives the effective grouping of all lines. A marker claims the
// marked line plus the following count-1 lines, but a later explicit marker
// always wins: it truncates the span that would have covered it. Unclaimed
// lines are standalone single-line systems.
func (e *Engine) Systems() []System {
	spans := e.doc.DeriveSystems()
	out := make([]System, len(spans))
	for i, s := range spans {
		out[i] = System{Start: s.Start, Count: s.Count}
	}
	return out
}

// GetLineSystemRole reports how a line participates in the derived grouping,
// with the system's line count on start lines (0 otherwise). A line carrying
// an explicit count=1 marker is a trivial one-line system: it reports
// start(1), though part-grouping still draws no bracket for it. Unmarked
// single lines are standalone.
func (e *Engine) GetLineSystemRole(line int) (SystemRole, int, error) {
	if line < 0 || line >= len(e.doc.Lines) {
		return RoleStandalone, 0, ErrInvalidRange
	}
	for _, s := range e.Systems() {
		if line < s.Start || line >= s.Start+s.Count {
			continue
		}
		if s.Count == 1 {
			if e.doc.Lines[line].SystemStartCount == 1 {
				return RoleSystemStart, 1, nil
			}
			return RoleStandalone, 0, nil
		}
		switch line {
		case s.Start:
			return RoleSystemStart, s.Count, nil
		case s.Start + s.Count - 1:
			return RoleSystemEnd, 0, nil
		default:
			return RoleSystemMiddle, 0, nil
		}
	}
	return RoleStandalone, 0, nil
}

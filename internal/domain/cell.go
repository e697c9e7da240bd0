/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// CellKind classifies one grid position of a notation line.
type CellKind int8

const (
	KindOther CellKind = iota
	KindPitched
	KindUnpitched
	KindBreathMark
	KindSpace
	KindDash
	KindBarline
)

func (k CellKind) String() string {
	switch k {
	case KindPitched:
		return "pitched"
	case KindUnpitched:
		return "unpitched"
	case KindBreathMark:
		return "breath"
	case KindSpace:
		return "space"
	case KindDash:
		return "dash"
	case KindBarline:
		return "barline"
	default:
		return "other"
	}
}

// IndicatorRole marks a cell's role inside a synced decoration span. The
// annotation layer is the source of truth; cells only cache this for
// rendering and export.
type IndicatorRole int8

const (
	RoleNone IndicatorRole = iota
	RoleStart
	RoleMiddle
	RoleEnd
	RoleOnTopStart
	RoleOnTopEnd
	RoleBeforeStart
	RoleBeforeEnd
	RoleAfterStart
	RoleAfterEnd
)

// ornamentInternal reports whether the role marks the cell as part of an
// ornament span, which excludes it from beat rhythm counting.
func (r IndicatorRole) ornamentInternal() bool { return r != RoleNone }

// OrnamentInternal is the exported form used by the rhythm analyzer.
func (r IndicatorRole) OrnamentInternal() bool { return r.ornamentInternal() }

// Placement anchors an ornament relative to its anchor note.
type Placement int8

const (
	PlaceBefore Placement = iota
	PlaceAfter
	PlaceOnTop
)

func (p Placement) String() string {
	switch p {
	case PlaceAfter:
		return "after"
	case PlaceOnTop:
		return "on-top"
	default:
		return "before"
	}
}

// ParsePlacement resolves the textual placement used across the API boundary.
func ParsePlacement(s string) (Placement, bool) {
	switch s {
	case "before", "":
		return PlaceBefore, true
	case "after":
		return PlaceAfter, true
	case "on-top", "ontop", "top":
		return PlaceOnTop, true
	}
	return PlaceBefore, false
}

// OrnamentPayload is the per-cell cache of an ornament anchored at the cell.
// It is synced from the annotation layer and never authoritative.
type OrnamentPayload struct {
	Cells     []Cell    `json:"cells"`
	Placement Placement `json:"placement"`
}

// Cell is one grid position in a line. Pitch is set only for KindPitched.
// Octave is the signed offset from the document's base octave.
type Cell struct {
	Char   string     `json:"char"`
	Kind   CellKind   `json:"kind"`
	Pitch  *PitchCode `json:"pitch,omitempty"`
	Octave int        `json:"octave,omitempty"`

	// Cached indicator state, derived from the annotation layer on resync.
	SlurIndicator     IndicatorRole    `json:"slurIndicator,omitempty"`
	OrnamentIndicator IndicatorRole    `json:"ornamentIndicator,omitempty"`
	Ornament          *OrnamentPayload `json:"ornament,omitempty"`
}

// Rhythmic reports whether the cell contributes to a beat's rhythm count.
// Ornament-internal cells and breath marks never do.
func (c Cell) Rhythmic() bool {
	if c.Kind != KindPitched && c.Kind != KindUnpitched {
		return false
	}
	return !c.OrnamentIndicator.OrnamentInternal()
}

// Clone returns a deep copy of the cell.
func (c Cell) Clone() Cell {
	out := c
	if c.Pitch != nil {
		p := *c.Pitch
		out.Pitch = &p
	}
	if c.Ornament != nil {
		o := OrnamentPayload{Placement: c.Ornament.Placement, Cells: make([]Cell, len(c.Ornament.Cells))}
		for i, gc := range c.Ornament.Cells {
			o.Cells[i] = gc.Clone()
		}
		out.Ornament = &o
	}
	return out
}

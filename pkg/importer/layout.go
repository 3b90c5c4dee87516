// Package importer converts loosely-structured vision-model layout
// descriptions into the editable wall/room/furniture model. The AI's
// JSON is a best-effort contract: coordinates come in arbitrary
// pixel-like units, room corners miss the footprint by tens of
// centimeters, and optional fields are routinely absent. The importer
// calibrates scale, repairs topology with the wide import tolerances,
// places openings and furniture, and lays out kitchen cabinetry from
// counter belts. Geometric steps degrade to fewer results; only a
// schema violation aborts the import.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/atrium/pkg/geom"
)

// ErrInvalidLayout marks an AI response whose JSON is unparsable or
// missing the required footprint/rooms arrays. Imports abort on it
// rather than producing a partial layout from garbage.
var ErrInvalidLayout = errors.New("importer: invalid layout description")

// Layout is the decoded vision-model description, in the AI's
// arbitrary source units.
type Layout struct {
	Footprint []LayoutPoint   `json:"footprint"`
	Rooms     []LayoutRoom    `json:"rooms"`
	Openings  []LayoutOpening `json:"openings"`
	Furniture []LayoutItem    `json:"furniture"`
	Belts     []LayoutBelt    `json:"kitchen_belts"`

	// MetersPerUnit is an optional scale hint reported by the model.
	// It is the last-resort calibration source.
	MetersPerUnit float64 `json:"meters_per_unit"`
}

// LayoutPoint is a 2D point in source units.
type LayoutPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutRoom is a named room polygon. OpenEdges lists corner indices
// whose outgoing edge is an open-plan boundary rather than a solid
// wall.
type LayoutRoom struct {
	Name      string        `json:"name"`
	Corners   []LayoutPoint `json:"corners"`
	OpenEdges []int         `json:"open_edges"`
}

// LayoutOpening is a door or window located by its center point.
type LayoutOpening struct {
	Type  string  `json:"type"` // "door" or "window"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
	Hinge string  `json:"hinge,omitempty"` // "left" or "right"
	Swing string  `json:"swing,omitempty"` // "in" or "out"
}

// LayoutItem is a furniture placement by template name.
type LayoutItem struct {
	TemplateID string   `json:"templateId"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Rotation   *float64 `json:"rotation,omitempty"`
}

// LayoutBelt is one kitchen counter run.
type LayoutBelt struct {
	Start LayoutPoint `json:"start"`
	End   LayoutPoint `json:"end"`
}

// DecodeLayout parses a raw AI response into a Layout. Generative
// services wrap JSON in markdown code fences more often than not, so
// fences are stripped first. A response without a usable footprint
// polygon or room list fails with ErrInvalidLayout.
func DecodeLayout(raw []byte) (*Layout, error) {
	text := stripCodeFences(string(raw))

	var l Layout
	if err := json.Unmarshal([]byte(text), &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if len(l.Footprint) < 3 {
		return nil, fmt.Errorf("%w: footprint has %d points, need at least 3", ErrInvalidLayout, len(l.Footprint))
	}
	if len(l.Rooms) == 0 {
		return nil, fmt.Errorf("%w: no rooms", ErrInvalidLayout)
	}
	return &l, nil
}

// stripCodeFences removes a leading ```json (or bare ```) fence and
// the matching trailing fence, returning the enclosed body.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag on the fence line.
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (p LayoutPoint) point() geom.Point {
	return geom.Pt(p.X, p.Y)
}

package aiclient

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInfeasible marks a room program that cannot fit the site area
// under the minimum-area heuristics. It is raised before any network
// call is made.
var ErrInfeasible = errors.New("aiclient: requested program does not fit the site")

// circulationFactor inflates the summed room minimums to account for
// walls, halls, and circulation space.
const circulationFactor = 1.25

// RoomSpec is one requested room in a generation program.
type RoomSpec struct {
	Name string `json:"name"`
	Type string `json:"type"` // bedroom, bathroom, kitchen, living, ...
}

// minRoomAreas are architectural minimums per room type, square
// meters. Unknown types use the default.
var minRoomAreas = map[string]float64{
	"bedroom":  7.0,
	"bathroom": 3.0,
	"wc":       1.5,
	"kitchen":  5.0,
	"living":   10.0,
	"dining":   6.0,
	"office":   5.0,
	"hallway":  2.0,
	"storage":  1.0,
}

const defaultMinRoomArea = 4.0

// ValidateProgram rejects a room program whose minimum viable floor
// area, inflated by the circulation factor, exceeds the site area.
func ValidateProgram(program []RoomSpec, siteArea float64) error {
	if siteArea <= 0 {
		return fmt.Errorf("%w: site area %.1f m2", ErrInfeasible, siteArea)
	}
	required := 0.0
	for _, r := range program {
		min, ok := minRoomAreas[strings.ToLower(r.Type)]
		if !ok {
			min = defaultMinRoomArea
		}
		required += min
	}
	required *= circulationFactor
	if required > siteArea {
		return fmt.Errorf("%w: needs at least %.1f m2, site offers %.1f m2", ErrInfeasible, required, siteArea)
	}
	return nil
}

// programHint summarizes the requested rooms for the vision call so
// detected rooms come back labeled consistently.
func programHint(program []RoomSpec) string {
	if len(program) == 0 {
		return ""
	}
	names := make([]string, len(program))
	for i, r := range program {
		names[i] = r.Name
	}
	return "rooms: " + strings.Join(names, ", ")
}

// Package align docks furniture against walls. Wall-affine kinds
// rotate to face away from the nearest physical wall and, for strictly
// against-the-wall kinds, snap their back edge flush to it; everything
// else tracks the cursor untouched. Dock is pure and runs once per
// drag event.
package align

import (
	"math"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
)

// Placement is the resolved transform for a furniture item.
type Placement struct {
	Position geom.Point `json:"position"`
	Rotation float64    `json:"rotation"` // degrees, 0 = facing +Y
	Docked   bool       `json:"docked"`
	WallID   string     `json:"wallId,omitempty"`
}

// Dock resolves a proposed drop position for an item of the given
// template. Virtual walls never attract docking: they have no physical
// presence to sit against.
//
// Loose kinds (sofas, armchairs) only take the facing rotation; the
// position keeps tracking the cursor. Flush kinds additionally offset
// the position from the wall centerline by depth/2 + thickness/2 so the
// item's back edge touches the wall face.
func Dock(tpl plan.Template, proposed geom.Point, index *plan.WallIndex) Placement {
	free := Placement{Position: proposed}

	rng := tpl.Affinity.DockRange()
	if rng <= 0 || index == nil {
		return free
	}
	w, _, ok := index.Nearest(proposed, rng, true)
	if !ok {
		return free
	}

	proj, _ := geom.ProjectPointOnSegment(proposed, w.Start, w.End)
	normal := w.Normal()
	// Orient the normal toward the cursor's side of the wall; that is
	// the room the item should face into.
	if proposed.Sub(proj).Dot(normal) < 0 {
		normal = normal.Scale(-1)
	}

	facing := geom.AngleOf(normal) * 180 / math.Pi
	placement := Placement{
		Position: proposed,
		Rotation: facing - 90,
		Docked:   true,
		WallID:   w.ID,
	}

	if tpl.Affinity == plan.AffinityFlush {
		offset := tpl.Depth/2 + w.Thickness/2
		placement.Position = proj.Add(normal.Scale(offset))
	}
	return placement
}

// Apply returns the furniture item with the placement's transform set.
func Apply(f plan.Furniture, p Placement) plan.Furniture {
	f.Position = p.Position
	f.Rotation = p.Rotation
	return f
}

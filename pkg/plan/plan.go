// Package plan defines the floor-plan data model shared by the editor
// bindings, the reconstruction pipeline, and the AI importer: walls,
// wall-mounted objects (doors and windows), furniture, free-floating room
// labels, and derived rooms. Mutations happen through the Plan container;
// the geometric algorithms never modify a Plan they are handed.
package plan

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/atrium/pkg/geom"
)

// ---------------------------------------------------------------------------
// Walls
// ---------------------------------------------------------------------------

// Default dimensions for interactively drawn walls, meters.
const (
	DefaultWallThickness = 0.2
	DefaultWallHeight    = 2.5
)

// MinWallLength is the shortest wall the model accepts. Anything below is
// treated as degenerate and discarded.
const MinWallLength = 0.001

// Wall is a straight physical or virtual partition. A virtual wall bounds
// a room logically (an open-plan divider) but is excluded from collision
// and furniture-docking queries.
type Wall struct {
	ID        string     `json:"id"`
	Start     geom.Point `json:"start"`
	End       geom.Point `json:"end"`
	Thickness float64    `json:"thickness"` // meters
	Height    float64    `json:"height"`    // meters
	Virtual   bool       `json:"is_virtual"`

	// Surface references resolved by the rendering layer.
	MaterialID    string `json:"material_id,omitempty"`
	MaterialSideA string `json:"material_side_a,omitempty"`
	MaterialSideB string `json:"material_side_b,omitempty"`
}

// NewWall creates a wall with a fresh id and default dimensions.
func NewWall(start, end geom.Point) Wall {
	return Wall{
		ID:        NewID(),
		Start:     start,
		End:       end,
		Thickness: DefaultWallThickness,
		Height:    DefaultWallHeight,
	}
}

// Length returns the centerline length in meters.
func (w Wall) Length() float64 {
	return w.Start.Distance(w.End)
}

// Direction returns the unit vector from Start to End.
func (w Wall) Direction() geom.Point {
	return w.End.Sub(w.Start).Normalize()
}

// Normal returns one of the two unit normals of the wall. Callers that
// care about side pick the orientation via a dot-product sign test.
func (w Wall) Normal() geom.Point {
	d := w.Direction()
	return geom.Pt(-d.Y, d.X)
}

// PointAt returns the centerline point at normalized position t in [0,1].
func (w Wall) PointAt(t float64) geom.Point {
	return w.Start.Lerp(w.End, t)
}

// Midpoint returns the centerline midpoint.
func (w Wall) Midpoint() geom.Point {
	return w.PointAt(0.5)
}

// Degenerate reports whether the wall is too short to keep.
func (w Wall) Degenerate() bool {
	return w.Length() < MinWallLength
}

// ---------------------------------------------------------------------------
// Wall objects (doors, windows)
// ---------------------------------------------------------------------------

// ObjectKind distinguishes wall-mounted object types.
type ObjectKind int

const (
	ObjectDoor ObjectKind = iota
	ObjectWindow
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectDoor:
		return "door"
	case ObjectWindow:
		return "window"
	default:
		return "unknown"
	}
}

// HingeSide is the side a door is hinged on, viewed along the wall's
// start-to-end direction.
type HingeSide int

const (
	HingeLeft HingeSide = iota
	HingeRight
)

func (h HingeSide) String() string {
	if h == HingeRight {
		return "right"
	}
	return "left"
}

// SwingDir is the direction a door opens relative to the wall normal.
type SwingDir int

const (
	SwingIn SwingDir = iota
	SwingOut
)

func (s SwingDir) String() string {
	if s == SwingOut {
		return "out"
	}
	return "in"
}

// WallObject is a door or window cut into a wall. It references its owning
// wall by id; deleting the wall cascade-deletes the object.
type WallObject struct {
	ID       string     `json:"id"`
	WallID   string     `json:"wall_id"`
	Kind     ObjectKind `json:"kind"`
	Position float64    `json:"position"` // normalized [0,1] along start->end
	Width    float64    `json:"width"`    // meters
	Height   float64    `json:"height"`   // meters
	Offset   float64    `json:"offset"`   // sill height above the floor, meters
	Hinge    HingeSide  `json:"hinge"`
	Swing    SwingDir   `json:"swing"`
}

// Clamped returns a copy of the object with width and vertical extent
// clamped to fit the given wall. Out-of-range configurations are stored
// as-is by the editor and only clamped here, at geometry-consumption time,
// so that a half-edited object never hard-fails.
func (o WallObject) Clamped(w Wall) WallObject {
	c := o
	if c.Position < 0 {
		c.Position = 0
	} else if c.Position > 1 {
		c.Position = 1
	}
	if l := w.Length(); c.Width > l {
		c.Width = l
	}
	if c.Offset < 0 {
		c.Offset = 0
	}
	if c.Offset+c.Height > w.Height {
		c.Height = w.Height - c.Offset
	}
	if c.Height < 0 {
		c.Height = 0
	}
	return c
}

// Center returns the object's center point on the wall centerline.
func (o WallObject) Center(w Wall) geom.Point {
	return w.PointAt(o.Position)
}

// ---------------------------------------------------------------------------
// Furniture
// ---------------------------------------------------------------------------

// Furniture is a placed catalog item. Rotation is in degrees; at rotation 0
// the item's front faces +Y and its depth axis runs along Y.
type Furniture struct {
	ID         string     `json:"id"`
	TemplateID string     `json:"template_id"`
	Position   geom.Point `json:"position"` // world position of the center
	Width      float64    `json:"width"`    // meters, along local X
	Depth      float64    `json:"depth"`    // meters, along local Y
	Rotation   float64    `json:"rotation"` // degrees
	FlipX      bool       `json:"flip_x"`
	FlipY      bool       `json:"flip_y"`
}

// ---------------------------------------------------------------------------
// Labels and rooms
// ---------------------------------------------------------------------------

// RoomLabel is a free-floating text anchor. It belongs to whichever room's
// polygon contains its position at query time; there is no stored link.
type RoomLabel struct {
	ID       string     `json:"id"`
	Text     string     `json:"text"`
	Position geom.Point `json:"position"`
}

// Room is a detected enclosed region. Rooms are derived state: they are
// recomputed from the wall set on every query and never stored on the Plan.
type Room struct {
	ID       string       `json:"id"`   // stable hash of the rounded boundary
	Path     []geom.Point `json:"path"` // closed polygon, implicit final edge
	Area     float64      `json:"area"` // square meters, always positive
	Centroid geom.Point   `json:"centroid"`
}

// Contains reports whether the point lies inside the room polygon.
func (r Room) Contains(p geom.Point) bool {
	return geom.PointInPolygon(p, r.Path)
}

// ---------------------------------------------------------------------------
// Plan container
// ---------------------------------------------------------------------------

// Mutation errors. Geometric batch pipelines silently drop bad input;
// the mutation API reports it so interactive callers can react.
var (
	ErrDegenerateWall = errors.New("plan: wall is shorter than the minimum length")
	ErrUnknownWall    = errors.New("plan: no wall with that id")
	ErrUnknownID      = errors.New("plan: no element with that id")
)

// Plan is the full editable model of one floor plan.
type Plan struct {
	Walls     []Wall       `json:"walls"`
	Objects   []WallObject `json:"objects"`
	Furniture []Furniture  `json:"furniture"`
	Labels    []RoomLabel  `json:"labels"`
}

// New creates an empty plan.
func New() *Plan {
	return &Plan{}
}

// NewID returns a fresh unique element id.
func NewID() string {
	return uuid.NewString()
}

// AddWall appends a wall after validating it. Degenerate walls are
// rejected; walls without an id are assigned one.
func (p *Plan) AddWall(w Wall) (Wall, error) {
	if w.Degenerate() {
		return Wall{}, ErrDegenerateWall
	}
	if w.ID == "" {
		w.ID = NewID()
	}
	if w.Thickness <= 0 {
		w.Thickness = DefaultWallThickness
	}
	if w.Height <= 0 {
		w.Height = DefaultWallHeight
	}
	p.Walls = append(p.Walls, w)
	return w, nil
}

// Wall returns the wall with the given id.
func (p *Plan) Wall(id string) (Wall, bool) {
	for _, w := range p.Walls {
		if w.ID == id {
			return w, true
		}
	}
	return Wall{}, false
}

// UpdateWall replaces the stored wall with the same id.
func (p *Plan) UpdateWall(w Wall) error {
	if w.Degenerate() {
		return ErrDegenerateWall
	}
	for i := range p.Walls {
		if p.Walls[i].ID == w.ID {
			p.Walls[i] = w
			return nil
		}
	}
	return ErrUnknownWall
}

// RemoveWall deletes a wall and cascade-deletes every object mounted on
// it. Removing an unknown id is a no-op.
func (p *Plan) RemoveWall(id string) {
	for i, w := range p.Walls {
		if w.ID == id {
			p.Walls = append(p.Walls[:i], p.Walls[i+1:]...)
			break
		}
	}
	kept := p.Objects[:0]
	for _, o := range p.Objects {
		if o.WallID != id {
			kept = append(kept, o)
		}
	}
	p.Objects = kept
}

// ReplaceWalls swaps the entire wall set, dropping objects whose owning
// wall no longer exists. Used after normalization rebuilds the graph.
func (p *Plan) ReplaceWalls(walls []Wall) {
	p.Walls = walls
	alive := make(map[string]bool, len(walls))
	for _, w := range walls {
		alive[w.ID] = true
	}
	kept := p.Objects[:0]
	for _, o := range p.Objects {
		if alive[o.WallID] {
			kept = append(kept, o)
		}
	}
	p.Objects = kept
}

// AddObject mounts a door or window on an existing wall. The stored
// position is clamped to [0,1]; width and height are validated lazily by
// Clamped when geometry is built.
func (p *Plan) AddObject(o WallObject) (WallObject, error) {
	if _, ok := p.Wall(o.WallID); !ok {
		return WallObject{}, fmt.Errorf("%w: %q", ErrUnknownWall, o.WallID)
	}
	if o.ID == "" {
		o.ID = NewID()
	}
	if o.Position < 0 {
		o.Position = 0
	} else if o.Position > 1 {
		o.Position = 1
	}
	p.Objects = append(p.Objects, o)
	return o, nil
}

// RemoveObject deletes a wall object by id.
func (p *Plan) RemoveObject(id string) {
	for i, o := range p.Objects {
		if o.ID == id {
			p.Objects = append(p.Objects[:i], p.Objects[i+1:]...)
			return
		}
	}
}

// ObjectsOn returns the objects mounted on the given wall.
func (p *Plan) ObjectsOn(wallID string) []WallObject {
	var out []WallObject
	for _, o := range p.Objects {
		if o.WallID == wallID {
			out = append(out, o)
		}
	}
	return out
}

// AddFurniture places a furniture item, assigning an id if missing.
func (p *Plan) AddFurniture(f Furniture) Furniture {
	if f.ID == "" {
		f.ID = NewID()
	}
	p.Furniture = append(p.Furniture, f)
	return f
}

// MoveFurniture updates an item's position and rotation.
func (p *Plan) MoveFurniture(id string, pos geom.Point, rotation float64) error {
	for i := range p.Furniture {
		if p.Furniture[i].ID == id {
			p.Furniture[i].Position = pos
			p.Furniture[i].Rotation = rotation
			return nil
		}
	}
	return fmt.Errorf("%w: furniture %q", ErrUnknownID, id)
}

// RemoveFurniture deletes a furniture item by id.
func (p *Plan) RemoveFurniture(id string) {
	for i, f := range p.Furniture {
		if f.ID == id {
			p.Furniture = append(p.Furniture[:i], p.Furniture[i+1:]...)
			return
		}
	}
}

// AddLabel places a room label, assigning an id if missing.
func (p *Plan) AddLabel(l RoomLabel) RoomLabel {
	if l.ID == "" {
		l.ID = NewID()
	}
	p.Labels = append(p.Labels, l)
	return l
}

// RemoveLabel deletes a label by id.
func (p *Plan) RemoveLabel(id string) {
	for i, l := range p.Labels {
		if l.ID == id {
			p.Labels = append(p.Labels[:i], p.Labels[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	c := &Plan{
		Walls:     make([]Wall, len(p.Walls)),
		Objects:   make([]WallObject, len(p.Objects)),
		Furniture: make([]Furniture, len(p.Furniture)),
		Labels:    make([]RoomLabel, len(p.Labels)),
	}
	copy(c.Walls, p.Walls)
	copy(c.Objects, p.Objects)
	copy(c.Furniture, p.Furniture)
	copy(c.Labels, p.Labels)
	return c
}

// Vertices returns every wall endpoint, in wall order. Shared corners
// appear once per incident wall.
func (p *Plan) Vertices() []geom.Point {
	pts := make([]geom.Point, 0, len(p.Walls)*2)
	for _, w := range p.Walls {
		pts = append(pts, w.Start, w.End)
	}
	return pts
}

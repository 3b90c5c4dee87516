package importer

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
)

// testLayout is a 1000x600-unit flat split into two rooms, with a door
// in the dividing wall, a bed with a nightstand, and a kitchen counter
// belt along the top wall.
func testLayout() *Layout {
	rot := 37.0
	return &Layout{
		Footprint: []LayoutPoint{
			{0, 0}, {1000, 0}, {1000, 600}, {0, 600},
		},
		Rooms: []LayoutRoom{
			{
				Name:    "Bedroom",
				Corners: []LayoutPoint{{0, 0}, {500, 0}, {500, 600}, {0, 600}},
			},
			{
				Name:    "Living Room",
				Corners: []LayoutPoint{{500, 0}, {1000, 0}, {1000, 600}, {500, 600}},
			},
		},
		Openings: []LayoutOpening{
			{Type: "door", X: 500, Y: 300, Width: 60, Hinge: "right"},
		},
		Furniture: []LayoutItem{
			{TemplateID: "Double Bed", X: 250, Y: 50, Rotation: &rot},
			{TemplateID: "nightstand", X: 400, Y: 50},
		},
		Belts: []LayoutBelt{
			{Start: LayoutPoint{600, 580}, End: LayoutPoint{900, 580}},
		},
	}
}

func TestDecodeLayoutStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"footprint\":[{\"x\":0,\"y\":0},{\"x\":10,\"y\":0},{\"x\":10,\"y\":10}]," +
		"\"rooms\":[{\"name\":\"A\",\"corners\":[{\"x\":0,\"y\":0},{\"x\":10,\"y\":0},{\"x\":10,\"y\":10}]}]}\n```"
	l, err := DecodeLayout([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeLayout: %v", err)
	}
	if len(l.Footprint) != 3 || len(l.Rooms) != 1 {
		t.Errorf("decoded %d footprint points, %d rooms", len(l.Footprint), len(l.Rooms))
	}
}

func TestDecodeLayoutRejectsGarbage(t *testing.T) {
	for name, raw := range map[string]string{
		"not-json":       "here is your floor plan!",
		"no-footprint":   `{"rooms":[{"name":"A","corners":[{"x":0,"y":0}]}]}`,
		"no-rooms":       `{"footprint":[{"x":0,"y":0},{"x":1,"y":0},{"x":1,"y":1}]}`,
		"tiny-footprint": `{"footprint":[{"x":0,"y":0}],"rooms":[{"name":"A"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeLayout([]byte(raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "invalid layout") {
				t.Errorf("error = %v, want ErrInvalidLayout", err)
			}
		})
	}
}

func TestScaleLongestToLongest(t *testing.T) {
	// A 1000x600 bounding box mapped onto a 15x9 site: 1000 units must
	// come out as 15 m.
	im := New(nil)
	res, err := im.Import(testLayout(), Site{Width: 15, Depth: 9})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if math.Abs(1000*res.Scale-15) > 1e-9 {
		t.Errorf("1000 * scale = %v, want 15", 1000*res.Scale)
	}
}

func TestScaleFallbacks(t *testing.T) {
	im := New(nil)

	t.Run("area", func(t *testing.T) {
		res, err := im.Import(testLayout(), Site{Area: 135})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		// Source area 600000 units^2; sqrt(135/600000) = 0.015.
		if math.Abs(res.Scale-0.015) > 1e-9 {
			t.Errorf("scale = %v, want 0.015", res.Scale)
		}
	})

	t.Run("meters-hint", func(t *testing.T) {
		l := testLayout()
		l.MetersPerUnit = 0.02
		res, err := im.Import(l, Site{})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if res.Scale != 0.02 {
			t.Errorf("scale = %v, want the hint 0.02", res.Scale)
		}
	})

	t.Run("nothing", func(t *testing.T) {
		res, err := im.Import(testLayout(), Site{})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if res.Scale != 1 {
			t.Errorf("scale = %v, want 1", res.Scale)
		}
		if len(res.Report.Warnings) == 0 {
			t.Error("expected a warning about missing scale sources")
		}
	})
}

func TestImportRejectsMissingFootprint(t *testing.T) {
	im := New(nil)
	for name, l := range map[string]*Layout{
		"nil":        nil,
		"empty":      {},
		"two-points": {Footprint: []LayoutPoint{{0, 0}, {10, 0}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := im.Import(l, Site{Width: 10, Depth: 8})
			if !errors.Is(err, ErrInvalidLayout) {
				t.Fatalf("err = %v, want ErrInvalidLayout", err)
			}
		})
	}
}

func TestImportOpenEdgeSurvivesSimplification(t *testing.T) {
	// The room outline carries a jitter vertex on its bottom edge that
	// simplification removes. The open-edge marker names the x=8 edge by
	// its original index; it must still land there and not shift onto a
	// neighboring edge.
	l := &Layout{
		Footprint: []LayoutPoint{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		Rooms: []LayoutRoom{{
			Name:      "Lounge",
			Corners:   []LayoutPoint{{2, 2}, {3, 2.02}, {8, 2}, {8, 8}, {2, 8}},
			OpenEdges: []int{2},
		}},
		MetersPerUnit: 1,
	}
	im := New(nil)
	res, err := im.Import(l, Site{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	for _, w := range res.Plan.Walls {
		if w.Thickness != internalThickness {
			continue
		}
		onX8 := math.Abs(w.Start.X-8) < 1e-6 && math.Abs(w.End.X-8) < 1e-6
		if onX8 && !w.Virtual {
			t.Errorf("open edge %v -> %v came out solid", w.Start, w.End)
		}
		if !onX8 && w.Virtual {
			t.Errorf("solid edge %v -> %v came out virtual", w.Start, w.End)
		}
	}
}

func TestImportWallsAndRooms(t *testing.T) {
	im := New(nil)
	res, err := im.Import(testLayout(), Site{Width: 15, Depth: 9})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	// Footprint edges split at the divider junctions plus one shared
	// internal wall: the two rooms' coincident divider edges collapse
	// to a single wall.
	divider := 0
	for _, w := range res.Plan.Walls {
		if math.Abs(w.Start.X-7.5) < 1e-6 && math.Abs(w.End.X-7.5) < 1e-6 {
			divider++
		}
	}
	if divider != 1 {
		t.Errorf("found %d divider walls at x=7.5, want 1", divider)
	}

	if len(res.Rooms) != 2 {
		t.Fatalf("detected %d rooms, want 2", len(res.Rooms))
	}
	for _, r := range res.Rooms {
		if math.Abs(r.Area-67.5) > 0.1 {
			t.Errorf("room area = %v, want 67.5", r.Area)
		}
	}

	if len(res.Plan.Labels) != 2 {
		t.Fatalf("expected 2 room labels, got %d", len(res.Plan.Labels))
	}
}

func TestImportOpeningPlacement(t *testing.T) {
	im := New(nil)
	res, err := im.Import(testLayout(), Site{Width: 15, Depth: 9})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	var doors []plan.WallObject
	for _, o := range res.Plan.Objects {
		if o.Kind == plan.ObjectDoor {
			doors = append(doors, o)
		}
	}
	if len(doors) != 1 {
		t.Fatalf("expected 1 door, got %d", len(doors))
	}
	d := doors[0]
	if d.Width != 0.8 {
		t.Errorf("door width = %v, want the 0.8 default", d.Width)
	}
	if d.Hinge != plan.HingeRight {
		t.Error("hinge side lost in conversion")
	}
	w, ok := res.Plan.Wall(d.WallID)
	if !ok {
		t.Fatal("door references a missing wall")
	}
	if math.Abs(w.Start.X-7.5) > 1e-6 {
		t.Errorf("door landed on wall at x=%v, want the divider at 7.5", w.Start.X)
	}
	if math.Abs(d.Position-0.5) > 0.01 {
		t.Errorf("door position = %v, want mid-wall 0.5", d.Position)
	}
}

func TestImportBathroomAndEntranceDoorWidths(t *testing.T) {
	l := testLayout()
	l.Rooms[0].Name = "Bathroom"
	l.Rooms[1].Name = "Entrance Hall"
	l.Openings = []LayoutOpening{
		{Type: "door", X: 250, Y: 0, Width: 60},  // in the bathroom's outer wall
		{Type: "door", X: 750, Y: 600, Width: 60}, // in the hall's outer wall
	}
	im := New(nil)
	res, err := im.Import(l, Site{Width: 15, Depth: 9})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Plan.Objects) != 2 {
		t.Fatalf("expected 2 doors, got %d", len(res.Plan.Objects))
	}
	widths := map[float64]bool{}
	for _, o := range res.Plan.Objects {
		widths[o.Width] = true
	}
	if !widths[0.7] || !widths[1.0] {
		t.Errorf("door widths = %v, want {0.7, 1.0}", widths)
	}
}

func TestImportFurnitureDocking(t *testing.T) {
	im := New(nil)
	res, err := im.Import(testLayout(), Site{Width: 15, Depth: 9})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	var bed, stand *plan.Furniture
	for i := range res.Plan.Furniture {
		switch res.Plan.Furniture[i].TemplateID {
		case "bed-double":
			bed = &res.Plan.Furniture[i]
		case "nightstand":
			stand = &res.Plan.Furniture[i]
		}
	}
	if bed == nil || stand == nil {
		t.Fatal("bed or nightstand missing from import")
	}

	// The bed docks flush to the bottom external wall: back edge on
	// the wall face, AI's approximate rotation corrected to 0.
	wantY := 2.1/2 + 0.25/2
	if math.Abs(bed.Position.Y-wantY) > 1e-6 {
		t.Errorf("bed y = %v, want %v", bed.Position.Y, wantY)
	}
	if math.Abs(bed.Rotation) > 1e-9 {
		t.Errorf("bed rotation = %v, want 0", bed.Rotation)
	}

	// The nightstand mirrors beside the bed's headboard.
	if stand.Rotation != bed.Rotation {
		t.Errorf("nightstand rotation = %v, want the bed's %v", stand.Rotation, bed.Rotation)
	}
	wantStand := bed.Position.
		Sub(geom.Pt(0, 1).Scale(2.1/2 - 0.4/2)).
		Add(geom.Pt(1, 0).Scale(1.8/2 + 0.45/2))
	if stand.Position.Distance(wantStand) > 1e-6 {
		t.Errorf("nightstand at %v, want %v", stand.Position, wantStand)
	}
}

func TestImportUnknownTemplateWarns(t *testing.T) {
	l := testLayout()
	l.Furniture = append(l.Furniture, LayoutItem{TemplateID: "hovercraft", X: 100, Y: 100})
	im := New(nil)
	res, err := im.Import(l, Site{Width: 15, Depth: 9})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	found := false
	for _, w := range res.Report.Warnings {
		if strings.Contains(w.Message, "hovercraft") {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning about the unknown template")
	}
	for _, f := range res.Plan.Furniture {
		if f.TemplateID == "hovercraft" {
			t.Error("unknown template was placed anyway")
		}
	}
}

func TestImportCabinetBelt(t *testing.T) {
	im := New(nil)
	res, err := im.Import(testLayout(), Site{Width: 15, Depth: 9})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	var base, upper []plan.Furniture
	for _, f := range res.Plan.Furniture {
		if strings.HasPrefix(f.TemplateID, "kitchen-base-") {
			base = append(base, f)
		}
		if strings.HasPrefix(f.TemplateID, "kitchen-upper-") {
			upper = append(upper, f)
		}
	}
	// The 4.5 m belt fits 7 x 0.6 + 1 x 0.3 modules.
	if len(base) != 8 {
		t.Fatalf("placed %d base modules, want 8", len(base))
	}
	if len(upper) != 8 {
		t.Fatalf("placed %d upper modules, want 8", len(upper))
	}

	// The run snapped flush under the top wall: module centers sit at
	// depth/2 + thickness/2 below the centerline.
	wantY := 9 - (0.6/2 + 0.25/2)
	for _, f := range base {
		if math.Abs(f.Position.Y-wantY) > 1e-6 {
			t.Errorf("base module y = %v, want %v", f.Position.Y, wantY)
		}
	}
}

func TestImportBeltSkipsAppliances(t *testing.T) {
	l := testLayout()
	// A stove dropped mid-belt blocks the module directly under it.
	l.Furniture = append(l.Furniture, LayoutItem{TemplateID: "stove", X: 750, Y: 580})
	im := New(nil)
	res, err := im.Import(l, Site{Width: 15, Depth: 9})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	var stove *plan.Furniture
	base := 0
	for i := range res.Plan.Furniture {
		f := res.Plan.Furniture[i]
		if f.TemplateID == "stove" {
			stove = &res.Plan.Furniture[i]
		}
		if strings.HasPrefix(f.TemplateID, "kitchen-base-") {
			base++
		}
	}
	if stove == nil {
		t.Fatal("stove missing")
	}
	// Fewer base modules than the unobstructed 8.
	if base >= 8 {
		t.Errorf("placed %d base modules, want fewer than 8 around the stove", base)
	}
	for _, f := range res.Plan.Furniture {
		if !strings.HasPrefix(f.TemplateID, "kitchen-base-") {
			continue
		}
		if math.Abs(f.Position.X-stove.Position.X) < (f.Width+stove.Width)/2-1e-6 &&
			math.Abs(f.Position.Y-stove.Position.Y) < 0.3 {
			t.Errorf("base module at %v overlaps the stove at %v", f.Position, stove.Position)
		}
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/chazu/atrium/pkg/aiclient"
	"github.com/chazu/atrium/pkg/align"
	"github.com/chazu/atrium/pkg/engine"
	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/importer"
	"github.com/chazu/atrium/pkg/kernel/sdfx"
	"github.com/chazu/atrium/pkg/plan"
	"github.com/chazu/atrium/pkg/preview"
	"github.com/chazu/atrium/pkg/rooms"
	"github.com/chazu/atrium/pkg/snap"
	"github.com/chazu/atrium/pkg/topo"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It holds the current plan and exposes the
// editing operations to the frontend via bindings.
type App struct {
	ctx context.Context

	mu    sync.Mutex
	plan  *plan.Plan
	rooms []plan.Room

	catalog  *plan.Catalog
	engine   *engine.Engine
	importer *importer.Importer
	builder  *preview.Builder
	client   *aiclient.Client
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ScriptResult is returned by EvaluateScript.
type ScriptResult struct {
	Walls     int             `json:"walls"`
	Rooms     []plan.Room     `json:"rooms"`
	Errors    []EvalErrorData `json:"errors"`
	Succeeded bool            `json:"succeeded"`
}

// PlacementResult is returned by PlaceFurniture.
type PlacementResult struct {
	Furniture plan.Furniture `json:"furniture"`
	Docked    bool           `json:"docked"`
	WallID    string         `json:"wallId,omitempty"`
}

// ImportResult is returned by the AI import bindings.
type ImportResult struct {
	Rooms    []plan.Room        `json:"rooms"`
	Scale    float64            `json:"scale"`
	Warnings []importer.Finding `json:"warnings"`
}

// NewApp creates an App with an empty plan, the default catalog, and
// the sdfx preview kernel. The AI client is configured from the
// environment; without an API key the generate binding reports an
// error but everything else works.
func NewApp() *App {
	catalog := plan.DefaultCatalog()
	a := &App{
		plan:     plan.New(),
		catalog:  catalog,
		engine:   engine.NewEngineWithCatalog(catalog),
		importer: importer.New(catalog),
		builder:  preview.NewBuilder(sdfx.New()),
	}
	cfg := aiclient.LoadConfig()
	if cfg.APIKey != "" {
		a.client = aiclient.New(cfg)
	}
	return a
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// LoadPlan replaces the current plan with one decoded from JSON.
func (a *App) LoadPlan(planJSON string) error {
	var p plan.Plan
	if err := json.Unmarshal([]byte(planJSON), &p); err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.plan = &p
	a.rooms = rooms.Detect(p.Walls)
	return nil
}

// PlanJSON returns the current plan serialized as JSON.
func (a *App) PlanJSON() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, err := json.Marshal(a.plan)
	if err != nil {
		return "", fmt.Errorf("serialize plan: %w", err)
	}
	return string(b), nil
}

// NormalizeWalls repairs the current wall topology at interactive
// tolerances and returns the resulting walls. Rooms are re-detected.
func (a *App) NormalizeWalls() []plan.Wall {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.plan.ReplaceWalls(topo.Normalize(a.plan.Walls, topo.InteractiveOptions()))
	a.rooms = rooms.Detect(a.plan.Walls)
	return a.plan.Walls
}

// DetectRooms recomputes and returns the enclosed rooms of the
// current plan.
func (a *App) DetectRooms() []plan.Room {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rooms = rooms.Detect(a.plan.Walls)
	return a.rooms
}

// SnapPointer resolves a raw pointer position against the current
// walls: vertices beat wall bodies beat the grid, with per-axis
// alignment overrides.
func (a *App) SnapPointer(x, y float64) snap.Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	return snap.Resolve(geom.Pt(x, y), a.plan.Walls, snap.DefaultOptions())
}

// PlaceFurniture adds a catalog item at the proposed position,
// docking it to the nearest physical wall per the template's affinity.
func (a *App) PlaceFurniture(templateID string, x, y float64) (PlacementResult, error) {
	tpl, ok := a.catalog.Resolve(templateID)
	if !ok {
		return PlacementResult{}, fmt.Errorf("unknown furniture template %q", templateID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	index := plan.NewWallIndex(a.plan.Walls)
	placement := align.Dock(tpl, geom.Pt(x, y), index)

	f := plan.Furniture{
		TemplateID: tpl.ID,
		Width:      tpl.Width,
		Depth:      tpl.Depth,
	}
	f = align.Apply(f, placement)
	f = a.plan.AddFurniture(f)

	return PlacementResult{
		Furniture: f,
		Docked:    placement.Docked,
		WallID:    placement.WallID,
	}, nil
}

// EvaluateScript runs a plan script. On success the current plan is
// replaced and rooms are re-detected; on eval errors the current plan
// is left untouched.
func (a *App) EvaluateScript(source string) ScriptResult {
	result := ScriptResult{
		Rooms:  []plan.Room{},
		Errors: []EvalErrorData{},
	}

	p, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("script evaluation fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.plan = p
	a.rooms = rooms.Detect(p.Walls)

	result.Walls = len(p.Walls)
	result.Rooms = a.rooms
	result.Succeeded = true
	return result
}

// ImportAILayout converts raw AI layout JSON into a plan and makes it
// current. Schema violations fail; per-element problems come back as
// warnings.
func (a *App) ImportAILayout(layoutJSON string, site importer.Site) (ImportResult, error) {
	layout, err := importer.DecodeLayout([]byte(layoutJSON))
	if err != nil {
		return ImportResult{}, err
	}

	res, err := a.importer.Import(layout, site)
	if err != nil {
		return ImportResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.plan = res.Plan
	a.rooms = res.Rooms

	return ImportResult{
		Rooms:    res.Rooms,
		Scale:    res.Scale,
		Warnings: res.Report.Warnings,
	}, nil
}

// GenerateAndImport asks the AI service for a layout matching the
// room program, then imports it. The program is feasibility-checked
// before any network call.
func (a *App) GenerateAndImport(prompt string, program []aiclient.RoomSpec, site importer.Site) (ImportResult, error) {
	if a.client == nil {
		return ImportResult{}, fmt.Errorf("AI generation is not configured; set ATRIUM_AI_API_KEY")
	}

	area := site.Area
	if area == 0 {
		area = site.Width * site.Depth
	}
	raw, err := a.client.GenerateLayout(a.ctx, prompt, program, area)
	if err != nil {
		return ImportResult{}, err
	}
	return a.ImportAILayout(string(raw), site)
}

// PreviewMeshes tessellates the current plan into colored triangle
// meshes for the 3D view.
func (a *App) PreviewMeshes() ([]MeshData, error) {
	a.mu.Lock()
	p := a.plan.Clone()
	roomList := make([]plan.Room, len(a.rooms))
	copy(roomList, a.rooms)
	a.mu.Unlock()

	meshes, err := a.builder.Build(p, roomList)
	if err != nil {
		log.Printf("preview build error: %v", err)
		return nil, err
	}

	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out, nil
}

package plan

import "strings"

// ---------------------------------------------------------------------------
// Furniture catalog
// ---------------------------------------------------------------------------

// Affinity describes how a furniture kind relates to walls during
// placement.
type Affinity int

const (
	AffinityNone  Affinity = iota // free-standing, never docks
	AffinityLoose                 // rotates to face the nearest wall, position stays free
	AffinityFlush                 // docks flush against the wall, back edge touching
)

func (a Affinity) String() string {
	switch a {
	case AffinityLoose:
		return "loose"
	case AffinityFlush:
		return "flush"
	default:
		return "none"
	}
}

// DockRange returns the maximum wall distance, meters, at which this
// affinity engages. Loose kinds snap from further away so that seating
// orients itself early during a drag.
func (a Affinity) DockRange() float64 {
	switch a {
	case AffinityLoose:
		return 7.0
	case AffinityFlush:
		return 5.0
	default:
		return 0
	}
}

// Template is a catalog entry describing one furniture kind. Placed
// Furniture copies Width and Depth from its template at creation time;
// Height is looked up again when 3D geometry is built.
type Template struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Category string   `json:"category"`
	Width    float64  `json:"width"`  // meters, local X
	Depth    float64  `json:"depth"`  // meters, local Y
	Height   float64  `json:"height"` // meters
	Affinity Affinity `json:"affinity"`
}

// Catalog is an id-indexed set of furniture templates with alias lookup
// for the loosely named kinds that AI layout descriptions use.
type Catalog struct {
	templates map[string]Template
	order     []string
	aliases   map[string]string
}

// NewCatalog builds a catalog from the given templates, in order.
func NewCatalog(templates []Template) *Catalog {
	c := &Catalog{
		templates: make(map[string]Template, len(templates)),
		aliases:   make(map[string]string),
	}
	for _, t := range templates {
		if _, dup := c.templates[t.ID]; !dup {
			c.order = append(c.order, t.ID)
		}
		c.templates[t.ID] = t
	}
	return c
}

// Alias registers an alternate name resolving to an existing template id.
func (c *Catalog) Alias(name, id string) {
	c.aliases[normalizeTemplateName(name)] = id
}

// Get returns the template with the exact id.
func (c *Catalog) Get(id string) (Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// Resolve looks a name up by id first, then through the alias table after
// normalizing case, spaces, and underscores. AI responses use names like
// "Double Bed" or "coffee_table" for what the catalog calls bed-double
// and coffee-table.
func (c *Catalog) Resolve(name string) (Template, bool) {
	if t, ok := c.templates[name]; ok {
		return t, true
	}
	key := normalizeTemplateName(name)
	if t, ok := c.templates[key]; ok {
		return t, true
	}
	if id, ok := c.aliases[key]; ok {
		t, ok := c.templates[id]
		return t, ok
	}
	return Template{}, false
}

// Templates returns all entries in registration order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}

func normalizeTemplateName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return s
}

// DefaultCatalog returns the built-in furniture catalog. Dimensions are
// typical retail sizes in meters.
func DefaultCatalog() *Catalog {
	c := NewCatalog([]Template{
		{ID: "sofa", Label: "Sofa", Category: "seating", Width: 2.2, Depth: 0.95, Height: 0.8, Affinity: AffinityLoose},
		{ID: "armchair", Label: "Armchair", Category: "seating", Width: 0.9, Depth: 0.85, Height: 0.8, Affinity: AffinityLoose},
		{ID: "chair", Label: "Chair", Category: "seating", Width: 0.45, Depth: 0.5, Height: 0.9, Affinity: AffinityNone},
		{ID: "coffee-table", Label: "Coffee table", Category: "tables", Width: 1.1, Depth: 0.6, Height: 0.45, Affinity: AffinityNone},
		{ID: "dining-table", Label: "Dining table", Category: "tables", Width: 1.6, Depth: 0.9, Height: 0.75, Affinity: AffinityNone},
		{ID: "side-table", Label: "Side table", Category: "tables", Width: 0.5, Depth: 0.5, Height: 0.55, Affinity: AffinityNone},
		{ID: "desk", Label: "Desk", Category: "office", Width: 1.4, Depth: 0.7, Height: 0.75, Affinity: AffinityFlush},
		{ID: "bed-double", Label: "Double bed", Category: "bedroom", Width: 1.8, Depth: 2.1, Height: 0.5, Affinity: AffinityFlush},
		{ID: "bed-single", Label: "Single bed", Category: "bedroom", Width: 0.95, Depth: 2.1, Height: 0.5, Affinity: AffinityFlush},
		{ID: "nightstand", Label: "Nightstand", Category: "bedroom", Width: 0.45, Depth: 0.4, Height: 0.55, Affinity: AffinityFlush},
		{ID: "wardrobe", Label: "Wardrobe", Category: "storage", Width: 1.2, Depth: 0.6, Height: 2.2, Affinity: AffinityFlush},
		{ID: "dresser", Label: "Dresser", Category: "storage", Width: 1.0, Depth: 0.5, Height: 0.9, Affinity: AffinityFlush},
		{ID: "bookshelf", Label: "Bookshelf", Category: "storage", Width: 0.8, Depth: 0.35, Height: 2.0, Affinity: AffinityFlush},
		{ID: "tv-stand", Label: "TV stand", Category: "living", Width: 1.6, Depth: 0.45, Height: 0.5, Affinity: AffinityFlush},
		{ID: "plant", Label: "Plant", Category: "decor", Width: 0.4, Depth: 0.4, Height: 1.2, Affinity: AffinityNone},
		{ID: "toilet", Label: "Toilet", Category: "bathroom", Width: 0.38, Depth: 0.65, Height: 0.8, Affinity: AffinityFlush},
		{ID: "washbasin", Label: "Washbasin", Category: "bathroom", Width: 0.6, Depth: 0.45, Height: 0.85, Affinity: AffinityFlush},
		{ID: "bathtub", Label: "Bathtub", Category: "bathroom", Width: 1.7, Depth: 0.75, Height: 0.6, Affinity: AffinityFlush},
		{ID: "shower", Label: "Shower", Category: "bathroom", Width: 0.9, Depth: 0.9, Height: 2.0, Affinity: AffinityFlush},
		{ID: "washing-machine", Label: "Washing machine", Category: "utility", Width: 0.6, Depth: 0.6, Height: 0.85, Affinity: AffinityFlush},
		{ID: "fridge", Label: "Fridge", Category: "kitchen", Width: 0.6, Depth: 0.65, Height: 1.85, Affinity: AffinityFlush},
		{ID: "stove", Label: "Stove", Category: "kitchen", Width: 0.6, Depth: 0.6, Height: 0.9, Affinity: AffinityFlush},
		{ID: "kitchen-sink", Label: "Kitchen sink", Category: "kitchen", Width: 0.6, Depth: 0.6, Height: 0.9, Affinity: AffinityFlush},
		{ID: "kitchen-base-60", Label: "Base cabinet 60", Category: "kitchen", Width: 0.6, Depth: 0.6, Height: 0.9, Affinity: AffinityFlush},
		{ID: "kitchen-base-45", Label: "Base cabinet 45", Category: "kitchen", Width: 0.45, Depth: 0.6, Height: 0.9, Affinity: AffinityFlush},
		{ID: "kitchen-base-30", Label: "Base cabinet 30", Category: "kitchen", Width: 0.3, Depth: 0.6, Height: 0.9, Affinity: AffinityFlush},
		{ID: "kitchen-corner", Label: "Corner cabinet", Category: "kitchen", Width: 0.9, Depth: 0.9, Height: 0.9, Affinity: AffinityFlush},
		{ID: "kitchen-upper-60", Label: "Upper cabinet 60", Category: "kitchen", Width: 0.6, Depth: 0.35, Height: 0.7, Affinity: AffinityFlush},
		{ID: "kitchen-upper-45", Label: "Upper cabinet 45", Category: "kitchen", Width: 0.45, Depth: 0.35, Height: 0.7, Affinity: AffinityFlush},
		{ID: "kitchen-upper-30", Label: "Upper cabinet 30", Category: "kitchen", Width: 0.3, Depth: 0.35, Height: 0.7, Affinity: AffinityFlush},
	})

	c.Alias("bed", "bed-double")
	c.Alias("double bed", "bed-double")
	c.Alias("single bed", "bed-single")
	c.Alias("couch", "sofa")
	c.Alias("settee", "sofa")
	c.Alias("table", "dining-table")
	c.Alias("bedside table", "nightstand")
	c.Alias("night stand", "nightstand")
	c.Alias("closet", "wardrobe")
	c.Alias("refrigerator", "fridge")
	c.Alias("cooker", "stove")
	c.Alias("oven", "stove")
	c.Alias("sink", "kitchen-sink")
	c.Alias("wc", "toilet")
	c.Alias("basin", "washbasin")
	c.Alias("bath", "bathtub")
	c.Alias("tv", "tv-stand")
	c.Alias("television", "tv-stand")
	c.Alias("shelf", "bookshelf")
	return c
}

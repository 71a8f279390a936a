package gofacscore

import "math"

// Vertex is one polygon corner in channel coordinates.
type Vertex struct {
	X float64
	Y float64
}

// Polygon is an ordered ring of gate vertices.
type Polygon []Vertex

// Contains reports whether the point lies inside the polygon, by ray
// casting. Points exactly on an edge may land on either side.
func (p Polygon) Contains(x, y float64) bool {
	inside := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > y) != (b.Y > y) &&
			x < (b.X-a.X)*(y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

func (p Polygon) clone() Polygon {
	c := make(Polygon, len(p))
	copy(c, p)
	return c
}

// GateStore holds the polygon per gate key. Injected so independent
// editing sessions keep independent state.
type GateStore interface {
	Get(key string) (Polygon, bool)
	Put(key string, p Polygon)
}

// MapStore is the default in-memory GateStore.
type MapStore map[string]Polygon

// NewMapStore returns an empty in-memory store.
func NewMapStore() MapStore { return make(MapStore) }

func (m MapStore) Get(key string) (Polygon, bool) {
	p, ok := m[key]
	return p, ok
}

func (m MapStore) Put(key string, p Polygon) { m[key] = p }

// GateEditor drives interactive polygon-gate editing. Every published
// polygon has its vertices snapped to the rounding grid, so gates stay
// comparable across sessions.
type GateEditor struct {
	store         GateStore
	roundInterval float64
}

// NewGateEditor wraps the given store. A non-positive interval falls back
// to DefaultRoundInterval; a nil store gets a fresh MapStore.
func NewGateEditor(store GateStore, roundInterval float64) *GateEditor {
	if store == nil {
		store = NewMapStore()
	}
	if roundInterval <= 0 {
		roundInterval = DefaultRoundInterval
	}
	return &GateEditor{store: store, roundInterval: roundInterval}
}

// EnsureInitialized makes the polygon under key hold exactly vertexCount
// vertices. A missing polygon is seeded from the bounds; a short one is
// extended with seed vertices past its current length, keeping user edits;
// a long one is truncated. Returns the stored polygon.
func (e *GateEditor) EnsureInitialized(key string, vertexCount int, bounds Box) Polygon {
	current, ok := e.store.Get(key)
	switch {
	case !ok:
		current = e.seedPolygon(vertexCount, bounds)
	case len(current) < vertexCount:
		seed := e.seedPolygon(vertexCount, bounds)
		current = append(current.clone(), seed[len(current):]...)
	case len(current) > vertexCount:
		current = current.clone()[:vertexCount]
	}
	e.store.Put(key, current)
	return current
}

// UpdateVertices snaps every coordinate to the grid, stores the result
// under key and returns it. One call per control change.
func (e *GateEditor) UpdateVertices(key string, vertices []Vertex) Polygon {
	p := make(Polygon, len(vertices))
	for i, v := range vertices {
		p[i] = Vertex{X: e.snap(v.X), Y: e.snap(v.Y)}
	}
	e.store.Put(key, p)
	return p
}

// Polygon returns the stored polygon for key, if any.
func (e *GateEditor) Polygon(key string) (Polygon, bool) {
	return e.store.Get(key)
}

// seedPolygon approximates an ellipse centered in the bounds with radii a
// quarter of each span, vertices at angles 2πi/n, snapped to the grid.
func (e *GateEditor) seedPolygon(n int, bounds Box) Polygon {
	centerX := (bounds.XMin + bounds.XMax) / 2
	centerY := (bounds.YMin + bounds.YMax) / 2
	radiusX := bounds.SpanX() / 4
	radiusY := bounds.SpanY() / 4

	p := make(Polygon, n)
	for i := range p {
		angle := 2 * math.Pi * float64(i) / float64(n)
		p[i] = Vertex{
			X: e.snap(centerX + radiusX*math.Cos(angle)),
			Y: e.snap(centerY + radiusY*math.Sin(angle)),
		}
	}
	return p
}

func (e *GateEditor) snap(v float64) float64 {
	return math.Round(v/e.roundInterval) * e.roundInterval
}

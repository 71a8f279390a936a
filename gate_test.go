package gofacscore_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	facs "github.com/masstiter/gofacscore"
)

func onGrid(t *testing.T, p facs.Polygon, interval float64) {
	t.Helper()
	for i, v := range p {
		for _, c := range []float64{v.X, v.Y} {
			_, frac := math.Modf(c / interval)
			if math.Abs(frac) > 1e-9 {
				t.Errorf("vertex %d coordinate %v is not a multiple of %v", i, c, interval)
			}
		}
	}
}

func TestGateEditor_SeedsMissingPolygon(t *testing.T) {
	editor := facs.NewGateEditor(facs.NewMapStore(), 5)
	box := facs.Box{XMin: 0, XMax: 400, YMin: 0, YMax: 200}

	p := editor.EnsureInitialized("lymphocytes", 6, box)
	require.Len(t, p, 6)
	onGrid(t, p, 5)

	// First vertex sits at angle 0: center + x radius.
	require.Equal(t, facs.Vertex{X: 300, Y: 100}, p[0])

	// Seeding is idempotent while the vertex count is unchanged.
	again := editor.EnsureInitialized("lymphocytes", 6, box)
	require.Equal(t, p, again)
}

func TestGateEditor_ResizeUpPreservesPrefix(t *testing.T) {
	editor := facs.NewGateEditor(nil, 0)
	box := facs.Box{XMin: 0, XMax: 100, YMin: 0, YMax: 100}

	editor.EnsureInitialized("g", 4, box)
	edited := editor.UpdateVertices("g", []facs.Vertex{
		{X: 12, Y: 18}, {X: 77, Y: 21}, {X: 80, Y: 95}, {X: 14, Y: 88},
	})
	require.Len(t, edited, 4)

	grown := editor.EnsureInitialized("g", 7, box)
	require.Len(t, grown, 7)
	onGrid(t, grown, 5)

	// The user's first four vertices survive the resize.
	require.Equal(t, edited, grown[:4])
}

func TestGateEditor_ResizeDownTruncates(t *testing.T) {
	editor := facs.NewGateEditor(nil, 0)
	box := facs.Box{XMin: -50, XMax: 50, YMin: -50, YMax: 50}

	full := editor.EnsureInitialized("g", 8, box)
	shrunk := editor.EnsureInitialized("g", 3, box)

	require.Len(t, shrunk, 3)
	require.Equal(t, full[:3], shrunk)
}

func TestGateEditor_UpdateSnapsToGrid(t *testing.T) {
	editor := facs.NewGateEditor(nil, 5)

	p := editor.UpdateVertices("g", []facs.Vertex{
		{X: 12.4, Y: 17.6}, {X: -2.5, Y: 101.1}, {X: 33.3, Y: 48.0},
	})

	require.Equal(t, facs.Polygon{
		{X: 10, Y: 20}, {X: 0, Y: 100}, {X: 35, Y: 50},
	}, p)

	stored, ok := editor.Polygon("g")
	require.True(t, ok)
	require.Equal(t, p, stored)
}

func TestGateEditor_IndependentSessions(t *testing.T) {
	storeA := facs.NewMapStore()
	storeB := facs.NewMapStore()
	box := facs.Box{XMin: 0, XMax: 100, YMin: 0, YMax: 100}

	a := facs.NewGateEditor(storeA, 5).EnsureInitialized("g", 5, box)
	facs.NewGateEditor(storeB, 5).UpdateVertices("g", []facs.Vertex{{X: 1, Y: 1}})

	// Session A's polygon is untouched by session B's update on the same key.
	got, ok := storeA.Get("g")
	require.True(t, ok)
	require.Equal(t, a, got)
	require.Len(t, got, 5)
}

func TestPolygonContains(t *testing.T) {
	square := facs.Polygon{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}

	cases := []struct {
		name string
		x, y float64
		want bool
	}{
		{"Center", 5, 5, true},
		{"Outside", 15, 5, false},
		{"OutsideNegative", -1, 5, false},
		{"AboveTop", 5, 11, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := square.Contains(tc.x, tc.y); got != tc.want {
				t.Errorf("Contains(%v,%v) = %v; want %v", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

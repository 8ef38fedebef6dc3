package trace

import (
	"math"
	"testing"

	"github.com/gridmesh/intrintri/geometry"
	"github.com/gridmesh/intrintri/mesh"
	"github.com/gridmesh/intrintri/normalcoords"
	"github.com/gridmesh/intrintri/surfacepoint"
)

func unitTetra(t *testing.T) (*mesh.Mesh, *geometry.InputGeometry) {
	t.Helper()
	tris := [][3]int{{0, 1, 2}, {0, 3, 1}, {1, 3, 2}, {2, 3, 0}}
	m, err := mesh.FromTriangles(4, tris)
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	g := geometry.NewInputGeometry(m)
	for _, e := range m.Edges() {
		g.SetEdgeLength(e.ID, 1)
	}
	return m, g
}

func identityLoc(m *mesh.Mesh) *mesh.VertexData[surfacepoint.SurfacePoint] {
	loc := mesh.NewVertexData[surfacepoint.SurfacePoint](m)
	for _, v := range m.Vertices() {
		loc.Set(v.ID, surfacepoint.AtVertex(v.ID))
	}
	return loc
}

func TestTraceIntrinsicHalfedgeZeroCrossingsReturnsEndpoints(t *testing.T) {
	m, g := unitTetra(t)
	coords := normalcoords.New(m)
	loc := identityLoc(m)
	tr := New(m, g, m, g, coords, loc)

	for _, h := range m.Halfedges() {
		if !h.IsInterior() {
			continue
		}
		pts, err := tr.TraceIntrinsicHalfedge(h.ID)
		if err != nil {
			t.Fatalf("TraceIntrinsicHalfedge(%d): %v", h.ID, err)
		}
		if len(pts) != 2 {
			t.Fatalf("halfedge %d: got %d points, want 2 (n=0 => size 2)", h.ID, len(pts))
		}
		if pts[0].Kind() != surfacepoint.KindVertex || pts[0].Vertex() != h.Vertex().ID {
			t.Errorf("halfedge %d: first point = %v, want Vertex(%d)", h.ID, pts[0], h.Vertex().ID)
		}
		if pts[1].Kind() != surfacepoint.KindVertex || pts[1].Vertex() != h.Tip().ID {
			t.Errorf("halfedge %d: last point = %v, want Vertex(%d)", h.ID, pts[1], h.Tip().ID)
		}
	}
}

func TestTraceIntrinsicHalfedgeSharedEdgeReturnsEndpointsDirectly(t *testing.T) {
	m, g := unitTetra(t)
	coords := normalcoords.New(m)
	loc := identityLoc(m)
	tr := New(m, g, m, g, coords, loc)

	var e mesh.EdgeID
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	coords.SetN(e, -1)
	h := m.Edge(e).Halfedge()
	pts, err := tr.TraceIntrinsicHalfedge(h.ID)
	if err != nil {
		t.Fatalf("TraceIntrinsicHalfedge: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("shared edge trace should be 2 points, got %d", len(pts))
	}
}

// squareWithDiagonal builds a unit square 0=(0,0) 1=(1,0) 2=(1,1) 3=(0,1)
// triangulated along the given diagonal ("02" or "13").
func squareWithDiagonal(t *testing.T, diagonal string) (*mesh.Mesh, *geometry.InputGeometry) {
	t.Helper()
	var tris [][3]int
	switch diagonal {
	case "02":
		tris = [][3]int{{0, 1, 2}, {0, 2, 3}}
	case "13":
		tris = [][3]int{{0, 1, 3}, {1, 2, 3}}
	default:
		t.Fatalf("unknown diagonal %q", diagonal)
	}
	m, err := mesh.FromTriangles(4, tris)
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	pos := map[int][2]float64{0: {0, 0}, 1: {1, 0}, 2: {1, 1}, 3: {0, 1}}
	g := geometry.NewInputGeometry(m)
	for _, e := range m.Edges() {
		h := e.Halfedge()
		a, b := pos[int(h.Vertex().ID)], pos[int(h.Tip().ID)]
		g.SetEdgeLength(e.ID, math.Hypot(a[0]-b[0], a[1]-b[1]))
	}
	return m, g
}

func TestTraceIntrinsicHalfedgeOneCrossingLandsAtDiagonalMidpoint(t *testing.T) {
	inputMesh, inputGeom := squareWithDiagonal(t, "02")
	intrinsicMesh, intrinsicGeom := squareWithDiagonal(t, "13")

	coords := normalcoords.New(intrinsicMesh)
	var hFlipped mesh.Halfedge
	foundHalfedge := false
	for _, h := range intrinsicMesh.Halfedges() {
		if h.Vertex().ID == 1 && h.Tip().ID == 3 {
			hFlipped = h
			foundHalfedge = true
		}
	}
	if !foundHalfedge {
		t.Fatal("could not find half-edge 1->3 in the flipped mesh")
	}
	var diagonalEdge02 mesh.EdgeID
	for _, e := range inputMesh.Edges() {
		h := e.Halfedge()
		if (h.Vertex().ID == 0 && h.Tip().ID == 2) || (h.Vertex().ID == 2 && h.Tip().ID == 0) {
			diagonalEdge02 = e.ID
		}
	}
	coords.SetN(hFlipped.Edge().ID, 1)

	outs := inputMesh.Vertex(1).OutgoingHalfedges()
	idx := -1
	for i, o := range outs {
		if o.IsInterior() {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatal("vertex 1 has no interior outgoing half-edge in the input mesh")
	}
	coords.SetRoundabout(hFlipped.ID, idx)

	loc := identityLoc(intrinsicMesh)
	tr := New(inputMesh, inputGeom, intrinsicMesh, intrinsicGeom, coords, loc)

	pts, err := tr.TraceIntrinsicHalfedge(hFlipped.ID)
	if err != nil {
		t.Fatalf("TraceIntrinsicHalfedge: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("got %d points, want 3 (n=1 => size 3)", len(pts))
	}
	if pts[0].Kind() != surfacepoint.KindVertex || pts[0].Vertex() != 1 {
		t.Errorf("first point = %v, want Vertex(1)", pts[0])
	}
	if pts[2].Kind() != surfacepoint.KindVertex || pts[2].Vertex() != 3 {
		t.Errorf("last point = %v, want Vertex(3)", pts[2])
	}
	if pts[1].Kind() != surfacepoint.KindEdge {
		t.Fatalf("middle point = %v, want an Edge crossing", pts[1])
	}
	e, tParam := pts[1].Edge()
	if e != diagonalEdge02 {
		t.Errorf("crossed edge = %d, want the 0-2 diagonal (%d)", e, diagonalEdge02)
	}
	if math.Abs(tParam-0.5) > 1e-6 {
		t.Errorf("crossing parameter = %v, want 0.5 (the square's center)", tParam)
	}
}

func TestExtractCommonSubdivisionCountsVertices(t *testing.T) {
	m, g := unitTetra(t)
	coords := normalcoords.New(m)
	loc := identityLoc(m)
	tr := New(m, g, m, g, coords, loc)

	cs, err := tr.ExtractCommonSubdivision()
	if err != nil {
		t.Fatalf("ExtractCommonSubdivision: %v", err)
	}
	if cs.VertexCount != len(m.Vertices()) {
		t.Errorf("VertexCount = %d, want %d (all normal coordinates are zero)", cs.VertexCount, len(m.Vertices()))
	}
	if len(cs.EdgeTraces) != len(m.Edges()) {
		t.Errorf("EdgeTraces has %d entries, want %d", len(cs.EdgeTraces), len(m.Edges()))
	}
}

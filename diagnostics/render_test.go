package diagnostics

import (
	"testing"

	"github.com/gridmesh/intrintri/geom"
	"github.com/gridmesh/intrintri/geometry"
	"github.com/gridmesh/intrintri/intrinsic"
	"github.com/gridmesh/intrintri/mesh"
)

func embeddedTetrahedron(t *testing.T) *intrinsic.Triangulation {
	t.Helper()
	m, err := mesh.FromTriangles(4, [][3]int{
		{0, 1, 2},
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
	})
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	positions := []geom.Vector3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	g := geometry.NewInputGeometry(m)
	for _, v := range m.Vertices() {
		g.SetVertexPosition(v.ID, positions[v.ID])
	}
	for _, e := range m.Edges() {
		h := e.Halfedge()
		a := g.VertexPosition(h.Vertex().ID)
		b := g.VertexPosition(h.Tip().ID)
		g.SetEdgeLength(e.ID, geom.Dist3(a, b))
	}
	tri, err := intrinsic.New(m, g)
	if err != nil {
		t.Fatalf("intrinsic.New: %v", err)
	}
	return tri
}

func TestRenderInputAndIntrinsicWireframe(t *testing.T) {
	tri := embeddedTetrahedron(t)
	img, err := Render(tri, RenderOptions{DrawInput: true, DrawIntrinsic: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 1000 || img.Bounds().Dy() != 1000 {
		t.Errorf("image size = %v, want default 1000x1000", img.Bounds())
	}
}

func TestRenderRejectsMissingPositions(t *testing.T) {
	m, err := mesh.FromTriangles(4, [][3]int{
		{0, 1, 2},
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
	})
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	g := geometry.NewInputGeometry(m)
	for _, e := range m.Edges() {
		g.SetEdgeLength(e.ID, 1)
	}
	tri, err := intrinsic.New(m, g)
	if err != nil {
		t.Fatalf("intrinsic.New: %v", err)
	}
	if _, err := Render(tri, RenderOptions{DrawInput: true}); err == nil {
		t.Errorf("Render should reject geometry with no vertex positions")
	}
}

func TestRenderAfterFlipToDelaunay(t *testing.T) {
	tri := embeddedTetrahedron(t)
	if _, err := tri.FlipToDelaunay(); err != nil {
		t.Fatalf("FlipToDelaunay: %v", err)
	}
	if _, err := Render(tri, RenderOptions{DrawInput: true, DrawIntrinsic: true, DrawTracedEdges: true}); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

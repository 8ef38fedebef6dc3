package geometry

import (
	"math"
	"testing"

	"github.com/gridmesh/intrintri/mesh"
)

const testEPS = 1e-9

func unitTetrahedron(t *testing.T) (*mesh.Mesh, *InputGeometry) {
	t.Helper()
	tris := [][3]int{
		{0, 1, 2},
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
	}
	m, err := mesh.FromTriangles(4, tris)
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	g := NewInputGeometry(m)
	for _, e := range m.Edges() {
		g.SetEdgeLength(e.ID, 1)
	}
	return m, g
}

func TestCornerAngleEquilateral(t *testing.T) {
	m, g := unitTetrahedron(t)
	c := NewCache(m, g)
	want := math.Pi / 3
	for _, f := range m.Faces() {
		for _, h := range f.Halfedges() {
			got := c.CornerAngle(h.ID)
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("corner angle = %v, want %v (60 degrees)", got, want)
			}
		}
	}
}

func TestAngleSumTetrahedronVertex(t *testing.T) {
	m, g := unitTetrahedron(t)
	c := NewCache(m, g)
	for _, v := range m.Vertices() {
		if v.Degree() != 3 {
			t.Fatalf("vertex %d degree = %d, want 3", v.ID, v.Degree())
		}
		got := c.AngleSum(v.ID)
		want := math.Pi // 3 * 60 degrees
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("angle sum at vertex %d = %v, want %v", v.ID, got, want)
		}
		defect := c.AngleDefect(v.ID)
		wantDefect := 2*math.Pi - want
		if math.Abs(defect-wantDefect) > 1e-9 {
			t.Errorf("angle defect at vertex %d = %v, want %v", v.ID, defect, wantDefect)
		}
	}
}

func TestHalfedgeVectorInFaceHasCorrectLength(t *testing.T) {
	m, g := unitTetrahedron(t)
	c := NewCache(m, g)
	for _, f := range m.Faces() {
		for _, h := range f.Halfedges() {
			v := c.HalfedgeVectorInFace(h.ID)
			wantLen := g.EdgeLength(h.Edge().ID)
			if math.Abs(v.Norm()-wantLen) > 1e-9 {
				t.Errorf("halfedge %d in-face vector has length %v, want %v", h.ID, v.Norm(), wantLen)
			}
		}
	}
}

func TestHalfedgeVectorInFaceClosesTheTriangle(t *testing.T) {
	m, g := unitTetrahedron(t)
	c := NewCache(m, g)
	for _, f := range m.Faces() {
		sum := c.HalfedgeVectorInFace(f.Halfedge().ID)
		hs := f.Halfedges()
		for _, h := range hs[1:] {
			v := c.HalfedgeVectorInFace(h.ID)
			sum = sum.Add(v)
		}
		if sum.Norm() > 1e-9 {
			t.Errorf("face %d halfedge vectors do not sum to zero: %v", f.ID, sum)
		}
	}
}

func TestHalfedgeVectorInVertexIsUnit(t *testing.T) {
	m, g := unitTetrahedron(t)
	c := NewCache(m, g)
	for _, v := range m.Vertices() {
		spokes := v.OutgoingHalfedges()
		for _, h := range spokes {
			got := c.HalfedgeVectorInVertex(h.ID).Norm()
			if math.Abs(got-1) > 1e-9 {
				t.Errorf("vertex %d spoke %d direction not unit length: %v", v.ID, h.ID, got)
			}
		}
	}
}

func TestInputGeometryValidateRejectsTriangleInequalityViolation(t *testing.T) {
	m, err := mesh.FromTriangles(3, [][3]int{{0, 1, 2}})
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	g := NewInputGeometry(m)
	edges := m.Edges()
	g.SetEdgeLength(edges[0].ID, 1)
	g.SetEdgeLength(edges[1].ID, 1)
	g.SetEdgeLength(edges[2].ID, 10)
	if err := g.Validate(testEPS); err == nil {
		t.Fatal("expected Validate to reject a degenerate/impossible triangle")
	}
}

func TestCacheRefreshesAfterFlip(t *testing.T) {
	m, g := unitTetrahedron(t)
	c := NewCache(m, g)
	var e mesh.EdgeID = mesh.InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	g.SetEdgeLength(e, 1) // still equilateral before flip
	// flip with every length left at 1, and confirm the cache reflects
	// post-flip topology (no stale corner tied to a halfedge/face pairing
	// that no longer exists).
	if !m.Flip(e) {
		t.Fatal("flip failed")
	}
	for _, f := range m.Faces() {
		for _, h := range f.Halfedges() {
			if c.CornerAngle(h.ID) <= 0 {
				t.Errorf("halfedge %d has non-positive corner angle after flip refresh", h.ID)
			}
		}
	}
}

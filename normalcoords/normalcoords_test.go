package normalcoords

import (
	"testing"

	"github.com/gridmesh/intrintri/mesh"
)

func tetrahedron(t *testing.T) *mesh.Mesh {
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
	return m
}

func TestCornerCrossing(t *testing.T) {
	cases := []struct{ ni, nj, nk, want int }{
		{0, 0, 0, 0},
		{0, 2, 2, 2},
		{4, 1, 1, 0},
		{-3, 2, 2, 2}, // shared edge marker counts as zero crossings
	}
	for _, c := range cases {
		got := CornerCrossing(c.ni, c.nj, c.nk)
		if got != c.want {
			t.Errorf("CornerCrossing(%d,%d,%d) = %d, want %d", c.ni, c.nj, c.nk, got, c.want)
		}
	}
}

func TestFlipUpdateAllZeroStaysZero(t *testing.T) {
	m := tetrahedron(t)
	c := New(m)
	var e mesh.EdgeID = mesh.InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	if err := c.FlipUpdate(e); err != nil {
		t.Fatalf("FlipUpdate: %v", err)
	}
	if got := c.N(e); got != 0 {
		t.Errorf("N(e) after flipping an all-zero mesh = %d, want 0", got)
	}
}

func TestFlipUpdateRejectsSharedEdge(t *testing.T) {
	m := tetrahedron(t)
	c := New(m)
	var e mesh.EdgeID = mesh.InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	c.SetN(e, -1)
	if err := c.FlipUpdate(e); err == nil {
		t.Fatal("expected error flipping a shared edge")
	}
}

func TestFlipUpdateWithNonzeroCrossings(t *testing.T) {
	m := tetrahedron(t)
	c := New(m)
	var e mesh.EdgeID = mesh.InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	h1 := m.Edge(e).Halfedge()
	h2 := h1.Next()
	h3 := h2.Next()
	h4 := h1.Twin()
	h5 := h4.Next()
	h6 := h5.Next()
	c.SetN(h2.Edge().ID, 2)
	c.SetN(h3.Edge().ID, 1)
	c.SetN(h5.Edge().ID, 1)
	c.SetN(h6.Edge().ID, 2)
	c.SetN(e, 0)
	if err := c.FlipUpdate(e); err != nil {
		t.Fatalf("FlipUpdate: %v", err)
	}
	// max(q+s, p+r) - m = max(1+2, 2+1) - 0 = 3
	if got := c.N(e); got != 3 {
		t.Errorf("N(e) = %d, want 3", got)
	}
}

func TestSplitDividesCrossingsAtParameter(t *testing.T) {
	m := tetrahedron(t)
	c := New(m)
	var e mesh.EdgeID = mesh.InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	c.SetN(e, 5)
	h := m.Edge(e).Halfedge()
	prep := c.PrepareSplit(h.ID, 0.4)
	v, he1, he2 := m.SplitEdge(h.ID)
	c.CommitSplit(prep, v, he1, he2)

	eAV := m.Halfedge(he1).Edge().ID
	eVB := m.Halfedge(he2).Edge().ID
	if got := c.N(eAV) + c.N(eVB); got != 5 {
		t.Errorf("split pieces sum to %d, want 5", got)
	}
	if c.N(eAV) != 2 {
		t.Errorf("N(e1) = %d, want floor(0.4*5)=2", c.N(eAV))
	}
}

func TestSplitPreservesSharedMarker(t *testing.T) {
	m := tetrahedron(t)
	c := New(m)
	var e mesh.EdgeID = mesh.InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	c.SetN(e, -3)
	h := m.Edge(e).Halfedge()
	prep := c.PrepareSplit(h.ID, 0.5)
	v, he1, he2 := m.SplitEdge(h.ID)
	c.CommitSplit(prep, v, he1, he2)

	eAV := m.Halfedge(he1).Edge().ID
	eVB := m.Halfedge(he2).Edge().ID
	if c.N(eAV) != -3 || c.N(eVB) != -3 {
		t.Errorf("shared marker not preserved: N(e1)=%d N(e2)=%d, want -3 -3", c.N(eAV), c.N(eVB))
	}
}

func TestInsertVertexAssignsCornerCrossings(t *testing.T) {
	m := tetrahedron(t)
	c := New(m)
	f := m.Faces()[0]
	hs := f.Halfedges()
	c.SetN(hs[0].Edge().ID, 2)
	c.SetN(hs[1].Edge().ID, 2)
	c.SetN(hs[2].Edge().ID, 2)

	prep := c.PrepareInsertVertex(f.ID)
	v, ok := m.InsertVertexInFace(f.ID)
	if !ok {
		t.Fatal("InsertVertexInFace failed")
	}
	c.CommitInsertVertex(prep, v)

	for _, hd := range m.Vertex(v).OutgoingHalfedges() {
		if got := c.N(hd.Edge().ID); got != 1 {
			t.Errorf("spoke to vertex %d has N=%d, want 1 (corner crossing of a symmetric 2,2,2 triangle)", hd.Tip().ID, got)
		}
	}
}

package surfacepoint

import (
	"testing"

	"github.com/gridmesh/intrintri/mesh"
)

func TestAccessorsPanicOnWrongKind(t *testing.T) {
	p := AtVertex(3)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Edge() on a Vertex SurfacePoint should panic")
			}
		}()
		p.Edge()
	}()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Face() on a Vertex SurfacePoint should panic")
			}
		}()
		p.Face()
	}()
}

func TestEdgeRoundTrip(t *testing.T) {
	p := AtEdge(7, 0.25)
	e, tt := p.Edge()
	if e != 7 || tt != 0.25 {
		t.Errorf("got (%d,%v), want (7,0.25)", e, tt)
	}
}

func TestReduceToVertexAtEdgeEndpoint(t *testing.T) {
	m, err := mesh.FromTriangles(3, [][3]int{{0, 1, 2}})
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	e := m.Edges()[0]
	p := AtEdge(e.ID, 1e-12)
	reduced, ok := ReduceToVertex(m, p, 1e-9)
	if !ok || reduced.Kind() != KindVertex {
		t.Fatalf("expected reduction to Vertex, got %v (ok=%v)", reduced, ok)
	}
	if reduced.Vertex() != e.Halfedge().Vertex().ID {
		t.Errorf("reduced vertex = %d, want %d", reduced.Vertex(), e.Halfedge().Vertex().ID)
	}
}

func TestReduceToVertexMidEdgeStaysEdge(t *testing.T) {
	m, err := mesh.FromTriangles(3, [][3]int{{0, 1, 2}})
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	e := m.Edges()[0]
	p := AtEdge(e.ID, 0.5)
	_, ok := ReduceToVertex(m, p, 1e-9)
	if ok {
		t.Error("midpoint should not reduce to a vertex")
	}
}

func TestReduceToVertexInFace(t *testing.T) {
	m, err := mesh.FromTriangles(3, [][3]int{{0, 1, 2}})
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	f := m.Faces()[0]
	p := AtFace(f.ID, Barycentric{A: 1 - 1e-12, B: 5e-13, C: 5e-13})
	reduced, ok := ReduceToVertex(m, p, 1e-9)
	if !ok || reduced.Kind() != KindVertex {
		t.Fatalf("expected reduction to Vertex, got %v (ok=%v)", reduced, ok)
	}
	if reduced.Vertex() != f.Vertices()[0].ID {
		t.Errorf("reduced vertex = %d, want %d", reduced.Vertex(), f.Vertices()[0].ID)
	}
}

// Package surfacepoint locates a point on the (fixed, read-only) input
// mesh as one of three variants -- exactly at a vertex, parameterized
// along an edge, or given by barycentric coordinates inside a face.
package surfacepoint

import (
	"fmt"

	"github.com/gridmesh/intrintri/mesh"
)

// Kind discriminates the SurfacePoint variant.
type Kind int

const (
	KindVertex Kind = iota
	KindEdge
	KindFace
)

func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "Vertex"
	case KindEdge:
		return "Edge"
	case KindFace:
		return "Face"
	default:
		return "Invalid"
	}
}

// Barycentric is a point in the standard 2-simplex: three non-negative
// weights summing to 1, ordered to match a face's three halfedges in CCW
// order starting from Face.Halfedge().
type Barycentric struct {
	A, B, C float64
}

// SurfacePoint is the sum type `Vertex(v) | Edge(e,t) | Face(f,b)`. The
// zero value is not a valid SurfacePoint; use the constructors below.
type SurfacePoint struct {
	kind Kind
	v    mesh.VertexID
	e    mesh.EdgeID
	t    float64
	f    mesh.FaceID
	b    Barycentric
}

func AtVertex(v mesh.VertexID) SurfacePoint {
	return SurfacePoint{kind: KindVertex, v: v}
}

// AtEdge locates a point at parameter t in [0,1] along e, measured from
// e.Halfedge().Vertex() (t=0) to its Tip() (t=1).
func AtEdge(e mesh.EdgeID, t float64) SurfacePoint {
	return SurfacePoint{kind: KindEdge, e: e, t: t}
}

// AtFace locates a point inside f by barycentric coordinates ordered to
// match f.Halfedges().
func AtFace(f mesh.FaceID, b Barycentric) SurfacePoint {
	return SurfacePoint{kind: KindFace, f: f, b: b}
}

func (p SurfacePoint) Kind() Kind { return p.kind }

func (p SurfacePoint) Vertex() mesh.VertexID {
	if p.kind != KindVertex {
		panic("surfacepoint: Vertex() called on a non-Vertex SurfacePoint")
	}
	return p.v
}

func (p SurfacePoint) Edge() (mesh.EdgeID, float64) {
	if p.kind != KindEdge {
		panic("surfacepoint: Edge() called on a non-Edge SurfacePoint")
	}
	return p.e, p.t
}

func (p SurfacePoint) Face() (mesh.FaceID, Barycentric) {
	if p.kind != KindFace {
		panic("surfacepoint: Face() called on a non-Face SurfacePoint")
	}
	return p.f, p.b
}

func (p SurfacePoint) String() string {
	switch p.kind {
	case KindVertex:
		return fmt.Sprintf("Vertex(%d)", p.v)
	case KindEdge:
		return fmt.Sprintf("Edge(%d, t=%.4f)", p.e, p.t)
	case KindFace:
		return fmt.Sprintf("Face(%d, b=(%.4f,%.4f,%.4f))", p.f, p.b.A, p.b.B, p.b.C)
	default:
		return "Invalid"
	}
}

// ReduceToVertex reports whether p coincides exactly with one of its
// containing element's corners (t within eps of 0 or 1, or one barycentric
// weight within eps of 1) and, if so, returns the equivalent Vertex
// SurfacePoint. Used by the mutation layer to collapse near-degenerate
// insertions (e.g. a circumcenter landing on top of an existing vertex)
// down to the combinatorially exact case instead of inserting a
// numerically coincident new vertex.
func ReduceToVertex(m *mesh.Mesh, p SurfacePoint, eps float64) (SurfacePoint, bool) {
	switch p.kind {
	case KindVertex:
		return p, true
	case KindEdge:
		h := m.Edge(p.e).Halfedge()
		if p.t <= eps {
			return AtVertex(h.Vertex().ID), true
		}
		if p.t >= 1-eps {
			return AtVertex(h.Tip().ID), true
		}
	case KindFace:
		vs := m.Face(p.f).Vertices()
		weights := [3]float64{p.b.A, p.b.B, p.b.C}
		for i, w := range weights {
			if w >= 1-eps {
				return AtVertex(vs[i].ID), true
			}
		}
	}
	return p, false
}

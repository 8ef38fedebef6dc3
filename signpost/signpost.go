// Package signpost implements a second, lighter-weight tagged intrinsic
// triangulation: instead of normal coordinates (n: E_B -> Z) it relies
// entirely on the geometry cache's own per-vertex tangent-space angles
// (effectively a "signpost" direction per half-edge, re-derived live rather
// than updated by hand on every mutation) and traces geodesics by walking a
// rescaled angle across the input mesh, rather than an exact integer
// crossing count. It implements the same intrinsic.Variant trait so
// intrinsic.FlipToDelaunay runs over either representation unchanged
// (DelaunayRefine is a method of intrinsic.Triangulation alone and does not
// run on this variant); it exists to demonstrate that trait boundary and to cross-check
// the integer-coordinate implementation's flip arithmetic, not as a
// full-fidelity replacement -- in particular it never recovers the input
// mesh's common subdivision, since that needs exact crossing counts this
// variant deliberately doesn't maintain.
package signpost

import (
	"fmt"

	"github.com/gridmesh/intrintri/geometry"
	"github.com/gridmesh/intrintri/intrinsic"
	"github.com/gridmesh/intrintri/mesh"
	"github.com/gridmesh/intrintri/surfacepoint"
	"github.com/gridmesh/intrintri/trace"
)

var _ intrinsic.Variant = (*Triangulation)(nil)

type edgeLengths struct {
	data *mesh.EdgeData[float64]
}

func (l *edgeLengths) EdgeLength(e mesh.EdgeID) float64   { return l.data.Get(e) }
func (l *edgeLengths) SetLength(e mesh.EdgeID, v float64) { l.data.Set(e, v) }

// Triangulation is signpost's implementation of the intrinsic.Variant trait.
type Triangulation struct {
	inputMesh  *mesh.Mesh
	inputGeom  *geometry.InputGeometry
	inputCache *geometry.Cache

	mesh    *mesh.Mesh
	lengths *edgeLengths
	cache   *geometry.Cache
	loc     *mesh.VertexData[surfacepoint.SurfacePoint]
	marked  *mesh.EdgeData[bool]

	originalVertex *mesh.VertexData[bool]
}

func sortedPair(a, b mesh.VertexID) [2]mesh.VertexID {
	if a > b {
		a, b = b, a
	}
	return [2]mesh.VertexID{a, b}
}

// New builds a signpost triangulation identical in combinatorics and
// lengths to the input mesh, exactly as intrinsic.New does.
func New(inputMesh *mesh.Mesh, inputGeom *geometry.InputGeometry) (*Triangulation, error) {
	if err := inputGeom.Validate(1e-6); err != nil {
		return nil, fmt.Errorf("signpost: New: %w", err)
	}

	nV := len(inputMesh.Vertices())
	var tris [][3]int
	for _, f := range inputMesh.Faces() {
		vs := f.Vertices()
		if len(vs) != 3 {
			return nil, fmt.Errorf("signpost: New: input face %d is not a triangle", f.ID)
		}
		tris = append(tris, [3]int{int(vs[0].ID), int(vs[1].ID), int(vs[2].ID)})
	}
	bMesh, err := mesh.FromTriangles(nV, tris)
	if err != nil {
		return nil, fmt.Errorf("signpost: New: copying input mesh: %w", err)
	}

	lengths := &edgeLengths{data: mesh.NewEdgeData[float64](bMesh)}
	inputEdgeByVerts := make(map[[2]mesh.VertexID]mesh.EdgeID, len(inputMesh.Edges()))
	for _, e := range inputMesh.Edges() {
		h := e.Halfedge()
		inputEdgeByVerts[sortedPair(h.Vertex().ID, h.Tip().ID)] = e.ID
	}
	for _, e := range bMesh.Edges() {
		h := e.Halfedge()
		inEdge, ok := inputEdgeByVerts[sortedPair(h.Vertex().ID, h.Tip().ID)]
		if !ok {
			return nil, fmt.Errorf("signpost: New: intrinsic edge %d has no matching input edge", e.ID)
		}
		lengths.SetLength(e.ID, inputGeom.EdgeLength(inEdge))
	}

	loc := mesh.NewVertexData[surfacepoint.SurfacePoint](bMesh)
	originalVertex := mesh.NewVertexData[bool](bMesh)
	for _, v := range bMesh.Vertices() {
		loc.Set(v.ID, surfacepoint.AtVertex(mesh.VertexID(v.ID)))
		originalVertex.Set(v.ID, true)
	}

	return &Triangulation{
		inputMesh:      inputMesh,
		inputGeom:      inputGeom,
		inputCache:     geometry.NewCache(inputMesh, inputGeom),
		mesh:           bMesh,
		lengths:        lengths,
		cache:          geometry.NewCache(bMesh, lengths),
		loc:            loc,
		marked:         mesh.NewEdgeData[bool](bMesh),
		originalVertex: originalVertex,
	}, nil
}

func (t *Triangulation) Mesh() *mesh.Mesh                      { return t.mesh }
func (t *Triangulation) InputMesh() *mesh.Mesh                 { return t.inputMesh }
func (t *Triangulation) EdgeLength(e mesh.EdgeID) float64      { return t.lengths.EdgeLength(e) }
func (t *Triangulation) IsMarked(e mesh.EdgeID) bool           { return t.marked.Get(e) }
func (t *Triangulation) SetMarked(e mesh.EdgeID, marked bool)  { t.marked.Set(e, marked) }
func (t *Triangulation) IsOriginalVertex(v mesh.VertexID) bool { return t.originalVertex.Get(v) }

func (t *Triangulation) EquivalentPointOnIntrinsic(p surfacepoint.SurfacePoint) (surfacepoint.SurfacePoint, error) {
	if p.Kind() != surfacepoint.KindVertex {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("signpost: EquivalentPointOnIntrinsic: only vertex points are supported")
	}
	return surfacepoint.AtVertex(p.Vertex()), nil
}

func (t *Triangulation) EquivalentPointOnInput(v mesh.VertexID) surfacepoint.SurfacePoint {
	return t.loc.Get(v)
}

// ExtractCommonSubdivision is not supported: signpost never maintains
// exact per-edge crossing counts, only a live re-derived tangent angle, so
// it has no way to recover the planar overlay other trait implementations
// expose. See the package doc.
func (t *Triangulation) ExtractCommonSubdivision() (*trace.CommonSubdivision, error) {
	return nil, fmt.Errorf("signpost: ExtractCommonSubdivision: not supported by this variant")
}

// locate returns the SurfacePoint on M_A that h's tip lands on, by
// rescaling h's tangent-space angle at its tail (relative to that vertex's
// own reference spoke, vertex.Halfedge()) into the matching input vertex's
// tangent space and walking a geodesic of h's own length across the input
// mesh. This is signpost's entire tracing mechanism: no crossing count, no
// roundabout table, just a live angle and a straight walk.
func (t *Triangulation) locate(h mesh.Halfedge) (surfacepoint.SurfacePoint, error) {
	v := h.Vertex().ID
	sp := t.loc.Get(v)
	if sp.Kind() != surfacepoint.KindVertex {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("signpost: locate: vertex %d is not vertex-located", v)
	}
	vA := sp.Vertex()

	refB := t.mesh.Vertex(v).Halfedge()
	localAngle := t.cache.HalfedgeVectorInVertex(h.ID).Arg() - t.cache.HalfedgeVectorInVertex(refB.ID).Arg()

	bSum := t.cache.AngleSum(v)
	aSum := t.inputCache.AngleSum(vA)
	ratio := 1.0
	if bSum > 1e-12 {
		ratio = aSum / bSum
	}

	refA := t.inputMesh.Vertex(vA).Halfedge()
	if !refA.IsInterior() {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("signpost: locate: input vertex %d's reference spoke is a boundary half-edge", vA)
	}
	length := t.lengths.EdgeLength(h.Edge().ID)
	return trace.Walk(t.inputGeom, t.inputMesh, refA.ID, localAngle*ratio, length, nil)
}

// TraceHalfedge returns h's two endpoints located on M_A: its tail's
// existing location and its tip's location as computed by locate. Unlike
// the integer-coordinate variant this is never a longer polyline, since
// signpost keeps no record of which input faces/edges a geodesic actually
// crosses.
func (t *Triangulation) TraceHalfedge(h mesh.HalfedgeID) ([]surfacepoint.SurfacePoint, error) {
	hd := t.mesh.Halfedge(h)
	tail := t.loc.Get(hd.Vertex().ID)
	tip, err := t.locate(hd)
	if err != nil {
		return nil, fmt.Errorf("signpost: TraceHalfedge(%d): %w", h, err)
	}
	return []surfacepoint.SurfacePoint{tail, tip}, nil
}

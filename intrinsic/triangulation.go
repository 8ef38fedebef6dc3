// Package intrinsic implements the integer-coordinate intrinsic
// triangulation engine: an independently mutable triangle mesh M_B that
// stays in exact combinatorial correspondence with a fixed input mesh M_A,
// via the normalcoords and trace packages. It owns the mutation primitives
// (flip/split/insert/remove, all atomic) and the refinement drivers
// (flipToDelaunay, delaunayRefine) built on top of them.
package intrinsic

import (
	"fmt"
	"math"

	"github.com/gridmesh/intrintri/geom"
	"github.com/gridmesh/intrintri/geometry"
	"github.com/gridmesh/intrintri/mesh"
	"github.com/gridmesh/intrintri/normalcoords"
	"github.com/gridmesh/intrintri/surfacepoint"
	"github.com/gridmesh/intrintri/trace"
)

// triangleTestEPS is the default numerical tolerance for geometric
// predicates (the Delaunay cotangent test, triangle-inequality checks after
// a split). Normal-coordinate updates are exact integer arithmetic and
// never consult this constant.
const triangleTestEPS = 1e-6

// edgeLengths is the intrinsic mesh's own per-edge length storage,
// satisfying geometry.Lengths so the geometry.Cache and trace.Tracer can
// consume it the same way they consume InputGeometry.
type edgeLengths struct {
	data *mesh.EdgeData[float64]
}

func (l *edgeLengths) EdgeLength(e mesh.EdgeID) float64   { return l.data.Get(e) }
func (l *edgeLengths) SetLength(e mesh.EdgeID, v float64) { l.data.Set(e, v) }

// Triangulation is the IntegerCoordinatesIntrinsicTriangulation: an
// intrinsic mesh M_B, its own edge lengths, normal coordinates and
// roundabouts, a per-vertex location on the input mesh, and a marked-edge
// set refinement must never touch. The input mesh and its geometry are
// borrowed and never mutated.
type Triangulation struct {
	inputMesh *mesh.Mesh
	inputGeom *geometry.InputGeometry

	mesh    *mesh.Mesh
	lengths *edgeLengths
	cache   *geometry.Cache
	coords  *normalcoords.Coords
	loc     *mesh.VertexData[surfacepoint.SurfacePoint]
	marked  *mesh.EdgeData[bool]
	tracer  *trace.Tracer

	originalVertex *mesh.VertexData[bool] // true for every vertex present at construction (V_A)

	poisonErr error
}

// New builds a Triangulation over inputMesh/inputGeom: M_B starts as a
// combinatorial copy of M_A, lengths equal to the input's, loc the identity
// on vertices, every normal coordinate zero, and roundabouts matching each
// half-edge's position in its tail's input-mesh rotation (the construction-
// time identity correspondence of §3's Lifecycle).
func New(inputMesh *mesh.Mesh, inputGeom *geometry.InputGeometry) (*Triangulation, error) {
	if err := inputGeom.Validate(triangleTestEPS); err != nil {
		return nil, fmt.Errorf("intrinsic: New: %w", err)
	}

	nV := len(inputMesh.Vertices())
	var tris [][3]int
	for _, f := range inputMesh.Faces() {
		vs := f.Vertices()
		if len(vs) != 3 {
			return nil, fmt.Errorf("intrinsic: New: input face %d is not a triangle", f.ID)
		}
		tris = append(tris, [3]int{int(vs[0].ID), int(vs[1].ID), int(vs[2].ID)})
	}
	bMesh, err := mesh.FromTriangles(nV, tris)
	if err != nil {
		return nil, fmt.Errorf("intrinsic: New: copying input mesh: %w", err)
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
			return nil, fmt.Errorf("intrinsic: New: intrinsic edge %d has no matching input edge", e.ID)
		}
		lengths.SetLength(e.ID, inputGeom.EdgeLength(inEdge))
	}

	loc := mesh.NewVertexData[surfacepoint.SurfacePoint](bMesh)
	originalVertex := mesh.NewVertexData[bool](bMesh)
	for _, v := range bMesh.Vertices() {
		loc.Set(v.ID, surfacepoint.AtVertex(mesh.VertexID(v.ID)))
		originalVertex.Set(v.ID, true)
	}

	coords := normalcoords.New(bMesh)
	assignIdentityRoundabouts(inputMesh, bMesh, coords)

	t := &Triangulation{
		inputMesh:      inputMesh,
		inputGeom:      inputGeom,
		mesh:           bMesh,
		lengths:        lengths,
		cache:          geometry.NewCache(bMesh, lengths),
		coords:         coords,
		loc:            loc,
		marked:         mesh.NewEdgeData[bool](bMesh),
		originalVertex: originalVertex,
	}
	t.tracer = trace.New(inputMesh, inputGeom, bMesh, lengths, coords, loc)
	return t, nil
}

func sortedPair(a, b mesh.VertexID) [2]mesh.VertexID {
	if a > b {
		a, b = b, a
	}
	return [2]mesh.VertexID{a, b}
}

// assignIdentityRoundabouts sets, for every interior half-edge of bMesh,
// the index of its combinatorial counterpart within the tail vertex's
// rotation on inputMesh -- the initial correspondence before any mutation
// has touched M_B's rotations.
func assignIdentityRoundabouts(inputMesh, bMesh *mesh.Mesh, coords *normalcoords.Coords) {
	for _, v := range bMesh.Vertices() {
		outsB := v.OutgoingHalfedges()
		outsA := inputMesh.Vertex(v.ID).OutgoingHalfedges()
		for _, hB := range outsB {
			if !hB.IsInterior() {
				continue
			}
			tip := hB.Tip().ID
			for i, hA := range outsA {
				if hA.Tip().ID == tip {
					coords.SetRoundabout(hB.ID, i)
					break
				}
			}
		}
	}
}

// Mesh returns the intrinsic mesh M_B. Callers must not mutate it directly;
// use the Triangulation's own operations so lengths/coords/loc stay in
// lockstep.
func (t *Triangulation) Mesh() *mesh.Mesh { return t.mesh }

// InputMesh returns the borrowed, read-only input mesh M_A.
func (t *Triangulation) InputMesh() *mesh.Mesh { return t.inputMesh }

// InputGeom returns the borrowed, read-only input geometry, for callers
// (diagnostics) that need its optional vertex positions.
func (t *Triangulation) InputGeom() *geometry.InputGeometry { return t.inputGeom }

// EdgeLength returns e's current intrinsic length.
func (t *Triangulation) EdgeLength(e mesh.EdgeID) float64 { return t.lengths.EdgeLength(e) }

// Loc returns v's current location on the input mesh.
func (t *Triangulation) Loc(v mesh.VertexID) surfacepoint.SurfacePoint { return t.loc.Get(v) }

// IsMarked reports whether e is in the marked-edge set refinement must
// never flip or remove.
func (t *Triangulation) IsMarked(e mesh.EdgeID) bool { return t.marked.Get(e) }

// SetMarked adds or removes e from the marked-edge set.
func (t *Triangulation) SetMarked(e mesh.EdgeID, marked bool) { t.marked.Set(e, marked) }

// IsOriginalVertex reports whether v was present at construction (v ∈ V_A),
// as opposed to having been introduced later by a split or insertion.
// RemoveVertex refuses to operate on an original vertex.
func (t *Triangulation) IsOriginalVertex(v mesh.VertexID) bool { return t.originalVertex.Get(v) }

// TraceHalfedge returns the ordered polyline of SurfacePoints on M_A along
// which h lies.
func (t *Triangulation) TraceHalfedge(h mesh.HalfedgeID) ([]surfacepoint.SurfacePoint, error) {
	return t.tracer.TraceIntrinsicHalfedge(h)
}

// ExtractCommonSubdivision assembles the planar overlay of every intrinsic
// edge's trace onto the input mesh.
func (t *Triangulation) ExtractCommonSubdivision() (*trace.CommonSubdivision, error) {
	return t.tracer.ExtractCommonSubdivision()
}

// EquivalentPointOnIntrinsic and EquivalentPointOnInput round-trip a
// location between the two meshes' shared vertex indexing for the common
// case (a point that is itself at a vertex); general edge/face points
// require the tracer's face-strip walk and are not needed by any caller in
// this package beyond that.
func (t *Triangulation) EquivalentPointOnIntrinsic(p surfacepoint.SurfacePoint) (surfacepoint.SurfacePoint, error) {
	if p.Kind() != surfacepoint.KindVertex {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("intrinsic: EquivalentPointOnIntrinsic: only vertex points are supported")
	}
	return surfacepoint.AtVertex(p.Vertex()), nil
}

func (t *Triangulation) EquivalentPointOnInput(v mesh.VertexID) surfacepoint.SurfacePoint {
	return t.Loc(v)
}

// refreshCache recomputes the cache's derived quantities for every face
// incident to v and every vertex touched by those faces. SplitEdge and
// InsertVertex need this in addition to the cache's own automatic
// OnEdgeSplit/OnFaceInsertion refresh: that refresh fires synchronously
// inside the mesh-level call, before the new edges it just created have had
// their lengths set (they can't be set any earlier -- those edges don't
// exist until the mesh-level call creates them), so it runs once against
// stale zero lengths. Calling this afterward, once lengths are correct,
// brings the cache back in sync.
func (t *Triangulation) refreshCache(v mesh.VertexID) {
	faceSet := map[mesh.FaceID]bool{}
	for _, h := range t.mesh.Vertex(v).OutgoingHalfedges() {
		if h.IsInterior() {
			faceSet[h.Face().ID] = true
		}
	}
	vertexSet := map[mesh.VertexID]bool{v: true}
	for f := range faceSet {
		t.cache.RefreshFace(f)
		for _, vv := range t.mesh.Face(f).Vertices() {
			vertexSet[vv.ID] = true
		}
	}
	for vv := range vertexSet {
		t.cache.RefreshVertex(vv)
	}
}

// faceLayout lays out f's three corners in the plane the same way
// geometry.Cache.RefreshFace does (p0 at the origin, p1 along +X, p2 via
// the law of cosines), from t's own current edge lengths. Used by
// InsertVertex's face case and InsertCircumcenter to place a barycentric
// point before tracing a geodesic to it.
func (t *Triangulation) faceLayout(f mesh.Face) (p0, p1, p2 geom.Vector2, vids [3]mesh.VertexID) {
	hs := f.Halfedges()
	l0 := t.lengths.EdgeLength(hs[0].Edge().ID)
	l2 := t.lengths.EdgeLength(hs[2].Edge().ID)
	angle0 := t.cache.CornerAngle(hs[0].ID)
	p0 = geom.Vector2{}
	p1 = geom.Vector2{X: l0}
	p2 = geom.Vector2{X: math.Cos(angle0), Y: math.Sin(angle0)}.Mul(l2)
	vids = [3]mesh.VertexID{hs[0].Vertex().ID, hs[1].Vertex().ID, hs[2].Vertex().ID}
	return
}

// cotanDelaunayScore returns cotan(alpha) + cotan(beta), the two corner
// angles opposite e in its two incident faces. e must be interior.
func (t *Triangulation) cotanDelaunayScore(e mesh.EdgeID) float64 {
	h := t.mesh.Edge(e).Halfedge()
	ht := h.Twin()
	alpha := t.cache.CornerAngle(h.Prev().ID)
	beta := t.cache.CornerAngle(ht.Prev().ID)
	return cotan(alpha) + cotan(beta)
}

func cotan(theta float64) float64 {
	s, c := math.Sincos(theta)
	if math.Abs(s) < geom.EPS {
		if s >= 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return c / s
}

// IsDelaunay reports whether every non-boundary, non-marked, non-shared
// edge satisfies cotan(alpha)+cotan(beta) >= -eps.
func (t *Triangulation) IsDelaunay(eps float64) bool {
	for _, e := range t.mesh.Edges() {
		if e.IsBoundary() || t.IsMarked(e.ID) || t.coords.IsSharedEdge(e.ID) {
			continue
		}
		if t.cotanDelaunayScore(e.ID) < -eps {
			return false
		}
	}
	return true
}

// MinAngleDegrees returns the smallest corner angle over every face of M_B,
// in degrees.
func (t *Triangulation) MinAngleDegrees() float64 {
	min := math.Inf(1)
	for _, f := range t.mesh.Faces() {
		for _, h := range f.Halfedges() {
			a := t.cache.CornerAngle(h.ID)
			if a < min {
				min = a
			}
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min * 180 / math.Pi
}

// Verify checks the mesh's structural invariants and the normal-coordinate
// vertex-count identity (N2): |V_B| + sum(max(0,n(e))) must match the
// common subdivision's own count.
func (t *Triangulation) Verify() error {
	if err := t.mesh.Validate(); err != nil {
		return fmt.Errorf("intrinsic: Verify: %w", err)
	}
	cs, err := t.ExtractCommonSubdivision()
	if err != nil {
		return fmt.Errorf("intrinsic: Verify: %w", err)
	}
	want := len(t.mesh.Vertices())
	for _, e := range t.mesh.Edges() {
		if n := t.coords.N(e.ID); n > 0 {
			want += n
		}
	}
	if cs.VertexCount != want {
		return fmt.Errorf("intrinsic: Verify: common-subdivision vertex count %d does not match |V_B|+sum(max(0,n(e)))=%d", cs.VertexCount, want)
	}
	return nil
}

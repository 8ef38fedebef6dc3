package intrinsic

import (
	"fmt"

	"github.com/gridmesh/intrintri/mesh"
	"github.com/gridmesh/intrintri/surfacepoint"
	"github.com/gridmesh/intrintri/trace"
)

// MaxFlipSafeguard bounds FlipToDelaunay's total flip count. The queue-based
// algorithm is not proven to terminate absolutely (a pathological mesh could
// in principle cycle), so this backstops runaway work the way spec.md's own
// "safeguarded by a max-flip counter" wording calls for.
const MaxFlipSafeguard = 1_000_000

// Variant is the capability trait both this package's Triangulation and
// the lightweight signpost variant implement, so the trait-generic
// FlipToDelaunay defined in this file works over either representation
// unchanged. DelaunayRefine is a method of this package's Triangulation
// only.
type Variant interface {
	Mesh() *mesh.Mesh
	TraceHalfedge(h mesh.HalfedgeID) ([]surfacepoint.SurfacePoint, error)
	ExtractCommonSubdivision() (*trace.CommonSubdivision, error)
	EquivalentPointOnIntrinsic(p surfacepoint.SurfacePoint) (surfacepoint.SurfacePoint, error)
	EquivalentPointOnInput(v mesh.VertexID) surfacepoint.SurfacePoint
	FlipEdgeIfNotDelaunay(e mesh.EdgeID) (bool, error)
	InsertVertex(p surfacepoint.SurfacePoint) (mesh.VertexID, error)
	RemoveVertex(v mesh.VertexID) (bool, error)
	SplitEdge(he mesh.HalfedgeID, t float64) (mesh.VertexID, bool, error)
}

var _ Variant = (*Triangulation)(nil)

// FlipToDelaunay repeatedly flips non-Delaunay edges until none remain,
// using a deque seeded with every edge: each successful flip pushes the
// four edges bounding the flipped quadrilateral back onto the queue, since
// a flip can un-Delaunay a previously fine neighbor. Terminates when the
// queue empties or MaxFlipSafeguard flips have occurred. Written once
// against the Variant trait (only Mesh and FlipEdgeIfNotDelaunay), it
// runs unchanged over this package's own Triangulation and over
// signpost.Triangulation.
func FlipToDelaunay(t Variant) (flips int, err error) {
	m := t.Mesh()
	edges := m.Edges()
	queue := make([]mesh.EdgeID, 0, len(edges))
	queued := make(map[mesh.EdgeID]bool, len(edges))
	for _, e := range edges {
		queue = append(queue, e.ID)
		queued[e.ID] = true
	}

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		queued[e] = false

		if flips >= MaxFlipSafeguard {
			return flips, fmt.Errorf("intrinsic: FlipToDelaunay: exceeded safeguard of %d flips", MaxFlipSafeguard)
		}

		did, ferr := t.FlipEdgeIfNotDelaunay(e)
		if ferr != nil {
			return flips, ferr
		}
		if !did {
			continue
		}
		flips++

		h := m.Edge(e).Halfedge()
		for _, boundaryHe := range [4]mesh.Halfedge{h.Next(), h.Prev(), h.Twin().Next(), h.Twin().Prev()} {
			be := boundaryHe.Edge().ID
			if !queued[be] {
				queue = append(queue, be)
				queued[be] = true
			}
		}
	}
	return flips, nil
}

// FlipToDelaunay is this type's own entry point for the trait-generic
// function of the same name above.
func (t *Triangulation) FlipToDelaunay() (int, error) {
	return FlipToDelaunay(t)
}

// faceCircumradius returns f's circumradius in its own isometric layout.
func (t *Triangulation) faceCircumradius(f mesh.Face) float64 {
	p0, p1, p2, _ := t.faceLayout(f)
	cc := circumcenter2D(p0, p1, p2)
	return cc.Sub(p0).Norm()
}

// worstFace scans every non-boundary face for a Chew's-second-algorithm
// violation: minimum corner angle below angleThresh, or circumradius above
// circumradiusThresh. A minimum-angle violation at a corner sitting on an
// original input vertex whose own angle sum is already below angleThresh is
// exempt: that vertex's angle is an inherent feature of the input, not
// something any amount of circumcenter insertion can widen, and flagging it
// anyway would insert forever without ever clearing the criterion. Returns
// the first offending face found and which criterion it failed; ok is false
// once no face violates either bound.
func (t *Triangulation) worstFace(angleThresh, circumradiusThresh float64) (f mesh.Face, tooSmallAngle bool, ok bool) {
	for _, face := range t.mesh.Faces() {
		if face.IsBoundaryLoop() {
			continue
		}
		minAngle, minVertex := t.faceMinAngle(face)
		if minAngle < angleThresh && !t.isSmallAngleFeature(minVertex, angleThresh) {
			return face, true, true
		}
		if circumradiusThresh > 0 && t.faceCircumradius(face) > circumradiusThresh {
			return face, false, true
		}
	}
	return mesh.Face{}, false, false
}

// isSmallAngleFeature reports whether v is an original input vertex whose
// total incident angle is already below angleThresh, making it a fixed
// sharp-corner feature of the input rather than an artifact of the current
// intrinsic triangulation's refinement.
func (t *Triangulation) isSmallAngleFeature(v mesh.VertexID, angleThresh float64) bool {
	return t.IsOriginalVertex(v) && t.cache.AngleSum(v) < angleThresh
}

func (t *Triangulation) faceMinAngle(f mesh.Face) (minAngle float64, minVertex mesh.VertexID) {
	minAngle = -1
	for _, h := range f.Halfedges() {
		a := t.cache.CornerAngle(h.ID)
		if minAngle < 0 || a < minAngle {
			minAngle = a
			minVertex = h.Vertex().ID
		}
	}
	return minAngle, minVertex
}

// DelaunayRefine implements Chew's second algorithm over the intrinsic
// mesh: repeatedly locates a face whose minimum corner angle falls below
// angleThresh or whose circumradius exceeds circumradiusThresh (pass 0 to
// disable the circumradius criterion) and inserts its circumcenter,
// splitting a marked edge instead whenever the geodesic to the circumcenter
// would cross one. First flips the whole mesh to Delaunay, matching the
// algorithm's own precondition. Terminates when no face violates either
// criterion or maxInsertions insertions have occurred; angleThresh above
// 30 degrees is not guaranteed to terminate before maxInsertions, per
// Chew's algorithm's own well-known limit.
func (t *Triangulation) DelaunayRefine(angleThresh, circumradiusThresh float64, maxInsertions int) (insertions int, err error) {
	if _, ferr := t.FlipToDelaunay(); ferr != nil {
		return 0, ferr
	}

	for insertions < maxInsertions {
		face, _, violates := t.worstFace(angleThresh, circumradiusThresh)
		if !violates {
			return insertions, nil
		}
		did, ierr := t.InsertCircumcenter(face.ID)
		if ierr != nil {
			return insertions, ierr
		}
		if !did {
			return insertions, nil
		}
		insertions++
		if _, ferr := t.FlipToDelaunay(); ferr != nil {
			return insertions, ferr
		}
	}
	return insertions, nil
}

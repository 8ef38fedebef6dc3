// Package trace recovers the correspondence between the fixed input mesh
// M_A and a mutable intrinsic mesh M_B that overlays it, using the integer
// normal coordinates and roundabouts of the normalcoords package for the
// intrinsic-to-input direction (exact, combinatorial: the crossing count
// is read directly off n(e)), and a geometric unfolding walk -- the same
// face-strip idea, since no precomputed crossing count exists for that
// direction -- for the input-to-intrinsic direction. The unfolding itself
// reuses github.com/paulmach/go.geo's segment-intersection routines the
// way the teacher's own Vector package already does for line crossings.
package trace

import (
	"fmt"

	"github.com/paulmach/go.geo"

	"github.com/gridmesh/intrintri/geom"
	"github.com/gridmesh/intrintri/geometry"
	"github.com/gridmesh/intrintri/mesh"
	"github.com/gridmesh/intrintri/normalcoords"
	"github.com/gridmesh/intrintri/surfacepoint"
)

// maxWalkSteps bounds TraceInputEdge's search, which (unlike
// TraceIntrinsicHalfedge) has no a-priori crossing count and must detect
// its own termination geometrically.
const maxWalkSteps = 100000

// Tracer ties together the two meshes, the normal-coordinate field, and
// the per-vertex correspondence (loc) needed to answer correspondence
// queries in both directions.
type Tracer struct {
	inputMesh        *mesh.Mesh
	inputLengths     geometry.Lengths
	intrinsicMesh    *mesh.Mesh
	intrinsicLengths geometry.Lengths
	coords           *normalcoords.Coords
	loc              *mesh.VertexData[surfacepoint.SurfacePoint]
}

// New builds a Tracer. loc must already hold, for every M_B vertex that
// also exists in M_A, the identity SurfacePoint (AtVertex of the same
// index) -- the construction-time correspondence described in §3 -- and
// for every vertex introduced later by a split or insertion, whatever
// SurfacePoint the mutation layer assigned it.
func New(inputMesh *mesh.Mesh, inputLengths geometry.Lengths, intrinsicMesh *mesh.Mesh, intrinsicLengths geometry.Lengths, coords *normalcoords.Coords, loc *mesh.VertexData[surfacepoint.SurfacePoint]) *Tracer {
	return &Tracer{
		inputMesh:        inputMesh,
		inputLengths:     inputLengths,
		intrinsicMesh:    intrinsicMesh,
		intrinsicLengths: intrinsicLengths,
		coords:           coords,
		loc:              loc,
	}
}

func (tr *Tracer) Loc(v mesh.VertexID) surfacepoint.SurfacePoint       { return tr.loc.Get(v) }
func (tr *Tracer) SetLoc(v mesh.VertexID, p surfacepoint.SurfacePoint) { tr.loc.Set(v, p) }

// TraceIntrinsicHalfedge returns the ordered polyline of SurfacePoints on
// M_A along which h lies, starting at loc(h.tail) and ending at
// loc(h.head). Its length is max(0, n(h.edge)) + 2 (N2).
func (tr *Tracer) TraceIntrinsicHalfedge(h mesh.HalfedgeID) ([]surfacepoint.SurfacePoint, error) {
	hd := tr.intrinsicMesh.Halfedge(h)
	e := hd.Edge().ID
	tailSP := tr.loc.Get(hd.Vertex().ID)
	headSP := tr.loc.Get(hd.Tip().ID)

	if tr.coords.IsSharedEdge(e) {
		return []surfacepoint.SurfacePoint{tailSP, headSP}, nil
	}
	n := tr.coords.N(e)
	if n <= 0 {
		return []surfacepoint.SurfacePoint{tailSP, headSP}, nil
	}
	if tailSP.Kind() != surfacepoint.KindVertex {
		return nil, fmt.Errorf("trace: TraceIntrinsicHalfedge(%d) requires a vertex-located tail, got %v", h, tailSP)
	}
	vA := tailSP.Vertex()

	r := tr.coords.Roundabout(h)
	outs := tr.inputMesh.Vertex(vA).OutgoingHalfedges()
	if len(outs) == 0 {
		return nil, fmt.Errorf("trace: TraceIntrinsicHalfedge(%d): input vertex %d is isolated", h, vA)
	}
	idx := ((r % len(outs)) + len(outs)) % len(outs)
	cur := outs[idx]

	points := []surfacepoint.SurfacePoint{surfacepoint.AtVertex(vA)}
	if !cur.IsInterior() {
		return nil, fmt.Errorf("trace: TraceIntrinsicHalfedge(%d): roundabout %d selects a boundary wedge", h, r)
	}

	posA, posB, posThird, angleAtA := layoutFirstFace(tr.inputLengths, cur)
	origin := posA
	dir := geom.Vector2{X: 1}.Rotate(angleAtA / 2)
	enterHe := cur
	rayLen := probeLength(tr.inputLengths, tr.inputMesh)

	for step := 0; step < n; step++ {
		far := origin.Add(dir.Mul(rayLen))
		crossHe, crossPoint, crossT, newA, newB, newThird, err := unfoldStep(tr.inputLengths, enterHe, posA, posB, posThird, origin, dir, far, step == 0)
		if err != nil {
			return nil, fmt.Errorf("trace: TraceIntrinsicHalfedge(%d): %w", h, err)
		}
		points = append(points, mapCrossing(crossHe, crossT))
		origin, enterHe = crossPoint, crossHe.Twin()
		posA, posB, posThird = newA, newB, newThird
	}
	points = append(points, headSP)
	return points, nil
}

// TraceIntrinsicHalfedgeAt returns the single SurfacePoint on M_A located at
// parameter t (0 at h's tail, 1 at h's tip) along h's own geodesic length.
// It reuses TraceIntrinsicHalfedge's own face-strip unfolding and roundabout
// seeding, but in place of walking exactly n(e) crossings it shoots a
// single straight ray of length t*len(e) -- the same barycentric-membership
// termination Walk uses -- and interpolates within whichever input face it
// lands in. This is the splitEdge mutation's way of locating its new
// vertex's position on M_A without an embedding.
func (tr *Tracer) TraceIntrinsicHalfedgeAt(h mesh.HalfedgeID, t float64) (surfacepoint.SurfacePoint, error) {
	hd := tr.intrinsicMesh.Halfedge(h)
	e := hd.Edge().ID
	tailSP := tr.loc.Get(hd.Vertex().ID)
	headSP := tr.loc.Get(hd.Tip().ID)
	if t <= 1e-12 {
		return tailSP, nil
	}
	if t >= 1-1e-12 {
		return headSP, nil
	}

	if tailSP.Kind() != surfacepoint.KindVertex {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: TraceIntrinsicHalfedgeAt(%d) requires a vertex-located tail, got %v", h, tailSP)
	}
	vA := tailSP.Vertex()
	r := tr.coords.Roundabout(h)
	outs := tr.inputMesh.Vertex(vA).OutgoingHalfedges()
	if len(outs) == 0 {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: TraceIntrinsicHalfedgeAt(%d): input vertex %d is isolated", h, vA)
	}
	idx := ((r % len(outs)) + len(outs)) % len(outs)
	cur := outs[idx]

	if tr.coords.IsSharedEdge(e) {
		return mapCrossing(cur, t), nil
	}

	n := tr.coords.N(e)
	if n <= 0 {
		if t < 0.5 {
			return tailSP, nil
		}
		return headSP, nil
	}
	if !cur.IsInterior() {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: TraceIntrinsicHalfedgeAt(%d): roundabout %d selects a boundary wedge", h, r)
	}

	totalLen := tr.intrinsicLengths.EdgeLength(e)
	posA, posB, posThird, angleAtA := layoutFirstFace(tr.inputLengths, cur)
	origin := posA
	dir := geom.Vector2{X: 1}.Rotate(angleAtA / 2)
	targetPoint := origin.Add(dir.Mul(t * totalLen))
	enterHe := cur
	rayLen := probeLength(tr.inputLengths, tr.inputMesh)

	for step := 0; step <= n; step++ {
		vIDs := [3]mesh.VertexID{enterHe.Vertex().ID, enterHe.Tip().ID, enterHe.Next().Tip().ID}
		w0, w1, w2 := geom.BarycentricOfPoint(posA, posB, posThird, targetPoint)
		if w0 >= -1e-9 && w1 >= -1e-9 && w2 >= -1e-9 {
			bary := toFaceBarycentric(enterHe.Face(), vIDs, [3]float64{w0, w1, w2})
			sp := surfacepoint.AtFace(enterHe.Face().ID, bary)
			if reduced, ok := surfacepoint.ReduceToVertex(tr.inputMesh, sp, 1e-9); ok {
				return reduced, nil
			}
			return sp, nil
		}
		if step == n {
			break
		}
		far := origin.Add(dir.Mul(rayLen))
		crossHe, crossPoint, _, newA, newB, newThird, err := unfoldStep(tr.inputLengths, enterHe, posA, posB, posThird, origin, dir, far, step == 0)
		if err != nil {
			return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: TraceIntrinsicHalfedgeAt(%d): %w", h, err)
		}
		origin, enterHe = crossPoint, crossHe.Twin()
		posA, posB, posThird = newA, newB, newThird
	}
	return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: TraceIntrinsicHalfedgeAt(%d): target point not reached within %d crossings", h, n)
}

// TraceInputEdge returns the ordered polyline of SurfacePoints on the
// intrinsic mesh M_B along which input edge eA lies -- the combinatorial
// inverse of TraceIntrinsicHalfedge. It starts from the intrinsic
// half-edge at eA.tail whose roundabout matches eA's own position in its
// tail's input rotation, then walks M_B's face strip with the same
// unfolding technique, terminating geometrically (no crossing count is
// available a priori for this direction) once the walk reaches a face
// incident to eA's other endpoint.
func (tr *Tracer) TraceInputEdge(eA mesh.EdgeID) ([]surfacepoint.SurfacePoint, error) {
	heA := tr.inputMesh.Edge(eA).Halfedge()
	vA := heA.Vertex().ID
	vATip := heA.Tip().ID

	outsA := tr.inputMesh.Vertex(vA).OutgoingHalfedges()
	idx := -1
	for i, o := range outsA {
		if o.ID == heA.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("trace: TraceInputEdge(%d): halfedge missing from its own tail's rotation", eA)
	}

	// Vertex IDs are shared between M_A and M_B for every vertex that has
	// not been introduced by a later split/insertion (§3's "loc is the
	// identity on vertices" at construction time).
	vB := mesh.VertexID(vA)
	outsB := tr.intrinsicMesh.Vertex(vB).OutgoingHalfedges()
	var cur mesh.Halfedge
	found := false
	for _, o := range outsB {
		if o.IsInterior() && tr.coords.Roundabout(o.ID) == idx {
			cur = o
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("trace: TraceInputEdge(%d): no half-edge at intrinsic vertex %d carries roundabout %d", eA, vB, idx)
	}

	points := []surfacepoint.SurfacePoint{surfacepoint.AtVertex(vB)}
	if containsVertex(cur.Face(), vATip) {
		points = append(points, surfacepoint.AtVertex(vATip))
		return points, nil
	}

	posA, posB, posThird, angleAtA := layoutFirstFace(tr.intrinsicLengths, cur)
	origin := posA
	dir := geom.Vector2{X: 1}.Rotate(angleAtA / 2)
	enterHe := cur
	rayLen := probeLength(tr.intrinsicLengths, tr.intrinsicMesh)

	for step := 0; ; step++ {
		if step > maxWalkSteps {
			return nil, fmt.Errorf("trace: TraceInputEdge(%d): walk exceeded %d steps without reaching vertex %d", eA, maxWalkSteps, vATip)
		}
		far := origin.Add(dir.Mul(rayLen))
		crossHe, crossPoint, crossT, newA, newB, newThird, err := unfoldStep(tr.intrinsicLengths, enterHe, posA, posB, posThird, origin, dir, far, step == 0)
		if err != nil {
			return nil, fmt.Errorf("trace: TraceInputEdge(%d): %w", eA, err)
		}
		points = append(points, mapCrossing(crossHe, crossT))
		twin := crossHe.Twin()
		if containsVertex(twin.Face(), vATip) {
			points = append(points, surfacepoint.AtVertex(vATip))
			return points, nil
		}
		origin, enterHe = crossPoint, twin
		posA, posB, posThird = newA, newB, newThird
	}
}

// BlockedEdgeError is returned by Walk when blocked halts the walk upon
// entering a face it flags, naming the edge blocked returned.
type BlockedEdgeError struct{ Edge mesh.EdgeID }

func (e *BlockedEdgeError) Error() string {
	return fmt.Sprintf("trace: Walk blocked at edge %d", e.Edge)
}

// Walk shoots a straight geodesic of the given length across m, starting at
// startHe's tail in the direction that makes angleOffset with startHe
// itself, and returns the SurfacePoint it lands on. It underlies
// insertCircumcenter and moveVertex's geodesic tracing -- the same unfolding
// technique as TraceIntrinsicHalfedge/TraceInputEdge, generalized from an
// integer crossing count to a continuous target length, since neither of
// those callers has a precomputed crossing count to walk against.
//
// blocked is consulted with the face the walk is currently inside (the
// starting face included) before every step; if it reports an edge to halt
// on, Walk stops immediately and returns a *BlockedEdgeError naming it. This
// is insertCircumcenter's "a marked edge stands in the geodesic's way" exit
// -- a concern this package has no marked-edge concept of its own, so the
// caller supplies the predicate. Pass nil to never halt early.
func Walk(lengths geometry.Lengths, m *mesh.Mesh, startHe mesh.HalfedgeID, angleOffset, length float64, blocked func(mesh.FaceID) (mesh.EdgeID, bool)) (surfacepoint.SurfacePoint, error) {
	h := m.Halfedge(startHe)
	if !h.IsInterior() {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: Walk requires an interior starting half-edge")
	}
	posA, posB, posThird, _ := layoutFirstFace(lengths, h)
	dir := posB.Sub(posA).Normalize().Rotate(angleOffset)
	origin := posA
	enterHe := h
	remaining := length

	for step := 0; ; step++ {
		if step > maxWalkSteps {
			return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: Walk exceeded %d steps", maxWalkSteps)
		}
		if blocked != nil {
			if e, halt := blocked(enterHe.Face().ID); halt {
				return surfacepoint.SurfacePoint{}, &BlockedEdgeError{Edge: e}
			}
		}
		target := origin.Add(dir.Mul(remaining))
		vIDs := [3]mesh.VertexID{enterHe.Vertex().ID, enterHe.Tip().ID, enterHe.Next().Tip().ID}
		w0, w1, w2 := geom.BarycentricOfPoint(posA, posB, posThird, target)
		if w0 >= -1e-9 && w1 >= -1e-9 && w2 >= -1e-9 {
			bary := toFaceBarycentric(enterHe.Face(), vIDs, [3]float64{w0, w1, w2})
			sp := surfacepoint.AtFace(enterHe.Face().ID, bary)
			if reduced, ok := surfacepoint.ReduceToVertex(m, sp, 1e-9); ok {
				return reduced, nil
			}
			return sp, nil
		}
		crossHe, crossPoint, crossT, newA, newB, newThird, err := unfoldStep(lengths, enterHe, posA, posB, posThird, origin, dir, target, step == 0)
		if err != nil {
			return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: Walk: %w", err)
		}
		remaining -= crossPoint.Sub(origin).Norm()
		if remaining <= 1e-9 {
			return mapCrossing(crossHe, crossT), nil
		}
		origin, enterHe = crossPoint, crossHe.Twin()
		posA, posB, posThird = newA, newB, newThird
	}
}

// toFaceBarycentric reorders the three weights computed against
// (enterHe.Vertex(), enterHe.Tip(), enterHe.Next().Tip()) -- whichever
// rotational order the walk happened to enter the face through -- into f's
// own canonical Vertices() order, which is the ordering SurfacePoint's
// Barycentric contract requires.
func toFaceBarycentric(f mesh.Face, vIDs [3]mesh.VertexID, w [3]float64) surfacepoint.Barycentric {
	var out [3]float64
	for i, cv := range f.Vertices() {
		for j, vid := range vIDs {
			if vid == cv.ID {
				out[i] = w[j]
			}
		}
	}
	return surfacepoint.Barycentric{A: out[0], B: out[1], C: out[2]}
}

func containsVertex(f mesh.Face, v mesh.VertexID) bool {
	if f.IsBoundaryLoop() {
		return false
	}
	for _, fv := range f.Vertices() {
		if fv.ID == v {
			return true
		}
	}
	return false
}

// mapCrossing locates a crossing point on he's edge, expressed at
// parameter t relative to he's own direction, as a SurfacePoint relative
// to the edge's canonical (lower-numbered) half-edge direction.
func mapCrossing(he mesh.Halfedge, t float64) surfacepoint.SurfacePoint {
	canonical := he.Edge().Halfedge()
	if canonical.ID != he.ID {
		t = 1 - t
	}
	return surfacepoint.AtEdge(he.Edge().ID, t)
}

// layoutFirstFace places cur.Vertex() at the origin and cur along +X,
// computing the third vertex of cur's face via the law of cosines. It
// returns the angle at the origin between cur and the edge to the third
// vertex, from which the caller derives a bisector probe direction -- the
// exact sub-wedge angle a roundabout index leaves through isn't
// recoverable from the integer index alone (see DESIGN.md).
func layoutFirstFace(lengths geometry.Lengths, cur mesh.Halfedge) (posA, posB, posThird geom.Vector2, angleAtA float64) {
	lenCur := lengths.EdgeLength(cur.Edge().ID)
	lenThird := lengths.EdgeLength(cur.Prev().Edge().ID)
	lenOpp := lengths.EdgeLength(cur.Next().Edge().ID)
	angleAtA = geom.LawOfCosinesAngle(lenCur, lenThird, lenOpp)
	posA = geom.Vector2{}
	posB = geom.Vector2{X: lenCur}
	posThird = geom.Vector2{X: 1}.Rotate(angleAtA).Mul(lenThird)
	return
}

// unfoldStep finds the edge of the current face (posA, posB, posThird,
// entered through enterHe directed posA->posB) that the segment from
// origin to far crosses, and computes the unfolded layout of the face
// across that edge. When first is true (the walk has just left a vertex
// rather than crossed into a face), only the edge opposite that vertex
// (posB-posThird) is a legal exit.
func unfoldStep(lengths geometry.Lengths, enterHe mesh.Halfedge, posA, posB, posThird, origin, dir, far geom.Vector2, first bool) (crossHe mesh.Halfedge, crossPoint geom.Vector2, crossT float64, newA, newB, newThird geom.Vector2, err error) {
	var tailPos, tipPos geom.Vector2
	ok := false
	if !first {
		if p, t, hit := trySegment(origin, far, posThird, posA); hit {
			crossHe, crossPoint, crossT = enterHe.Prev(), p, t
			tailPos, tipPos = posThird, posA
			ok = true
		}
	}
	if !ok {
		if p, t, hit := trySegment(origin, far, posB, posThird); hit {
			crossHe, crossPoint, crossT = enterHe.Next(), p, t
			tailPos, tipPos = posB, posThird
			ok = true
		}
	}
	if !ok {
		err = fmt.Errorf("unfolding walk found no exit edge")
		return
	}

	twin := crossHe.Twin()
	if !twin.IsInterior() {
		err = fmt.Errorf("unfolding walk exited through a boundary edge")
		return
	}

	newA, newB = tipPos, tailPos
	lenAB := lengths.EdgeLength(crossHe.Edge().ID)
	lenAThird := lengths.EdgeLength(twin.Prev().Edge().ID)
	lenBThird := lengths.EdgeLength(twin.Next().Edge().ID)
	angleA := geom.LawOfCosinesAngle(lenAB, lenAThird, lenBThird)
	dirAB := newB.Sub(newA).Normalize()
	cand1 := newA.Add(dirAB.Rotate(angleA).Mul(lenAThird))
	cand2 := newA.Add(dirAB.Rotate(-angleA).Mul(lenAThird))

	oldThird := posThird
	oldSign := sign(geom.Cross2(newB.Sub(newA), oldThird.Sub(newA)))
	newThird = cand1
	if sign(geom.Cross2(newB.Sub(newA), cand1.Sub(newA))) == oldSign {
		newThird = cand2
	}
	return
}

func sign(x float64) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}

// trySegment intersects segment (rayFrom, rayTo) against segment
// (segFrom, segTo) via go.geo, following the teacher's own
// LineIntersection3 -- a geo.Path of two points tested against a
// geo.Line -- rather than a hand-rolled determinant.
func trySegment(rayFrom, rayTo, segFrom, segTo geom.Vector2) (geom.Vector2, float64, bool) {
	path := geo.NewPath()
	path.Push(geo.NewPoint(rayFrom.X, rayFrom.Y))
	path.Push(geo.NewPoint(rayTo.X, rayTo.Y))
	line := geo.NewLine(geo.NewPoint(segFrom.X, segFrom.Y), geo.NewPoint(segTo.X, segTo.Y))
	if !path.Intersects(line) {
		return geom.Vector2{}, 0, false
	}
	points, _ := path.Intersection(line)
	if len(points) == 0 {
		return geom.Vector2{}, 0, false
	}
	p := geom.Vector2{X: points[0][0], Y: points[0][1]}
	seg := segTo.Sub(segFrom)
	segLen2 := geom.Dot2(seg, seg)
	if segLen2 < geom.EPS {
		return geom.Vector2{}, 0, false
	}
	t := geom.Dot2(p.Sub(segFrom), seg) / segLen2
	if t < -1e-6 || t > 1+1e-6 {
		return geom.Vector2{}, 0, false
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return p, t, true
}

// probeLength returns a ray length generous enough to pass clean through
// any single face of m, derived from the sum of its edge lengths rather
// than a magic constant.
func probeLength(lengths geometry.Lengths, m *mesh.Mesh) float64 {
	total := 0.0
	for _, e := range m.Edges() {
		total += lengths.EdgeLength(e.ID)
	}
	return total*4 + 1
}

// CommonSubdivision is the planar overlay of every intrinsic edge's trace
// onto the input mesh. VertexCount matches the invariant
// |V_B| + Σ_{e∈E_B} max(0, n(e)); enumerating the overlay's own faces (the
// connected regions cut out by both wireframes together) is not built here,
// only its vertex count and per-edge traces.
type CommonSubdivision struct {
	VertexCount int
	EdgeTraces  map[mesh.EdgeID][]surfacepoint.SurfacePoint
}

// ExtractCommonSubdivision traces every intrinsic edge and assembles the
// overlay's vertex/edge bookkeeping.
func (tr *Tracer) ExtractCommonSubdivision() (*CommonSubdivision, error) {
	cs := &CommonSubdivision{EdgeTraces: make(map[mesh.EdgeID][]surfacepoint.SurfacePoint)}
	cs.VertexCount = len(tr.intrinsicMesh.Vertices())
	for _, e := range tr.intrinsicMesh.Edges() {
		if n := tr.coords.N(e.ID); n > 0 {
			cs.VertexCount += n
		}
		pts, err := tr.TraceIntrinsicHalfedge(e.Halfedge().ID)
		if err != nil {
			return nil, fmt.Errorf("trace: ExtractCommonSubdivision: edge %d: %w", e.ID, err)
		}
		cs.EdgeTraces[e.ID] = pts
	}
	return cs, nil
}

// LocateFacePoint returns the SurfacePoint on M_A corresponding to the
// point at barycentric coordinates b inside intrinsic face f. It seeds an
// input-mesh unfolding the same way TraceIntrinsicHalfedge does -- from
// f's first corner's roundabout at its matching input vertex -- but aims
// the ray at an arbitrary interior direction instead of walking a
// predetermined edge, rescaling the face's own local angle at that corner
// into the input wedge's angle the way geometry.Cache's per-vertex tangent
// space rescales a cone angle sum to 2π. This is insertVertex's way of
// locating a face-interior insertion on M_A without an embedding.
func (tr *Tracer) LocateFacePoint(f mesh.FaceID, b surfacepoint.Barycentric) (surfacepoint.SurfacePoint, error) {
	face := tr.intrinsicMesh.Face(f)
	hs := face.Halfedges()
	vs := face.Vertices()
	if len(hs) != 3 {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: LocateFacePoint(%d): face is not a triangle", f)
	}
	corner0SP := tr.loc.Get(vs[0].ID)
	if corner0SP.Kind() != surfacepoint.KindVertex {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: LocateFacePoint(%d): corner 0 is not vertex-located", f)
	}
	vA := corner0SP.Vertex()

	l0 := tr.intrinsicLengths.EdgeLength(hs[0].Edge().ID)
	l1 := tr.intrinsicLengths.EdgeLength(hs[1].Edge().ID)
	l2 := tr.intrinsicLengths.EdgeLength(hs[2].Edge().ID)
	angle0 := geom.LawOfCosinesAngle(l0, l2, l1)
	p0 := geom.Vector2{}
	p1 := geom.Vector2{X: l0}
	p2 := geom.Vector2{X: 1}.Rotate(angle0).Mul(l2)
	target := p0.Mul(b.A).Add(p1.Mul(b.B)).Add(p2.Mul(b.C))

	length := target.Sub(p0).Norm()
	if length <= geom.EPS {
		return corner0SP, nil
	}
	localAngle := target.Sub(p0).Arg()

	r := tr.coords.Roundabout(hs[0].ID)
	outs := tr.inputMesh.Vertex(vA).OutgoingHalfedges()
	if len(outs) == 0 {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: LocateFacePoint(%d): input vertex %d is isolated", f, vA)
	}
	idx := ((r % len(outs)) + len(outs)) % len(outs)
	cur := outs[idx]
	if !cur.IsInterior() {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: LocateFacePoint(%d): roundabout %d selects a boundary wedge", f, r)
	}

	posA, posB, posThird, angleAtA := layoutFirstFace(tr.inputLengths, cur)
	ratio := 1.0
	if angle0 > geom.EPS {
		ratio = angleAtA / angle0
	}
	origin := posA
	dir := geom.Vector2{X: 1}.Rotate(localAngle * ratio)
	targetPoint := origin.Add(dir.Mul(length))
	enterHe := cur
	rayLen := probeLength(tr.inputLengths, tr.inputMesh)

	for step := 0; ; step++ {
		if step > maxWalkSteps {
			return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: LocateFacePoint(%d): walk exceeded %d steps", f, maxWalkSteps)
		}
		vIDs := [3]mesh.VertexID{enterHe.Vertex().ID, enterHe.Tip().ID, enterHe.Next().Tip().ID}
		w0, w1, w2 := geom.BarycentricOfPoint(posA, posB, posThird, targetPoint)
		if w0 >= -1e-9 && w1 >= -1e-9 && w2 >= -1e-9 {
			bary := toFaceBarycentric(enterHe.Face(), vIDs, [3]float64{w0, w1, w2})
			sp := surfacepoint.AtFace(enterHe.Face().ID, bary)
			if reduced, ok := surfacepoint.ReduceToVertex(tr.inputMesh, sp, 1e-9); ok {
				return reduced, nil
			}
			return sp, nil
		}
		far := origin.Add(dir.Mul(rayLen))
		crossHe, crossPoint, _, newA, newB, newThird, err := unfoldStep(tr.inputLengths, enterHe, posA, posB, posThird, origin, dir, far, step == 0)
		if err != nil {
			return surfacepoint.SurfacePoint{}, fmt.Errorf("trace: LocateFacePoint(%d): %w", f, err)
		}
		origin, enterHe = crossPoint, crossHe.Twin()
		posA, posB, posThird = newA, newB, newThird
	}
}

// PathFromPoints resolves each SurfacePoint located on m against pos's
// vertex positions and returns the corresponding polyline as a *geo.Path
// (projected to the X/Z plane, since go.geo is a 2D library), for
// diagnostics and any other consumer that wants go.geo's bounding-box or
// path-intersection utilities instead of re-deriving them.
func PathFromPoints(m *mesh.Mesh, pos *geometry.InputGeometry, points []surfacepoint.SurfacePoint) (*geo.Path, error) {
	if !pos.HasPositions() {
		return nil, fmt.Errorf("trace: PathFromPoints requires vertex positions to be enabled")
	}
	path := geo.NewPath()
	for _, p := range points {
		var v3 geom.Vector3
		switch p.Kind() {
		case surfacepoint.KindVertex:
			v3 = pos.VertexPosition(p.Vertex())
		case surfacepoint.KindEdge:
			e, t := p.Edge()
			h := m.Edge(e).Halfedge()
			a := pos.VertexPosition(h.Vertex().ID)
			b := pos.VertexPosition(h.Tip().ID)
			v3 = a.Mul(1 - t).Add(b.Mul(t))
		case surfacepoint.KindFace:
			f, b := p.Face()
			vs := m.Face(f).Vertices()
			v3 = pos.VertexPosition(vs[0].ID).Mul(b.A).Add(pos.VertexPosition(vs[1].ID).Mul(b.B)).Add(pos.VertexPosition(vs[2].ID).Mul(b.C))
		}
		path.Push(geo.NewPoint(v3.X, v3.Z))
	}
	return path, nil
}

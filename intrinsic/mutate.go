package intrinsic

import (
	"errors"
	"fmt"

	"github.com/gridmesh/intrintri/geom"
	"github.com/gridmesh/intrintri/mesh"
	"github.com/gridmesh/intrintri/surfacepoint"
	"github.com/gridmesh/intrintri/trace"
)

// geometricFlip performs the length and normal-coordinate updates a flip of
// e requires, strictly before the combinatorial mesh.Flip(e) itself -- both
// normalcoords.FlipUpdate's own precondition and this package's length
// update need the quadrilateral's pre-flip faces still in place. If
// mesh.Flip then refuses a flip this package's own CanFlip check already
// cleared, the two halves of the update have gone out of sync with the
// mesh and the triangulation poisons itself rather than silently drifting.
func (t *Triangulation) geometricFlip(e mesh.EdgeID) error {
	h1 := t.mesh.Edge(e).Halfedge()
	h4 := h1.Twin()
	h2 := h1.Next()
	h3 := h2.Next()
	h5 := h4.Next()
	h6 := h5.Next()

	lenAB := t.lengths.EdgeLength(e)
	lenBC := t.lengths.EdgeLength(h2.Edge().ID)
	lenCA := t.lengths.EdgeLength(h3.Edge().ID)
	lenAD := t.lengths.EdgeLength(h5.Edge().ID)
	lenDB := t.lengths.EdgeLength(h6.Edge().ID)
	newLen := flippedLength(lenAB, lenCA, lenBC, lenAD, lenDB)

	if err := t.coords.FlipUpdate(e); err != nil {
		return err
	}
	t.lengths.SetLength(e, newLen)
	if !t.mesh.Flip(e) {
		Poison(fmt.Errorf("intrinsic: geometricFlip(%d): mesh-level flip refused after coordinates were already committed", e))
	}
	return nil
}

// FlipEdgeIfNotDelaunay flips e iff cotan(alpha)+cotan(beta) is strictly
// negative (within triangleTestEPS) and e is combinatorially flippable,
// not marked, and not a shared edge. Returns whether a flip occurred;
// geometric infeasibility (any of those conditions failing) is reported as
// (false, nil), never an error.
func (t *Triangulation) FlipEdgeIfNotDelaunay(e mesh.EdgeID) (didFlip bool, err error) {
	defer t.guard(&err)
	if t.poisonErr != nil {
		return false, t.poisonErr
	}
	if t.IsMarked(e) || t.coords.IsSharedEdge(e) || t.mesh.Edge(e).IsBoundary() || !t.mesh.CanFlip(e) {
		return false, nil
	}
	if t.cotanDelaunayScore(e) >= -triangleTestEPS {
		return false, nil
	}
	if err := t.geometricFlip(e); err != nil {
		return false, err
	}
	return true, nil
}

// FlipEdgeIfPossible flips e whenever it is combinatorially flippable, not
// marked, and not a shared edge, skipping the Delaunay test entirely.
func (t *Triangulation) FlipEdgeIfPossible(e mesh.EdgeID) (didFlip bool, err error) {
	defer t.guard(&err)
	if t.poisonErr != nil {
		return false, t.poisonErr
	}
	if t.IsMarked(e) || t.coords.IsSharedEdge(e) || !t.mesh.CanFlip(e) {
		return false, nil
	}
	if err := t.geometricFlip(e); err != nil {
		return false, err
	}
	return true, nil
}

// SplitEdge introduces a new vertex at parameter t (strictly between the
// edge's two endpoints) along he, updating lengths, normal coordinates, the
// new vertex's location on M_A, and the geometry cache. t outside (0,1) is
// a caller bug, reported as a PreconditionError rather than attempted.
func (t *Triangulation) SplitEdge(he mesh.HalfedgeID, tParam float64) (newV mesh.VertexID, ok bool, err error) {
	defer t.guard(&err)
	if t.poisonErr != nil {
		return mesh.InvalidVertex, false, t.poisonErr
	}
	if tParam <= 0 || tParam >= 1 {
		return mesh.InvalidVertex, false, newPreconditionError("SplitEdge", "t must lie strictly inside (0,1)")
	}

	h := t.mesh.Halfedge(he)
	e := h.Edge().ID
	ht := h.Twin()

	loc, lerr := t.tracer.TraceIntrinsicHalfedgeAt(he, tParam)
	if lerr != nil {
		return mesh.InvalidVertex, false, fmt.Errorf("intrinsic: SplitEdge: %w", lerr)
	}

	lenAB := t.lengths.EdgeLength(e)
	var lenCA, lenBC, lenAD, lenDB float64
	apexC, apexD := mesh.InvalidVertex, mesh.InvalidVertex
	if h.IsInterior() {
		apexC = h.Next().Next().Vertex().ID
		lenCA = t.lengths.EdgeLength(h.Prev().Edge().ID)
		lenBC = t.lengths.EdgeLength(h.Next().Edge().ID)
	}
	if ht.IsInterior() {
		apexD = ht.Next().Next().Vertex().ID
		lenAD = t.lengths.EdgeLength(ht.Next().Edge().ID)
		lenDB = t.lengths.EdgeLength(ht.Prev().Edge().ID)
	}

	prep := t.coords.PrepareSplit(he, tParam)
	v, he1, he2 := t.mesh.SplitEdge(he)
	t.coords.CommitSplit(prep, v, he1, he2)

	t.lengths.SetLength(t.mesh.Halfedge(he1).Edge().ID, tParam*lenAB)
	t.lengths.SetLength(t.mesh.Halfedge(he2).Edge().ID, (1-tParam)*lenAB)
	for _, hd := range t.mesh.Vertex(v).OutgoingHalfedges() {
		if hd.ID == he1 || hd.ID == he2 {
			continue
		}
		switch hd.Tip().ID {
		case apexC:
			t.lengths.SetLength(hd.Edge().ID, splitSpokeLength(lenAB, tParam, lenCA, lenBC, false))
		case apexD:
			t.lengths.SetLength(hd.Edge().ID, splitSpokeLength(lenAB, tParam, lenAD, lenDB, true))
		}
	}

	t.loc.Set(v, loc)
	t.refreshCache(v)
	return v, true, nil
}

// splitEdgeAtMidpoint is insertCircumcenter's "segment split" fallback: it
// splits e at its own midpoint regardless of marking, since the whole point
// of that fallback is to refine a marked edge the geodesic ran into.
func (t *Triangulation) splitEdgeAtMidpoint(e mesh.EdgeID) (mesh.VertexID, error) {
	v, _, err := t.SplitEdge(t.mesh.Edge(e).Halfedge().ID, 0.5)
	return v, err
}

// insertInFace introduces a new vertex interior to intrinsic face f at
// barycentric coordinates b, wiring its three spokes' lengths and normal
// coordinates and locating it on M_A.
func (t *Triangulation) insertInFace(f mesh.FaceID, b surfacepoint.Barycentric) (newV mesh.VertexID, err error) {
	defer t.guard(&err)
	if t.poisonErr != nil {
		return mesh.InvalidVertex, t.poisonErr
	}
	face := t.mesh.Face(f)
	if face.IsBoundaryLoop() {
		return mesh.InvalidVertex, newPreconditionError("InsertVertex", "face is a boundary loop")
	}

	loc, lerr := t.tracer.LocateFacePoint(f, b)
	if lerr != nil {
		return mesh.InvalidVertex, fmt.Errorf("intrinsic: InsertVertex: %w", lerr)
	}

	p0, p1, p2, vids := t.faceLayout(face)
	point := p0.Mul(b.A).Add(p1.Mul(b.B)).Add(p2.Mul(b.C))
	spoke := map[mesh.VertexID]float64{
		vids[0]: point.Sub(p0).Norm(),
		vids[1]: point.Sub(p1).Norm(),
		vids[2]: point.Sub(p2).Norm(),
	}

	prep := t.coords.PrepareInsertVertex(f)
	v, ok := t.mesh.InsertVertexInFace(f)
	if !ok {
		Poison(fmt.Errorf("intrinsic: insertInFace(%d): mesh-level insertion refused for a non-boundary face", f))
	}
	t.coords.CommitInsertVertex(prep, v)

	for _, hd := range t.mesh.Vertex(v).OutgoingHalfedges() {
		if l, ok := spoke[hd.Tip().ID]; ok {
			t.lengths.SetLength(hd.Edge().ID, l)
		}
	}

	t.loc.Set(v, loc)
	t.refreshCache(v)
	return v, nil
}

// InsertVertex introduces v at the location p describes (on the intrinsic
// mesh: a Vertex point is a no-op returning the existing vertex, an Edge
// point delegates to SplitEdge, a Face point inserts interior to that
// face).
func (t *Triangulation) InsertVertex(p surfacepoint.SurfacePoint) (v mesh.VertexID, err error) {
	if t.poisonErr != nil {
		return mesh.InvalidVertex, t.poisonErr
	}
	switch p.Kind() {
	case surfacepoint.KindVertex:
		return p.Vertex(), nil
	case surfacepoint.KindEdge:
		e, tt := p.Edge()
		he := t.mesh.Edge(e).Halfedge().ID
		nv, _, serr := t.SplitEdge(he, tt)
		return nv, serr
	case surfacepoint.KindFace:
		f, b := p.Face()
		return t.insertInFace(f, b)
	default:
		return mesh.InvalidVertex, fmt.Errorf("intrinsic: InsertVertex: unrecognized surface point kind")
	}
}

// InsertCircumcenter computes f's circumcenter in its own isometric layout
// and traces a geodesic to it from f's first corner (the tail of
// f.Halfedge()), the point trace.Walk starts from, not from f's barycenter.
// If any face that geodesic
// visits, f itself included, carries a marked edge, that marked edge is
// split at its midpoint instead ("segment split") and no vertex is placed
// at the circumcenter. Returns whether any mutation occurred.
func (t *Triangulation) InsertCircumcenter(f mesh.FaceID) (didInsert bool, err error) {
	defer t.guard(&err)
	if t.poisonErr != nil {
		return false, t.poisonErr
	}
	face := t.mesh.Face(f)
	if face.IsBoundaryLoop() {
		return false, newPreconditionError("InsertCircumcenter", "face is a boundary loop")
	}

	p0, p1, p2, _ := t.faceLayout(face)
	cc := circumcenter2D(p0, p1, p2)
	toCC := cc.Sub(p0)
	length := toCC.Norm()
	if length <= geom.EPS {
		return false, nil
	}
	angleOffset := toCC.Arg()

	blocked := func(fid mesh.FaceID) (mesh.EdgeID, bool) {
		for _, h := range t.mesh.Face(fid).Halfedges() {
			if t.IsMarked(h.Edge().ID) {
				return h.Edge().ID, true
			}
		}
		return mesh.InvalidEdge, false
	}

	sp, werr := trace.Walk(t.lengths, t.mesh, face.Halfedge().ID, angleOffset, length, blocked)
	if werr != nil {
		var be *trace.BlockedEdgeError
		if errors.As(werr, &be) {
			if _, serr := t.splitEdgeAtMidpoint(be.Edge); serr != nil {
				return false, serr
			}
			return true, nil
		}
		return false, fmt.Errorf("intrinsic: InsertCircumcenter: %w", werr)
	}

	if sp.Kind() != surfacepoint.KindFace {
		if _, ierr := t.InsertVertex(sp); ierr != nil {
			return false, ierr
		}
		return true, nil
	}
	faceSP, bary := sp.Face()
	if _, ierr := t.insertInFace(faceSP, bary); ierr != nil {
		return false, ierr
	}
	return true, nil
}

// firstInteriorSpoke returns an interior outgoing half-edge of v together
// with that half-edge's own angle within v's cache-normalized tangent
// space, so a caller holding a direction expressed in that same tangent
// space can convert it to the angleOffset trace.Walk wants (relative to the
// returned half-edge itself).
func (t *Triangulation) firstInteriorSpoke(v mesh.VertexID) (mesh.Halfedge, float64, error) {
	for _, h := range t.mesh.Vertex(v).OutgoingHalfedges() {
		if h.IsInterior() {
			return h, t.cache.HalfedgeVectorInVertex(h.ID).Arg(), nil
		}
	}
	return mesh.Halfedge{}, 0, fmt.Errorf("intrinsic: vertex %d has no interior outgoing half-edge", v)
}

// equivalentInputLocation resolves sp (a SurfacePoint expressed against the
// intrinsic mesh, as trace.Walk returns) into the corresponding location on
// M_A, by reusing the already-known loc of the intrinsic element sp sits
// on: the one true source of that correspondence short of a fresh trace.
func (t *Triangulation) equivalentInputLocation(sp surfacepoint.SurfacePoint) (surfacepoint.SurfacePoint, error) {
	switch sp.Kind() {
	case surfacepoint.KindVertex:
		return t.loc.Get(sp.Vertex()), nil
	case surfacepoint.KindFace:
		f, b := sp.Face()
		return t.tracer.LocateFacePoint(f, b)
	case surfacepoint.KindEdge:
		e, tt := sp.Edge()
		return t.tracer.TraceIntrinsicHalfedgeAt(t.mesh.Edge(e).Halfedge().ID, tt)
	default:
		return surfacepoint.SurfacePoint{}, fmt.Errorf("unrecognized surface point kind")
	}
}

// MoveVertex traces the geodesic from loc(v) in tangent-space direction vec
// (vec's angle measured in v's cache-normalized tangent space, its
// magnitude the geodesic's length) and updates loc(v) to the landing point.
// Each incident edge's new length is recomputed from v's existing
// tangent-plane flattening: geometry.Cache.HalfedgeVectorInVertex gives each
// spoke's direction in that frame, and scaled by the spoke's current length
// it places the neighbor at a fixed position with v at the origin, so
// displacing v by vec makes the new spoke
// length exactly that fixed neighbor position's distance to vec -- no
// re-tracing per neighbor needed. This is only exact for a move that stays
// within v's current combinatorial star: it does not re-express v's normal
// coordinates against whatever wedges the move may have rotated its spokes
// into, which would need a flip sequence this package does not compute (see
// DESIGN.md).
func (t *Triangulation) MoveVertex(v mesh.VertexID, vec geom.Vector2) (moved bool, err error) {
	defer t.guard(&err)
	if t.poisonErr != nil {
		return false, t.poisonErr
	}
	length := vec.Norm()
	if length <= geom.EPS {
		return false, nil
	}
	h, refAngle, ferr := t.firstInteriorSpoke(v)
	if ferr != nil {
		return false, newPreconditionError("MoveVertex", ferr.Error())
	}
	angleOffset := vec.Arg() - refAngle

	sp, werr := trace.Walk(t.lengths, t.mesh, h.ID, angleOffset, length, nil)
	if werr != nil {
		return false, fmt.Errorf("intrinsic: MoveVertex: %w", werr)
	}
	loc, lerr := t.equivalentInputLocation(sp)
	if lerr != nil {
		return false, fmt.Errorf("intrinsic: MoveVertex: %w", lerr)
	}

	type spoke struct {
		edge mesh.EdgeID
		pos  geom.Vector2
	}
	spokes := make([]spoke, 0, t.mesh.Vertex(v).Degree())
	for _, out := range t.mesh.Vertex(v).OutgoingHalfedges() {
		spokes = append(spokes, spoke{edge: out.Edge().ID, pos: t.cache.HalfedgeVectorInVertex(out.ID).Mul(t.lengths.EdgeLength(out.Edge().ID))})
	}

	t.loc.Set(v, loc)
	for _, s := range spokes {
		t.lengths.SetLength(s.edge, s.pos.Sub(vec).Norm())
	}
	t.refreshCache(v)
	return true, nil
}

// flipTranscriptEntry records one flip taken while reducing v's star, so a
// failed reduction can be undone exactly rather than left half-applied.
type flipTranscriptEntry struct {
	edge   mesh.EdgeID
	preLen float64
}

// undoFlips reverses a transcript of flips in LIFO order. Flipping the same
// edge ID a second time, with nothing else touched in between, returns the
// mesh to the combinatorial state it had before the first flip (mesh.Flip
// mutates the same two half-edges in place); normalcoords.FlipUpdate's own
// formula is likewise its own involution when reapplied immediately against
// an unchanged quadrilateral boundary (n_new2 = max(n1+n3,n2+n4) - n_new1 =
// n_old). The recorded pre-flip length is restored directly rather than
// recomputed, to avoid floating-point drift across the round trip.
func (t *Triangulation) undoFlips(transcript []flipTranscriptEntry) {
	for i := len(transcript) - 1; i >= 0; i-- {
		e := transcript[i].edge
		if err := t.coords.FlipUpdate(e); err != nil {
			Poison(fmt.Errorf("intrinsic: undoFlips: FlipUpdate(%d) failed during rollback: %w", e, err))
		}
		if !t.mesh.Flip(e) {
			Poison(fmt.Errorf("intrinsic: undoFlips: mesh-level flip refused during rollback of edge %d", e))
		}
		t.lengths.SetLength(e, transcript[i].preLen)
	}
}

// RemoveVertex deletes v, which must have been introduced by a split or
// insertion (never an original M_A vertex), retriangulating its star by
// flipping it down to degree three and removing the resulting tripod. If at
// some point none of v's spokes can be flipped (each is marked, a shared
// edge, or refused by mesh.CanFlip), the removal aborts without mutating:
// every flip taken while trying is rolled back.
func (t *Triangulation) RemoveVertex(v mesh.VertexID) (removed bool, err error) {
	defer t.guard(&err)
	if t.poisonErr != nil {
		return false, t.poisonErr
	}
	if t.IsOriginalVertex(v) {
		return false, newPreconditionError("RemoveVertex", "vertex belongs to the input mesh and cannot be removed")
	}
	vh := t.mesh.Vertex(v)
	if vh.IsBoundary() {
		return false, nil
	}

	const maxAttempts = 10000
	attempts := 0
	var transcript []flipTranscriptEntry
	for vh.Degree() > 3 {
		if attempts > maxAttempts {
			t.undoFlips(transcript)
			return false, fmt.Errorf("intrinsic: RemoveVertex(%d): exceeded %d flip attempts reducing to degree 3", v, maxAttempts)
		}
		attempts++
		flippedAny := false
		for _, out := range vh.OutgoingHalfedges() {
			spoke := out.Edge().ID
			if t.IsMarked(spoke) || t.coords.IsSharedEdge(spoke) || !t.mesh.CanFlip(spoke) {
				continue
			}
			preLen := t.lengths.EdgeLength(spoke)
			if err := t.geometricFlip(spoke); err != nil {
				t.undoFlips(transcript)
				return false, err
			}
			transcript = append(transcript, flipTranscriptEntry{edge: spoke, preLen: preLen})
			flippedAny = true
			break
		}
		if !flippedAny {
			t.undoFlips(transcript)
			return false, nil
		}
	}

	if vh.Degree() != 3 {
		t.undoFlips(transcript)
		return false, nil
	}
	if _, ok := t.mesh.RemoveDegree3Vertex(v); !ok {
		t.undoFlips(transcript)
		return false, nil
	}
	return true, nil
}

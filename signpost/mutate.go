package signpost

import (
	"fmt"
	"math"

	"github.com/gridmesh/intrintri/geom"
	"github.com/gridmesh/intrintri/mesh"
	"github.com/gridmesh/intrintri/surfacepoint"
	"github.com/gridmesh/intrintri/trace"
)

func cotan(theta float64) float64 {
	s, c := math.Sincos(theta)
	if math.Abs(s) < 1e-12 {
		if s >= 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return c / s
}

func (t *Triangulation) cotanDelaunayScore(e mesh.EdgeID) float64 {
	h := t.mesh.Edge(e).Halfedge()
	ht := h.Twin()
	alpha := t.cache.CornerAngle(h.Prev().ID)
	beta := t.cache.CornerAngle(ht.Prev().ID)
	return cotan(alpha) + cotan(beta)
}

// geometricFlip computes the flipped diagonal's length from the
// quadrilateral's four boundary edges and commits it before the
// combinatorial mesh.Flip itself -- the cache's own OnEdgeFlip subscription
// then picks the new length straight up.
func (t *Triangulation) geometricFlip(e mesh.EdgeID) {
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

	t.lengths.SetLength(e, newLen)
	t.mesh.Flip(e)
}

// FlipEdgeIfNotDelaunay mirrors intrinsic.Triangulation.FlipEdgeIfNotDelaunay,
// without any normal-coordinate/shared-edge bookkeeping since signpost
// tracks none.
func (t *Triangulation) FlipEdgeIfNotDelaunay(e mesh.EdgeID) (bool, error) {
	if t.IsMarked(e) || t.mesh.Edge(e).IsBoundary() || !t.mesh.CanFlip(e) {
		return false, nil
	}
	if t.cotanDelaunayScore(e) >= -1e-6 {
		return false, nil
	}
	t.geometricFlip(e)
	return true, nil
}

// FlipEdgeIfPossible flips e whenever combinatorially legal and unmarked,
// skipping the Delaunay test.
func (t *Triangulation) FlipEdgeIfPossible(e mesh.EdgeID) (bool, error) {
	if t.IsMarked(e) || !t.mesh.CanFlip(e) {
		return false, nil
	}
	t.geometricFlip(e)
	return true, nil
}

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

// SplitEdge introduces a new vertex at parameter t along he, exactly as
// intrinsic.Triangulation.SplitEdge, but locates the new vertex on M_A via
// signpost's own angle-rescaling walk rather than an exact crossing count.
func (t *Triangulation) SplitEdge(he mesh.HalfedgeID, tParam float64) (mesh.VertexID, bool, error) {
	if tParam <= 0 || tParam >= 1 {
		return mesh.InvalidVertex, false, fmt.Errorf("signpost: SplitEdge: t must lie strictly inside (0,1)")
	}

	h := t.mesh.Halfedge(he)
	e := h.Edge().ID
	ht := h.Twin()

	lenAB := t.lengths.EdgeLength(e)
	reducedLen := tParam * lenAB
	loc, lerr := t.locateAt(h, reducedLen)
	if lerr != nil {
		return mesh.InvalidVertex, false, fmt.Errorf("signpost: SplitEdge: %w", lerr)
	}

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

	v, he1, he2 := t.mesh.SplitEdge(he)
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

// locateAt is locate generalized to an arbitrary partial length along h
// instead of h's own full length, used by SplitEdge.
func (t *Triangulation) locateAt(h mesh.Halfedge, length float64) (surfacepoint.SurfacePoint, error) {
	v := h.Vertex().ID
	sp := t.loc.Get(v)
	if sp.Kind() != surfacepoint.KindVertex {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("locateAt: vertex %d is not vertex-located", v)
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
		return surfacepoint.SurfacePoint{}, fmt.Errorf("locateAt: input vertex %d's reference spoke is a boundary half-edge", vA)
	}
	return trace.Walk(t.inputGeom, t.inputMesh, refA.ID, localAngle*ratio, length, nil)
}

// insertInFace introduces a new vertex interior to f at barycentric
// coordinates b, wiring its three spokes' lengths by direct planar
// distance in f's own isometric layout.
func (t *Triangulation) insertInFace(f mesh.FaceID, b surfacepoint.Barycentric) (mesh.VertexID, error) {
	face := t.mesh.Face(f)
	if face.IsBoundaryLoop() {
		return mesh.InvalidVertex, fmt.Errorf("signpost: InsertVertex: face is a boundary loop")
	}
	hs := face.Halfedges()
	l0 := t.lengths.EdgeLength(hs[0].Edge().ID)
	l1 := t.lengths.EdgeLength(hs[1].Edge().ID)
	l2 := t.lengths.EdgeLength(hs[2].Edge().ID)
	angle0 := geom.LawOfCosinesAngle(l0, l2, l1)
	p0 := geom.Vector2{}
	p1 := geom.Vector2{X: l0}
	p2 := geom.Vector2{X: l2 * math.Cos(angle0), Y: l2 * math.Sin(angle0)}
	point := p0.Mul(b.A).Add(p1.Mul(b.B)).Add(p2.Mul(b.C))
	vids := [3]mesh.VertexID{hs[0].Vertex().ID, hs[1].Vertex().ID, hs[2].Vertex().ID}
	spoke := map[mesh.VertexID]float64{
		vids[0]: point.Sub(p0).Norm(),
		vids[1]: point.Sub(p1).Norm(),
		vids[2]: point.Sub(p2).Norm(),
	}

	loc, lerr := t.faceLocate(hs[0], point)
	if lerr != nil {
		return mesh.InvalidVertex, fmt.Errorf("signpost: InsertVertex: %w", lerr)
	}

	v, ok := t.mesh.InsertVertexInFace(f)
	if !ok {
		return mesh.InvalidVertex, fmt.Errorf("signpost: InsertVertex: mesh-level insertion refused")
	}
	for _, hd := range t.mesh.Vertex(v).OutgoingHalfedges() {
		if l, ok := spoke[hd.Tip().ID]; ok {
			t.lengths.SetLength(hd.Edge().ID, l)
		}
	}
	t.loc.Set(v, loc)
	t.refreshCache(v)
	return v, nil
}

// faceLocate locates a point interior to the face corner0 belongs to,
// given the target point's position in that face's own planar layout (with
// corner0's tail at the origin), by rescaling the point's own local angle
// from corner0 into the corresponding input wedge the same way locate
// rescales a half-edge's tangent angle.
func (t *Triangulation) faceLocate(corner0 mesh.Halfedge, point geom.Vector2) (surfacepoint.SurfacePoint, error) {
	v := corner0.Vertex().ID
	sp := t.loc.Get(v)
	if sp.Kind() != surfacepoint.KindVertex {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("faceLocate: vertex %d is not vertex-located", v)
	}
	vA := sp.Vertex()

	length := point.Norm()
	if length <= 1e-12 {
		return sp, nil
	}
	localAngle := point.Arg()

	refB := t.mesh.Vertex(v).Halfedge()
	cornerOffset := t.cache.HalfedgeVectorInVertex(corner0.ID).Arg() - t.cache.HalfedgeVectorInVertex(refB.ID).Arg()

	bSum := t.cache.AngleSum(v)
	aSum := t.inputCache.AngleSum(vA)
	ratio := 1.0
	if bSum > 1e-12 {
		ratio = aSum / bSum
	}

	refA := t.inputMesh.Vertex(vA).Halfedge()
	if !refA.IsInterior() {
		return surfacepoint.SurfacePoint{}, fmt.Errorf("faceLocate: input vertex %d's reference spoke is a boundary half-edge", vA)
	}
	return trace.Walk(t.inputGeom, t.inputMesh, refA.ID, (cornerOffset+localAngle)*ratio, length, nil)
}

// InsertVertex introduces v at the location p describes, identically in
// shape to intrinsic.Triangulation.InsertVertex.
func (t *Triangulation) InsertVertex(p surfacepoint.SurfacePoint) (mesh.VertexID, error) {
	switch p.Kind() {
	case surfacepoint.KindVertex:
		return p.Vertex(), nil
	case surfacepoint.KindEdge:
		e, tt := p.Edge()
		he := t.mesh.Edge(e).Halfedge().ID
		v, _, err := t.SplitEdge(he, tt)
		return v, err
	case surfacepoint.KindFace:
		f, b := p.Face()
		return t.insertInFace(f, b)
	default:
		return mesh.InvalidVertex, fmt.Errorf("signpost: InsertVertex: unrecognized surface point kind")
	}
}

type flipTranscriptEntry struct {
	edge   mesh.EdgeID
	preLen float64
}

// undoFlips reverses a transcript of flips in LIFO order, the same
// involution argument intrinsic.Triangulation.undoFlips relies on: flipping
// the same edge again with nothing else touched in between restores the
// prior combinatorial state, and the recorded pre-flip length is restored
// directly to avoid floating-point drift.
func (t *Triangulation) undoFlips(transcript []flipTranscriptEntry) {
	for i := len(transcript) - 1; i >= 0; i-- {
		t.mesh.Flip(transcript[i].edge)
		t.lengths.SetLength(transcript[i].edge, transcript[i].preLen)
	}
}

// RemoveVertex mirrors intrinsic.Triangulation.RemoveVertex: flips v down
// to degree three, then removes the resulting tripod. Aborts without
// mutating if no legal flip sequence achieves that, rolling back any flips
// already taken.
func (t *Triangulation) RemoveVertex(v mesh.VertexID) (bool, error) {
	if t.IsOriginalVertex(v) {
		return false, fmt.Errorf("signpost: RemoveVertex: vertex belongs to the input mesh and cannot be removed")
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
			return false, fmt.Errorf("signpost: RemoveVertex(%d): exceeded %d flip attempts reducing to degree 3", v, maxAttempts)
		}
		attempts++
		flippedAny := false
		for _, out := range vh.OutgoingHalfedges() {
			spoke := out.Edge().ID
			if t.IsMarked(spoke) || !t.mesh.CanFlip(spoke) {
				continue
			}
			preLen := t.lengths.EdgeLength(spoke)
			t.geometricFlip(spoke)
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

package mesh

// Flip performs the combinatorial edge-flip surgery on e's quadrilateral:
// if e has halfedges h (a->b, face f1=(a,b,c)) and twin(h) (b->a,
// face f2=(b,a,d)), afterwards e connects c and d and f1,f2 become
// (b,c,d) and (c,a,d). Returns false, leaving the mesh untouched, if e is
// a boundary edge, if its two incident faces coincide, or if an apex
// coincides with an endpoint of e (c==a or d==b, a degenerate sliver). It
// does not check whether c and d are already joined by another edge: on a
// tetrahedron the flip succeeds and leaves two edges between c and d.
//
// This is purely combinatorial -- it performs no geometric test. The
// caller (normalcoords / the intrinsic mutation layer) is responsible for
// updating lengths and normal coordinates and for the Delaunay/convexity
// tests that decide whether a flip should be attempted at all.
func (m *Mesh) Flip(e EdgeID) bool {
	h1 := m.eHalfedge[e]
	h4 := m.heTwin[h1]
	f1 := m.heFace[h1]
	f2 := m.heFace[h4]
	if m.fIsBoundary[f1] || m.fIsBoundary[f2] || f1 == f2 {
		return false
	}
	h2 := m.heNext[h1]
	h3 := m.heNext[h2]
	h5 := m.heNext[h4]
	h6 := m.heNext[h5]

	a := m.heVertex[h1]
	b := m.heVertex[h4]
	c := m.heVertex[h3]
	d := m.heVertex[h6]
	if a == c || b == d {
		return false
	}

	m.heNext[h2] = h1
	m.hePrev[h1] = h2
	m.heNext[h1] = h6
	m.hePrev[h6] = h1
	m.heNext[h6] = h2
	m.hePrev[h2] = h6

	m.heNext[h3] = h5
	m.hePrev[h5] = h3
	m.heNext[h5] = h4
	m.hePrev[h4] = h5
	m.heNext[h4] = h3
	m.hePrev[h3] = h4

	m.heFace[h6] = f1
	m.heFace[h3] = f2
	m.fHalfedge[f1] = h2
	m.fHalfedge[f2] = h5

	if m.vHalfedge[a] == h1 {
		m.vHalfedge[a] = h5
	}
	if m.vHalfedge[b] == h4 {
		m.vHalfedge[b] = h2
	}
	m.heVertex[h1] = c
	m.heVertex[h4] = d

	m.edgeFlipCallbacks.each(func(fn func(Edge)) { fn(Edge{m, e}) })
	return true
}

// CanFlip reports whether Flip(e) would succeed, without mutating the mesh.
func (m *Mesh) CanFlip(e EdgeID) bool {
	h1 := m.eHalfedge[e]
	h4 := m.heTwin[h1]
	f1 := m.heFace[h1]
	f2 := m.heFace[h4]
	if m.fIsBoundary[f1] || m.fIsBoundary[f2] || f1 == f2 {
		return false
	}
	h3 := m.heNext[m.heNext[h1]]
	h6 := m.heNext[m.heNext[h4]]
	a := m.heVertex[h1]
	b := m.heVertex[h4]
	c := m.heVertex[h3]
	d := m.heVertex[h6]
	return a != c && b != d
}

// splitQuadAtNewVertex re-triangulates the quadrilateral left behind when a
// new vertex v was just spliced into one side of a split edge, by adding
// the diagonal from v to the quad's far corner. A no-op on boundary-loop
// faces, which are left as a (now one-larger) simple polygon.
func (m *Mesh) splitQuadAtNewVertex(face FaceID, v VertexID) {
	if m.fIsBoundary[face] {
		return
	}
	start := m.fHalfedge[face]
	q1 := InvalidHalfedge
	h := start
	for {
		if m.heVertex[h] == v {
			q1 = h
			break
		}
		h = m.heNext[h]
		if h == start {
			break
		}
	}
	q2 := m.heNext[q1]
	q3 := m.heNext[q2]
	q0 := m.heNext[q3]
	apex := m.heVertex[q3]

	diagOut := m.newHalfedge() // v -> apex
	diagIn := m.newHalfedge()  // apex -> v
	e := m.newEdge()
	m.heVertex[diagOut] = v
	m.heVertex[diagIn] = apex
	m.heTwin[diagOut] = diagIn
	m.heTwin[diagIn] = diagOut
	m.heEdge[diagOut] = e
	m.heEdge[diagIn] = e
	m.eHalfedge[e] = diagOut

	newFace := m.newFace()

	m.heNext[q0] = diagOut
	m.hePrev[diagOut] = q0
	m.heNext[diagOut] = q3
	m.hePrev[q3] = diagOut
	m.heNext[q3] = q0
	m.hePrev[q0] = q3
	m.heFace[q0] = face
	m.heFace[diagOut] = face
	m.heFace[q3] = face
	m.fHalfedge[face] = q0

	m.heNext[q2] = diagIn
	m.hePrev[diagIn] = q2
	m.heNext[diagIn] = q1
	m.hePrev[q1] = diagIn
	m.heFace[q1] = newFace
	m.heFace[q2] = newFace
	m.heFace[diagIn] = newFace
	m.fHalfedge[newFace] = q1
}

// SplitEdge introduces a new vertex v on the edge underlying he, splitting
// it into two edges (the original edge ID now runs from he.Vertex() to v;
// a freshly allocated edge runs from v to he.Twin().Vertex()) and, on
// whichever of the two incident faces is not a boundary loop, splitting
// that triangle into two by connecting v to its far corner. Returns v and
// the two resulting halfedges whose tail is v, matching the callback
// contract (both share v as their Vertex()).
func (m *Mesh) SplitEdge(he HalfedgeID) (v VertexID, he1, he2 HalfedgeID) {
	h := he
	ht := m.heTwin[h]
	oldEdge := m.heEdge[h]
	a := m.heVertex[h]
	b := m.heVertex[ht]
	v = m.newVertex()

	hvb := m.newHalfedge() // v -> b
	hbv := m.newHalfedge() // b -> v
	e2 := m.newEdge()
	m.heVertex[hvb] = v
	m.heVertex[hbv] = b
	m.heTwin[hvb] = hbv
	m.heTwin[hbv] = hvb
	m.heEdge[hvb] = e2
	m.heEdge[hbv] = e2
	m.eHalfedge[e2] = hvb

	f1 := m.heFace[h]
	oldNextH := m.heNext[h]
	m.heNext[h] = hvb
	m.hePrev[hvb] = h
	m.heNext[hvb] = oldNextH
	m.hePrev[oldNextH] = hvb
	m.heFace[hvb] = f1

	f2 := m.heFace[ht]
	oldPrevHt := m.hePrev[ht]
	m.heNext[oldPrevHt] = hbv
	m.hePrev[hbv] = oldPrevHt
	m.heNext[hbv] = ht
	m.hePrev[ht] = hbv
	m.heFace[hbv] = f2

	m.heVertex[ht] = v
	if m.vHalfedge[b] == ht {
		m.vHalfedge[b] = hbv
	}
	_ = a
	m.vHalfedge[v] = hvb

	m.splitQuadAtNewVertex(f1, v)
	m.splitQuadAtNewVertex(f2, v)

	he1, he2 = ht, hvb
	m.edgeSplitCallbacks.each(func(fn func(Edge, Halfedge, Halfedge)) {
		fn(Edge{m, oldEdge}, Halfedge{m, he1}, Halfedge{m, he2})
	})
	return v, he1, he2
}

// InsertVertexInFace introduces a new vertex interior to f, connecting it
// to f's three corners and replacing f with three new triangles (f's own
// ID is reused for one of them). Fails (returns false) if f is a boundary
// loop.
func (m *Mesh) InsertVertexInFace(f FaceID) (VertexID, bool) {
	if m.fIsBoundary[f] {
		return InvalidVertex, false
	}
	h0 := m.fHalfedge[f]
	h1 := m.heNext[h0]
	h2 := m.heNext[h1]

	v0 := m.heVertex[h0]
	v1 := m.heVertex[h1]
	v2 := m.heVertex[h2]

	v := m.newVertex()

	ev0 := m.newHalfedge()
	e0v := m.newHalfedge()
	ev1 := m.newHalfedge()
	e1v := m.newHalfedge()
	ev2 := m.newHalfedge()
	e2v := m.newHalfedge()
	e01 := m.newEdge()
	e12 := m.newEdge()
	e20 := m.newEdge()

	m.heVertex[ev0], m.heVertex[e0v] = v, v0
	m.heVertex[ev1], m.heVertex[e1v] = v, v1
	m.heVertex[ev2], m.heVertex[e2v] = v, v2
	m.heTwin[ev0], m.heTwin[e0v] = e0v, ev0
	m.heTwin[ev1], m.heTwin[e1v] = e1v, ev1
	m.heTwin[ev2], m.heTwin[e2v] = e2v, ev2
	m.heEdge[ev0], m.heEdge[e0v] = e01, e01
	m.heEdge[ev1], m.heEdge[e1v] = e12, e12
	m.heEdge[ev2], m.heEdge[e2v] = e20, e20
	m.eHalfedge[e01] = ev0
	m.eHalfedge[e12] = ev1
	m.eHalfedge[e20] = ev2

	fT1 := m.newFace()
	fT2 := m.newFace()
	fT0 := f

	link := func(face FaceID, a, b, c HalfedgeID) {
		m.heNext[a], m.hePrev[b] = b, a
		m.heNext[b], m.hePrev[c] = c, b
		m.heNext[c], m.hePrev[a] = a, c
		m.heFace[a], m.heFace[b], m.heFace[c] = face, face, face
		m.fHalfedge[face] = a
	}
	link(fT0, h0, e1v, ev0) // (v0,v1,v)
	link(fT1, h1, e2v, ev1) // (v1,v2,v)
	link(fT2, h2, e0v, ev2) // (v2,v0,v)

	m.vHalfedge[v] = ev0

	m.faceInsertionCallbacks.each(func(fn func(Face, Vertex)) { fn(Face{m, f}, Vertex{m, v}) })
	return v, true
}

// RemoveDegree3Vertex deletes v and merges its three incident triangles
// into one, reusing one of the three face IDs. v must have degree exactly
// three and must not lie on the boundary; otherwise it returns
// (InvalidFace, false) without mutating the mesh. This is the final step
// of the higher-level vertex-removal algorithm (the intrinsic layer is
// responsible for flipping v down to degree three first).
func (m *Mesh) RemoveDegree3Vertex(v VertexID) (FaceID, bool) {
	vh := Vertex{m, v}
	if vh.Degree() != 3 || vh.IsBoundary() {
		return InvalidFace, false
	}
	spokes := vh.OutgoingHalfedges()
	var s, outer [3]HalfedgeID
	var faces [3]FaceID
	for i := 0; i < 3; i++ {
		s[i] = spokes[i].ID
		outer[i] = m.heNext[s[i]]
		faces[i] = m.heFace[s[i]]
	}
	keepFace := faces[0]
	for i := 0; i < 3; i++ {
		m.heNext[outer[i]] = outer[(i+1)%3]
		m.hePrev[outer[(i+1)%3]] = outer[i]
		m.heFace[outer[i]] = keepFace
		w := m.heVertex[outer[i]]
		m.vHalfedge[w] = outer[i]
	}
	m.fHalfedge[keepFace] = outer[0]

	for i := 0; i < 3; i++ {
		e := m.heEdge[s[i]]
		m.deleteHalfedge(s[i])
		m.deleteHalfedge(m.heTwin[s[i]])
		m.deleteEdge(e)
	}
	m.deleteVertex(v)
	for i := 1; i < 3; i++ {
		m.deleteFace(faces[i])
	}
	return keepFace, true
}

package mesh

import "fmt"

// FromTriangles builds a mesh from nVerts vertices and a list of CCW
// triangles (each a [3]int of vertex indices in [0,nVerts)). Any edge used
// by only one triangle becomes a boundary edge, and its missing neighbor is
// filled in with a halfedge on a boundary-loop face; boundary loops are
// linked up automatically, supporting meshes with any number of boundary
// components. Returns an error if an edge is shared by more than two
// triangles (non-manifold) -- such input is out of scope (§1 Non-goals).
func FromTriangles(nVerts int, triangles [][3]int) (*Mesh, error) {
	m := New()
	for i := 0; i < nVerts; i++ {
		m.newVertex()
	}

	type dirKey struct{ a, b VertexID }
	firstHe := make(map[dirKey]HalfedgeID)

	for _, tri := range triangles {
		a, b, c := VertexID(tri[0]), VertexID(tri[1]), VertexID(tri[2])
		if a == b || b == c || a == c {
			return nil, fmt.Errorf("mesh: degenerate triangle %v", tri)
		}
		h := [3]HalfedgeID{m.newHalfedge(), m.newHalfedge(), m.newHalfedge()}
		verts := [3]VertexID{a, b, c}
		f := m.newFace()
		for i := 0; i < 3; i++ {
			m.heVertex[h[i]] = verts[i]
			m.heNext[h[i]] = h[(i+1)%3]
			m.hePrev[h[i]] = h[(i+2)%3]
			m.heFace[h[i]] = f
			if m.vHalfedge[verts[i]] == InvalidHalfedge {
				m.vHalfedge[verts[i]] = h[i]
			}
			key := dirKey{verts[i], verts[(i+1)%3]}
			if _, dup := firstHe[key]; dup {
				return nil, fmt.Errorf("mesh: edge %v referenced by more than one triangle in the same direction (non-manifold or inconsistent winding)", key)
			}
			firstHe[key] = h[i]
		}
		m.fHalfedge[f] = h[0]
	}

	// Pass A: resolve interior twins for edges shared by two triangles.
	// Halfedges are visited in ID order, so the same triangle list always
	// yields the same edge IDs.
	resolved := make(map[dirKey]bool)
	for i := range m.heNext {
		h := HalfedgeID(i)
		key := dirKey{m.heVertex[h], h.head(m)}
		if resolved[key] {
			continue
		}
		rev := dirKey{key.b, key.a}
		if h2, ok := firstHe[rev]; ok {
			e := m.newEdge()
			m.heTwin[h] = h2
			m.heTwin[h2] = h
			m.heEdge[h] = e
			m.heEdge[h2] = e
			m.eHalfedge[e] = h
			resolved[key] = true
			resolved[rev] = true
		}
	}

	// Pass B: any halfedge still without a twin borders a hole. Build its
	// boundary-side twin and link boundary loops using the standard
	// byHead-of-naked-halfedge construction: the boundary twin of h (tail a,
	// head b) continues, after completing its own pass around the hole, into
	// the boundary twin of whichever naked halfedge has head a.
	var nakeds []HalfedgeID
	for i := range m.heNext {
		h := HalfedgeID(i)
		if m.heTwin[h] == InvalidHalfedge {
			nakeds = append(nakeds, h)
		}
	}
	byHead := make(map[VertexID]HalfedgeID, len(nakeds))
	for _, h := range nakeds {
		byHead[h.head(m)] = h
	}
	boundaryTwin := make(map[HalfedgeID]HalfedgeID, len(nakeds))
	for _, h := range nakeds {
		bh := m.newHalfedge()
		m.heVertex[bh] = h.head(m)
		m.heTwin[h] = bh
		m.heTwin[bh] = h
		e := m.newEdge()
		m.heEdge[h] = e
		m.heEdge[bh] = e
		m.eHalfedge[e] = h
		boundaryTwin[h] = bh
	}
	for _, h := range nakeds {
		bh := boundaryTwin[h]
		tail := m.heVertex[h]
		prevNaked, ok := byHead[tail]
		if !ok {
			return nil, fmt.Errorf("mesh: boundary is not a simple cycle at vertex %d", tail)
		}
		bh2 := boundaryTwin[prevNaked]
		m.heNext[bh] = bh2
		m.hePrev[bh2] = bh
	}
	seen := make(map[HalfedgeID]bool)
	for _, h := range nakeds {
		bh := boundaryTwin[h]
		if seen[bh] {
			continue
		}
		f := m.newFace()
		m.fIsBoundary[f] = true
		m.fHalfedge[f] = bh
		cur := bh
		for {
			m.heFace[cur] = f
			seen[cur] = true
			cur = m.heNext[cur]
			if cur == bh {
				break
			}
		}
	}

	return m, nil
}

func (h HalfedgeID) head(m *Mesh) VertexID { return m.heVertex[m.heNext[h]] }

// Validate checks the structural invariants of the mesh: twin symmetry,
// face-loop closure, and next/prev agreement. Generalizes the teacher's
// Verify() (see _teacherref/voronoi.go) from its fixed-size Voronoi arrays
// to this handle-based representation.
func (m *Mesh) Validate() error {
	for i := range m.heNext {
		if m.heDeleted[i] {
			continue
		}
		h := HalfedgeID(i)
		t := m.heTwin[h]
		if t == InvalidHalfedge || m.heDeleted[t] {
			return fmt.Errorf("mesh: halfedge %d has no valid twin", h)
		}
		if m.heTwin[t] != h {
			return fmt.Errorf("mesh: halfedge %d and its twin %d do not refer to each other", h, t)
		}
		n := m.heNext[h]
		if n == InvalidHalfedge || m.heDeleted[n] {
			return fmt.Errorf("mesh: halfedge %d has no valid next", h)
		}
		if m.hePrev[n] != h {
			return fmt.Errorf("mesh: halfedge %d's next %d does not point back via prev", h, n)
		}
		if m.heFace[n] != m.heFace[h] {
			return fmt.Errorf("mesh: halfedge %d and its next %d disagree on face", h, n)
		}
		if m.heVertex[h] == InvalidVertex || m.vDeleted[m.heVertex[h]] {
			return fmt.Errorf("mesh: halfedge %d has invalid origin vertex", h)
		}
		if m.heFace[h] == InvalidFace || m.fDeleted[m.heFace[h]] {
			return fmt.Errorf("mesh: halfedge %d has invalid face", h)
		}
	}
	for i := range m.fHalfedge {
		if m.fDeleted[i] {
			continue
		}
		f := FaceID(i)
		start := m.fHalfedge[f]
		if start == InvalidHalfedge || m.heDeleted[start] {
			return fmt.Errorf("mesh: face %d points to invalid halfedge", f)
		}
		h := start
		count := 0
		for {
			if m.heFace[h] != f {
				return fmt.Errorf("mesh: halfedge of face %d does not point back to it", f)
			}
			h = m.heNext[h]
			count++
			if count > len(m.heNext)+1 {
				return fmt.Errorf("mesh: face %d loop does not close", f)
			}
			if h == start {
				break
			}
		}
		if !m.fIsBoundary[f] && count != 3 {
			return fmt.Errorf("mesh: non-boundary face %d is not a triangle (%d sides)", f, count)
		}
	}
	for i := range m.vHalfedge {
		if m.vDeleted[i] {
			continue
		}
		v := VertexID(i)
		if m.vHalfedge[v] == InvalidHalfedge || m.heDeleted[m.vHalfedge[v]] {
			return fmt.Errorf("mesh: vertex %d points to invalid halfedge", v)
		}
		if m.heVertex[m.vHalfedge[v]] != v {
			return fmt.Errorf("mesh: vertex %d's halfedge does not originate at it", v)
		}
	}
	return nil
}

package mesh

// Vertex, Edge, Halfedge and Face are lightweight handles pairing an ID with
// the mesh it belongs to, so that traversal reads as he.Next().Twin().Vertex()
// rather than threading the mesh through every call explicitly.
type Vertex struct {
	mesh *Mesh
	ID   VertexID
}

type Edge struct {
	mesh *Mesh
	ID   EdgeID
}

type Halfedge struct {
	mesh *Mesh
	ID   HalfedgeID
}

type Face struct {
	mesh *Mesh
	ID   FaceID
}

func (m *Mesh) Vertex(id VertexID) Vertex     { return Vertex{m, id} }
func (m *Mesh) Edge(id EdgeID) Edge           { return Edge{m, id} }
func (m *Mesh) Halfedge(id HalfedgeID) Halfedge { return Halfedge{m, id} }
func (m *Mesh) Face(id FaceID) Face           { return Face{m, id} }

func (v Vertex) Valid() bool { return v.mesh != nil && v.ID != InvalidVertex && !v.mesh.vDeleted[v.ID] }
func (e Edge) Valid() bool   { return e.mesh != nil && e.ID != InvalidEdge && !e.mesh.eDeleted[e.ID] }
func (h Halfedge) Valid() bool {
	return h.mesh != nil && h.ID != InvalidHalfedge && !h.mesh.heDeleted[h.ID]
}
func (f Face) Valid() bool { return f.mesh != nil && f.ID != InvalidFace && !f.mesh.fDeleted[f.ID] }

// Halfedge accessors.
func (h Halfedge) Next() Halfedge  { return Halfedge{h.mesh, h.mesh.heNext[h.ID]} }
func (h Halfedge) Prev() Halfedge  { return Halfedge{h.mesh, h.mesh.hePrev[h.ID]} }
func (h Halfedge) Twin() Halfedge  { return Halfedge{h.mesh, h.mesh.heTwin[h.ID]} }
func (h Halfedge) Vertex() Vertex  { return Vertex{h.mesh, h.mesh.heVertex[h.ID]} }
func (h Halfedge) Tip() Vertex     { return h.Next().Vertex() }
func (h Halfedge) Edge() Edge      { return Edge{h.mesh, h.mesh.heEdge[h.ID]} }
func (h Halfedge) Face() Face      { return Face{h.mesh, h.mesh.heFace[h.ID]} }
func (h Halfedge) IsInterior() bool {
	return !h.mesh.fIsBoundary[h.mesh.heFace[h.ID]]
}

// Vertex accessors.
func (v Vertex) Halfedge() Halfedge { return Halfedge{v.mesh, v.mesh.vHalfedge[v.ID]} }

// IsBoundary reports whether v has an incident boundary-loop face.
func (v Vertex) IsBoundary() bool {
	start := v.Halfedge()
	if !start.Valid() {
		return false
	}
	h := start
	for {
		if h.mesh.fIsBoundary[h.mesh.heFace[h.ID]] {
			return true
		}
		h = h.Twin().Next()
		if h.ID == start.ID {
			return false
		}
	}
}

// Degree returns the number of edges incident to v.
func (v Vertex) Degree() int {
	start := v.Halfedge()
	if !start.Valid() {
		return 0
	}
	n := 0
	h := start
	for {
		n++
		h = h.Twin().Next()
		if h.ID == start.ID {
			break
		}
	}
	return n
}

// OutgoingHalfedges returns every halfedge leaving v, in counterclockwise
// rotation order starting from v.Halfedge().
func (v Vertex) OutgoingHalfedges() []Halfedge {
	start := v.Halfedge()
	if !start.Valid() {
		return nil
	}
	var out []Halfedge
	h := start
	for {
		out = append(out, h)
		h = h.Prev().Twin()
		if h.ID == start.ID {
			break
		}
	}
	return out
}

// Edge accessors.
func (e Edge) Halfedge() Halfedge     { return Halfedge{e.mesh, e.mesh.eHalfedge[e.ID]} }
func (e Edge) OtherHalfedge() Halfedge { return e.Halfedge().Twin() }

func (e Edge) IsBoundary() bool {
	h := e.Halfedge()
	return h.mesh.fIsBoundary[h.mesh.heFace[h.ID]] || h.Twin().mesh.fIsBoundary[h.Twin().mesh.heFace[h.Twin().ID]]
}

// Face accessors.
func (f Face) Halfedge() Halfedge  { return Halfedge{f.mesh, f.mesh.fHalfedge[f.ID]} }
func (f Face) IsBoundaryLoop() bool { return f.mesh.fIsBoundary[f.ID] }

// Halfedges returns the (exactly 3, for a real face) halfedges bounding f in
// CCW order.
func (f Face) Halfedges() []Halfedge {
	start := f.Halfedge()
	var out []Halfedge
	h := start
	for {
		out = append(out, h)
		h = h.Next()
		if h.ID == start.ID {
			break
		}
	}
	return out
}

// Vertices returns the (exactly 3, for a real face) vertices of f in CCW
// order.
func (f Face) Vertices() []Vertex {
	hs := f.Halfedges()
	out := make([]Vertex, len(hs))
	for i, h := range hs {
		out[i] = h.Vertex()
	}
	return out
}

// Vertices, Edges, Halfedges and Faces iterate over all live elements of
// the corresponding kind. Faces excludes boundary loops.
func (m *Mesh) Vertices() []Vertex {
	out := make([]Vertex, 0, m.NVertices())
	for i := range m.vHalfedge {
		if !m.vDeleted[i] {
			out = append(out, Vertex{m, VertexID(i)})
		}
	}
	return out
}

func (m *Mesh) Edges() []Edge {
	out := make([]Edge, 0, m.NEdges())
	for i := range m.eHalfedge {
		if !m.eDeleted[i] {
			out = append(out, Edge{m, EdgeID(i)})
		}
	}
	return out
}

func (m *Mesh) Halfedges() []Halfedge {
	out := make([]Halfedge, 0, m.NHalfedges())
	for i := range m.heNext {
		if !m.heDeleted[i] {
			out = append(out, Halfedge{m, HalfedgeID(i)})
		}
	}
	return out
}

func (m *Mesh) Faces() []Face {
	out := make([]Face, 0, m.NFaces())
	for i := range m.fHalfedge {
		if !m.fDeleted[i] && !m.fIsBoundary[i] {
			out = append(out, Face{m, FaceID(i)})
		}
	}
	return out
}

// Package mesh implements the combinatorial 2-manifold half-edge container
// that the intrinsic triangulation is built on top of. It is the concrete
// realization of the "external collaborator" the specification treats as
// borrowed: vertices, edges, halfedges and faces stored in reusable index
// arrays, with atomic topology primitives (flip, split, insert, remove) and
// a registration-token facility for dependent per-element data.
//
// The allocator is grounded on the teacher's firstFreeVertexPos /
// firstFreeEdgePos / firstFreeFacePos counters (see _teacherref/voronoi.go,
// createVertex/createEdge/createFace): elements live in parallel slices and
// deleted slots are pushed onto a free list for reuse, rather than being
// compacted immediately.
package mesh

import "fmt"

// Mesh is an oriented, triangulated 2-manifold, possibly with boundary.
// Every face is a triangle except boundary-loop faces, which are simple
// polygons used only for traversal and are never triangulated or reported
// by Faces().
type Mesh struct {
	// vertex arrays
	vHalfedge []HalfedgeID // one outgoing halfedge per vertex
	vDeleted  []bool
	vFree     []VertexID

	// halfedge arrays
	heVertex  []VertexID // tail vertex
	heNext    []HalfedgeID
	hePrev    []HalfedgeID
	heTwin    []HalfedgeID
	heFace    []FaceID
	heEdge    []EdgeID
	heDeleted []bool
	heFree    []HalfedgeID

	// edge arrays
	eHalfedge []HalfedgeID // canonical halfedge; twin is heTwin[eHalfedge[e]]
	eDeleted  []bool
	eFree     []EdgeID

	// face arrays
	fHalfedge   []HalfedgeID
	fIsBoundary []bool
	fDeleted    []bool
	fFree       []FaceID

	vertexGrowth   registry[growthFn]
	edgeGrowth     registry[growthFn]
	halfedgeGrowth registry[growthFn]
	faceGrowth     registry[growthFn]

	edgeFlipCallbacks      registry[func(Edge)]
	faceInsertionCallbacks registry[func(Face, Vertex)]
	edgeSplitCallbacks     registry[func(Edge, Halfedge, Halfedge)]
}

// New returns an empty mesh with no elements.
func New() *Mesh {
	return &Mesh{}
}

func (m *Mesh) notifyVertexGrowth()   { m.vertexGrowth.each(func(f growthFn) { f(len(m.vHalfedge)) }) }
func (m *Mesh) notifyEdgeGrowth()     { m.edgeGrowth.each(func(f growthFn) { f(len(m.eHalfedge)) }) }
func (m *Mesh) notifyHalfedgeGrowth() { m.halfedgeGrowth.each(func(f growthFn) { f(len(m.heNext)) }) }
func (m *Mesh) notifyFaceGrowth()     { m.faceGrowth.each(func(f growthFn) { f(len(m.fHalfedge)) }) }

// newVertex allocates a vertex slot, reusing a deleted one if available.
func (m *Mesh) newVertex() VertexID {
	if n := len(m.vFree); n > 0 {
		id := m.vFree[n-1]
		m.vFree = m.vFree[:n-1]
		m.vDeleted[id] = false
		m.vHalfedge[id] = InvalidHalfedge
		return id
	}
	id := VertexID(len(m.vHalfedge))
	m.vHalfedge = append(m.vHalfedge, InvalidHalfedge)
	m.vDeleted = append(m.vDeleted, false)
	m.notifyVertexGrowth()
	return id
}

func (m *Mesh) newHalfedge() HalfedgeID {
	if n := len(m.heFree); n > 0 {
		id := m.heFree[n-1]
		m.heFree = m.heFree[:n-1]
		m.heDeleted[id] = false
		return id
	}
	id := HalfedgeID(len(m.heNext))
	m.heVertex = append(m.heVertex, InvalidVertex)
	m.heNext = append(m.heNext, InvalidHalfedge)
	m.hePrev = append(m.hePrev, InvalidHalfedge)
	m.heTwin = append(m.heTwin, InvalidHalfedge)
	m.heFace = append(m.heFace, InvalidFace)
	m.heEdge = append(m.heEdge, InvalidEdge)
	m.heDeleted = append(m.heDeleted, false)
	m.notifyHalfedgeGrowth()
	return id
}

func (m *Mesh) newEdge() EdgeID {
	if n := len(m.eFree); n > 0 {
		id := m.eFree[n-1]
		m.eFree = m.eFree[:n-1]
		m.eDeleted[id] = false
		return id
	}
	id := EdgeID(len(m.eHalfedge))
	m.eHalfedge = append(m.eHalfedge, InvalidHalfedge)
	m.eDeleted = append(m.eDeleted, false)
	m.notifyEdgeGrowth()
	return id
}

func (m *Mesh) newFace() FaceID {
	if n := len(m.fFree); n > 0 {
		id := m.fFree[n-1]
		m.fFree = m.fFree[:n-1]
		m.fDeleted[id] = false
		m.fIsBoundary[id] = false
		return id
	}
	id := FaceID(len(m.fHalfedge))
	m.fHalfedge = append(m.fHalfedge, InvalidHalfedge)
	m.fIsBoundary = append(m.fIsBoundary, false)
	m.fDeleted = append(m.fDeleted, false)
	m.notifyFaceGrowth()
	return id
}

func (m *Mesh) deleteVertex(v VertexID) {
	m.vDeleted[v] = true
	m.vFree = append(m.vFree, v)
}

func (m *Mesh) deleteHalfedge(h HalfedgeID) {
	m.heDeleted[h] = true
	m.heFree = append(m.heFree, h)
}

func (m *Mesh) deleteEdge(e EdgeID) {
	m.eDeleted[e] = true
	m.eFree = append(m.eFree, e)
}

func (m *Mesh) deleteFace(f FaceID) {
	m.fDeleted[f] = true
	m.fFree = append(m.fFree, f)
}

// NVertices, NEdges, NHalfedges, NFaces count only live (non-deleted)
// elements, excluding boundary-loop faces from NFaces.
func (m *Mesh) NVertices() int {
	return len(m.vHalfedge) - len(m.vFree)
}
func (m *Mesh) NEdges() int { return len(m.eHalfedge) - len(m.eFree) }
func (m *Mesh) NHalfedges() int {
	return len(m.heNext) - len(m.heFree)
}
func (m *Mesh) NFaces() int {
	n := 0
	for f := range m.fHalfedge {
		if !m.fDeleted[f] && !m.fIsBoundary[f] {
			n++
		}
	}
	return n
}

// OnEdgeFlip, OnFaceInsertion and OnEdgeSplit register callbacks invoked
// after the corresponding mutation has fully committed, in registration
// order. Closing the returned Token de-registers the callback.
func (m *Mesh) OnEdgeFlip(fn func(Edge)) *Token { return m.edgeFlipCallbacks.add(fn) }
func (m *Mesh) OnFaceInsertion(fn func(Face, Vertex)) *Token {
	return m.faceInsertionCallbacks.add(fn)
}
func (m *Mesh) OnEdgeSplit(fn func(Edge, Halfedge, Halfedge)) *Token {
	return m.edgeSplitCallbacks.add(fn)
}

// EulerCharacteristic reports V - E + F over the live, non-boundary
// elements of the mesh.
func (m *Mesh) EulerCharacteristic() int {
	return m.NVertices() - m.NEdges() + m.NFaces()
}

func (m *Mesh) String() string {
	return fmt.Sprintf("Mesh{V:%d E:%d F:%d}", m.NVertices(), m.NEdges(), m.NFaces())
}

package mesh

import "testing"

func tetrahedron(t *testing.T) *Mesh {
	t.Helper()
	tris := [][3]int{
		{0, 1, 2},
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
	}
	m, err := FromTriangles(4, tris)
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return m
}

func singleTriangleWithBoundary(t *testing.T) *Mesh {
	t.Helper()
	m, err := FromTriangles(3, [][3]int{{0, 1, 2}})
	if err != nil {
		t.Fatalf("FromTriangles: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return m
}

func TestFromTrianglesTetrahedronEuler(t *testing.T) {
	m := tetrahedron(t)
	if got := m.NVertices(); got != 4 {
		t.Errorf("NVertices = %d, want 4", got)
	}
	if got := m.NEdges(); got != 6 {
		t.Errorf("NEdges = %d, want 6", got)
	}
	if got := m.NFaces(); got != 4 {
		t.Errorf("NFaces = %d, want 4", got)
	}
	if got := m.EulerCharacteristic(); got != 2 {
		t.Errorf("EulerCharacteristic = %d, want 2 (closed genus-0 surface)", got)
	}
	for _, v := range m.Vertices() {
		if v.IsBoundary() {
			t.Errorf("vertex %d: closed mesh should have no boundary vertices", v.ID)
		}
	}
}

func TestFromTrianglesSingleTriangleHasBoundary(t *testing.T) {
	m := singleTriangleWithBoundary(t)
	if got := m.NVertices(); got != 3 {
		t.Errorf("NVertices = %d, want 3", got)
	}
	if got := m.NFaces(); got != 1 {
		t.Errorf("NFaces = %d, want 1", got)
	}
	for _, v := range m.Vertices() {
		if !v.IsBoundary() {
			t.Errorf("vertex %d: single triangle should be all boundary", v.ID)
		}
		if got := v.Degree(); got != 2 {
			t.Errorf("vertex %d degree = %d, want 2", v.ID, got)
		}
	}
	faces := m.Faces()
	if len(faces) != 1 {
		t.Fatalf("len(Faces()) = %d, want 1 (boundary loop excluded)", len(faces))
	}
	if len(faces[0].Halfedges()) != 3 {
		t.Errorf("triangle face has %d sides, want 3", len(faces[0].Halfedges()))
	}
}

func TestFromTrianglesRejectsDegenerateTriangle(t *testing.T) {
	_, err := FromTriangles(3, [][3]int{{0, 0, 1}})
	if err == nil {
		t.Fatal("expected error for degenerate triangle")
	}
}

func TestFromTrianglesRejectsInconsistentWinding(t *testing.T) {
	_, err := FromTriangles(4, [][3]int{{0, 1, 2}, {0, 1, 3}})
	if err == nil {
		t.Fatal("expected error for duplicate directed edge")
	}
}

func TestFlipInteriorEdge(t *testing.T) {
	m := tetrahedron(t)
	var e EdgeID = InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	if e == InvalidEdge {
		t.Fatal("no interior edge found")
	}
	if !m.CanFlip(e) {
		t.Fatal("CanFlip should report true on tetrahedron's interior edges")
	}
	if !m.Flip(e) {
		t.Fatal("Flip failed")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate after flip: %v", err)
	}
	if got := m.EulerCharacteristic(); got != 2 {
		t.Errorf("EulerCharacteristic after flip = %d, want 2", got)
	}
}

func TestFlipRejectsBoundaryEdge(t *testing.T) {
	m := singleTriangleWithBoundary(t)
	e := m.Edges()[0].ID
	if m.Flip(e) {
		t.Fatal("Flip on a boundary edge should fail")
	}
}

func TestFlipCallbackFires(t *testing.T) {
	m := tetrahedron(t)
	var e EdgeID = InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	fired := 0
	tok := m.OnEdgeFlip(func(Edge) { fired++ })
	m.Flip(e)
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
	tok.Close()
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() && m.CanFlip(edge.ID) {
			m.Flip(edge.ID)
			break
		}
	}
	if fired != 1 {
		t.Errorf("callback fired after Close(), want still 1, got %d", fired)
	}
}

func TestSplitEdgeInterior(t *testing.T) {
	m := tetrahedron(t)
	nV, nE, nF := m.NVertices(), m.NEdges(), m.NFaces()
	var e EdgeID = InvalidEdge
	for _, edge := range m.Edges() {
		if !edge.IsBoundary() {
			e = edge.ID
			break
		}
	}
	var splitOld Edge
	var splitHe1, splitHe2 Halfedge
	m.OnEdgeSplit(func(old Edge, h1, h2 Halfedge) {
		splitOld, splitHe1, splitHe2 = old, h1, h2
	})
	v, he1, he2 := m.SplitEdge(m.Edge(e).Halfedge().ID)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate after split: %v", err)
	}
	if m.NVertices() != nV+1 {
		t.Errorf("NVertices = %d, want %d", m.NVertices(), nV+1)
	}
	if m.NEdges() != nE+3 {
		t.Errorf("NEdges = %d, want %d (original edge reused + 1 new edge-half + 2 diagonals)", m.NEdges(), nE+3)
	}
	if m.NFaces() != nF+2 {
		t.Errorf("NFaces = %d, want %d", m.NFaces(), nF+2)
	}
	if m.Vertex(v).Degree() != 4 {
		t.Errorf("new vertex degree = %d, want 4", m.Vertex(v).Degree())
	}
	if splitOld.ID != e {
		t.Errorf("callback old edge = %d, want %d", splitOld.ID, e)
	}
	if splitHe1.ID != he1 || splitHe2.ID != he2 {
		t.Errorf("callback halfedges = (%d,%d), want (%d,%d)", splitHe1.ID, splitHe2.ID, he1, he2)
	}
	if m.Halfedge(he1).Vertex().ID != v || m.Halfedge(he2).Vertex().ID != v {
		t.Error("both returned halfedges must originate at the new vertex")
	}
}

func TestSplitEdgeOnBoundary(t *testing.T) {
	m := singleTriangleWithBoundary(t)
	var boundaryEdge EdgeID
	for _, e := range m.Edges() {
		if e.IsBoundary() {
			boundaryEdge = e.ID
			break
		}
	}
	h := m.Edge(boundaryEdge).Halfedge()
	if h.IsInterior() {
		h = h.Twin()
	}
	interiorHe := h.Twin()
	v, _, _ := m.SplitEdge(interiorHe.ID)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate after boundary split: %v", err)
	}
	if m.NFaces() != 2 {
		t.Errorf("NFaces = %d, want 2", m.NFaces())
	}
	if !m.Vertex(v).IsBoundary() {
		t.Error("vertex inserted on a boundary edge should itself be a boundary vertex")
	}
}

func TestInsertVertexInFace(t *testing.T) {
	m := tetrahedron(t)
	f := m.Faces()[0].ID
	nV, nE, nF := m.NVertices(), m.NEdges(), m.NFaces()

	var insFace Face
	var insVert Vertex
	m.OnFaceInsertion(func(face Face, v Vertex) { insFace, insVert = face, v })

	v, ok := m.InsertVertexInFace(f)
	if !ok {
		t.Fatal("InsertVertexInFace failed")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate after insertion: %v", err)
	}
	if m.NVertices() != nV+1 {
		t.Errorf("NVertices = %d, want %d", m.NVertices(), nV+1)
	}
	if m.NEdges() != nE+3 {
		t.Errorf("NEdges = %d, want %d", m.NEdges(), nE+3)
	}
	if m.NFaces() != nF+2 {
		t.Errorf("NFaces = %d, want %d", m.NFaces(), nF+2)
	}
	if m.Vertex(v).Degree() != 3 {
		t.Errorf("new vertex degree = %d, want 3", m.Vertex(v).Degree())
	}
	if insFace.ID != f || insVert.ID != v {
		t.Errorf("callback args = (%d,%d), want (%d,%d)", insFace.ID, insVert.ID, f, v)
	}
}

func TestInsertVertexInFaceRejectsBoundaryLoop(t *testing.T) {
	m := singleTriangleWithBoundary(t)
	var boundaryFace FaceID = InvalidFace
	for i := range m.fHalfedge {
		if m.fIsBoundary[i] {
			boundaryFace = FaceID(i)
			break
		}
	}
	if _, ok := m.InsertVertexInFace(boundaryFace); ok {
		t.Error("InsertVertexInFace on a boundary loop should fail")
	}
}

func TestInsertThenRemoveDegree3VertexRoundTrips(t *testing.T) {
	m := tetrahedron(t)
	f := m.Faces()[0].ID
	nV, nE, nF := m.NVertices(), m.NEdges(), m.NFaces()

	v, ok := m.InsertVertexInFace(f)
	if !ok {
		t.Fatal("InsertVertexInFace failed")
	}
	keep, ok := m.RemoveDegree3Vertex(v)
	if !ok {
		t.Fatal("RemoveDegree3Vertex failed")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate after round trip: %v", err)
	}
	if m.NVertices() != nV {
		t.Errorf("NVertices = %d, want %d", m.NVertices(), nV)
	}
	if m.NEdges() != nE {
		t.Errorf("NEdges = %d, want %d", m.NEdges(), nE)
	}
	if m.NFaces() != nF {
		t.Errorf("NFaces = %d, want %d", m.NFaces(), nF)
	}
	if len(m.Face(keep).Halfedges()) != 3 {
		t.Errorf("surviving face has %d sides, want 3", len(m.Face(keep).Halfedges()))
	}
}

func TestRemoveDegree3VertexRejectsWrongDegree(t *testing.T) {
	m := tetrahedron(t)
	v := m.Vertices()[0]
	if v.Degree() != 3 {
		t.Fatalf("tetrahedron vertex degree = %d, want 3 for this test to be meaningful", v.Degree())
	}
	// Every vertex of a tetrahedron already has degree 3; pick one and
	// removing it is legal, but removing a degree-3 boundary vertex (which
	// doesn't arise on a closed tetrahedron) or wrong-degree vertex must fail.
	m2 := singleTriangleWithBoundary(t)
	if _, ok := m2.RemoveDegree3Vertex(m2.Vertices()[0].ID); ok {
		t.Error("RemoveDegree3Vertex on a boundary vertex should fail")
	}
}

func TestVertexDataGrowsWithMesh(t *testing.T) {
	m := New()
	vd := NewVertexData[float64](m)
	for i := 0; i < 5; i++ {
		id := m.newVertex()
		vd.Set(id, float64(id)*2)
	}
	for i := 0; i < 5; i++ {
		if got := vd.Get(VertexID(i)); got != float64(i)*2 {
			t.Errorf("vd.Get(%d) = %v, want %v", i, got, float64(i)*2)
		}
	}
}

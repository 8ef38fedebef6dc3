package meshio

import (
	"strings"
	"testing"
)

const tetrahedronOBJ = `
# unit-ish tetrahedron
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1 2 3
f 1 4 2
f 2 4 3
f 3 4 1
`

func TestLoadTetrahedron(t *testing.T) {
	m, g, err := Load(strings.NewReader(tetrahedronOBJ))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(m.Vertices()); got != 4 {
		t.Errorf("vertex count = %d, want 4", got)
	}
	if got := len(m.Faces()); got != 4 {
		t.Errorf("face count = %d, want 4 (closed tetrahedron, no boundary loop)", got)
	}
	for _, e := range m.Edges() {
		if g.EdgeLength(e.ID) <= 0 {
			t.Errorf("edge %d has non-positive derived length", e.ID)
		}
	}
}

func TestLoadRejectsNonTriangularFace(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nf 1 2 3 4\n"
	if _, _, err := Load(strings.NewReader(src)); err == nil {
		t.Errorf("Load should reject a quad face")
	}
}

func TestLoadRejectsEmptyInput(t *testing.T) {
	if _, _, err := Load(strings.NewReader("")); err == nil {
		t.Errorf("Load should reject a stream with no vertices")
	}
}

func TestLoadAcceptsSlashSeparatedFaceIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1/1/1 2/2/2 3/3/3
f 1/1/1 4/4/4 2/2/2
f 2/2/2 4/4/4 3/3/3
f 3/3/3 4/4/4 1/1/1
`
	m, _, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(m.Vertices()); got != 4 {
		t.Errorf("vertex count = %d, want 4", got)
	}
}

// Package meshio loads a triangle mesh from a minimal OBJ-like text format
// into a mesh.Mesh paired with its geometry.InputGeometry: vertex positions
// ("v x y z") and triangular faces ("f i j k", or "i/j/k" slash groups where
// only the first slot is read), nothing else. Any other record is ignored.
// Edge lengths are derived from the loaded vertex positions.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gridmesh/intrintri/geom"
	"github.com/gridmesh/intrintri/geometry"
	"github.com/gridmesh/intrintri/mesh"
)

// Load reads r as a minimal OBJ stream and returns the resulting mesh and
// its input geometry (positions set, edge lengths derived from them).
func Load(r io.Reader) (*mesh.Mesh, *geometry.InputGeometry, error) {
	var positions []geom.Vector3
	var tris [][3]int

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("meshio: line %d: vertex record needs 3 coordinates", lineNo)
			}
			x, err1 := strconv.ParseFloat(fields[1], 64)
			y, err2 := strconv.ParseFloat(fields[2], 64)
			z, err3 := strconv.ParseFloat(fields[3], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, nil, fmt.Errorf("meshio: line %d: malformed vertex coordinates", lineNo)
			}
			positions = append(positions, geom.Vector3{X: x, Y: y, Z: z})
		case "f":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("meshio: line %d: face record needs at least 3 vertices", lineNo)
			}
			if len(fields) != 4 {
				return nil, nil, fmt.Errorf("meshio: line %d: only triangular faces are supported, got %d vertices", lineNo, len(fields)-1)
			}
			var tri [3]int
			for i, tok := range fields[1:4] {
				idxStr := strings.SplitN(tok, "/", 2)[0]
				idx, err := strconv.Atoi(idxStr)
				if err != nil {
					return nil, nil, fmt.Errorf("meshio: line %d: malformed face index %q", lineNo, tok)
				}
				if idx <= 0 {
					return nil, nil, fmt.Errorf("meshio: line %d: non-positive vertex index %d (negative/relative indices unsupported)", lineNo, idx)
				}
				tri[i] = idx - 1
			}
			tris = append(tris, tri)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("meshio: %w", err)
	}
	if len(positions) == 0 {
		return nil, nil, fmt.Errorf("meshio: no vertex records found")
	}
	if len(tris) == 0 {
		return nil, nil, fmt.Errorf("meshio: no face records found")
	}

	m, err := mesh.FromTriangles(len(positions), tris)
	if err != nil {
		return nil, nil, fmt.Errorf("meshio: %w", err)
	}

	g := geometry.NewInputGeometry(m)
	for _, v := range m.Vertices() {
		if int(v.ID) >= len(positions) {
			return nil, nil, fmt.Errorf("meshio: vertex %d out of range of %d loaded positions", v.ID, len(positions))
		}
		g.SetVertexPosition(v.ID, positions[v.ID])
	}
	for _, e := range m.Edges() {
		h := e.Halfedge()
		a := g.VertexPosition(h.Vertex().ID)
		b := g.VertexPosition(h.Tip().ID)
		g.SetEdgeLength(e.ID, geom.Dist3(a, b))
	}

	if err := g.Validate(1e-6); err != nil {
		return nil, nil, fmt.Errorf("meshio: %w", err)
	}
	return m, g, nil
}

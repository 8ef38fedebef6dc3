// Package geometry turns a mesh's per-edge lengths into the derived
// quantities the intrinsic triangulation's flip/insert/refine logic needs:
// corner angles, vertex angle sums, and halfedge vectors in both the
// isometric per-face layout and the (possibly cone-singular) per-vertex
// tangent space. It never touches the normal-coordinate bookkeeping; it
// only consumes whatever positive edge lengths are handed to it, whether
// those come from an embedded input mesh or from an intrinsic
// triangulation's own Putnam-updated lengths.
package geometry

import (
	"fmt"
	"math"

	"github.com/gridmesh/intrintri/geom"
	"github.com/gridmesh/intrintri/mesh"
)

// Lengths is the minimal contract a Cache needs: a positive length for
// every edge. Both InputGeometry and the intrinsic package's own per-edge
// length storage satisfy it.
type Lengths interface {
	EdgeLength(e mesh.EdgeID) float64
}

// InputGeometry stores the fixed, borrowed edge lengths (and, optionally,
// embedding positions for diagnostics) of the original input mesh E_A. The
// triangulation never mutates it.
type InputGeometry struct {
	m         *mesh.Mesh
	lengths   *mesh.EdgeData[float64]
	positions *mesh.VertexData[geom.Vector3]
	hasPos    bool
}

// NewInputGeometry allocates edge-length storage over m, all zero until
// set via SetEdgeLength.
func NewInputGeometry(m *mesh.Mesh) *InputGeometry {
	return &InputGeometry{m: m, lengths: mesh.NewEdgeData[float64](m)}
}

func (g *InputGeometry) EdgeLength(e mesh.EdgeID) float64   { return g.lengths.Get(e) }
func (g *InputGeometry) SetEdgeLength(e mesh.EdgeID, l float64) { g.lengths.Set(e, l) }

// EnablePositions allocates per-vertex 3D positions, used only by
// diagnostics (rendering the input wireframe) and by meshio when loading a
// mesh with explicit vertex coordinates.
func (g *InputGeometry) EnablePositions() {
	if !g.hasPos {
		g.positions = mesh.NewVertexData[geom.Vector3](g.m)
		g.hasPos = true
	}
}

func (g *InputGeometry) HasPositions() bool { return g.hasPos }

func (g *InputGeometry) VertexPosition(v mesh.VertexID) geom.Vector3 {
	if !g.hasPos {
		return geom.Vector3{}
	}
	return g.positions.Get(v)
}

func (g *InputGeometry) SetVertexPosition(v mesh.VertexID, p geom.Vector3) {
	g.EnablePositions()
	g.positions.Set(v, p)
}

// Validate checks that every non-boundary face's three edge lengths
// satisfy the triangle inequality, within eps.
func (g *InputGeometry) Validate(eps float64) error {
	for _, f := range g.m.Faces() {
		hs := f.Halfedges()
		if len(hs) != 3 {
			return fmt.Errorf("geometry: face %d is not a triangle", f.ID)
		}
		a := g.EdgeLength(hs[0].Edge().ID)
		b := g.EdgeLength(hs[1].Edge().ID)
		c := g.EdgeLength(hs[2].Edge().ID)
		if a <= 0 || b <= 0 || c <= 0 {
			return fmt.Errorf("geometry: face %d has a non-positive edge length", f.ID)
		}
		if !geom.SatisfiesTriangleInequality(a, b, c, eps) {
			return fmt.Errorf("geometry: face %d's lengths (%v,%v,%v) violate the triangle inequality", f.ID, a, b, c)
		}
	}
	return nil
}

// Cache holds the derived quantities of §4.1, refreshed incrementally as
// the mesh mutates.
type Cache struct {
	m       *mesh.Mesh
	lengths Lengths

	cornerAngle *mesh.HalfedgeData[float64]
	angleSum    *mesh.VertexData[float64]
	vecInFace   *mesh.HalfedgeData[geom.Vector2]
	vecInVertex *mesh.HalfedgeData[geom.Vector2]

	flipTok   *mesh.Token
	insertTok *mesh.Token
	splitTok  *mesh.Token
}

// NewCache builds a Cache over m using lengths, computes every derived
// quantity once, and subscribes to m's mutation callbacks so later flips,
// splits and insertions keep the cache current without a full recompute.
func NewCache(m *mesh.Mesh, lengths Lengths) *Cache {
	c := &Cache{
		m:           m,
		lengths:     lengths,
		cornerAngle: mesh.NewHalfedgeData[float64](m),
		angleSum:    mesh.NewVertexData[float64](m),
		vecInFace:   mesh.NewHalfedgeData[geom.Vector2](m),
		vecInVertex: mesh.NewHalfedgeData[geom.Vector2](m),
	}
	c.RefreshAll()
	c.flipTok = m.OnEdgeFlip(func(e mesh.Edge) {
		c.refreshAroundVertex(e.Halfedge().Vertex().ID)
	})
	c.insertTok = m.OnFaceInsertion(func(_ mesh.Face, v mesh.Vertex) {
		c.refreshAroundVertex(v.ID)
	})
	c.splitTok = m.OnEdgeSplit(func(_ mesh.Edge, h1, _ mesh.Halfedge) {
		c.refreshAroundVertex(h1.Vertex().ID)
	})
	return c
}

// Close stops tracking mesh mutations. The cache's existing arrays remain
// valid but will go stale.
func (c *Cache) Close() {
	c.flipTok.Close()
	c.insertTok.Close()
	c.splitTok.Close()
}

func (c *Cache) CornerAngle(h mesh.HalfedgeID) float64          { return c.cornerAngle.Get(h) }
func (c *Cache) AngleSum(v mesh.VertexID) float64               { return c.angleSum.Get(v) }
func (c *Cache) HalfedgeVectorInFace(h mesh.HalfedgeID) geom.Vector2 { return c.vecInFace.Get(h) }
func (c *Cache) HalfedgeVectorInVertex(h mesh.HalfedgeID) geom.Vector2 {
	return c.vecInVertex.Get(h)
}

// AngleDefect is 2π minus the angle sum at an interior vertex (the
// standard discrete Gaussian curvature); it is meaningless at a boundary
// vertex and the caller should check IsBoundary first.
func (c *Cache) AngleDefect(v mesh.VertexID) float64 {
	return 2*math.Pi - c.AngleSum(v)
}

// RefreshAll recomputes every derived quantity from scratch.
func (c *Cache) RefreshAll() {
	for _, f := range c.m.Faces() {
		c.RefreshFace(f.ID)
	}
	for _, v := range c.m.Vertices() {
		c.RefreshVertex(v.ID)
	}
}

// RefreshFace recomputes the corner angles and in-face halfedge vectors of
// a single (non-boundary) triangular face from its current edge lengths.
func (c *Cache) RefreshFace(f mesh.FaceID) {
	face := c.m.Face(f)
	if face.IsBoundaryLoop() {
		return
	}
	hs := face.Halfedges()
	if len(hs) != 3 {
		return
	}
	h0, h1, h2 := hs[0], hs[1], hs[2]
	l0 := c.lengths.EdgeLength(h0.Edge().ID) // v0->v1
	l1 := c.lengths.EdgeLength(h1.Edge().ID) // v1->v2
	l2 := c.lengths.EdgeLength(h2.Edge().ID) // v2->v0

	angle0 := geom.LawOfCosinesAngle(l0, l2, l1) // at v0, opposite side v1-v2
	angle1 := geom.LawOfCosinesAngle(l1, l0, l2) // at v1, opposite side v2-v0
	angle2 := math.Pi - angle0 - angle1          // at v2

	c.cornerAngle.Set(h0.ID, angle0)
	c.cornerAngle.Set(h1.ID, angle1)
	c.cornerAngle.Set(h2.ID, angle2)

	p0 := geom.Vector2{}
	p1 := geom.Vector2{X: l0}
	dir2 := geom.Vector2{X: math.Cos(angle0), Y: math.Sin(angle0)}
	p2 := dir2.Mul(l2)

	c.vecInFace.Set(h0.ID, p1.Sub(p0))
	c.vecInFace.Set(h1.ID, p2.Sub(p1))
	c.vecInFace.Set(h2.ID, p0.Sub(p2))
}

// RefreshVertex recomputes the angle sum and tangent-space halfedge
// directions at v. Callers must refresh every face incident to v first.
func (c *Cache) RefreshVertex(v mesh.VertexID) {
	vh := c.m.Vertex(v)
	spokes := vh.OutgoingHalfedges()
	if len(spokes) == 0 {
		return
	}
	sum := 0.0
	for _, h := range spokes {
		if h.IsInterior() {
			sum += c.cornerAngle.Get(h.ID)
		}
	}
	c.angleSum.Set(v, sum)

	scale := 1.0
	if !vh.IsBoundary() && sum > geom.EPS {
		scale = 2 * math.Pi / sum
	}
	cum := 0.0
	for _, h := range spokes {
		theta := cum * scale
		c.vecInVertex.Set(h.ID, geom.Vector2{X: math.Cos(theta), Y: math.Sin(theta)})
		if h.IsInterior() {
			cum += c.cornerAngle.Get(h.ID)
		}
	}
}

// refreshAroundVertex recomputes every face incident to v and then every
// vertex of those faces, which is enough to cover any single local
// mutation (flip, split, or face insertion) since each of those touches
// only faces incident to one particular vertex.
func (c *Cache) refreshAroundVertex(v mesh.VertexID) {
	faceSet := map[mesh.FaceID]bool{}
	for _, h := range c.m.Vertex(v).OutgoingHalfedges() {
		if h.IsInterior() {
			faceSet[h.Face().ID] = true
		}
	}
	vertexSet := map[mesh.VertexID]bool{v: true}
	for f := range faceSet {
		c.RefreshFace(f)
		for _, vv := range c.m.Face(f).Vertices() {
			vertexSet[vv.ID] = true
		}
	}
	for vv := range vertexSet {
		c.RefreshVertex(vv)
	}
}

// Package normalcoords maintains the integer normal-coordinate field and
// roundabout indices on an intrinsic mesh: the combinatorial bookkeeping
// that lets the correspondence tracer recover exact paths on the input
// surface without ever touching floating point. Every update here is an
// integer formula; the geometric decisions (is this flip Delaunay? is
// this quadrilateral convex?) belong to the intrinsic package, which
// drives these primitives in the right order around each mesh mutation.
package normalcoords

import (
	"fmt"

	"github.com/gridmesh/intrintri/mesh"
)

// Coords holds n: E_B -> Z (normal coordinates, negative values marking a
// shared-edge case) and r: H_B -> N (roundabouts).
type Coords struct {
	m *mesh.Mesh
	n *mesh.EdgeData[int]
	r *mesh.HalfedgeData[int]
}

// New allocates a Coords over m with every coordinate and roundabout at
// zero -- the correct initial state for a freshly constructed intrinsic
// mesh that combinatorially equals its input (§3 Lifecycle).
func New(m *mesh.Mesh) *Coords {
	return &Coords{m: m, n: mesh.NewEdgeData[int](m), r: mesh.NewHalfedgeData[int](m)}
}

func (c *Coords) N(e mesh.EdgeID) int                    { return c.n.Get(e) }
func (c *Coords) SetN(e mesh.EdgeID, v int)              { c.n.Set(e, v) }
func (c *Coords) Roundabout(h mesh.HalfedgeID) int       { return c.r.Get(h) }
func (c *Coords) SetRoundabout(h mesh.HalfedgeID, v int) { c.r.Set(h, v) }

// IsSharedEdge reports the negative-marker case: e coincides with an
// input half-edge and runs parallel to -N(e) further copies.
func (c *Coords) IsSharedEdge(e mesh.EdgeID) bool { return c.N(e) < 0 }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CornerCrossing is invariant N1's c_alpha = max(0, (nj+nk-ni)/2): the
// number of input-edge crossings bundled at the corner opposite the edge
// with coordinate ni, given its two adjacent edges nj, nk. A negative
// (shared-edge) coordinate counts as zero crossings.
func CornerCrossing(ni, nj, nk int) int {
	return maxInt(0, (maxInt(0, nj)+maxInt(0, nk)-maxInt(0, ni))/2)
}

// FlipUpdate computes and commits e's post-flip normal coordinate. It
// must be called while e's two incident faces still reflect the pre-flip
// quadrilateral -- i.e. strictly before the corresponding mesh.Flip(e).
// The four boundary edges of the quadrilateral are read but never
// written; only the diagonal's own coordinate changes.
func (c *Coords) FlipUpdate(e mesh.EdgeID) error {
	if c.IsSharedEdge(e) {
		return fmt.Errorf("normalcoords: cannot flip shared edge %d", e)
	}
	// e runs tail-to-tip A->B (h1) on one side and B->A (h4) on the other.
	// Calling the two apexes C (across h2/h3) and D (across h5/h6), the
	// quadrilateral's four boundary edges are AB's two triangles: (A,B,C)
	// and (B,A,D).
	h1 := c.m.Edge(e).Halfedge()
	h4 := h1.Twin()
	h2 := h1.Next()
	h3 := h2.Next()
	h5 := h4.Next()
	h6 := h5.Next()

	p := c.N(h2.Edge().ID) // B-C
	q := c.N(h3.Edge().ID) // C-A
	r := c.N(h5.Edge().ID) // A-D
	s := c.N(h6.Edge().ID) // D-B
	m := c.N(e)

	newVal := maxInt(abs(q)+abs(s), abs(p)+abs(r)) - abs(m)
	c.SetN(e, newVal)

	// The new diagonal (still h1/h4 after mesh.Flip, which mutates those
	// handles in place rather than reallocating them) occupies the
	// rotational slot left behind at each endpoint; it adopts the
	// roundabout of its surviving rotational neighbor there (h3 at the
	// tail that keeps h3, h6 at the tail that keeps h6). Flip's own
	// surgery (mesh.Flip) never touches roundabouts of edges whose
	// endpoints didn't move, so h3 and h6 keep whatever value they had.
	c.SetRoundabout(h1.ID, c.Roundabout(h3.ID))
	c.SetRoundabout(h4.ID, c.Roundabout(h6.ID))
	return nil
}

// SplitPrep carries the values CommitSplit needs, captured from the mesh
// before mesh.SplitEdge mutates it.
type SplitPrep struct {
	t       float64
	nOld    int
	roundH  int
	hasC    bool
	apexC   mesh.VertexID
	cornerC int
	hasD    bool
	apexD   mesh.VertexID
	cornerD int
}

// PrepareSplit reads the pre-split state needed to assign normal
// coordinates to the pieces splitting he's edge at parameter t will
// produce. Call this strictly before mesh.SplitEdge(he).
func (c *Coords) PrepareSplit(he mesh.HalfedgeID, t float64) SplitPrep {
	h := c.m.Halfedge(he)
	ht := h.Twin()
	p := SplitPrep{t: t, nOld: c.N(h.Edge().ID), roundH: c.Roundabout(he)}

	if h.IsInterior() {
		hn := h.Next()
		hp := hn.Next()
		p.hasC = true
		p.apexC = hp.Vertex().ID
		p.cornerC = CornerCrossing(p.nOld, c.N(hn.Edge().ID), c.N(hp.Edge().ID))
	}
	if ht.IsInterior() {
		tn := ht.Next()
		tp := tn.Next()
		p.hasD = true
		p.apexD = tp.Vertex().ID
		p.cornerD = CornerCrossing(p.nOld, c.N(tn.Edge().ID), c.N(tp.Edge().ID))
	}
	return p
}

// CommitSplit assigns normal coordinates and roundabouts to the edges
// mesh.SplitEdge(he) just created, given the prep captured beforehand and
// the (v, he1, he2) it returned.
func (c *Coords) CommitSplit(prep SplitPrep, v mesh.VertexID, he1, he2 mesh.HalfedgeID) {
	eAV := c.m.Halfedge(he1).Edge().ID
	eVB := c.m.Halfedge(he2).Edge().ID

	if prep.nOld >= 0 {
		n1 := int(prep.t * float64(prep.nOld))
		if n1 < 0 {
			n1 = 0
		}
		if n1 > prep.nOld {
			n1 = prep.nOld
		}
		c.SetN(eAV, n1)
		c.SetN(eVB, prep.nOld-n1)
	} else {
		c.SetN(eAV, prep.nOld)
		c.SetN(eVB, prep.nOld)
	}
	c.SetRoundabout(he2, prep.roundH)

	for _, hd := range c.m.Vertex(v).OutgoingHalfedges() {
		if hd.ID == he1 || hd.ID == he2 {
			continue
		}
		tip := hd.Tip().ID
		switch {
		case prep.hasC && tip == prep.apexC:
			c.SetN(hd.Edge().ID, prep.cornerC)
		case prep.hasD && tip == prep.apexD:
			c.SetN(hd.Edge().ID, prep.cornerD)
		}
	}
}

// InsertPrep carries the three pre-insertion corner vertices and their
// crossing counts, captured before mesh.InsertVertexInFace(f) reuses f's
// ID for one of the three resulting sub-triangles.
type InsertPrep struct {
	corner [3]mesh.VertexID
	count  [3]int
}

// PrepareInsertVertex reads the three pre-insertion normal coordinates of
// f, from which the three new spokes' coordinates (the corner crossing
// counts) are derived. Call strictly before mesh.InsertVertexInFace(f).
func (c *Coords) PrepareInsertVertex(f mesh.FaceID) InsertPrep {
	hs := c.m.Face(f).Halfedges()
	n0 := c.N(hs[0].Edge().ID)
	n1 := c.N(hs[1].Edge().ID)
	n2 := c.N(hs[2].Edge().ID)
	return InsertPrep{
		corner: [3]mesh.VertexID{hs[0].Vertex().ID, hs[1].Vertex().ID, hs[2].Vertex().ID},
		count: [3]int{
			CornerCrossing(n1, n2, n0), // corner at hs[0].Vertex(), opposite edge hs[1]
			CornerCrossing(n2, n0, n1), // corner at hs[1].Vertex(), opposite edge hs[2]
			CornerCrossing(n0, n1, n2), // corner at hs[2].Vertex(), opposite edge hs[0]
		},
	}
}

// CommitInsertVertex assigns the corner-crossing values from prep to the
// three new spokes of v, and zeroes their roundabouts (brand-new
// half-edges leaving a newly interior vertex carry no input-mesh rotation
// correspondence).
func (c *Coords) CommitInsertVertex(prep InsertPrep, v mesh.VertexID) {
	for _, hd := range c.m.Vertex(v).OutgoingHalfedges() {
		tip := hd.Tip().ID
		for i, corner := range prep.corner {
			if tip == corner {
				c.SetN(hd.Edge().ID, prep.count[i])
			}
		}
		c.SetRoundabout(hd.ID, 0)
	}
}

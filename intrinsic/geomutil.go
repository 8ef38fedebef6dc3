package intrinsic

import (
	"math"

	"github.com/gridmesh/intrintri/geom"
)

// apexPosition places the third corner of a triangle whose base runs from
// (0,0) to (lenBase,0), given the length of the side from the base's
// origin-end to that corner (lenToApex) and the length of the side opposite
// it (lenOpposite). mirrored flips the result below the X axis, used to lay
// out a triangle on the far side of a shared edge from one already placed
// above it. The same construction underlies flippedLength (a diamond's two
// triangles laid out back to back) and the per-vertex spoke lengths a split
// or face-insertion produces.
func apexPosition(lenBase, lenToApex, lenOpposite float64, mirrored bool) geom.Vector2 {
	angle := geom.LawOfCosinesAngle(lenBase, lenToApex, lenOpposite)
	y := lenToApex * math.Sin(angle)
	if mirrored {
		y = -y
	}
	return geom.Vector2{X: lenToApex * math.Cos(angle), Y: y}
}

// flippedLength computes the length of the new diagonal bd that results
// from flipping a quadrilateral (a,b,c,d) whose old diagonal is ab, given
// the lengths of the old diagonal (lenAB), triangle (a,b,c)'s other two
// sides (lenCA, lenBC) and triangle (a,b,d)'s other two sides (lenAD,
// lenDB; d on the opposite side of ab from c). This is the standard "unfold
// both triangles of the diamond flat and measure across" construction --
// the same technique the trace package's unfoldStep uses to cross a single
// edge, here applied once to the quad being flipped.
func flippedLength(lenAB, lenCA, lenBC, lenAD, lenDB float64) float64 {
	c := apexPosition(lenAB, lenCA, lenBC, false)
	d := apexPosition(lenAB, lenAD, lenDB, true)
	return c.Sub(d).Norm()
}

// splitSpokeLength returns the length of the new spoke joining a split
// edge's new vertex v (at parameter t along the base a->b, lenAB long) to
// one of the two incident triangles' apex corners, given the apex's
// distance from a (lenApexA) and from b (lenApexB). mirrored selects which
// side of the base the apex lies on, matching apexPosition's convention --
// the second call in a split passes the opposite mirrored value from the
// first, the same back-to-back layout flippedLength uses for a flip's
// quadrilateral.
func splitSpokeLength(lenAB, t, lenApexA, lenApexB float64, mirrored bool) float64 {
	v := geom.Vector2{X: t * lenAB}
	apex := apexPosition(lenAB, lenApexA, lenApexB, mirrored)
	return v.Sub(apex).Norm()
}

// circumcenter2D returns the circumcenter of triangle (p0,p1,p2) via the
// standard perpendicular-bisector determinant formula.
func circumcenter2D(p0, p1, p2 geom.Vector2) geom.Vector2 {
	d := 2 * (p0.X*(p1.Y-p2.Y) + p1.X*(p2.Y-p0.Y) + p2.X*(p0.Y-p1.Y))
	sq0 := p0.X*p0.X + p0.Y*p0.Y
	sq1 := p1.X*p1.X + p1.Y*p1.Y
	sq2 := p2.X*p2.X + p2.Y*p2.Y
	ux := (sq0*(p1.Y-p2.Y) + sq1*(p2.Y-p0.Y) + sq2*(p0.Y-p1.Y)) / d
	uy := (sq0*(p2.X-p1.X) + sq1*(p0.X-p2.X) + sq2*(p1.X-p0.X)) / d
	return geom.Vector2{X: ux, Y: uy}
}

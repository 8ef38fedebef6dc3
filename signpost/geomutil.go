package signpost

import (
	"math"

	"github.com/gridmesh/intrintri/geom"
)

// apexPosition mirrors intrinsic's own helper of the same name: it places
// the third corner of a triangle whose base runs from (0,0) to
// (lenBase,0), given the length to that corner from the base's origin-end
// (lenToApex) and the length of the side opposite it (lenOpposite).
// Duplicated here, rather than imported, to keep this package decoupled
// from the integer-coordinate variant's internals -- the whole point of a
// second trait implementation.
func apexPosition(lenBase, lenToApex, lenOpposite float64, mirrored bool) geom.Vector2 {
	angle := geom.LawOfCosinesAngle(lenBase, lenToApex, lenOpposite)
	y := lenToApex * math.Sin(angle)
	if mirrored {
		y = -y
	}
	return geom.Vector2{X: lenToApex * math.Cos(angle), Y: y}
}

func flippedLength(lenAB, lenCA, lenBC, lenAD, lenDB float64) float64 {
	c := apexPosition(lenAB, lenCA, lenBC, false)
	d := apexPosition(lenAB, lenAD, lenDB, true)
	return c.Sub(d).Norm()
}

func splitSpokeLength(lenAB, t, lenApexA, lenApexB float64, mirrored bool) float64 {
	v := geom.Vector2{X: t * lenAB}
	apex := apexPosition(lenAB, lenApexA, lenApexB, mirrored)
	return v.Sub(apex).Norm()
}

// Package diagnostics rasterizes a Triangulation's input and intrinsic
// wireframes (and, optionally, its traced edges and common-subdivision
// overlay) to a PNG-ready image, the way the teacher's Voronoi demo
// rasterized its own diagram: a draw2d graphic context stroking line
// segments over a blank image.RGBA, with vertices marked by small filled
// circles drawn pixel-by-pixel directly onto the same image, flipped into
// screen (Y-down) coordinates.
package diagnostics

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/llgcode/draw2d/draw2dimg"

	"github.com/gridmesh/intrintri/geom"
	"github.com/gridmesh/intrintri/intrinsic"
	"github.com/gridmesh/intrintri/surfacepoint"
)

// RenderOptions controls what Render draws and at what resolution. In the
// zero value every Draw* flag is false, so nothing is drawn; the size and
// scale fall back to defaults.
type RenderOptions struct {
	Width, Height int
	Scale         float64

	DrawInput             bool
	DrawIntrinsic         bool
	DrawTracedEdges       bool
	DrawCommonSubdivision bool
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width == 0 {
		o.Width = 1000
	}
	if o.Height == 0 {
		o.Height = 1000
	}
	if o.Scale == 0 {
		o.Scale = 10
	}
	return o
}

var (
	colorInput     = color.RGBA{0, 0, 255, 255}
	colorIntrinsic = color.RGBA{255, 0, 0, 255}
	colorTraced    = color.RGBA{0, 150, 0, 255}
	colorVertex    = color.RGBA{0, 0, 0, 255}
)

// Render rasterizes tri per opts. It requires the input geometry to carry
// vertex positions (geometry.InputGeometry.EnablePositions), since the
// intrinsic mesh has no embedding of its own -- every intrinsic feature is
// drawn at its resolved location on the input mesh's 2D (X,Y) projection.
func Render(tri *intrinsic.Triangulation, opts RenderOptions) (*image.RGBA, error) {
	if !tri.InputGeom().HasPositions() {
		return nil, fmt.Errorf("diagnostics: Render: input geometry carries no vertex positions")
	}
	opts = opts.withDefaults()
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	gc := draw2dimg.NewGraphicContext(img)
	gc.SetLineWidth(2)

	inputMesh := tri.InputMesh()
	toScreen := func(p geom.Vector2) (float64, float64) {
		return p.X * opts.Scale, float64(opts.Height) - p.Y*opts.Scale
	}

	if opts.DrawInput {
		gc.SetStrokeColor(colorInput)
		for _, e := range inputMesh.Edges() {
			h := e.Halfedge()
			a, err := resolveXY(tri, surfacepoint.AtVertex(h.Vertex().ID))
			if err != nil {
				return nil, err
			}
			b, err := resolveXY(tri, surfacepoint.AtVertex(h.Tip().ID))
			if err != nil {
				return nil, err
			}
			strokeSegment(gc, toScreen, a, b)
		}
		for _, v := range inputMesh.Vertices() {
			p, err := resolveXY(tri, surfacepoint.AtVertex(v.ID))
			if err != nil {
				return nil, err
			}
			x, y := toScreen(p)
			drawDot(img, x, y, 3, colorVertex)
		}
	}

	if opts.DrawIntrinsic {
		gc.SetStrokeColor(colorIntrinsic)
		for _, e := range tri.Mesh().Edges() {
			h := e.Halfedge()
			a, err := resolveXY(tri, tri.Loc(h.Vertex().ID))
			if err != nil {
				return nil, err
			}
			b, err := resolveXY(tri, tri.Loc(h.Tip().ID))
			if err != nil {
				return nil, err
			}
			strokeSegment(gc, toScreen, a, b)
		}
	}

	if opts.DrawTracedEdges {
		gc.SetStrokeColor(colorTraced)
		for _, e := range tri.Mesh().Edges() {
			pts, err := tri.TraceHalfedge(e.Halfedge().ID)
			if err != nil {
				return nil, fmt.Errorf("diagnostics: Render: %w", err)
			}
			if err := strokePolyline(tri, gc, toScreen, pts); err != nil {
				return nil, err
			}
		}
	}

	if opts.DrawCommonSubdivision {
		cs, err := tri.ExtractCommonSubdivision()
		if err != nil {
			return nil, fmt.Errorf("diagnostics: Render: %w", err)
		}
		gc.SetStrokeColor(colorTraced)
		for _, pts := range cs.EdgeTraces {
			if err := strokePolyline(tri, gc, toScreen, pts); err != nil {
				return nil, err
			}
		}
	}

	return img, nil
}

// WritePNG is a small convenience wrapper matching the CLI's "-png" flag.
func WritePNG(w io.Writer, img *image.RGBA) error {
	return png.Encode(w, img)
}

func strokeSegment(gc *draw2dimg.GraphicContext, toScreen func(geom.Vector2) (float64, float64), a, b geom.Vector2) {
	ax, ay := toScreen(a)
	bx, by := toScreen(b)
	gc.MoveTo(ax, ay)
	gc.LineTo(bx, by)
	gc.FillStroke()
	gc.Close()
}

func strokePolyline(tri *intrinsic.Triangulation, gc *draw2dimg.GraphicContext, toScreen func(geom.Vector2) (float64, float64), pts []surfacepoint.SurfacePoint) error {
	for i := 0; i+1 < len(pts); i++ {
		a, err := resolveXY(tri, pts[i])
		if err != nil {
			return err
		}
		b, err := resolveXY(tri, pts[i+1])
		if err != nil {
			return err
		}
		strokeSegment(gc, toScreen, a, b)
	}
	return nil
}

// drawDot fills a small disc directly on the image, the same pixel-distance
// technique the teacher's own drawCircle used for Voronoi face markers.
func drawDot(img *image.RGBA, cx, cy, radius float64, c color.RGBA) {
	x0, y0 := int(cx-radius), int(cy-radius)
	x1, y1 := int(cx+radius), int(cy+radius)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if math.Sqrt(dx*dx+dy*dy) <= radius {
				img.Set(x, y, c)
			}
		}
	}
}

// resolveXY projects an M_A SurfacePoint's location to its 2D (X,Y)
// drawing coordinate, via the input geometry's 3D vertex positions --
// interpolated across an edge or a face's barycentric weights the same
// way geometry.Cache lays out faces, just without the Z component.
func resolveXY(tri *intrinsic.Triangulation, sp surfacepoint.SurfacePoint) (geom.Vector2, error) {
	inputMesh := tri.InputMesh()
	g := tri.InputGeom()
	switch sp.Kind() {
	case surfacepoint.KindVertex:
		p := g.VertexPosition(sp.Vertex())
		return geom.Vector2{X: p.X, Y: p.Y}, nil
	case surfacepoint.KindEdge:
		e, t := sp.Edge()
		h := inputMesh.Edge(e).Halfedge()
		a := g.VertexPosition(h.Vertex().ID)
		b := g.VertexPosition(h.Tip().ID)
		lerp := a.Mul(1 - t).Add(b.Mul(t))
		return geom.Vector2{X: lerp.X, Y: lerp.Y}, nil
	case surfacepoint.KindFace:
		f, bary := sp.Face()
		vs := inputMesh.Face(f).Vertices()
		if len(vs) != 3 {
			return geom.Vector2{}, fmt.Errorf("diagnostics: resolveXY: face %d is not a triangle", f)
		}
		p0 := g.VertexPosition(vs[0].ID)
		p1 := g.VertexPosition(vs[1].ID)
		p2 := g.VertexPosition(vs[2].ID)
		sum := p0.Mul(bary.A).Add(p1.Mul(bary.B)).Add(p2.Mul(bary.C))
		return geom.Vector2{X: sum.X, Y: sum.Y}, nil
	default:
		return geom.Vector2{}, fmt.Errorf("diagnostics: resolveXY: unrecognized surface point kind")
	}
}

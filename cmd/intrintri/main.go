// Command intrintri loads a triangle mesh, builds an intrinsic
// triangulation over it, optionally flips it to Delaunay and/or runs
// Chew's second refinement algorithm, reports the resulting invariants,
// and optionally rasterizes a diagnostic PNG of the result.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/gridmesh/intrintri/diagnostics"
	"github.com/gridmesh/intrintri/intrinsic"
	"github.com/gridmesh/intrintri/meshio"
)

func main() {
	var (
		objPath       = flag.String("obj", "", "path to a minimal OBJ mesh file (required)")
		flipToDel     = flag.Bool("flip", false, "flip the triangulation to Delaunay")
		refine        = flag.Bool("refine", false, "run Chew's second algorithm after flipping")
		angleDegrees  = flag.Float64("angle", 25, "minimum-angle threshold in degrees for -refine")
		circumradius  = flag.Float64("circumradius", 0, "maximum circumradius for -refine (0 disables the criterion)")
		maxInsertions = flag.Int("maxinsertions", 1000, "insertion cap for -refine")
		pngPath       = flag.String("png", "", "write a diagnostic PNG of the result to this path")
	)
	flag.Parse()

	if err := run(*objPath, *flipToDel, *refine, *angleDegrees, *circumradius, *maxInsertions, *pngPath); err != nil {
		fmt.Fprintln(os.Stderr, "intrintri:", err)
		os.Exit(1)
	}
}

func run(objPath string, flipToDel, refine bool, angleDegrees, circumradius float64, maxInsertions int, pngPath string) error {
	if objPath == "" {
		return fmt.Errorf("-obj is required")
	}

	f, err := os.Open(objPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", objPath, err)
	}
	defer f.Close()

	m, g, err := meshio.Load(f)
	if err != nil {
		return fmt.Errorf("loading %s: %w", objPath, err)
	}

	tri, err := intrinsic.New(m, g)
	if err != nil {
		return fmt.Errorf("building triangulation: %w", err)
	}

	if flipToDel || refine {
		flips, err := tri.FlipToDelaunay()
		if err != nil {
			return fmt.Errorf("flipToDelaunay: %w", err)
		}
		fmt.Printf("flipToDelaunay: %d flips\n", flips)
	}

	if refine {
		insertions, err := tri.DelaunayRefine(angleDegrees*math.Pi/180, circumradius, maxInsertions)
		if err != nil {
			return fmt.Errorf("delaunayRefine: %w", err)
		}
		fmt.Printf("delaunayRefine: %d insertions\n", insertions)
	}

	if err := tri.Verify(); err != nil {
		fmt.Printf("verify: FAILED: %v\n", err)
	} else {
		fmt.Println("verify: ok")
	}
	fmt.Printf("isDelaunay: %v\n", tri.IsDelaunay(1e-9))
	fmt.Printf("minAngleDegrees: %v\n", tri.MinAngleDegrees())

	if pngPath != "" {
		img, err := diagnostics.Render(tri, diagnostics.RenderOptions{DrawInput: true, DrawIntrinsic: true})
		if err != nil {
			return fmt.Errorf("rendering diagnostic: %w", err)
		}
		out, err := os.Create(pngPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", pngPath, err)
		}
		defer out.Close()
		if err := diagnostics.WritePNG(out, img); err != nil {
			return fmt.Errorf("writing %s: %w", pngPath, err)
		}
		fmt.Printf("wrote %s\n", pngPath)
	}

	return nil
}

// Package fluid provides a grid-based incompressible fluid simulation engine.
//
// # Overview
//
// fluid implements the "stable fluids" method (Stam): semi-Lagrangian
// advection, Jacobi pressure projection and vorticity confinement over a pair
// of decoupled grids. The velocity and pressure fields live on a coarse
// simulation grid while the dye (color) field lives on a finer grid, so the
// physics can stay cheap while the rendered output stays sharp.
//
// # Quick Start
//
//	import "github.com/gogpu/fluid"
//
//	cfg := fluid.DefaultConfig()
//	eng, err := fluid.New(cfg, 1280, 720)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	// Inject a red splat moving right, then advance and render.
//	eng.Splat(fluid.Splat{X: 0.5, Y: 0.5, DX: 500, Color: fluid.RGB{R: 1}})
//	eng.Update()
//	eng.RenderTo(eng.Output())
//
// # Backends
//
// The engine executes its pass pipeline through a Backend. The default
// SoftwareBackend runs everywhere and is the reference implementation; the
// backend/wgpu package provides a WebGPU compute implementation that can be
// injected with WithBackend. Both produce the same field semantics.
//
// # Coordinate System
//
// Splat positions are normalized to [0,1] with origin at the top-left, the
// usual pointer convention; they are flipped vertically on injection because
// the fields use a bottom-up axis. Rendered output uses top-left origin.
package fluid

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)

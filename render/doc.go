// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render connects a fluid engine to host applications.
//
// It defines the RenderTarget abstraction (CPU pixmaps, host window
// surfaces) and the DeviceHandle through which a host hands the engine a
// shared GPU device instead of letting it create its own.
//
// A typical host loop:
//
//	target := render.NewPixmapTarget(width, height)
//	for running {
//	    eng.Update()
//	    eng.RenderTo(eng.Output())
//	    render.Present(eng.Output(), target)
//	    // upload target.Image() to the window
//	}
package render

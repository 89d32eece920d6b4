// Package compositor schedules and synchronizes frames for a layer-based
// compositor.
//
// # Overview
//
// A compositor keeps two trees. The logical tree (package layer) is owned by
// the application: it adds, removes and reconfigures layers whenever it likes.
// The render tree (package impl) is what gets drawn. At every commit the
// logical tree is mirrored into the render tree (package treesync), reusing
// render nodes whose ids still exist so that render-side state such as scroll
// deltas and surfaces survives.
//
// When to begin a frame, commit it and draw it is decided by a pure state
// machine (package scheduler). It reacts to visibility, vsync, draw failures,
// texture hand-over and graphics context loss.
//
// # Quick Start
//
//	h, err := compositor.NewHost(
//	    compositor.WithDeviceProvider(provider),
//	    compositor.WithRenderer(myRenderer),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	root := layer.New()
//	root.SetBounds(geom.Size{Width: 800, Height: 600})
//	h.SetRootLayer(root)
//	h.SetVisible(true)
//
//	// Blocks until ctx is cancelled.
//	_ = h.Run(ctx)
//
// # Threading
//
// Host, its trees and its scheduler belong to a single goroutine. Before Run
// that is the goroutine which created the Host; afterwards it is the one
// running Run. Use Host.Post to change layers from elsewhere; tasks that post
// more work use Host.TryPost.
//
// # Configuration
//
// Settings can be loaded from TOML:
//
//	max_failed_draws_before_force = 3
//	vsync_interval = "16ms"
//	context_retry_interval = "100ms"
//	show_hud = true
//	check_threads = true
//	surface_format = "bgra8unorm"
//
// # Logging
//
// The library is silent by default. Install a *slog.Logger with SetLogger to
// see commits, draw failures and context loss.
package compositor

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scheduler

// FrameProducer performs the side effects of scheduler actions.
//
// Every method is called on the scheduling goroutine from inside Loop's
// drain loop. Implementations may report follow-up events (for example
// BeginFrameComplete from BeginFrame) back to the Loop synchronously; the
// Loop picks them up on its next iteration.
type FrameProducer interface {
	// BeginFrame asks the main thread to produce a new frame. The producer
	// must eventually call Loop.BeginFrameComplete or Loop.BeginFrameAborted.
	BeginFrame()

	// Commit pushes the finished frame from the logical tree to the render
	// tree.
	Commit()

	// DrawIfPossible draws the render tree unless it is not ready. The
	// result is reported to the state machine as the draw outcome.
	DrawIfPossible() bool

	// DrawForced draws the render tree regardless of readiness.
	DrawForced()

	// BeginContextRecreation starts rebuilding the graphics context. The
	// producer must eventually call Loop.DidRecreateContext.
	BeginContextRecreation()

	// AcquireTexturesForMainThread grants the main thread exclusive texture
	// access until its next commit.
	AcquireTexturesForMainThread()
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import (
	"log/slog"

	"github.com/gogpu/compositor/internal/logging"
)

// LoopOption configures a Loop during creation.
type LoopOption func(*loopOptions)

type loopOptions struct {
	maxFailedDraws int
	checkThread    bool
}

func defaultLoopOptions() loopOptions {
	return loopOptions{
		maxFailedDraws: DefaultMaxFailedDraws,
		checkThread:    true,
	}
}

// WithMaxFailedDraws sets how many consecutive failed draws are tolerated
// before a forced draw is scheduled after the next commit.
func WithMaxFailedDraws(n int) LoopOption {
	return func(o *loopOptions) {
		if n > 0 {
			o.maxFailedDraws = n
		}
	}
}

// WithThreadCheck enables or disables the goroutine affinity assertion.
// It is enabled by default.
func WithThreadCheck(enabled bool) LoopOption {
	return func(o *loopOptions) {
		o.checkThread = enabled
	}
}

// Loop drives a StateMachine.
//
// Each event is forwarded to the state machine, after which the loop drains
// actions until ActionNone, executing each on the FrameProducer, and finally
// arms or disarms the vsync source.
//
// Thread Safety: Loop belongs to a single goroutine. The first call binds it;
// calls from other goroutines panic unless the check is disabled with
// WithThreadCheck(false). Use Unbind to hand the loop to another goroutine.
type Loop struct {
	sm       *StateMachine
	producer FrameProducer
	vsync    VSyncSource
	thread   threadChecker

	draining bool
}

// NewLoop creates a loop that executes actions on producer and controls
// vsync. Neither may be nil.
func NewLoop(producer FrameProducer, vsync VSyncSource, opts ...LoopOption) *Loop {
	if producer == nil {
		panic("scheduler: NewLoop with nil FrameProducer")
	}
	if vsync == nil {
		panic("scheduler: NewLoop with nil VSyncSource")
	}
	o := defaultLoopOptions()
	for _, opt := range opts {
		opt(&o)
	}
	sm := NewStateMachine()
	sm.SetMaxConsecutiveFailedDraws(o.maxFailedDraws)
	return &Loop{
		sm:       sm,
		producer: producer,
		vsync:    vsync,
		thread:   threadChecker{enabled: o.checkThread},
	}
}

// Unbind releases the goroutine binding; the next call binds again.
func (l *Loop) Unbind() {
	l.thread.unbind()
}

// SetVisible forwards a visibility change.
func (l *Loop) SetVisible(visible bool) {
	l.thread.check("SetVisible")
	l.sm.SetVisible(visible)
	l.process()
}

// SetCanBeginFrame forwards whether the main thread can begin frames.
func (l *Loop) SetCanBeginFrame(can bool) {
	l.thread.check("SetCanBeginFrame")
	l.sm.SetCanBeginFrame(can)
	l.process()
}

// SetCanDraw forwards whether the impl side can draw.
func (l *Loop) SetCanDraw(can bool) {
	l.thread.check("SetCanDraw")
	l.sm.SetCanDraw(can)
	l.process()
}

// SetNeedsCommit requests a new frame.
func (l *Loop) SetNeedsCommit() {
	l.thread.check("SetNeedsCommit")
	l.sm.SetNeedsCommit()
	l.process()
}

// SetNeedsForcedCommit requests a frame that proceeds even when invisible.
func (l *Loop) SetNeedsForcedCommit() {
	l.thread.check("SetNeedsForcedCommit")
	l.sm.SetNeedsCommit()
	l.sm.SetNeedsForcedCommit()
	l.process()
}

// SetNeedsRedraw requests a draw of the current render tree.
func (l *Loop) SetNeedsRedraw() {
	l.thread.check("SetNeedsRedraw")
	l.sm.SetNeedsRedraw()
	l.process()
}

// SetNeedsForcedRedraw requests a draw that ignores vsync and visibility.
func (l *Loop) SetNeedsForcedRedraw() {
	l.thread.check("SetNeedsForcedRedraw")
	l.sm.SetNeedsForcedRedraw()
	l.process()
}

// SetMainThreadNeedsTextures asks for exclusive texture access on behalf of
// the main thread. FrameProducer.AcquireTexturesForMainThread signals the
// grant.
func (l *Loop) SetMainThreadNeedsTextures() {
	l.thread.check("SetMainThreadNeedsTextures")
	l.sm.SetMainThreadNeedsTextures()
	l.process()
}

// BeginFrameComplete reports that the main thread finished its frame.
func (l *Loop) BeginFrameComplete() {
	l.thread.check("BeginFrameComplete")
	l.sm.BeginFrameComplete()
	l.process()
}

// BeginFrameAborted reports that the main thread gave up on its frame.
func (l *Loop) BeginFrameAborted() {
	l.thread.check("BeginFrameAborted")
	l.sm.BeginFrameAborted()
	l.process()
}

// DidLoseContext reports graphics context loss.
func (l *Loop) DidLoseContext() {
	l.thread.check("DidLoseContext")
	l.sm.DidLoseContext()
	l.process()
}

// DidRecreateContext reports that context recreation finished.
func (l *Loop) DidRecreateContext() {
	l.thread.check("DidRecreateContext")
	l.sm.DidRecreateContext()
	l.process()
}

// VSyncTick runs one vsync window: the state machine enters it, pending
// actions are drained, and the window is left again.
func (l *Loop) VSyncTick() {
	l.thread.check("VSyncTick")
	if l.draining {
		panic("scheduler: VSyncTick called from inside an action")
	}
	l.sm.DidEnterVSync()
	l.process()
	l.sm.DidLeaveVSync()
}

// CommitState returns the state machine's commit phase.
func (l *Loop) CommitState() CommitState { return l.sm.CommitState() }

// ContextState returns the state machine's context status.
func (l *Loop) ContextState() ContextState { return l.sm.ContextState() }

// TextureState returns the state machine's texture owner.
func (l *Loop) TextureState() TextureState { return l.sm.TextureState() }

// CurrentFrameNumber returns the number of completed vsync windows.
func (l *Loop) CurrentFrameNumber() int { return l.sm.CurrentFrameNumber() }

// String dumps the state machine.
func (l *Loop) String() string { return l.sm.String() }

// process drains actions until the state machine is settled. Events raised by
// the producer while draining only change state; this loop observes them on
// its next NextAction call.
func (l *Loop) process() {
	if l.draining {
		return
	}
	l.draining = true
	defer func() { l.draining = false }()

	log := logging.Logger()
	for {
		action := l.sm.NextAction()
		l.sm.UpdateState(action)
		if action == ActionNone {
			break
		}
		if logging.Enabled(slog.LevelDebug) {
			log.Debug("scheduler: action",
				"action", action,
				"commit", l.sm.CommitState(),
				"frame", l.sm.CurrentFrameNumber())
		}
		l.dispatch(action)
	}
	l.vsync.SetActive(l.sm.VSyncCallbackNeeded())
}

func (l *Loop) dispatch(action Action) {
	switch action {
	case ActionBeginFrame:
		l.producer.BeginFrame()
	case ActionCommit:
		l.producer.Commit()
	case ActionDrawIfPossible:
		ok := l.producer.DrawIfPossible()
		l.sm.DidDrawIfPossibleCompleted(ok)
		if !ok {
			logging.Logger().Warn("scheduler: draw failed", "frame", l.sm.CurrentFrameNumber())
		}
	case ActionDrawForced:
		l.producer.DrawForced()
	case ActionBeginContextRecreation:
		l.producer.BeginContextRecreation()
	case ActionAcquireTexturesForMainThread:
		l.producer.AcquireTexturesForMainThread()
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import (
	"fmt"
	"strings"
)

// DefaultMaxFailedDraws is the number of consecutive failed draw-if-possible
// attempts after which the next commit is followed by a forced draw.
const DefaultMaxFailedDraws = 3

// neverDrawn is the lastFrameNumberDrawn value before any draw happened.
const neverDrawn = -1

// StateMachine decides what the compositor does next.
//
// It holds only flags and counters and performs no I/O. Callers alternate
// NextAction and UpdateState, executing each returned action between the two
// calls; everything else is an event setter or a completion callback.
//
// Thread Safety: StateMachine is NOT thread-safe. It belongs to the
// scheduling goroutine.
type StateMachine struct {
	commitState CommitState

	currentFrameNumber   int
	lastFrameNumberDrawn int

	consecutiveFailedDraws int
	maxFailedDraws         int

	needsRedraw                      bool
	needsForcedRedraw                bool
	needsForcedRedrawAfterNextCommit bool
	needsCommit                      bool
	needsForcedCommit                bool
	expectImmediateBeginFrame        bool
	mainThreadNeedsTextures          bool
	insideVSync                      bool
	visible                          bool
	canBeginFrame                    bool
	canDraw                          bool
	drawIfPossibleFailed             bool

	textureState TextureState
	contextState ContextState
}

// NewStateMachine returns a state machine in the Idle phase with an active
// context, invisible, and unable to begin frames or draw.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		commitState:          CommitIdle,
		lastFrameNumberDrawn: neverDrawn,
		maxFailedDraws:       DefaultMaxFailedDraws,
		textureState:         TexturesUnlocked,
		contextState:         ContextActive,
	}
}

// String dumps every field, for precondition failures and debug logs.
func (s *StateMachine) String() string {
	var b strings.Builder
	field := func(name string, v any) {
		fmt.Fprintf(&b, "%s = %v; ", name, v)
	}
	field("commitState", s.commitState)
	field("currentFrameNumber", s.currentFrameNumber)
	field("lastFrameNumberDrawn", s.lastFrameNumberDrawn)
	field("consecutiveFailedDraws", s.consecutiveFailedDraws)
	field("maxFailedDraws", s.maxFailedDraws)
	field("needsRedraw", s.needsRedraw)
	field("needsForcedRedraw", s.needsForcedRedraw)
	field("needsForcedRedrawAfterNextCommit", s.needsForcedRedrawAfterNextCommit)
	field("needsCommit", s.needsCommit)
	field("needsForcedCommit", s.needsForcedCommit)
	field("expectImmediateBeginFrame", s.expectImmediateBeginFrame)
	field("mainThreadNeedsTextures", s.mainThreadNeedsTextures)
	field("insideVSync", s.insideVSync)
	field("visible", s.visible)
	field("canBeginFrame", s.canBeginFrame)
	field("canDraw", s.canDraw)
	field("drawIfPossibleFailed", s.drawIfPossibleFailed)
	field("textureState", s.textureState)
	field("contextState", s.contextState)
	return strings.TrimSuffix(b.String(), " ")
}

func (s *StateMachine) require(cond bool, what string) {
	if !cond {
		panic("scheduler: " + what + " (" + s.String() + ")")
	}
}

func (s *StateMachine) hasDrawnThisFrame() bool {
	return s.currentFrameNumber == s.lastFrameNumberDrawn
}

func (s *StateMachine) drawSuspendedUntilCommit() bool {
	if !s.canDraw || !s.visible {
		return true
	}
	return s.textureState == TexturesAcquiredByMainThread
}

func (s *StateMachine) scheduledToDraw() bool {
	return s.needsRedraw && !s.drawSuspendedUntilCommit()
}

func (s *StateMachine) shouldDraw() bool {
	if s.needsForcedRedraw {
		return true
	}
	return s.scheduledToDraw() &&
		s.insideVSync &&
		!s.hasDrawnThisFrame() &&
		s.contextState == ContextActive
}

func (s *StateMachine) shouldAcquireTexturesForMainThread() bool {
	if !s.mainThreadNeedsTextures {
		return false
	}
	if s.textureState == TexturesUnlocked {
		return true
	}
	s.require(s.textureState == TexturesAcquiredByImplThread,
		"main thread is waiting for textures it already holds")
	// Hand the lock over at once when the impl side has no draw coming,
	// otherwise the main thread would wait forever.
	return !s.scheduledToDraw() || !s.VSyncCallbackNeeded()
}

func (s *StateMachine) drawAction() Action {
	if s.needsForcedRedraw {
		return ActionDrawForced
	}
	return ActionDrawIfPossible
}

// NextAction returns the action the caller must perform next. It does not
// change any state; pass the result to UpdateState once executed.
func (s *StateMachine) NextAction() Action {
	if s.shouldAcquireTexturesForMainThread() {
		return ActionAcquireTexturesForMainThread
	}

	switch s.commitState {
	case CommitIdle:
		if s.contextState != ContextActive && s.needsForcedRedraw {
			return ActionDrawForced
		}
		if s.contextState != ContextActive && s.needsForcedCommit {
			return ActionBeginFrame
		}
		if s.contextState == ContextLost {
			return ActionBeginContextRecreation
		}
		if s.contextState == ContextRecreating {
			return ActionNone
		}
		if s.shouldDraw() {
			return s.drawAction()
		}
		if s.needsCommit && ((s.visible && s.canBeginFrame) || s.needsForcedCommit) {
			return ActionBeginFrame
		}
		return ActionNone

	case CommitFrameInProgress:
		if s.shouldDraw() {
			return s.drawAction()
		}
		return ActionNone

	case CommitReadyToCommit:
		return ActionCommit

	case CommitWaitingForFirstDraw:
		if s.shouldDraw() || s.contextState == ContextLost {
			return s.drawAction()
		}
		// The pending commit wants a draw first, but when drawing is
		// suspended until the next commit, start that frame instead.
		canCommit := s.visible || s.needsForcedCommit
		if s.needsCommit && canCommit && s.drawSuspendedUntilCommit() {
			return ActionBeginFrame
		}
		return ActionNone
	}

	panic(fmt.Sprintf("scheduler: invalid commit state %d", s.commitState))
}

// UpdateState applies the side effects of an action previously returned by
// NextAction.
func (s *StateMachine) UpdateState(action Action) {
	switch action {
	case ActionNone:
		return

	case ActionBeginFrame:
		s.require(s.visible || s.needsForcedCommit, "BeginFrame while invisible without forced commit")
		s.commitState = CommitFrameInProgress
		s.needsCommit = false
		s.needsForcedCommit = false

	case ActionCommit:
		s.commitState = CommitWaitingForFirstDraw
		s.needsRedraw = true
		// Keep the failed frame drawable again.
		if s.drawIfPossibleFailed {
			s.lastFrameNumberDrawn = neverDrawn
		}
		if s.needsForcedRedrawAfterNextCommit {
			s.needsForcedRedrawAfterNextCommit = false
			s.needsForcedRedraw = true
		}
		s.textureState = TexturesAcquiredByImplThread

	case ActionDrawForced, ActionDrawIfPossible:
		s.needsRedraw = false
		s.needsForcedRedraw = false
		s.drawIfPossibleFailed = false
		if s.insideVSync {
			s.lastFrameNumberDrawn = s.currentFrameNumber
		}
		if s.commitState == CommitWaitingForFirstDraw {
			if s.expectImmediateBeginFrame {
				s.commitState = CommitFrameInProgress
				s.expectImmediateBeginFrame = false
			} else {
				s.commitState = CommitIdle
			}
		}
		if s.textureState == TexturesAcquiredByImplThread {
			s.textureState = TexturesUnlocked
		}

	case ActionBeginContextRecreation:
		s.require(s.commitState == CommitIdle, "BeginContextRecreation outside Idle")
		s.require(s.contextState == ContextLost, "BeginContextRecreation without a lost context")
		s.contextState = ContextRecreating

	case ActionAcquireTexturesForMainThread:
		s.textureState = TexturesAcquiredByMainThread
		s.mainThreadNeedsTextures = false
		if s.commitState != CommitFrameInProgress {
			s.needsCommit = true
		}

	default:
		panic(fmt.Sprintf("scheduler: unknown action %d", action))
	}
}

// VSyncCallbackNeeded reports whether the vsync source should keep ticking.
func (s *StateMachine) VSyncCallbackNeeded() bool {
	// Without the ability to draw nothing can happen on a tick; wait for
	// SetCanDraw instead.
	if !s.canDraw {
		return false
	}
	if s.needsForcedRedraw {
		return true
	}
	return s.needsRedraw && s.visible && s.contextState == ContextActive
}

// SetMainThreadNeedsTextures records that the main thread wants exclusive
// texture access. It must not be called again before the textures have been
// handed over.
func (s *StateMachine) SetMainThreadNeedsTextures() {
	s.require(!s.mainThreadNeedsTextures, "textures already requested")
	s.require(s.textureState != TexturesAcquiredByMainThread, "textures already held by main thread")
	s.mainThreadNeedsTextures = true
}

// DidEnterVSync opens the vsync window.
func (s *StateMachine) DidEnterVSync() {
	s.insideVSync = true
}

// DidLeaveVSync closes the vsync window and advances the frame number.
func (s *StateMachine) DidLeaveVSync() {
	s.currentFrameNumber++
	s.insideVSync = false
}

// SetVisible sets whether the output is visible.
func (s *StateMachine) SetVisible(visible bool) { s.visible = visible }

// SetNeedsRedraw requests a draw at the next opportunity.
func (s *StateMachine) SetNeedsRedraw() { s.needsRedraw = true }

// SetNeedsForcedRedraw requests a draw that ignores visibility and vsync.
func (s *StateMachine) SetNeedsForcedRedraw() { s.needsForcedRedraw = true }

// SetNeedsCommit requests a new frame from the main thread.
func (s *StateMachine) SetNeedsCommit() { s.needsCommit = true }

// SetNeedsForcedCommit requests a frame even when invisible and expects the
// frame after it to begin immediately once the commit is drawn.
func (s *StateMachine) SetNeedsForcedCommit() {
	s.needsForcedCommit = true
	s.expectImmediateBeginFrame = true
}

// SetCanBeginFrame sets whether the main thread is able to begin frames.
func (s *StateMachine) SetCanBeginFrame(can bool) { s.canBeginFrame = can }

// SetCanDraw sets whether the impl side is able to draw.
func (s *StateMachine) SetCanDraw(can bool) { s.canDraw = can }

// SetMaxConsecutiveFailedDraws sets the escalation threshold.
func (s *StateMachine) SetMaxConsecutiveFailedDraws(n int) { s.maxFailedDraws = n }

// DidDrawIfPossibleCompleted reports the outcome of a DrawIfPossible action.
func (s *StateMachine) DidDrawIfPossibleCompleted(success bool) {
	s.drawIfPossibleFailed = !success
	if success {
		s.consecutiveFailedDraws = 0
		return
	}
	s.needsRedraw = true
	s.needsCommit = true
	s.consecutiveFailedDraws++
	if s.consecutiveFailedDraws >= s.maxFailedDraws {
		s.consecutiveFailedDraws = 0
		// Forcing only helps once new content has been committed.
		s.needsForcedRedrawAfterNextCommit = true
	}
}

// BeginFrameComplete reports that the main thread finished the frame it was
// asked to begin.
func (s *StateMachine) BeginFrameComplete() {
	s.require(s.commitState == CommitFrameInProgress ||
		(s.expectImmediateBeginFrame && s.commitState != CommitIdle),
		"BeginFrameComplete without a frame in progress")
	s.commitState = CommitReadyToCommit
}

// BeginFrameAborted reports that the main thread gave up on the frame.
func (s *StateMachine) BeginFrameAborted() {
	s.require(s.commitState == CommitFrameInProgress, "BeginFrameAborted without a frame in progress")
	if s.expectImmediateBeginFrame {
		s.expectImmediateBeginFrame = false
		return
	}
	s.commitState = CommitIdle
	s.SetNeedsCommit()
}

// DidLoseContext marks the graphics context lost. Repeated calls while the
// context is lost or being recreated have no effect.
func (s *StateMachine) DidLoseContext() {
	if s.contextState == ContextLost || s.contextState == ContextRecreating {
		return
	}
	s.contextState = ContextLost
}

// DidRecreateContext reports that context recreation finished.
func (s *StateMachine) DidRecreateContext() {
	s.require(s.contextState == ContextRecreating, "DidRecreateContext while not recreating")
	s.contextState = ContextActive
	s.SetNeedsCommit()
}

// CommitState returns the current commit phase.
func (s *StateMachine) CommitState() CommitState { return s.commitState }

// TextureState returns the current texture owner.
func (s *StateMachine) TextureState() TextureState { return s.textureState }

// ContextState returns the graphics context status.
func (s *StateMachine) ContextState() ContextState { return s.contextState }

// CurrentFrameNumber returns the number of vsync windows left so far.
func (s *StateMachine) CurrentFrameNumber() int { return s.currentFrameNumber }

// NeedsCommit reports whether a commit has been requested.
func (s *StateMachine) NeedsCommit() bool { return s.needsCommit }

// NeedsRedraw reports whether a redraw has been requested.
func (s *StateMachine) NeedsRedraw() bool { return s.needsRedraw }

// NeedsForcedRedraw reports whether a forced redraw is pending.
func (s *StateMachine) NeedsForcedRedraw() bool { return s.needsForcedRedraw }

// NeedsForcedCommit reports whether a forced commit is pending.
func (s *StateMachine) NeedsForcedCommit() bool { return s.needsForcedCommit }

// Visible reports the last value passed to SetVisible.
func (s *StateMachine) Visible() bool { return s.visible }

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scheduler

const unknownStr = "Unknown"

// Action is the single next step the state machine wants executed.
type Action uint8

// Actions returned by StateMachine.NextAction.
const (
	ActionNone Action = iota
	ActionBeginFrame
	ActionCommit
	ActionDrawIfPossible
	ActionDrawForced
	ActionBeginContextRecreation
	ActionAcquireTexturesForMainThread
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionBeginFrame:
		return "BeginFrame"
	case ActionCommit:
		return "Commit"
	case ActionDrawIfPossible:
		return "DrawIfPossible"
	case ActionDrawForced:
		return "DrawForced"
	case ActionBeginContextRecreation:
		return "BeginContextRecreation"
	case ActionAcquireTexturesForMainThread:
		return "AcquireTexturesForMainThread"
	default:
		return unknownStr
	}
}

// IsDraw reports whether a is one of the two draw actions.
func (a Action) IsDraw() bool {
	return a == ActionDrawIfPossible || a == ActionDrawForced
}

// CommitState is the phase of the begin-frame/commit/first-draw cycle.
type CommitState uint8

// Commit phases.
const (
	// CommitIdle: no frame in flight.
	CommitIdle CommitState = iota

	// CommitFrameInProgress: the main thread is producing a frame.
	CommitFrameInProgress

	// CommitReadyToCommit: the frame is complete and must be committed next.
	CommitReadyToCommit

	// CommitWaitingForFirstDraw: the commit landed and has not been drawn yet.
	CommitWaitingForFirstDraw
)

// String returns a human-readable name for the commit state.
func (s CommitState) String() string {
	switch s {
	case CommitIdle:
		return "Idle"
	case CommitFrameInProgress:
		return "FrameInProgress"
	case CommitReadyToCommit:
		return "ReadyToCommit"
	case CommitWaitingForFirstDraw:
		return "WaitingForFirstDraw"
	default:
		return unknownStr
	}
}

// TextureState records which side may touch layer textures.
type TextureState uint8

// Texture ownership states.
const (
	TexturesUnlocked TextureState = iota
	TexturesAcquiredByMainThread
	TexturesAcquiredByImplThread
)

// String returns a human-readable name for the texture state.
func (s TextureState) String() string {
	switch s {
	case TexturesUnlocked:
		return "Unlocked"
	case TexturesAcquiredByMainThread:
		return "AcquiredByMainThread"
	case TexturesAcquiredByImplThread:
		return "AcquiredByImplThread"
	default:
		return unknownStr
	}
}

// ContextState is the health of the graphics context.
type ContextState uint8

// Graphics context states.
const (
	ContextActive ContextState = iota
	ContextLost
	ContextRecreating
)

// String returns a human-readable name for the context state.
func (s ContextState) String() string {
	switch s {
	case ContextActive:
		return "Active"
	case ContextLost:
		return "Lost"
	case ContextRecreating:
		return "Recreating"
	default:
		return unknownStr
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import (
	"reflect"
	"testing"
)

// recordingProducer records every action and can answer synchronously.
type recordingProducer struct {
	loop    *Loop
	actions []Action

	completeOnBegin bool
	drawResults     []bool
}

func (p *recordingProducer) BeginFrame() {
	p.actions = append(p.actions, ActionBeginFrame)
	if p.completeOnBegin {
		p.loop.BeginFrameComplete()
	}
}

func (p *recordingProducer) Commit() { p.actions = append(p.actions, ActionCommit) }

func (p *recordingProducer) DrawIfPossible() bool {
	p.actions = append(p.actions, ActionDrawIfPossible)
	if len(p.drawResults) == 0 {
		return true
	}
	ok := p.drawResults[0]
	p.drawResults = p.drawResults[1:]
	return ok
}

func (p *recordingProducer) DrawForced() { p.actions = append(p.actions, ActionDrawForced) }

func (p *recordingProducer) BeginContextRecreation() {
	p.actions = append(p.actions, ActionBeginContextRecreation)
}

func (p *recordingProducer) AcquireTexturesForMainThread() {
	p.actions = append(p.actions, ActionAcquireTexturesForMainThread)
}

func (p *recordingProducer) take() []Action {
	a := p.actions
	p.actions = nil
	return a
}

func newTestLoop(opts ...LoopOption) (*Loop, *recordingProducer, *ManualDriver) {
	p := &recordingProducer{}
	d := NewManualDriver()
	l := NewLoop(p, d, opts...)
	p.loop = l
	return l, p, d
}

func checkActions(t *testing.T, got []Action, want ...Action) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("actions = %v, want %v", got, want)
	}
}

func TestNewLoopNilArguments(t *testing.T) {
	mustPanic(t, "nil producer", func() { NewLoop(nil, NewManualDriver()) })
	mustPanic(t, "nil vsync", func() { NewLoop(&recordingProducer{}, nil) })
}

func TestLoopFullFrame(t *testing.T) {
	l, p, d := newTestLoop()
	l.SetVisible(true)
	l.SetCanBeginFrame(true)
	l.SetCanDraw(true)
	checkActions(t, p.take())

	l.SetNeedsCommit()
	checkActions(t, p.take(), ActionBeginFrame)
	if d.Active() {
		t.Error("vsync armed before anything needs drawing")
	}

	l.BeginFrameComplete()
	checkActions(t, p.take(), ActionCommit)
	if !d.Active() {
		t.Fatal("vsync not armed after commit")
	}

	l.VSyncTick()
	checkActions(t, p.take(), ActionDrawIfPossible)
	if d.Active() {
		t.Error("vsync still armed after the frame was drawn")
	}
	if l.CommitState() != CommitIdle {
		t.Errorf("CommitState() = %v, want Idle", l.CommitState())
	}
	if l.CurrentFrameNumber() != 1 {
		t.Errorf("CurrentFrameNumber() = %d, want 1", l.CurrentFrameNumber())
	}
}

func TestLoopSynchronousBeginFrameComplete(t *testing.T) {
	l, p, _ := newTestLoop()
	p.completeOnBegin = true
	l.SetVisible(true)
	l.SetCanBeginFrame(true)
	l.SetCanDraw(true)

	// The reentrant completion only updates state; the outer drain commits.
	l.SetNeedsCommit()
	checkActions(t, p.take(), ActionBeginFrame, ActionCommit)
	if l.CommitState() != CommitWaitingForFirstDraw {
		t.Errorf("CommitState() = %v, want WaitingForFirstDraw", l.CommitState())
	}
}

func TestLoopDrawFailureRecommits(t *testing.T) {
	l, p, _ := newTestLoop()
	p.completeOnBegin = true
	p.drawResults = []bool{false}
	l.SetVisible(true)
	l.SetCanBeginFrame(true)
	l.SetCanDraw(true)
	l.SetNeedsRedraw()

	l.VSyncTick()
	checkActions(t, p.take(),
		ActionDrawIfPossible, // fails
		ActionBeginFrame,
		ActionCommit,
		ActionDrawIfPossible, // same window, new content
	)
}

func TestLoopEscalatesToForcedDraw(t *testing.T) {
	l, p, _ := newTestLoop(WithMaxFailedDraws(1))
	p.drawResults = []bool{false}
	l.SetVisible(true)
	l.SetCanBeginFrame(true)
	l.SetCanDraw(true)
	l.SetNeedsRedraw()

	l.VSyncTick()
	checkActions(t, p.take(), ActionDrawIfPossible, ActionBeginFrame)

	l.BeginFrameComplete()
	checkActions(t, p.take(), ActionCommit, ActionDrawForced)
}

func TestLoopForcedCommitWhileInvisible(t *testing.T) {
	l, p, _ := newTestLoop()
	l.SetCanDraw(true)
	l.SetNeedsForcedCommit()
	checkActions(t, p.take(), ActionBeginFrame)
}

func TestLoopContextLoss(t *testing.T) {
	l, p, d := newTestLoop()
	l.SetVisible(true)
	l.SetCanBeginFrame(true)
	l.SetCanDraw(true)

	l.DidLoseContext()
	checkActions(t, p.take(), ActionBeginContextRecreation)
	if l.ContextState() != ContextRecreating {
		t.Errorf("ContextState() = %v, want Recreating", l.ContextState())
	}

	l.SetNeedsRedraw()
	if d.Active() {
		t.Error("vsync armed while the context is recreating")
	}

	l.DidRecreateContext()
	checkActions(t, p.take(), ActionBeginFrame)
}

func TestLoopTextureAcquisition(t *testing.T) {
	l, p, _ := newTestLoop()
	l.SetVisible(true)
	l.SetCanBeginFrame(true)
	l.SetCanDraw(true)

	l.SetMainThreadNeedsTextures()
	checkActions(t, p.take(), ActionAcquireTexturesForMainThread, ActionBeginFrame)
	if l.TextureState() != TexturesAcquiredByMainThread {
		t.Errorf("TextureState() = %v, want AcquiredByMainThread", l.TextureState())
	}
}

func TestVSyncTickInsideActionPanics(t *testing.T) {
	p := &reentrantTickProducer{}
	l := NewLoop(p, NewManualDriver())
	p.loop = l
	l.SetVisible(true)
	l.SetCanBeginFrame(true)
	mustPanic(t, "VSyncTick inside BeginFrame", l.SetNeedsCommit)
}

type reentrantTickProducer struct {
	recordingProducer
	loop *Loop
}

func (p *reentrantTickProducer) BeginFrame() { p.loop.VSyncTick() }

func TestLoopThreadCheck(t *testing.T) {
	l, _, _ := newTestLoop()
	l.SetVisible(true)

	recovered := make(chan any, 1)
	go func() {
		defer func() { recovered <- recover() }()
		l.SetNeedsCommit()
	}()
	if r := <-recovered; r == nil {
		t.Error("call from another goroutine did not panic")
	}

	l.Unbind()
	done := make(chan any, 1)
	go func() {
		defer func() { done <- recover() }()
		l.SetCanDraw(true)
	}()
	if r := <-done; r != nil {
		t.Errorf("call after Unbind panicked: %v", r)
	}
}

func TestLoopThreadCheckDisabled(t *testing.T) {
	l, _, _ := newTestLoop(WithThreadCheck(false))
	l.SetVisible(true)

	done := make(chan any, 1)
	go func() {
		defer func() { done <- recover() }()
		l.SetNeedsCommit()
	}()
	if r := <-done; r != nil {
		t.Errorf("call from another goroutine panicked with the check disabled: %v", r)
	}
}

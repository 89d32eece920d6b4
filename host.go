// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/compositor/impl"
	"github.com/gogpu/compositor/internal/logging"
	"github.com/gogpu/compositor/layer"
	"github.com/gogpu/compositor/scheduler"
	"github.com/gogpu/compositor/treesync"
	"github.com/gogpu/gpucontext"
)

// taskQueueSize bounds the number of Post calls waiting for Run.
const taskQueueSize = 64

// Host owns a logical layer tree and the render tree mirrored from it, and
// schedules frames for them.
//
// All methods except Post must be called from one goroutine: the one that
// created the Host until Run starts, and the goroutine running Run after
// that. Other goroutines hand work to the host with Post.
type Host struct {
	settings  Settings
	renderer  Renderer
	provider  gpucontext.DeviceProvider
	client    Client
	vsync     scheduler.VSyncDriver
	ownsVSync bool

	loop       *scheduler.Loop
	tree       *layer.Tree
	renderRoot impl.Node
	hud        *layer.HUDLayer

	// updating suppresses commit requests from tree changes made while a
	// frame is being produced.
	updating         bool
	beginFramePaused bool
	// followUpPending marks a queued follow-up frame for a forced commit.
	followUpPending bool
	recreating       bool
	texturesHeld     bool
	stats            impl.FrameStats
	lastCommitStats  treesync.Stats

	tasks  chan func()
	done   chan struct{}
	closed atomic.Bool
}

// NewHost creates a host. A DeviceProvider is required; everything else has
// a default.
func NewHost(opts ...HostOption) (*Host, error) {
	o := defaultHostOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.provider == nil {
		return nil, ErrNilDeviceProvider
	}
	if err := o.settings.Validate(); err != nil {
		return nil, err
	}

	h := &Host{
		settings: o.settings,
		renderer: o.renderer,
		provider: o.provider,
		client:   o.client,
		vsync:    o.vsync,
		tasks:    make(chan func(), taskQueueSize),
		done:     make(chan struct{}),
	}
	if h.renderer == nil {
		h.renderer = &NullRenderer{}
	}
	if h.client == nil {
		h.client = nopClient{}
	}
	if h.vsync == nil {
		h.vsync = scheduler.NewTickerDriver(o.settings.VSyncInterval.Duration)
		h.ownsVSync = true
	}

	h.loop = scheduler.NewLoop(hostProducer{h}, h.vsync,
		scheduler.WithMaxFailedDraws(o.settings.MaxFailedDraws),
		scheduler.WithThreadCheck(o.settings.CheckThreads))
	h.tree = layer.NewTree(h.treeNeedsCommit)
	if o.settings.ShowHUD {
		h.hud = layer.NewHUDLayer(o.language)
	}

	h.loop.SetCanBeginFrame(true)
	h.loop.SetCanDraw(true)
	if h.provider.Device() == nil {
		h.loop.DidLoseContext()
	}
	return h, nil
}

// MustNewHost is like NewHost but panics on error.
func MustNewHost(opts ...HostOption) *Host {
	h, err := NewHost(opts...)
	if err != nil {
		panic(err)
	}
	return h
}

// Tree returns the logical layer tree.
func (h *Host) Tree() *layer.Tree { return h.tree }

// RenderRoot returns the render tree produced by the last commit, or nil.
func (h *Host) RenderRoot() impl.Node { return h.renderRoot }

// Loop returns the scheduler loop driving the host.
func (h *Host) Loop() *scheduler.Loop { return h.loop }

// Settings returns the settings the host was created with.
func (h *Host) Settings() Settings { return h.settings }

// Stats returns the frame counters.
func (h *Host) Stats() impl.FrameStats { return h.stats }

// LastCommitStats returns the node counts of the most recent commit.
func (h *Host) LastCommitStats() treesync.Stats { return h.lastCommitStats }

// HUD returns the heads-up display layer, or nil if ShowHUD is off.
func (h *Host) HUD() *layer.HUDLayer { return h.hud }

// SetRootLayer replaces the root of the logical tree. With ShowHUD the
// heads-up display is appended to the new root's children.
func (h *Host) SetRootLayer(root layer.Node) {
	if h.hud != nil && root != nil {
		root.Base().AddChild(h.hud)
	}
	h.tree.SetRootLayer(root)
}

// SetVisible shows or hides the output.
func (h *Host) SetVisible(visible bool) { h.loop.SetVisible(visible) }

// SetNeedsCommit requests a new frame.
func (h *Host) SetNeedsCommit() { h.loop.SetNeedsCommit() }

// SetNeedsForcedCommit requests a frame that is produced even while hidden.
func (h *Host) SetNeedsForcedCommit() { h.loop.SetNeedsForcedCommit() }

// SetNeedsRedraw requests a redraw of the current render tree.
func (h *Host) SetNeedsRedraw() { h.loop.SetNeedsRedraw() }

// AcquireTextures asks for exclusive access to the render side's textures.
// TexturesAcquired reports when they are granted; they are given back by
// the next commit.
func (h *Host) AcquireTextures() { h.loop.SetMainThreadNeedsTextures() }

// TexturesAcquired reports whether the main thread currently holds the
// textures.
func (h *Host) TexturesAcquired() bool { return h.texturesHeld }

// DidLoseContext reports that the GPU device is gone.
func (h *Host) DidLoseContext() { h.loop.DidLoseContext() }

// Post queues fn to run on the goroutine running Run. It blocks while the
// queue is full and fails with ErrHostClosed once Run has returned.
//
// A task must not call Post: a full queue would block Run on itself. Tasks
// use TryPost instead.
func (h *Host) Post(fn func()) error {
	if h.closed.Load() {
		return ErrHostClosed
	}
	select {
	case h.tasks <- fn:
		return nil
	case <-h.done:
		return ErrHostClosed
	}
}

// TryPost is like Post but never blocks. It fails with ErrTaskQueueFull when
// the queue is full.
func (h *Host) TryPost(fn func()) error {
	if h.closed.Load() {
		return ErrHostClosed
	}
	select {
	case h.tasks <- fn:
		return nil
	default:
		return ErrTaskQueueFull
	}
}

// Run drives the host until ctx is cancelled: it delivers vsync ticks to the
// scheduler, runs posted tasks and polls a lost device for recovery.
// Run takes over the scheduler from the goroutine that created the host.
// It returns ctx.Err().
func (h *Host) Run(ctx context.Context) error {
	if h.closed.Load() {
		return ErrHostClosed
	}
	h.loop.Unbind()

	retry := time.NewTicker(h.settings.ContextRetryInterval.Duration)
	defer retry.Stop()
	defer func() {
		h.closed.Store(true)
		close(h.done)
		if h.ownsVSync {
			h.vsync.Stop()
		}
	}()

	log := logging.Logger()
	log.Info("compositor: host started", "vsync", h.settings.VSyncInterval.Duration)
	for {
		select {
		case <-ctx.Done():
			log.Info("compositor: host stopped", "frames", h.loop.CurrentFrameNumber(), "draws", h.stats.Draws)
			return ctx.Err()
		case <-h.vsync.Ticks():
			h.loop.VSyncTick()
		case fn := <-h.tasks:
			fn()
			h.resumeBeginFrame()
			h.runFollowUpFrame()
		case <-retry.C:
			if h.recreating {
				h.tryRecreateContext()
			}
		}
	}
}

func (h *Host) treeNeedsCommit() {
	if h.updating {
		return
	}
	h.loop.SetNeedsCommit()
}

func (h *Host) tryRecreateContext() {
	if h.provider.Device() == nil {
		return
	}
	h.recreating = false
	logging.Logger().Info("compositor: context recreated", "losses", h.stats.ContextLosses)
	h.loop.DidRecreateContext()
}

// pauseBeginFrame stops the scheduler from retrying an aborted frame in the
// same drain. Frames resume from the next task run by Run.
func (h *Host) pauseBeginFrame() {
	if h.beginFramePaused {
		return
	}
	h.beginFramePaused = true
	h.loop.SetCanBeginFrame(false)
	select {
	case h.tasks <- h.resumeBeginFrame:
	default:
		// The queue is full; Run resumes after the next queued task.
	}
}

func (h *Host) resumeBeginFrame() {
	if !h.beginFramePaused {
		return
	}
	h.beginFramePaused = false
	h.loop.SetCanBeginFrame(true)
}

// awaitingFollowUp reports whether the scheduler waits for a main-thread frame
// that nobody has started. BeginFrame completes synchronously, so outside of
// it this only happens after a forced commit: the scheduler expects the next
// frame to begin right after the commit's first draw or after an abort.
func (h *Host) awaitingFollowUp() bool {
	return h.loop.CommitState() == scheduler.CommitFrameInProgress
}

// queueFollowUpFrame lets Run start the frame a forced commit waits for.
func (h *Host) queueFollowUpFrame() {
	if h.followUpPending {
		return
	}
	h.followUpPending = true
	select {
	case h.tasks <- h.runFollowUpFrame:
	default:
		// The queue is full; Run starts the frame after the next queued task.
	}
}

func (h *Host) runFollowUpFrame() {
	if !h.followUpPending {
		return
	}
	h.followUpPending = false
	if h.awaitingFollowUp() {
		h.beginFrame()
	}
}

func (h *Host) beginFrame() {
	h.updating = true
	h.tree.ApplyScrollDeltas(impl.CollectScrollDeltas(h.renderRoot))
	ok := h.client.UpdateLayers(h.tree)
	h.updating = false

	if ok {
		h.loop.BeginFrameComplete()
		return
	}
	h.pauseBeginFrame()
	h.loop.BeginFrameAborted()
	if h.awaitingFollowUp() {
		h.queueFollowUpFrame()
	}
}

// afterDraw starts the follow-up frame of a forced commit once the commit
// has been drawn.
func (h *Host) afterDraw() {
	if h.awaitingFollowUp() {
		h.followUpPending = false
		h.beginFrame()
	}
}

func (h *Host) loseContext(cause error) {
	logging.Logger().Warn("compositor: context lost", "err", cause)
	h.loop.DidLoseContext()
}

// draw hands the render tree to the renderer. The HUD shows the counters
// including this attempt.
func (h *Host) draw(forced bool) error {
	defer h.updateHUD()
	dev := h.provider.Device()
	if dev == nil {
		h.stats.FailedDraws++
		return ErrContextLost
	}
	h.stats.FrameNumber = h.loop.CurrentFrameNumber()

	start := time.Now()
	err := h.renderer.Draw(&Frame{
		Number: h.loop.CurrentFrameNumber(),
		Root:   h.renderRoot,
		Forced: forced,
		Device: dev,
		Format: h.settings.TextureFormat(),
	})
	if err != nil {
		h.stats.FailedDraws++
		return err
	}
	h.stats.Draws++
	if forced {
		h.stats.ForcedDraws++
	}
	h.stats.LastDrawTime = time.Since(start)
	if h.renderRoot != nil {
		h.renderRoot.Impl().ResetChangeTracking()
	}
	return nil
}

func (h *Host) updateHUD() {
	if h.hud == nil || h.renderRoot == nil {
		return
	}
	if n, ok := impl.FindByID(h.renderRoot, h.hud.ID()).(*impl.HUDLayerImpl); ok {
		n.SetStats(h.stats)
	}
}

// hostProducer performs scheduler actions for a Host.
type hostProducer struct {
	h *Host
}

func (p hostProducer) BeginFrame() { p.h.beginFrame() }

func (p hostProducer) Commit() {
	h := p.h
	root, stats := treesync.SynchronizeWithStats(h.tree.RootLayer(), h.renderRoot)
	h.renderRoot = root
	h.lastCommitStats = stats
	h.stats.Commits++
	h.texturesHeld = false
	h.updating = true
	h.client.DidCommit()
	h.updating = false
}

func (p hostProducer) DrawIfPossible() bool {
	err := p.h.draw(false)
	defer p.h.afterDraw()
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrContextLost):
		p.h.loseContext(err)
	case !errors.Is(err, ErrNotReady):
		logging.Logger().Warn("compositor: draw failed", "err", err)
	}
	return false
}

func (p hostProducer) DrawForced() {
	err := p.h.draw(true)
	defer p.h.afterDraw()
	switch {
	case err == nil:
	case errors.Is(err, ErrContextLost):
		p.h.loseContext(err)
	default:
		logging.Logger().Warn("compositor: forced draw failed", "err", fmt.Errorf("frame %d: %w", p.h.stats.FrameNumber, err))
	}
}

func (p hostProducer) BeginContextRecreation() {
	h := p.h
	h.recreating = true
	h.stats.ContextLosses++
	impl.ForEach(h.renderRoot, func(n impl.Node) { n.DidLoseContext() })
	if logging.Enabled(slog.LevelDebug) {
		logging.Logger().Debug("compositor: recreating context", "layers", impl.Count(h.renderRoot))
	}
	h.tryRecreateContext()
}

func (p hostProducer) AcquireTexturesForMainThread() {
	p.h.texturesHeld = true
}

var _ scheduler.FrameProducer = hostProducer{}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/impl"
	"github.com/gogpu/compositor/layer"
	"github.com/gogpu/compositor/scheduler"
	"github.com/gogpu/compositor/treesync"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// --- Test helpers ---

type mockDevice struct{}

// mockProvider implements gpucontext.DeviceProvider for testing. A nil
// device simulates a lost GPU.
type mockProvider struct {
	device gpucontext.Device
}

func newMockProvider() *mockProvider {
	return &mockProvider{device: &mockDevice{}}
}

func (m *mockProvider) Device() gpucontext.Device             { return m.device }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "mock", Type: gpucontext.AdapterTypeSoftware}
}

// recordingRenderer records frames and fails with the queued errors first.
type recordingRenderer struct {
	frames []Frame
	errs   []error
}

func (r *recordingRenderer) Draw(f *Frame) error {
	r.frames = append(r.frames, *f)
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

// testClient counts callbacks and can abort frames or edit the tree.
type testClient struct {
	updates int
	commits int
	aborts  int
	onUpdate func(tree *layer.Tree)
}

func (c *testClient) UpdateLayers(tree *layer.Tree) bool {
	c.updates++
	if c.aborts > 0 {
		c.aborts--
		return false
	}
	if c.onUpdate != nil {
		c.onUpdate(tree)
	}
	return true
}

func (c *testClient) DidCommit() { c.commits++ }

func newTestHostWith(t *testing.T, p *mockProvider, opts ...HostOption) (*Host, *recordingRenderer, *scheduler.ManualDriver) {
	t.Helper()
	r := &recordingRenderer{}
	d := scheduler.NewManualDriver()
	all := append([]HostOption{
		WithDeviceProvider(p),
		WithRenderer(r),
		WithVSyncDriver(d),
	}, opts...)
	h, err := NewHost(all...)
	if err != nil {
		t.Fatalf("NewHost() error = %v", err)
	}
	h.SetVisible(true)
	return h, r, d
}

func newTestHost(t *testing.T, opts ...HostOption) (*Host, *recordingRenderer, *scheduler.ManualDriver) {
	t.Helper()
	return newTestHostWith(t, newMockProvider(), opts...)
}

// newRoot returns a 100x100 root with one drawable child.
func newRoot() *layer.Layer {
	root := layer.New()
	root.SetBounds(geom.Size{Width: 100, Height: 100})
	child := layer.New()
	child.SetBounds(geom.Size{Width: 10, Height: 10})
	child.SetIsDrawable(true)
	root.AddChild(child)
	return root
}

func settingsWith(fn func(*Settings)) Settings {
	s := DefaultSettings()
	fn(&s)
	return s
}

// --- Construction ---

func TestNewHostRequiresProvider(t *testing.T) {
	if _, err := NewHost(); !errors.Is(err, ErrNilDeviceProvider) {
		t.Errorf("NewHost() error = %v, want ErrNilDeviceProvider", err)
	}
}

func TestNewHostRejectsInvalidSettings(t *testing.T) {
	s := settingsWith(func(s *Settings) { s.MaxFailedDraws = 0 })
	_, err := NewHost(WithDeviceProvider(newMockProvider()), WithSettings(s))
	if !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("NewHost() error = %v, want ErrInvalidSettings", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustNewHost() did not panic")
		}
	}()
	MustNewHost(WithSettings(s))
}

// --- Frame production ---

func TestHostFullFrame(t *testing.T) {
	h, r, d := newTestHost(t)
	root := newRoot()
	h.SetRootLayer(root)

	if got := h.Stats().Commits; got != 1 {
		t.Fatalf("Commits = %d, want 1", got)
	}
	rr := h.RenderRoot()
	if rr == nil || rr.Impl().ID() != root.ID() {
		t.Fatalf("RenderRoot() = %v, want node %d", rr, root.ID())
	}
	if got := impl.Count(rr); got != 2 {
		t.Errorf("impl.Count() = %d, want 2", got)
	}
	if len(r.frames) != 0 {
		t.Errorf("drew %d frames before vsync, want 0", len(r.frames))
	}
	if !d.Active() {
		t.Fatal("vsync not armed after commit")
	}

	h.Loop().VSyncTick()

	if len(r.frames) != 1 {
		t.Fatalf("drew %d frames, want 1", len(r.frames))
	}
	f := r.frames[0]
	if f.Root != rr {
		t.Error("Frame.Root is not the committed render tree")
	}
	if f.Forced {
		t.Error("Frame.Forced = true, want false")
	}
	if f.Device == nil {
		t.Error("Frame.Device = nil")
	}
	if f.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Frame.Format = %v, want BGRA8Unorm", f.Format)
	}
	if got := h.Stats().Draws; got != 1 {
		t.Errorf("Draws = %d, want 1", got)
	}
	if d.Active() {
		t.Error("vsync still armed after drawing")
	}
	if h.Loop().CommitState() != scheduler.CommitIdle {
		t.Errorf("CommitState() = %v, want Idle", h.Loop().CommitState())
	}
	if rr.Impl().LayerPropertyChanged() {
		t.Error("change tracking not reset after a successful draw")
	}
}

func TestHostReusesRenderNodes(t *testing.T) {
	h, _, _ := newTestHost(t)
	root := newRoot()
	h.SetRootLayer(root)
	h.Loop().VSyncTick()
	first := h.RenderRoot()

	root.Children()[0].Base().SetOpacity(0.5)

	if got := h.Stats().Commits; got != 2 {
		t.Fatalf("Commits = %d, want 2", got)
	}
	if h.RenderRoot() != first {
		t.Error("commit replaced the render root")
	}
	if got, want := h.LastCommitStats(), (treesync.Stats{Reused: 2}); got != want {
		t.Errorf("LastCommitStats() = %+v, want %+v", got, want)
	}
	child := impl.FindByID(h.RenderRoot(), root.Children()[0].Base().ID())
	if got := child.Impl().Properties().Opacity; got != 0.5 {
		t.Errorf("render opacity = %v, want 0.5", got)
	}
}

func TestHostTreeChangesDuringUpdateDoNotRecommit(t *testing.T) {
	c := &testClient{}
	root := newRoot()
	c.onUpdate = func(*layer.Tree) {
		root.SetOpacity(1 / float64(c.updates+1))
	}
	h, _, _ := newTestHost(t, WithClient(c))
	h.SetRootLayer(root)
	h.Loop().VSyncTick()

	if c.updates != 1 {
		t.Errorf("UpdateLayers calls = %d, want 1", c.updates)
	}
	if c.commits != 1 {
		t.Errorf("DidCommit calls = %d, want 1", c.commits)
	}
	if got := h.RenderRoot().Impl().Properties().Opacity; got != 0.5 {
		t.Errorf("render opacity = %v, want 0.5 from UpdateLayers", got)
	}
}

func TestHostAbortedFrameResumes(t *testing.T) {
	c := &testClient{aborts: 1}
	h, _, _ := newTestHost(t, WithClient(c))
	h.SetRootLayer(newRoot())

	if c.updates != 1 {
		t.Fatalf("UpdateLayers calls = %d, want 1", c.updates)
	}
	if got := h.Stats().Commits; got != 0 {
		t.Errorf("Commits = %d after abort, want 0", got)
	}
	if h.Loop().CommitState() != scheduler.CommitIdle {
		t.Errorf("CommitState() = %v, want Idle", h.Loop().CommitState())
	}

	select {
	case fn := <-h.tasks:
		fn()
	default:
		t.Fatal("no resume task queued after abort")
	}

	if c.updates != 2 {
		t.Errorf("UpdateLayers calls = %d, want 2", c.updates)
	}
	if got := h.Stats().Commits; got != 1 {
		t.Errorf("Commits = %d, want 1", got)
	}
}

func TestHostEscalatesToForcedDraw(t *testing.T) {
	var forced []bool
	notReady := RendererFunc(func(f *Frame) error {
		forced = append(forced, f.Forced)
		if !f.Forced {
			return ErrNotReady
		}
		return nil
	})
	s := settingsWith(func(s *Settings) { s.MaxFailedDraws = 1 })
	h, _, _ := newTestHost(t, WithSettings(s), WithRenderer(notReady))
	h.SetRootLayer(newRoot())

	h.Loop().VSyncTick()

	if len(forced) != 2 || forced[0] || !forced[1] {
		t.Errorf("forced flags = %v, want [false true]", forced)
	}
	st := h.Stats()
	if st.FailedDraws != 1 || st.Draws != 1 || st.ForcedDraws != 1 {
		t.Errorf("Stats() = %+v, want 1 failed, 1 draw, 1 forced", st)
	}
	if st.Commits != 2 {
		t.Errorf("Commits = %d, want 2", st.Commits)
	}
}

func TestHostForcedCommitStartsFollowUpFrame(t *testing.T) {
	c := &testClient{}
	h, _, _ := newTestHost(t, WithClient(c))
	root := newRoot()
	h.SetRootLayer(root)
	h.Loop().VSyncTick()

	h.SetNeedsForcedCommit()
	if got := h.Stats().Commits; got != 2 {
		t.Fatalf("Commits = %d after forced commit, want 2", got)
	}

	// Drawing the forced commit starts the frame the scheduler waits for.
	h.Loop().VSyncTick()
	if got := h.Stats().Commits; got != 3 {
		t.Errorf("Commits = %d after drawing the forced commit, want 3", got)
	}
	if got := h.Loop().CommitState(); got == scheduler.CommitFrameInProgress {
		t.Fatalf("CommitState() = %v, host stuck waiting for a frame", got)
	}

	root.SetOpacity(0.5)
	for range 5 {
		h.Loop().VSyncTick()
	}

	st := h.Stats()
	if st.Commits != 4 || st.Draws != 4 {
		t.Errorf("Stats() = %+v, want 4 commits and 4 draws", st)
	}
	if got := h.Loop().CommitState(); got != scheduler.CommitIdle {
		t.Errorf("CommitState() = %v, want Idle", got)
	}
	if got := h.RenderRoot().Impl().Properties().Opacity; got != 0.5 {
		t.Errorf("render opacity = %v, want 0.5", got)
	}
	if c.updates != c.commits {
		t.Errorf("UpdateLayers calls = %d, DidCommit calls = %d, want equal", c.updates, c.commits)
	}
}

func TestHostAbortedForcedCommit(t *testing.T) {
	c := &testClient{}
	h, _, _ := newTestHost(t, WithClient(c))
	h.SetRootLayer(newRoot())
	h.Loop().VSyncTick()

	c.aborts = 1
	h.SetNeedsForcedCommit()
	if got := h.Stats().Commits; got != 1 {
		t.Fatalf("Commits = %d after aborted forced frame, want 1", got)
	}

	if len(h.tasks) == 0 {
		t.Fatal("no follow-up frame queued after the forced frame was aborted")
	}
	for len(h.tasks) > 0 {
		(<-h.tasks)()
	}

	if got := h.Stats().Commits; got != 2 {
		t.Errorf("Commits = %d, want 2", got)
	}
	if got := c.updates; got != 3 {
		t.Errorf("UpdateLayers calls = %d, want 3", got)
	}

	h.Loop().VSyncTick()
	if got := h.Loop().CommitState(); got != scheduler.CommitIdle {
		t.Errorf("CommitState() = %v after drawing, want Idle", got)
	}
	if got := h.Stats().Draws; got != 2 {
		t.Errorf("Draws = %d, want 2", got)
	}
}

// --- Context loss ---

func TestHostRecoversFromContextLoss(t *testing.T) {
	h, r, _ := newTestHost(t)
	r.errs = []error{ErrContextLost}
	root := newRoot()
	h.SetRootLayer(root)

	child := impl.FindByID(h.RenderRoot(), root.Children()[0].Base().ID())
	child.Impl().AddTexture(impl.TextureRef{ID: 1, Size: image.Pt(10, 10)})

	h.Loop().VSyncTick()

	st := h.Stats()
	if st.ContextLosses != 1 {
		t.Errorf("ContextLosses = %d, want 1", st.ContextLosses)
	}
	if st.FailedDraws != 1 || st.Draws != 1 {
		t.Errorf("Stats() = %+v, want 1 failed and 1 successful draw", st)
	}
	if st.Commits != 2 {
		t.Errorf("Commits = %d, want 2", st.Commits)
	}
	if len(r.frames) != 2 {
		t.Errorf("renderer saw %d frames, want 2", len(r.frames))
	}
	if h.Loop().ContextState() != scheduler.ContextActive {
		t.Errorf("ContextState() = %v, want Active", h.Loop().ContextState())
	}
	if n := len(child.Impl().Textures()); n != 0 {
		t.Errorf("render node kept %d textures across context loss", n)
	}
}

func TestHostWaitsForDevice(t *testing.T) {
	p := &mockProvider{}
	h, r, d := newTestHostWith(t, p)

	if h.Loop().ContextState() != scheduler.ContextRecreating {
		t.Fatalf("ContextState() = %v, want Recreating", h.Loop().ContextState())
	}
	h.SetRootLayer(newRoot())
	if got := h.Stats().Commits; got != 0 {
		t.Errorf("Commits = %d while the device is missing, want 0", got)
	}

	h.tryRecreateContext()
	if h.Loop().ContextState() != scheduler.ContextRecreating {
		t.Error("recreated the context without a device")
	}

	p.device = &mockDevice{}
	h.tryRecreateContext()

	if h.Loop().ContextState() != scheduler.ContextActive {
		t.Errorf("ContextState() = %v, want Active", h.Loop().ContextState())
	}
	if got := h.Stats().Commits; got != 1 {
		t.Errorf("Commits = %d, want 1", got)
	}
	h.Loop().VSyncTick()
	if len(r.frames) != 1 || d.Active() {
		t.Errorf("frames = %d, vsync armed = %v; want one draw and vsync off", len(r.frames), d.Active())
	}
}

func TestHostDeviceLostAtDraw(t *testing.T) {
	p := newMockProvider()
	h, r, d := newTestHostWith(t, p)
	h.SetRootLayer(newRoot())

	p.device = nil
	h.Loop().VSyncTick()

	if len(r.frames) != 0 {
		t.Errorf("renderer called %d times without a device", len(r.frames))
	}
	if h.Loop().ContextState() != scheduler.ContextRecreating {
		t.Errorf("ContextState() = %v, want Recreating", h.Loop().ContextState())
	}
	if st := h.Stats(); st.ContextLosses != 1 || st.FailedDraws != 1 {
		t.Errorf("Stats() = %+v, want 1 loss and 1 failed draw", st)
	}
	if d.Active() {
		t.Error("vsync armed while the context is recreating")
	}
}

// --- HUD, textures, scrolling ---

func TestHostHUD(t *testing.T) {
	s := settingsWith(func(s *Settings) { s.ShowHUD = true })
	h, _, _ := newTestHost(t, WithSettings(s))
	root := newRoot()
	h.SetRootLayer(root)

	if h.HUD() == nil {
		t.Fatal("HUD() = nil with ShowHUD")
	}
	if got := impl.Count(h.RenderRoot()); got != 3 {
		t.Errorf("impl.Count() = %d, want 3 with the HUD", got)
	}
	hud, ok := impl.FindByID(h.RenderRoot(), h.HUD().ID()).(*impl.HUDLayerImpl)
	if !ok {
		t.Fatal("HUD render node is not a *impl.HUDLayerImpl")
	}

	h.Loop().VSyncTick()
	if got := hud.Stats().Commits; got != 1 {
		t.Errorf("HUD commits = %d, want 1", got)
	}
	if got := hud.Stats().Draws; got != 1 {
		t.Errorf("HUD draws = %d, want 1 after the first draw", got)
	}
	if !strings.Contains(hud.Text(), "commits 1") {
		t.Errorf("HUD Text() = %q, want it to contain %q", hud.Text(), "commits 1")
	}

	root.SetOpacity(0.5)
	h.Loop().VSyncTick()
	if st := hud.Stats(); st.FrameNumber != 1 || st.Commits != 2 || st.Draws != 2 {
		t.Errorf("HUD stats = %+v, want frame 1, 2 commits, 2 draws", st)
	}
	if st := hud.Stats(); st != h.Stats() {
		t.Errorf("HUD stats = %+v, want the host's %+v", st, h.Stats())
	}
}

func TestHostWithoutHUD(t *testing.T) {
	h, _, _ := newTestHost(t)
	h.SetRootLayer(newRoot())
	if h.HUD() != nil {
		t.Error("HUD() != nil without ShowHUD")
	}
	if got := impl.Count(h.RenderRoot()); got != 2 {
		t.Errorf("impl.Count() = %d, want 2", got)
	}
}

func TestHostAcquireTextures(t *testing.T) {
	c := &testClient{}
	var held []bool
	h, _, _ := newTestHost(t, WithClient(c))
	c.onUpdate = func(*layer.Tree) { held = append(held, h.TexturesAcquired()) }
	h.SetRootLayer(newRoot())

	h.AcquireTextures()
	if h.TexturesAcquired() {
		t.Fatal("textures handed over while a draw is scheduled")
	}

	h.Loop().VSyncTick()

	if len(held) != 2 || held[0] || !held[1] {
		t.Errorf("textures held during updates = %v, want [false true]", held)
	}
	if h.TexturesAcquired() {
		t.Error("textures still held after the commit")
	}
}

func TestHostScrollDeltasReachLogicalTree(t *testing.T) {
	h, _, _ := newTestHost(t)
	root := newRoot()
	root.SetScrollable(true)
	root.SetMaxScrollOffset(image.Pt(100, 100))
	h.SetRootLayer(root)
	h.Loop().VSyncTick()

	rr := h.RenderRoot().Impl()
	rr.ScrollBy(geom.Vec(10.5, 4))
	h.SetNeedsCommit()

	if got, want := root.ScrollOffset(), image.Pt(10, 4); got != want {
		t.Errorf("logical ScrollOffset() = %v, want %v", got, want)
	}
	if got, want := rr.ScrollDelta(), geom.Vec(0.5, 0); got != want {
		t.Errorf("render ScrollDelta() = %v, want %v", got, want)
	}
	if got, want := rr.CurrentScrollOffset(), geom.Vec(10.5, 4); got != want {
		t.Errorf("CurrentScrollOffset() = %v, want %v", got, want)
	}
	if got := h.Stats().Commits; got != 2 {
		t.Errorf("Commits = %d, want 2", got)
	}
}

// --- Run and Post ---

func TestHostRunAndPost(t *testing.T) {
	h, _, d := newTestHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()

	attached := make(chan struct{})
	if err := h.Post(func() {
		h.SetRootLayer(newRoot())
		close(attached)
	}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	<-attached

	deadline := time.After(5 * time.Second)
	for {
		d.Tick()
		draws := make(chan int, 1)
		if err := h.Post(func() { draws <- h.Stats().Draws }); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
		if <-draws == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no frame drawn by Run")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if err := h.Post(func() {}); !errors.Is(err, ErrHostClosed) {
		t.Errorf("Post() after Run = %v, want ErrHostClosed", err)
	}
	if err := h.Run(context.Background()); !errors.Is(err, ErrHostClosed) {
		t.Errorf("second Run() = %v, want ErrHostClosed", err)
	}
}

func TestHostTryPost(t *testing.T) {
	h, _, _ := newTestHost(t)
	for i := range taskQueueSize {
		if err := h.TryPost(func() {}); err != nil {
			t.Fatalf("TryPost() #%d error = %v", i, err)
		}
	}
	if err := h.TryPost(func() {}); !errors.Is(err, ErrTaskQueueFull) {
		t.Fatalf("TryPost() on a full queue = %v, want ErrTaskQueueFull", err)
	}

	// A task posting from inside Run must not deadlock on the full queue.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()

	ran := make(chan struct{})
	if err := h.Post(func() {
		for h.TryPost(func() {}) == nil {
		}
		close(ran)
	}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("task calling TryPost did not finish")
	}

	cancel()
	<-errCh
	if err := h.TryPost(func() {}); !errors.Is(err, ErrHostClosed) {
		t.Errorf("TryPost() after Run = %v, want ErrHostClosed", err)
	}
}

func TestHostRunStopsOwnedVSync(t *testing.T) {
	s := settingsWith(func(s *Settings) { s.VSyncInterval = Duration{time.Millisecond} })
	h, err := NewHost(WithDeviceProvider(newMockProvider()), WithSettings(s))
	if err != nil {
		t.Fatalf("NewHost() error = %v", err)
	}
	td, ok := h.vsync.(*scheduler.TickerDriver)
	if !ok || !h.ownsVSync {
		t.Fatalf("default vsync = %T (owned %v), want an owned *scheduler.TickerDriver", h.vsync, h.ownsVSync)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v, want context.DeadlineExceeded", err)
	}
	td.Stop() // second Stop is a no-op
}

// Command ccdemo drives a compositor host with a simulated renderer and
// prints the resulting render tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/impl"
	"github.com/gogpu/compositor/layer"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func main() {
	var (
		configPath  = flag.String("config", "", "TOML settings file")
		writeConfig = flag.String("write-config", "", "write the effective settings to this file and exit")
		frames      = flag.Int("frames", 120, "number of frames to draw")
		failEvery   = flag.Int("fail-every", 0, "decline every Nth draw (0 = never)")
		loseAt      = flag.Int("lose-context-at", 0, "report context loss on this draw (0 = never)")
		hud         = flag.Bool("hud", false, "show the heads-up display")
		verbose     = flag.Bool("v", false, "log scheduling at debug level")
	)
	flag.Parse()

	settings := compositor.DefaultSettings()
	if *configPath != "" {
		s, err := compositor.LoadSettings(*configPath)
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
		settings = s
	}
	if *hud {
		settings.ShowHUD = true
	}

	if *writeConfig != "" {
		if err := saveSettings(*writeConfig, settings); err != nil {
			log.Fatalf("Failed to write settings: %v", err)
		}
		log.Printf("Settings written to %s\n", *writeConfig)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &simRenderer{target: *frames, failEvery: *failEvery, loseAt: *loseAt, done: cancel}
	c := &animation{}
	h, err := compositor.NewHost(
		compositor.WithDeviceProvider(simProvider{}),
		compositor.WithSettings(settings),
		compositor.WithRenderer(r),
		compositor.WithClient(c),
	)
	if err != nil {
		log.Fatalf("Failed to create host: %v", err)
	}
	c.host = h

	root, scroller := buildScene()
	c.box = root.Children()[0].Base()
	r.scrollerID = scroller.ID()
	h.SetRootLayer(root)
	h.SetVisible(true)

	if err := h.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Host failed: %v", err)
	}

	fmt.Print(impl.Dump(h.RenderRoot()))
	st := h.Stats()
	fmt.Printf("commits=%d draws=%d failed=%d forced=%d context_losses=%d\n",
		st.Commits, st.Draws, st.FailedDraws, st.ForcedDraws, st.ContextLosses)
	fmt.Printf("scroll offset=%v\n", scroller.ScrollOffset())
	if hl := h.HUD(); hl != nil {
		if n, ok := impl.FindByID(h.RenderRoot(), hl.ID()).(*impl.HUDLayerImpl); ok {
			sz := n.TextSize()
			fmt.Printf("%s (%dx%d px)\n", n.Text(), sz.Width, sz.Height)
		}
	}
}

func saveSettings(path string, s compositor.Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// buildScene returns a root holding an animated box and a scrollable list
// with a vertical scrollbar.
func buildScene() (root, scroller *layer.Layer) {
	root = layer.New()
	root.SetDebugName("root")
	root.SetBounds(geom.Size{Width: 800, Height: 600})
	root.SetBackgroundColor(color.NRGBA{R: 0x20, G: 0x30, B: 0x50, A: 0xff})

	box := layer.New()
	box.SetDebugName("box")
	box.SetBounds(geom.Size{Width: 80, Height: 80})
	box.SetIsDrawable(true)
	root.AddChild(box)

	scroller = layer.New()
	scroller.SetDebugName("list")
	scroller.SetBounds(geom.Size{Width: 300, Height: 400})
	scroller.SetPosition(geom.Pt(450, 100))
	scroller.SetMasksToBounds(true)
	scroller.SetScrollable(true)
	scroller.SetMaxScrollOffset(image.Pt(0, 1600))
	root.AddChild(scroller)

	content := layer.New()
	content.SetDebugName("list content")
	content.SetBounds(geom.Size{Width: 300, Height: 2000})
	content.SetIsDrawable(true)
	scroller.AddChild(content)

	bar := layer.NewScrollbarLayer(impl.Vertical, scroller.ID())
	bar.SetDebugName("list scrollbar")
	bar.SetBounds(geom.Size{Width: 8, Height: 400})
	bar.SetPosition(geom.Pt(742, 100))
	root.AddChild(bar)
	return root, scroller
}

// animation moves the box one step per frame.
type animation struct {
	host *compositor.Host
	box  *layer.Layer
	step int
}

func (a *animation) UpdateLayers(*layer.Tree) bool {
	a.step++
	x := float64(a.step % 700)
	a.box.SetPosition(geom.Pt(x, 260))
	a.box.SetOpacity(0.5 + 0.5*float64(a.step%2))
	return true
}

func (a *animation) DidCommit() {
	a.host.SetNeedsCommit()
}

// simRenderer stands in for a GPU renderer. It scrolls the list on the render
// side and injects the configured failures.
type simRenderer struct {
	target     int
	failEvery  int
	loseAt     int
	scrollerID int
	done       func()

	calls int
	drawn int
}

func (r *simRenderer) Draw(f *compositor.Frame) error {
	r.calls++
	if r.loseAt > 0 && r.calls == r.loseAt {
		return compositor.ErrContextLost
	}
	if !f.Forced && r.failEvery > 0 && r.calls%r.failEvery == 0 {
		return compositor.ErrNotReady
	}
	if n := impl.FindByID(f.Root, r.scrollerID); n != nil {
		n.Impl().ScrollBy(geom.Vec(0, 1.5))
	}
	r.drawn++
	if r.drawn >= r.target {
		r.done()
	}
	return nil
}

// simProvider is a DeviceProvider whose device never goes away.
type simProvider struct{}

type simDevice struct{}

func (simProvider) Device() gpucontext.Device             { return simDevice{} }
func (simProvider) Queue() gpucontext.Queue               { return nil }
func (simProvider) Adapter() gpucontext.Adapter           { return nil }
func (simProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (simProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "ccdemo simulator", Type: gpucontext.AdapterTypeSoftware}
}

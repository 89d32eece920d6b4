package compositor

import (
	"github.com/gogpu/compositor/layer"
	"github.com/gogpu/compositor/scheduler"
	"github.com/gogpu/gpucontext"
	"golang.org/x/text/language"
)

// HostOption configures a Host during creation.
// Use functional options to customize Host behavior.
//
// Example:
//
//	// Default settings, frames accepted by a NullRenderer
//	h, err := compositor.NewHost(compositor.WithDeviceProvider(provider))
//
//	// Custom renderer and settings loaded from disk
//	s, _ := compositor.LoadSettings("compositor.toml")
//	h, err := compositor.NewHost(
//	    compositor.WithDeviceProvider(provider),
//	    compositor.WithSettings(s),
//	    compositor.WithRenderer(myRenderer),
//	)
type HostOption func(*hostOptions)

// hostOptions holds optional configuration for Host creation.
type hostOptions struct {
	settings Settings
	renderer Renderer
	provider gpucontext.DeviceProvider
	vsync    scheduler.VSyncDriver
	client   Client
	language language.Tag
}

// defaultHostOptions returns the default host options.
func defaultHostOptions() hostOptions {
	return hostOptions{
		settings: DefaultSettings(),
		renderer: nil, // Will be set to a NullRenderer if nil
		vsync:    nil, // Will be a TickerDriver at settings.VSyncInterval if nil
		client:   nil, // Will be a client that commits the tree unchanged
		language: language.English,
	}
}

// WithSettings replaces the default settings.
func WithSettings(s Settings) HostOption {
	return func(o *hostOptions) {
		o.settings = s
	}
}

// WithRenderer sets the renderer frames are drawn with.
func WithRenderer(r Renderer) HostOption {
	return func(o *hostOptions) {
		o.renderer = r
	}
}

// WithDeviceProvider sets the source of the GPU device. It is required.
func WithDeviceProvider(p gpucontext.DeviceProvider) HostOption {
	return func(o *hostOptions) {
		o.provider = p
	}
}

// WithVSyncDriver sets the vsync source. The host does not stop a driver it
// did not create.
//
// Example:
//
//	// Drive frames by hand in tests
//	d := scheduler.NewManualDriver()
//	h, _ := compositor.NewHost(compositor.WithDeviceProvider(p), compositor.WithVSyncDriver(d))
func WithVSyncDriver(d scheduler.VSyncDriver) HostOption {
	return func(o *hostOptions) {
		o.vsync = d
	}
}

// WithClient sets the main-thread client asked to update layers for each
// frame.
func WithClient(c Client) HostOption {
	return func(o *hostOptions) {
		o.client = c
	}
}

// WithLanguage sets the locale used by the heads-up display.
func WithLanguage(tag language.Tag) HostOption {
	return func(o *hostOptions) {
		o.language = tag
	}
}

// Client is the main-thread side of a Host.
type Client interface {
	// UpdateLayers runs when the scheduler begins a frame. It may change the
	// tree freely; those changes are part of the frame being committed.
	// Returning false aborts the frame.
	UpdateLayers(tree *layer.Tree) bool

	// DidCommit runs after the tree was pushed to the render side.
	DidCommit()
}

// nopClient commits the tree as it is.
type nopClient struct{}

func (nopClient) UpdateLayers(*layer.Tree) bool { return true }
func (nopClient) DidCommit()                    {}

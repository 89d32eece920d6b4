package compositor

import (
	"github.com/gogpu/compositor/impl"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Frame is one draw request handed to a Renderer.
type Frame struct {
	// Number is the scheduler's frame number at draw time.
	Number int

	// Root is the render tree to draw. It is nil before the first commit.
	Root impl.Node

	// Forced is set when the frame must be drawn even if the renderer is
	// not ready. Renderers must not return ErrNotReady for forced frames.
	Forced bool

	// Device is the current GPU device.
	Device gpucontext.Device

	// Format is the pixel format of the output surface.
	Format gputypes.TextureFormat
}

// Renderer draws render trees.
//
// Draw runs on the scheduling goroutine. It returns ErrNotReady to decline a
// non-forced frame and ErrContextLost when the device is gone; any other
// error counts as a failed draw.
type Renderer interface {
	Draw(f *Frame) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(f *Frame) error

// Draw calls fn(f).
func (fn RendererFunc) Draw(f *Frame) error { return fn(f) }

// NullRenderer accepts every frame without drawing anything.
type NullRenderer struct {
	// Frames counts the frames passed to Draw.
	Frames int
}

// Draw counts the frame.
func (r *NullRenderer) Draw(*Frame) error {
	r.Frames++
	return nil
}

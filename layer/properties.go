// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layer

import (
	"image"
	"image/color"

	"github.com/gogpu/compositor/geom"
)

// Setters leave the layer untouched when the value does not change, and
// otherwise ask the attached tree for a commit.

// Bounds returns the layer size.
func (l *Layer) Bounds() geom.Size { return l.props.Bounds }

// SetBounds sets the layer size.
func (l *Layer) SetBounds(s geom.Size) {
	if l.props.Bounds == s {
		return
	}
	l.props.Bounds = s
	l.setNeedsCommit()
}

// Position returns the position of the anchor point in the parent.
func (l *Layer) Position() geom.PointF { return l.props.Position }

// SetPosition sets the position of the anchor point in the parent.
func (l *Layer) SetPosition(p geom.PointF) {
	if l.props.Position == p {
		return
	}
	l.props.Position = p
	l.setNeedsCommit()
}

// AnchorPoint returns the anchor in unit layer coordinates.
func (l *Layer) AnchorPoint() geom.PointF { return l.props.AnchorPoint }

// SetAnchorPoint sets the anchor in unit layer coordinates.
func (l *Layer) SetAnchorPoint(p geom.PointF) {
	if l.props.AnchorPoint == p {
		return
	}
	l.props.AnchorPoint = p
	l.setNeedsCommit()
}

// AnchorPointZ returns the anchor depth.
func (l *Layer) AnchorPointZ() float64 { return l.props.AnchorPointZ }

// SetAnchorPointZ sets the anchor depth.
func (l *Layer) SetAnchorPointZ(z float64) {
	if l.props.AnchorPointZ == z {
		return
	}
	l.props.AnchorPointZ = z
	l.setNeedsCommit()
}

// Transform returns the layer transform.
func (l *Layer) Transform() geom.Transform { return l.props.Transform }

// SetTransform sets the layer transform.
func (l *Layer) SetTransform(t geom.Transform) {
	if l.props.Transform == t {
		return
	}
	l.props.Transform = t
	l.setNeedsCommit()
}

// SublayerTransform returns the transform applied to children.
func (l *Layer) SublayerTransform() geom.Transform { return l.props.SublayerTransform }

// SetSublayerTransform sets the transform applied to children.
func (l *Layer) SetSublayerTransform(t geom.Transform) {
	if l.props.SublayerTransform == t {
		return
	}
	l.props.SublayerTransform = t
	l.setNeedsCommit()
}

// Opacity returns the layer opacity in [0, 1].
func (l *Layer) Opacity() float64 { return l.props.Opacity }

// SetOpacity sets the layer opacity, clamped to [0, 1].
func (l *Layer) SetOpacity(o float64) {
	o = max(0, min(o, 1))
	if l.props.Opacity == o {
		return
	}
	l.props.Opacity = o
	l.setNeedsCommit()
}

// MasksToBounds reports whether descendants are clipped to the bounds.
func (l *Layer) MasksToBounds() bool { return l.props.MasksToBounds }

// SetMasksToBounds sets whether descendants are clipped to the bounds.
func (l *Layer) SetMasksToBounds(v bool) {
	if l.props.MasksToBounds == v {
		return
	}
	l.props.MasksToBounds = v
	l.setNeedsCommit()
}

// ContentsOpaque reports whether every drawn pixel is opaque.
func (l *Layer) ContentsOpaque() bool { return l.props.ContentsOpaque }

// SetContentsOpaque sets whether every drawn pixel is opaque.
func (l *Layer) SetContentsOpaque(v bool) {
	if l.props.ContentsOpaque == v {
		return
	}
	l.props.ContentsOpaque = v
	l.setNeedsCommit()
}

// IsDrawable reports whether the layer draws content of its own.
func (l *Layer) IsDrawable() bool { return l.props.DrawsContent }

// SetIsDrawable sets whether the layer draws content of its own.
func (l *Layer) SetIsDrawable(v bool) {
	if l.props.DrawsContent == v {
		return
	}
	l.props.DrawsContent = v
	l.setNeedsCommit()
}

// DoubleSided reports whether the back face is visible.
func (l *Layer) DoubleSided() bool { return l.props.DoubleSided }

// SetDoubleSided sets whether the back face is visible.
func (l *Layer) SetDoubleSided(v bool) {
	if l.props.DoubleSided == v {
		return
	}
	l.props.DoubleSided = v
	l.setNeedsCommit()
}

// Preserves3D reports whether children share the layer's 3D space.
func (l *Layer) Preserves3D() bool { return l.props.Preserves3D }

// SetPreserves3D sets whether children share the layer's 3D space.
func (l *Layer) SetPreserves3D(v bool) {
	if l.props.Preserves3D == v {
		return
	}
	l.props.Preserves3D = v
	l.setNeedsCommit()
}

// BackgroundColor returns the color drawn behind the content.
func (l *Layer) BackgroundColor() color.NRGBA { return l.props.BackgroundColor }

// SetBackgroundColor sets the color drawn behind the content.
func (l *Layer) SetBackgroundColor(c color.NRGBA) {
	if l.props.BackgroundColor == c {
		return
	}
	l.props.BackgroundColor = c
	l.setNeedsCommit()
}

// Scrollable reports whether the layer accepts scrolls.
func (l *Layer) Scrollable() bool { return l.props.Scrollable }

// SetScrollable sets whether the layer accepts scrolls.
func (l *Layer) SetScrollable(v bool) {
	if l.props.Scrollable == v {
		return
	}
	l.props.Scrollable = v
	l.setNeedsCommit()
}

// ScrollOffset returns the scroll offset.
func (l *Layer) ScrollOffset() image.Point { return l.props.ScrollOffset }

// SetScrollOffset sets the scroll offset.
func (l *Layer) SetScrollOffset(p image.Point) {
	if l.props.ScrollOffset == p {
		return
	}
	l.props.ScrollOffset = p
	l.setNeedsCommit()
}

// MaxScrollOffset returns the largest scroll offset.
func (l *Layer) MaxScrollOffset() image.Point { return l.props.MaxScrollOffset }

// SetMaxScrollOffset sets the largest scroll offset.
func (l *Layer) SetMaxScrollOffset(p image.Point) {
	if l.props.MaxScrollOffset == p {
		return
	}
	l.props.MaxScrollOffset = p
	l.setNeedsCommit()
}

// HaveWheelHandlers reports whether wheel events must reach the main
// goroutine.
func (l *Layer) HaveWheelHandlers() bool { return l.props.HaveWheelHandlers }

// SetHaveWheelHandlers sets whether wheel events must reach the main
// goroutine.
func (l *Layer) SetHaveWheelHandlers(v bool) {
	if l.props.HaveWheelHandlers == v {
		return
	}
	l.props.HaveWheelHandlers = v
	l.setNeedsCommit()
}

// NonFastScrollableRegion returns the area that can only scroll on the main
// goroutine.
func (l *Layer) NonFastScrollableRegion() geom.Region { return l.props.NonFastScrollableRegion }

// SetNonFastScrollableRegion sets the area that can only scroll on the main
// goroutine.
func (l *Layer) SetNonFastScrollableRegion(r geom.Region) {
	if l.props.NonFastScrollableRegion.Equal(r) {
		return
	}
	l.props.NonFastScrollableRegion = r.Clone()
	l.setNeedsCommit()
}

// TouchHandlerRegion returns the area with touch event handlers.
func (l *Layer) TouchHandlerRegion() geom.Region { return l.props.TouchHandlerRegion }

// SetTouchHandlerRegion sets the area with touch event handlers.
func (l *Layer) SetTouchHandlerRegion(r geom.Region) {
	if l.props.TouchHandlerRegion.Equal(r) {
		return
	}
	l.props.TouchHandlerRegion = r.Clone()
	l.setNeedsCommit()
}

// DebugName returns the name shown in tree dumps.
func (l *Layer) DebugName() string { return l.props.DebugName }

// SetDebugName sets the name shown in tree dumps.
func (l *Layer) SetDebugName(name string) {
	if l.props.DebugName == name {
		return
	}
	l.props.DebugName = name
	l.setNeedsCommit()
}

// UpdateRect returns the area invalidated since the last commit.
func (l *Layer) UpdateRect() image.Rectangle { return l.updateRect }

// SetNeedsDisplay invalidates the whole layer.
func (l *Layer) SetNeedsDisplay() {
	l.SetNeedsDisplayRect(l.props.Bounds.Rect())
}

// SetNeedsDisplayRect invalidates r, in layer coordinates. Only drawable
// layers request a commit for it.
func (l *Layer) SetNeedsDisplayRect(r image.Rectangle) {
	l.updateRect = l.updateRect.Union(r)
	if l.props.DrawsContent && !r.Empty() {
		l.setNeedsCommit()
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package impl

import (
	"image"
	"image/color"

	"github.com/gogpu/compositor/geom"
)

// Properties are the logical layer attributes a render node mirrors.
// They are copied one way, from the logical tree, during commit.
type Properties struct {
	Bounds       geom.Size
	Position     geom.PointF
	AnchorPoint  geom.PointF
	AnchorPointZ float64

	Transform         geom.Transform
	SublayerTransform geom.Transform

	Opacity         float64
	MasksToBounds   bool
	ContentsOpaque  bool
	DrawsContent    bool
	DoubleSided     bool
	Preserves3D     bool
	BackgroundColor color.NRGBA

	Scrollable              bool
	ScrollOffset            image.Point
	MaxScrollOffset         image.Point
	HaveWheelHandlers       bool
	NonFastScrollableRegion geom.Region
	TouchHandlerRegion      geom.Region

	DebugName string
}

// DefaultProperties returns the attributes of a freshly created layer:
// centered anchor, identity transforms, fully opaque and double sided.
func DefaultProperties() Properties {
	return Properties{
		AnchorPoint:       geom.Pt(0.5, 0.5),
		Transform:         geom.Identity(),
		SublayerTransform: geom.Identity(),
		Opacity:           1,
		DoubleSided:       true,
	}
}

// Clone returns a copy of p whose regions do not share storage with p.
func (p Properties) Clone() Properties {
	p.NonFastScrollableRegion = p.NonFastScrollableRegion.Clone()
	p.TouchHandlerRegion = p.TouchHandlerRegion.Clone()
	return p
}

// affectsDrawing reports whether switching from p to o changes what is drawn.
// Scroll offsets are handled separately because they move the subtree.
func (p *Properties) affectsDrawing(o *Properties) bool {
	return p.Bounds != o.Bounds ||
		p.Position != o.Position ||
		p.AnchorPoint != o.AnchorPoint ||
		p.AnchorPointZ != o.AnchorPointZ ||
		p.Transform != o.Transform ||
		p.SublayerTransform != o.SublayerTransform ||
		p.Opacity != o.Opacity ||
		p.MasksToBounds != o.MasksToBounds ||
		p.ContentsOpaque != o.ContentsOpaque ||
		p.DrawsContent != o.DrawsContent ||
		p.DoubleSided != o.DoubleSided ||
		p.Preserves3D != o.Preserves3D ||
		p.BackgroundColor != o.BackgroundColor
}

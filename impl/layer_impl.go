// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package impl holds the render-side layer tree.
//
// Render nodes are owned by the render goroutine. They are created or reused
// once per commit by package treesync, receive the logical layer properties
// pushed during that commit, and carry render-only state (draw properties,
// scroll deltas not yet sent back, render surfaces, texture references)
// between commits.
package impl

import (
	"image"

	"github.com/gogpu/compositor/geom"
)

// Node is a render tree node. Every node kind embeds LayerImpl; Impl returns
// that shared part.
type Node interface {
	Impl() *LayerImpl

	// TypeName names the node kind in tree dumps.
	TypeName() string

	// DidLoseContext releases GPU resources tied to the lost context.
	DidLoseContext()
}

// DrawProperties are computed on the render side before drawing.
type DrawProperties struct {
	Transform           geom.Transform
	Opacity             float64
	IsClipped           bool
	ClipRect            image.Rectangle
	DrawableContentRect image.Rectangle
	VisibleContentRect  image.Rectangle
}

// LayerImpl is the plain render node, and the part every other node kind
// embeds.
type LayerImpl struct {
	id       int
	parent   *LayerImpl
	children []Node
	mask     Node
	replica  Node

	props      Properties
	draw       DrawProperties
	updateRect image.Rectangle

	propertyChanged bool

	scrollDelta     geom.VectorF
	sentScrollDelta image.Point
	scrollbars      *ScrollbarController

	renderSurface  *RenderSurface
	renderTargetID int
	textures       []TextureRef
}

// New returns a render node for the logical layer with the given id.
func New(id int) *LayerImpl {
	l := &LayerImpl{}
	l.init(id)
	return l
}

func (l *LayerImpl) init(id int) {
	if id <= 0 {
		panic("impl: layer id must be positive")
	}
	l.id = id
	l.props = DefaultProperties()
	l.draw = DrawProperties{Transform: geom.Identity(), Opacity: 1}
}

// Impl returns l.
func (l *LayerImpl) Impl() *LayerImpl { return l }

// TypeName returns "Layer".
func (l *LayerImpl) TypeName() string { return "Layer" }

// DidLoseContext drops the node's texture references.
func (l *LayerImpl) DidLoseContext() {
	l.textures = nil
}

// ID returns the id shared with the logical layer.
func (l *LayerImpl) ID() int { return l.id }

// Parent returns the node whose child list or mask/replica slot holds l.
func (l *LayerImpl) Parent() *LayerImpl { return l.parent }

// Children returns the ordered children. The slice must not be modified.
func (l *LayerImpl) Children() []Node { return l.children }

// MaskLayer returns the mask node, or nil.
func (l *LayerImpl) MaskLayer() Node { return l.mask }

// ReplicaLayer returns the replica node, or nil.
func (l *LayerImpl) ReplicaLayer() Node { return l.replica }

// AddChild appends n to the child list.
func (l *LayerImpl) AddChild(n Node) {
	n.Impl().parent = l
	l.children = append(l.children, n)
}

// ClearChildList detaches every child.
func (l *LayerImpl) ClearChildList() {
	for _, c := range l.children {
		c.Impl().parent = nil
	}
	l.children = nil
}

// SetMaskLayer sets or, with nil, clears the mask slot.
func (l *LayerImpl) SetMaskLayer(n Node) {
	if l.mask == n {
		return
	}
	if l.mask != nil && l.mask.Impl().parent == l {
		l.mask.Impl().parent = nil
	}
	l.mask = n
	if n != nil {
		n.Impl().parent = l
	}
}

// SetReplicaLayer sets or, with nil, clears the replica slot.
func (l *LayerImpl) SetReplicaLayer(n Node) {
	if l.replica == n {
		return
	}
	if l.replica != nil && l.replica.Impl().parent == l {
		l.replica.Impl().parent = nil
	}
	l.replica = n
	if n != nil {
		n.Impl().parent = l
	}
}

// Properties returns the pushed logical properties.
func (l *LayerImpl) Properties() Properties { return l.props }

// SetProperties replaces the pushed logical properties. Changes that affect
// drawing or scrolling mark the subtree as changed.
func (l *LayerImpl) SetProperties(p Properties) {
	old := l.props
	l.props = p.Clone()

	if old.affectsDrawing(&l.props) {
		l.propertyChanged = true
	}
	if old.ScrollOffset != p.ScrollOffset {
		l.noteLayerPropertyChangedForSubtree()
	}
	if old.ScrollOffset != p.ScrollOffset || old.MaxScrollOffset != p.MaxScrollOffset || old.Bounds != p.Bounds {
		l.scrollbars.update(l)
	}
}

// Bounds returns the pushed layer size.
func (l *LayerImpl) Bounds() geom.Size { return l.props.Bounds }

// DrawsContent reports whether the layer produces pixels of its own.
func (l *LayerImpl) DrawsContent() bool { return l.props.DrawsContent }

// DebugName returns the pushed debug name.
func (l *LayerImpl) DebugName() string { return l.props.DebugName }

// DrawProperties returns the properties computed for the last draw.
func (l *LayerImpl) DrawProperties() DrawProperties { return l.draw }

// SetDrawProperties stores the properties computed for the next draw.
func (l *LayerImpl) SetDrawProperties(d DrawProperties) { l.draw = d }

// UpdateRect returns the area invalidated since the last reset.
func (l *LayerImpl) UpdateRect() image.Rectangle { return l.updateRect }

// AddUpdateRect grows the invalidated area by r.
func (l *LayerImpl) AddUpdateRect(r image.Rectangle) {
	l.updateRect = l.updateRect.Union(r)
}

// LayerPropertyChanged reports whether anything affecting the drawing of
// this node changed since the last ResetChangeTracking.
func (l *LayerImpl) LayerPropertyChanged() bool { return l.propertyChanged }

func (l *LayerImpl) noteLayerPropertyChangedForSubtree() {
	l.propertyChanged = true
	for _, c := range l.children {
		c.Impl().noteLayerPropertyChangedForSubtree()
	}
}

// ResetChangeTracking clears the change flags and update rects of the
// subtree rooted at l, including masks and replicas.
func (l *LayerImpl) ResetChangeTracking() {
	l.propertyChanged = false
	l.updateRect = image.Rectangle{}
	if l.renderSurface != nil {
		l.renderSurface.propertyChanged = false
	}
	if l.mask != nil {
		l.mask.Impl().ResetChangeTracking()
	}
	if l.replica != nil {
		l.replica.Impl().ResetChangeTracking()
	}
	for _, c := range l.children {
		c.Impl().ResetChangeTracking()
	}
}

// ScrollOffset returns the scroll offset last pushed from the logical tree.
func (l *LayerImpl) ScrollOffset() image.Point { return l.props.ScrollOffset }

// MaxScrollOffset returns the largest allowed scroll offset.
func (l *LayerImpl) MaxScrollOffset() image.Point { return l.props.MaxScrollOffset }

// ScrollDelta returns the scroll applied on the render side that the logical
// tree has not absorbed yet.
func (l *LayerImpl) ScrollDelta() geom.VectorF { return l.scrollDelta }

// SetScrollDelta replaces the pending scroll delta.
func (l *LayerImpl) SetScrollDelta(d geom.VectorF) {
	if l.scrollDelta == d {
		return
	}
	l.scrollDelta = d
	l.scrollbars.update(l)
	l.noteLayerPropertyChangedForSubtree()
}

// SentScrollDelta returns the part of the scroll delta already reported to
// the logical tree.
func (l *LayerImpl) SentScrollDelta() image.Point { return l.sentScrollDelta }

// SetSentScrollDelta records how much of the scroll delta was reported.
func (l *LayerImpl) SetSentScrollDelta(d image.Point) { l.sentScrollDelta = d }

// CurrentScrollOffset returns the scroll offset including the pending delta.
func (l *LayerImpl) CurrentScrollOffset() geom.VectorF {
	return geom.FromPoint(l.props.ScrollOffset).Add(l.scrollDelta)
}

// ScrollBy scrolls the layer by delta, keeping the scroll offset plus delta
// within [0, MaxScrollOffset]. It returns the part of delta that could not be
// applied.
func (l *LayerImpl) ScrollBy(delta geom.VectorF) geom.VectorF {
	offset := geom.FromPoint(l.props.ScrollOffset)
	minDelta := geom.VectorF{}.Sub(offset)
	maxDelta := geom.FromPoint(l.props.MaxScrollOffset).Sub(offset)

	requested := l.scrollDelta.Add(delta)
	newDelta := requested.Clamp(minDelta, maxDelta)
	unscrolled := requested.Sub(newDelta)

	l.SetScrollDelta(newDelta)
	return unscrolled
}

// Scrollbars returns the scrollbar controller, or nil if no scrollbar was
// ever attached.
func (l *LayerImpl) Scrollbars() *ScrollbarController { return l.scrollbars }

// HorizontalScrollbarLayer returns the attached horizontal scrollbar, or nil.
func (l *LayerImpl) HorizontalScrollbarLayer() *ScrollbarLayerImpl {
	return l.scrollbars.Horizontal()
}

// VerticalScrollbarLayer returns the attached vertical scrollbar, or nil.
func (l *LayerImpl) VerticalScrollbarLayer() *ScrollbarLayerImpl {
	return l.scrollbars.Vertical()
}

// SetHorizontalScrollbarLayer attaches s as the horizontal scrollbar of l.
// A nil s detaches it.
func (l *LayerImpl) SetHorizontalScrollbarLayer(s *ScrollbarLayerImpl) {
	if l.scrollbars == nil {
		if s == nil {
			return
		}
		l.scrollbars = &ScrollbarController{}
	}
	l.scrollbars.horizontal = s
	l.scrollbars.update(l)
}

// SetVerticalScrollbarLayer attaches s as the vertical scrollbar of l.
// A nil s detaches it.
func (l *LayerImpl) SetVerticalScrollbarLayer(s *ScrollbarLayerImpl) {
	if l.scrollbars == nil {
		if s == nil {
			return
		}
		l.scrollbars = &ScrollbarController{}
	}
	l.scrollbars.vertical = s
	l.scrollbars.update(l)
}

// ClearScrollbarLayers drops both scrollbar references.
func (l *LayerImpl) ClearScrollbarLayers() {
	if l.scrollbars == nil {
		return
	}
	l.scrollbars.horizontal = nil
	l.scrollbars.vertical = nil
}

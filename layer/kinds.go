// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layer

import (
	"fmt"

	"github.com/gogpu/compositor/impl"
	"golang.org/x/text/language"
)

// ScrollbarLayer draws the scrollbar of another layer.
type ScrollbarLayer struct {
	Layer

	orientation   impl.Orientation
	scrollLayerID int
}

// NewScrollbarLayer returns a drawable scrollbar for the layer with id
// scrollLayerID.
func NewScrollbarLayer(orientation impl.Orientation, scrollLayerID int) *ScrollbarLayer {
	s := &ScrollbarLayer{orientation: orientation, scrollLayerID: scrollLayerID}
	s.init()
	s.props.DrawsContent = true
	return s
}

// CreateImpl returns a scrollbar render node.
func (s *ScrollbarLayer) CreateImpl() impl.Node {
	return impl.NewScrollbarLayerImpl(s.id, s.orientation)
}

// PushPropertiesTo pushes the common properties plus the scrollbar
// configuration.
func (s *ScrollbarLayer) PushPropertiesTo(n impl.Node) {
	s.Layer.PushPropertiesTo(n)
	sb, ok := n.(*impl.ScrollbarLayerImpl)
	if !ok {
		panic(fmt.Sprintf("layer: scrollbar %d pushed to %s", s.id, n.TypeName()))
	}
	sb.SetOrientation(s.orientation)
	sb.SetScrollLayerID(s.scrollLayerID)
}

// Orientation returns the scroll axis.
func (s *ScrollbarLayer) Orientation() impl.Orientation { return s.orientation }

// SetOrientation changes the scroll axis.
func (s *ScrollbarLayer) SetOrientation(o impl.Orientation) {
	if s.orientation == o {
		return
	}
	s.orientation = o
	s.setNeedsCommit()
}

// ScrollLayerID returns the id of the scrolled layer.
func (s *ScrollbarLayer) ScrollLayerID() int { return s.scrollLayerID }

// SetScrollLayerID changes the scrolled layer.
func (s *ScrollbarLayer) SetScrollLayerID(id int) {
	if s.scrollLayerID == id {
		return
	}
	s.scrollLayerID = id
	s.setNeedsCommit()
}

// HUDLayer shows frame statistics. Its render node is filled in by the host
// after every draw; the logical side only positions it.
type HUDLayer struct {
	Layer

	tag language.Tag
}

// NewHUDLayer returns a drawable HUD layer formatting numbers for tag.
func NewHUDLayer(tag language.Tag) *HUDLayer {
	h := &HUDLayer{tag: tag}
	h.init()
	h.props.DrawsContent = true
	h.props.DebugName = "HUD"
	h.props.Bounds = impl.HUDLineSize(tag)
	return h
}

// CreateImpl returns a HUD render node.
func (h *HUDLayer) CreateImpl() impl.Node {
	return impl.NewHUDLayerImpl(h.id, h.tag)
}

var (
	_ Node      = (*Layer)(nil)
	_ Scrollbar = (*ScrollbarLayer)(nil)
	_ Node      = (*HUDLayer)(nil)
)

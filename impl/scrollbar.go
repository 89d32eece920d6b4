// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package impl

// Orientation is the axis a scrollbar scrolls along.
type Orientation uint8

const (
	// Horizontal scrollbars track the x scroll offset.
	Horizontal Orientation = iota
	// Vertical scrollbars track the y scroll offset.
	Vertical
)

// String returns "Horizontal" or "Vertical".
func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "Horizontal"
	case Vertical:
		return "Vertical"
	default:
		return "Unknown"
	}
}

// ScrollbarController holds the scrollbars of one scrolled render node and
// keeps their positions in step with its scroll state.
//
// The references are rebuilt on every commit, so they never outlive the
// tree shape they were made for.
type ScrollbarController struct {
	horizontal *ScrollbarLayerImpl
	vertical   *ScrollbarLayerImpl
}

// Horizontal returns the horizontal scrollbar, or nil. Safe on a nil
// controller.
func (c *ScrollbarController) Horizontal() *ScrollbarLayerImpl {
	if c == nil {
		return nil
	}
	return c.horizontal
}

// Vertical returns the vertical scrollbar, or nil. Safe on a nil controller.
func (c *ScrollbarController) Vertical() *ScrollbarLayerImpl {
	if c == nil {
		return nil
	}
	return c.vertical
}

func (c *ScrollbarController) update(scrolled *LayerImpl) {
	if c == nil {
		return
	}
	offset := scrolled.CurrentScrollOffset()
	maxOffset := scrolled.MaxScrollOffset()
	bounds := scrolled.Bounds()
	if c.horizontal != nil {
		c.horizontal.setScrollState(offset.X(), bounds.Width+maxOffset.X, maxOffset.X)
	}
	if c.vertical != nil {
		c.vertical.setScrollState(offset.Y(), bounds.Height+maxOffset.Y, maxOffset.Y)
	}
}

// ScrollbarLayerImpl is the render node of a scrollbar.
type ScrollbarLayerImpl struct {
	LayerImpl

	orientation   Orientation
	scrollLayerID int

	currentPos float64
	totalSize  int
	maximum    int
}

// NewScrollbarLayerImpl returns a scrollbar render node.
func NewScrollbarLayerImpl(id int, orientation Orientation) *ScrollbarLayerImpl {
	s := &ScrollbarLayerImpl{orientation: orientation}
	s.init(id)
	return s
}

// TypeName returns "ScrollbarLayer".
func (s *ScrollbarLayerImpl) TypeName() string { return "ScrollbarLayer" }

// Orientation returns the scroll axis.
func (s *ScrollbarLayerImpl) Orientation() Orientation { return s.orientation }

// SetOrientation changes the scroll axis.
func (s *ScrollbarLayerImpl) SetOrientation(o Orientation) { s.orientation = o }

// ScrollLayerID returns the id of the layer this scrollbar scrolls.
func (s *ScrollbarLayerImpl) ScrollLayerID() int { return s.scrollLayerID }

// SetScrollLayerID records the id of the scrolled layer.
func (s *ScrollbarLayerImpl) SetScrollLayerID(id int) { s.scrollLayerID = id }

// CurrentPos returns the thumb position along the scroll axis.
func (s *ScrollbarLayerImpl) CurrentPos() float64 { return s.currentPos }

// TotalSize returns the scrollable content length along the axis.
func (s *ScrollbarLayerImpl) TotalSize() int { return s.totalSize }

// Maximum returns the largest thumb position.
func (s *ScrollbarLayerImpl) Maximum() int { return s.maximum }

func (s *ScrollbarLayerImpl) setScrollState(pos float64, total, maximum int) {
	if s.currentPos == pos && s.totalSize == total && s.maximum == maximum {
		return
	}
	s.currentPos = pos
	s.totalSize = total
	s.maximum = maximum
	s.propertyChanged = true
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package impl

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/compositor/geom"
)

// FrameStats are the counters shown by the heads-up display.
type FrameStats struct {
	FrameNumber   int
	Commits       int
	Draws         int
	FailedDraws   int
	ForcedDraws   int
	ContextLosses int
	LastDrawTime  time.Duration
}

// HUDLayerImpl draws frame statistics on top of the page.
type HUDLayerImpl struct {
	LayerImpl

	stats    FrameStats
	printer  *message.Printer
	textSize geom.Size
}

// NewHUDLayerImpl returns a HUD render node that formats numbers for tag.
func NewHUDLayerImpl(id int, tag language.Tag) *HUDLayerImpl {
	h := &HUDLayerImpl{printer: message.NewPrinter(tag)}
	h.init(id)
	h.textSize = MeasureText(h.Text(), HUDFontSize)
	return h
}

// TypeName returns "HeadsUpDisplayLayer".
func (h *HUDLayerImpl) TypeName() string { return "HeadsUpDisplayLayer" }

// Stats returns the counters last passed to SetStats.
func (h *HUDLayerImpl) Stats() FrameStats { return h.stats }

// SetStats replaces the counters. The HUD is redrawn every frame its
// counters change.
func (h *HUDLayerImpl) SetStats(s FrameStats) {
	if h.stats == s {
		return
	}
	h.stats = s
	h.textSize = MeasureText(h.Text(), HUDFontSize)
	h.propertyChanged = true
	h.AddUpdateRect(h.Bounds().Rect())
}

// Text returns the HUD line for the current counters.
func (h *HUDLayerImpl) Text() string { return hudText(h.printer, h.stats) }

func hudText(p *message.Printer, s FrameStats) string {
	return p.Sprintf("frame %d | commits %d | draws %d (failed %d, forced %d) | context losses %d | %v",
		s.FrameNumber, s.Commits, s.Draws, s.FailedDraws, s.ForcedDraws, s.ContextLosses, s.LastDrawTime)
}

// TextSize returns the extent of Text at HUDFontSize.
func (h *HUDLayerImpl) TextSize() geom.Size { return h.textSize }

// HUDLineSize returns the extent of a HUD line with zeroed counters
// formatted for tag.
func HUDLineSize(tag language.Tag) geom.Size {
	return MeasureText(hudText(message.NewPrinter(tag), FrameStats{}), HUDFontSize)
}

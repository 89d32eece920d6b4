// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package impl

import (
	"image"

	"github.com/gogpu/gputypes"
)

// RenderSurface is an offscreen target a subtree is drawn into before it is
// composited into its parent target.
type RenderSurface struct {
	owner   *LayerImpl
	format  gputypes.TextureFormat
	content image.Rectangle

	propertyChanged bool
}

// Owner returns the node that owns the surface.
func (s *RenderSurface) Owner() *LayerImpl { return s.owner }

// Format returns the pixel format of the surface texture.
func (s *RenderSurface) Format() gputypes.TextureFormat { return s.format }

// ContentRect returns the area of the surface holding drawn content.
func (s *RenderSurface) ContentRect() image.Rectangle { return s.content }

// SetContentRect updates the drawn area.
func (s *RenderSurface) SetContentRect(r image.Rectangle) {
	if s.content == r {
		return
	}
	s.content = r
	s.propertyChanged = true
}

// SurfacePropertyChanged reports whether the surface changed since the last
// change tracking reset.
func (s *RenderSurface) SurfacePropertyChanged() bool { return s.propertyChanged }

// TextureRef names a GPU texture a render node draws from. The texture itself
// is owned by the renderer.
type TextureRef struct {
	ID     uint64
	Size   image.Point
	Format gputypes.TextureFormat
}

// CreateRenderSurface gives l its own render surface, replacing any previous
// one, and makes l its own render target.
func (l *LayerImpl) CreateRenderSurface(format gputypes.TextureFormat) *RenderSurface {
	l.renderSurface = &RenderSurface{owner: l, format: format, propertyChanged: true}
	l.renderTargetID = l.id
	return l.renderSurface
}

// ClearRenderSurface releases the render surface, if any.
func (l *LayerImpl) ClearRenderSurface() {
	if l.renderSurface == nil {
		return
	}
	l.renderSurface = nil
	if l.renderTargetID == l.id {
		l.renderTargetID = 0
	}
}

// RenderSurface returns the node's surface, or nil.
func (l *LayerImpl) RenderSurface() *RenderSurface { return l.renderSurface }

// RenderTargetID returns the id of the nearest node, possibly l itself, whose
// surface l draws into. Zero means the root target.
func (l *LayerImpl) RenderTargetID() int { return l.renderTargetID }

// SetRenderTargetID records the node l draws into.
func (l *LayerImpl) SetRenderTargetID(id int) { l.renderTargetID = id }

// Textures returns the textures the node draws from.
func (l *LayerImpl) Textures() []TextureRef { return l.textures }

// AddTexture records a texture the node draws from.
func (l *LayerImpl) AddTexture(t TextureRef) {
	l.textures = append(l.textures, t)
}

// ReleaseTextures drops every texture reference.
func (l *LayerImpl) ReleaseTextures() {
	l.textures = nil
}

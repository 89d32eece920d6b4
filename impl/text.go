// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package impl

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/compositor/geom"
)

// HUDFontSize is the pixel size of the heads-up display text.
const HUDFontSize = 12

// hudFont is the parsed Go Regular font. font.Font is safe for concurrent
// use; faces are created per measurement.
var hudFont = sync.OnceValues(func() (*font.Font, error) {
	face, err := font.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, err
	}
	return face.Font, nil
})

// MeasureText returns the size of a single line of text shaped with the HUD
// font at size pixels, rounded up to whole pixels. It returns the zero size
// for empty text or a non-positive size.
func MeasureText(text string, size float64) geom.Size {
	if text == "" || size <= 0 {
		return geom.Size{}
	}
	f, err := hudFont()
	if err != nil {
		return geom.Size{}
	}
	runes := []rune(text)
	out := (&shaping.HarfbuzzShaper{}).Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(f),
		Size:      fixed.Int26_6(size * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})

	var width fixed.Int26_6
	for _, g := range out.Glyphs {
		width += g.Advance
	}
	b := out.LineBounds
	height := b.Ascent - b.Descent + b.Gap
	return geom.Size{Width: width.Ceil(), Height: height.Ceil()}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/compositor/scheduler"
	"github.com/gogpu/gputypes"
)

// Surface format names accepted in Settings.
const (
	FormatBGRA8 = "bgra8unorm"
	FormatRGBA8 = "rgba8unorm"
)

// Duration is a time.Duration written as a string ("16ms") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Settings configure a Host.
type Settings struct {
	// MaxFailedDraws is the number of consecutive failed draws after which
	// the next commit is drawn even if the renderer is not ready.
	MaxFailedDraws int `toml:"max_failed_draws_before_force"`

	// VSyncInterval is the tick period of the default vsync driver.
	VSyncInterval Duration `toml:"vsync_interval"`

	// ContextRetryInterval is how often a lost device is polled for
	// recovery.
	ContextRetryInterval Duration `toml:"context_retry_interval"`

	// ShowHUD adds a heads-up display layer with frame statistics.
	ShowHUD bool `toml:"show_hud"`

	// CheckThreads makes the scheduler panic when driven from more than one
	// goroutine.
	CheckThreads bool `toml:"check_threads"`

	// SurfaceFormat is FormatBGRA8 or FormatRGBA8.
	SurfaceFormat string `toml:"surface_format"`
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		MaxFailedDraws:       scheduler.DefaultMaxFailedDraws,
		VSyncInterval:        Duration{16 * time.Millisecond},
		ContextRetryInterval: Duration{100 * time.Millisecond},
		ShowHUD:              false,
		CheckThreads:         true,
		SurfaceFormat:        FormatBGRA8,
	}
}

// LoadSettings reads settings from a TOML file. Keys missing from the file
// keep their default values.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, fmt.Errorf("compositor: load settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// DecodeSettings parses settings from TOML text. Keys missing from data keep
// their default values.
func DecodeSettings(data string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.Decode(data, &s); err != nil {
		return Settings{}, fmt.Errorf("compositor: decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Encode writes s as TOML.
func (s Settings) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// Validate reports the first invalid field, wrapped in ErrInvalidSettings.
func (s Settings) Validate() error {
	switch {
	case s.MaxFailedDraws <= 0:
		return fmt.Errorf("%w: max_failed_draws_before_force=%d", ErrInvalidSettings, s.MaxFailedDraws)
	case s.VSyncInterval.Duration <= 0:
		return fmt.Errorf("%w: vsync_interval=%v", ErrInvalidSettings, s.VSyncInterval.Duration)
	case s.ContextRetryInterval.Duration <= 0:
		return fmt.Errorf("%w: context_retry_interval=%v", ErrInvalidSettings, s.ContextRetryInterval.Duration)
	case s.SurfaceFormat != FormatBGRA8 && s.SurfaceFormat != FormatRGBA8:
		return fmt.Errorf("%w: surface_format=%q", ErrInvalidSettings, s.SurfaceFormat)
	}
	return nil
}

// TextureFormat returns the GPU format named by SurfaceFormat.
func (s Settings) TextureFormat() gputypes.TextureFormat {
	if s.SurfaceFormat == FormatRGBA8 {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return gputypes.TextureFormatBGRA8Unorm
}

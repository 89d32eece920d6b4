// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import "errors"

// Common errors returned by Host and Renderer implementations.
var (
	// ErrContextLost is returned by a Renderer whose GPU device is gone.
	// The host reports it to the scheduler, which recreates the context.
	ErrContextLost = errors.New("compositor: graphics context lost")

	// ErrNotReady is returned by a Renderer that declines a non-forced draw,
	// for example because a texture upload is still pending.
	ErrNotReady = errors.New("compositor: frame not ready to draw")

	// ErrNilDeviceProvider is returned when no DeviceProvider is configured.
	ErrNilDeviceProvider = errors.New("compositor: nil DeviceProvider")

	// ErrHostClosed is returned by Post after Run has returned.
	ErrHostClosed = errors.New("compositor: host is closed")

	// ErrTaskQueueFull is returned by TryPost when the task queue is full.
	ErrTaskQueueFull = errors.New("compositor: task queue full")

	// ErrInvalidSettings is returned when Settings fail validation.
	ErrInvalidSettings = errors.New("compositor: invalid settings")
)

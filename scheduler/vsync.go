// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// VSyncSource is the part of a vsync driver the Loop controls: whether ticks
// should be delivered at all.
type VSyncSource interface {
	SetActive(active bool)
}

// VSyncDriver delivers periodic vsync ticks while active.
//
// Ticks are consumed by whoever owns the scheduling goroutine, which then
// calls Loop.VSyncTick. Drivers drop ticks rather than queue them when the
// consumer falls behind.
type VSyncDriver interface {
	VSyncSource

	// Ticks returns the channel ticks are delivered on.
	Ticks() <-chan time.Time

	// Stop releases the driver. No ticks are delivered afterwards.
	Stop()
}

// TickerDriver is a VSyncDriver backed by time.Ticker.
type TickerDriver struct {
	active atomic.Bool
	ticks  chan time.Time
	done   chan struct{}
	once   sync.Once
}

// NewTickerDriver starts a driver ticking every interval. It starts inactive.
func NewTickerDriver(interval time.Duration) *TickerDriver {
	d := &TickerDriver{
		ticks: make(chan time.Time, 1),
		done:  make(chan struct{}),
	}
	ticker := time.NewTicker(interval)
	go d.run(ticker)
	return d
}

func (d *TickerDriver) run(ticker *time.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-d.done:
			return
		case t := <-ticker.C:
			if !d.active.Load() {
				continue
			}
			select {
			case d.ticks <- t:
			default:
				// Consumer is still busy with the previous frame.
			}
		}
	}
}

// SetActive starts or pauses tick delivery.
func (d *TickerDriver) SetActive(active bool) { d.active.Store(active) }

// Active reports whether ticks are being delivered.
func (d *TickerDriver) Active() bool { return d.active.Load() }

// Ticks returns the tick channel.
func (d *TickerDriver) Ticks() <-chan time.Time { return d.ticks }

// Stop stops the underlying ticker. Safe to call more than once.
func (d *TickerDriver) Stop() {
	d.once.Do(func() { close(d.done) })
}

// ManualDriver is a VSyncDriver whose ticks are fired explicitly with Tick.
// It is meant for tests and simulations.
type ManualDriver struct {
	mu          sync.Mutex
	active      bool
	activations int
	ticks       chan time.Time
}

// NewManualDriver returns an inactive ManualDriver.
func NewManualDriver() *ManualDriver {
	return &ManualDriver{ticks: make(chan time.Time, 1)}
}

// SetActive records whether the loop wants ticks.
func (d *ManualDriver) SetActive(active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if active && !d.active {
		d.activations++
	}
	d.active = active
}

// Active reports the last value passed to SetActive.
func (d *ManualDriver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Activations counts inactive-to-active transitions.
func (d *ManualDriver) Activations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activations
}

// Ticks returns the tick channel.
func (d *ManualDriver) Ticks() <-chan time.Time { return d.ticks }

// Tick queues one tick if the driver is active and no tick is pending.
// It reports whether a tick was queued.
func (d *ManualDriver) Tick() bool {
	if !d.Active() {
		return false
	}
	select {
	case d.ticks <- time.Now():
		return true
	default:
		return false
	}
}

// Stop deactivates the driver.
func (d *ManualDriver) Stop() { d.SetActive(false) }

var (
	_ VSyncDriver = (*TickerDriver)(nil)
	_ VSyncDriver = (*ManualDriver)(nil)
)

package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/gerakkita/service-transit/internal/geo"
)

// DeviceFeed adapts driver-reported GPS fixes to the LocationSource the
// publisher reads. The driver's app pushes fixes over HTTP at its own rhythm;
// the publisher samples the latest one on its own cadence.
type DeviceFeed struct {
	mu       sync.Mutex
	last     geo.Point
	lastAt   time.Time
	hasFix   bool
	firstFix chan struct{}
}

// NewDeviceFeed creates an empty feed with no fix yet.
func NewDeviceFeed() *DeviceFeed {
	return &DeviceFeed{firstFix: make(chan struct{})}
}

// Report records a fresh fix from the device, replacing the previous one.
func (f *DeviceFeed) Report(p geo.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = p
	f.lastAt = time.Now().UTC()
	if !f.hasFix {
		f.hasFix = true
		close(f.firstFix)
	}
}

// Current returns the latest fix, blocking until the device has reported at
// least once or the context is cancelled.
func (f *DeviceFeed) Current(ctx context.Context) (geo.Point, error) {
	f.mu.Lock()
	if f.hasFix {
		p := f.last
		f.mu.Unlock()
		return p, nil
	}
	first := f.firstFix
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return geo.Point{}, ctx.Err()
	case <-first:
	}

	f.mu.Lock()
	p := f.last
	f.mu.Unlock()
	return p, nil
}

// LastReportedAt returns when the device last reported, or the zero time.
func (f *DeviceFeed) LastReportedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAt
}

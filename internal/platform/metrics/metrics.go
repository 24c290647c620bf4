package metrics

import (
	"sync/atomic"
	"time"
)

// Collector tracks request counters plus the OFS-facing operations the
// operators watch when the remote platform misbehaves.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64

	scansTotal      uint64
	scansFailed     uint64
	cleanupsTotal   uint64
	cleanupsApplied uint64
	usersDeleted    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordScan(ok bool) {
	atomic.AddUint64(&c.scansTotal, 1)
	if !ok {
		atomic.AddUint64(&c.scansFailed, 1)
	}
}

func (c *Collector) RecordCleanup(applied bool, deleted int) {
	atomic.AddUint64(&c.cleanupsTotal, 1)
	if applied {
		atomic.AddUint64(&c.cleanupsApplied, 1)
		atomic.AddUint64(&c.usersDeleted, uint64(deleted))
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":   total,
		"errorsTotal":     atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":   avg,
		"scansTotal":      atomic.LoadUint64(&c.scansTotal),
		"scansFailed":     atomic.LoadUint64(&c.scansFailed),
		"cleanupsTotal":   atomic.LoadUint64(&c.cleanupsTotal),
		"cleanupsApplied": atomic.LoadUint64(&c.cleanupsApplied),
		"usersDeleted":    atomic.LoadUint64(&c.usersDeleted),
	}
}

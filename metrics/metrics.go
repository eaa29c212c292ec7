// Package metrics provides cheap process-local counters for the resolution
// engine: fetch batch counts, decode failures, per-path timings. Counters
// are registered by name and readable for export by the embedding
// application.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Config contains the configuration for metric collection.
type Config struct {
	Enabled bool `toml:",omitempty"`
}

// DefaultConfig is the default config for metrics.
var DefaultConfig = Config{
	Enabled: true,
}

var (
	mu       sync.RWMutex
	counters = make(map[string]*Counter)
	timers   = make(map[string]*Timer)
	enabled  atomic.Bool
)

func init() {
	enabled.Store(DefaultConfig.Enabled)
}

// SetEnabled toggles metric collection globally.
func SetEnabled(on bool) { enabled.Store(on) }

// Counter is a monotonically increasing 64-bit counter.
type Counter struct {
	v atomic.Int64
}

// NewCounter registers (or retrieves) the counter with the given name.
func NewCounter(name string) *Counter {
	mu.Lock()
	defer mu.Unlock()
	if c, ok := counters[name]; ok {
		return c
	}
	c := new(Counter)
	counters[name] = c
	return c
}

// Inc increments the counter by i.
func (c *Counter) Inc(i int64) {
	if !enabled.Load() {
		return
	}
	c.v.Add(i)
}

// Count returns the current value.
func (c *Counter) Count() int64 { return c.v.Load() }

// Timer accumulates total duration and invocation count of an operation.
type Timer struct {
	total atomic.Int64 // nanoseconds
	count atomic.Int64
}

// NewTimer registers (or retrieves) the timer with the given name.
func NewTimer(name string) *Timer {
	mu.Lock()
	defer mu.Unlock()
	if t, ok := timers[name]; ok {
		return t
	}
	t := new(Timer)
	timers[name] = t
	return t
}

// UpdateSince records one invocation that started at start.
func (t *Timer) UpdateSince(start time.Time) {
	if !enabled.Load() {
		return
	}
	t.total.Add(int64(time.Since(start)))
	t.count.Add(1)
}

// Count returns the number of recorded invocations.
func (t *Timer) Count() int64 { return t.count.Load() }

// Total returns the accumulated duration.
func (t *Timer) Total() time.Duration { return time.Duration(t.total.Load()) }

// Snapshot returns all counter values keyed by name. Use Names for a
// sorted iteration order.
func Snapshot() map[string]int64 {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]int64, len(counters))
	for name, c := range counters {
		out[name] = c.Count()
	}
	return out
}

// Names returns the sorted names of all registered counters.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package pathfinding

import (
	"sync"
	"time"
)

// LoadEventRegistrar tracks how long named pathfinding phases (expand,
// compute_ranks, best_paths) spend running, grouped by name, the way
// metrics.ResourceManager tracks per-peer resource charge. A search holds
// one LoadEventHandle per acquisition and releases it exactly once.
type LoadEventRegistrar struct {
	mu      sync.Mutex
	tallies map[string]*loadTally
}

type loadTally struct {
	count    int
	duration time.Duration
}

// NewLoadEventRegistrar builds an empty registrar.
func NewLoadEventRegistrar() *LoadEventRegistrar {
	return &LoadEventRegistrar{tallies: make(map[string]*loadTally)}
}

// Acquire starts timing one occurrence of the named phase. The caller must
// call Release on the returned handle when the phase completes.
func (r *LoadEventRegistrar) Acquire(name string) LoadEventHandle {
	return LoadEventHandle{registrar: r, name: name, start: time.Now()}
}

func (r *LoadEventRegistrar) record(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tallies[name]
	if !ok {
		t = &loadTally{}
		r.tallies[name] = t
	}
	t.count++
	t.duration += d
}

// Snapshot returns the accumulated count and duration for name.
func (r *LoadEventRegistrar) Snapshot(name string) (count int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tallies[name]
	if !ok {
		return 0, 0
	}
	return t.count, t.duration
}

// LoadEventHandle is a single in-flight acquisition of a named phase.
// Release is safe to call more than once; only the first call counts.
type LoadEventHandle struct {
	registrar *LoadEventRegistrar
	name      string
	start     time.Time
	once      sync.Once
}

// Release records the elapsed time since Acquire and stops timing. Calling
// Release more than once has no further effect.
func (h *LoadEventHandle) Release() {
	h.once.Do(func() {
		if h.registrar == nil {
			return
		}
		h.registrar.record(h.name, time.Since(h.start))
	})
}

package ratelimit

import (
	"context"
	"sync"
	"time"
)

/* Memory is a sliding window log limiter kept in process memory
 * Windows are resolved through a map under an RWMutex
 * Each window carries its own mutex so different identities never contend
 */
type Memory struct {
	limit        int
	window       time.Duration
	cleanupEvery time.Duration

	mu      sync.RWMutex
	windows map[string]*window
}

type window struct {
	mu     sync.Mutex
	stamps []time.Time
	// removed by Sweep; holders must resolve the identity again
	dead bool
}

type Option func(*Memory)

// WithCleanupEvery sets the janitor period. Zero disables it
func WithCleanupEvery(d time.Duration) Option {
	return func(m *Memory) { m.cleanupEvery = d }
}

// NewMemory creates a limiter admitting at most limit attempts per identity within span
func NewMemory(limit int, span time.Duration, opts ...Option) *Memory {
	m := &Memory{
		limit:   limit,
		window:  span,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Limit() int                  { return m.limit }
func (m *Memory) Window() time.Duration       { return m.window }
func (m *Memory) CleanupEvery() time.Duration { return m.cleanupEvery }

// Admit applies the sliding window log to identity.
// Timestamps strictly older than now-window are evicted, so one exactly window old still counts.
// A denied attempt leaves the window untouched.
func (m *Memory) Admit(_ context.Context, identity string, now time.Time) (Decision, error) {
	for {
		w := m.lookup(identity)
		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		d := m.admit(w, now)
		w.mu.Unlock()
		return d, nil
	}
}

func (m *Memory) admit(w *window, now time.Time) Decision {
	w.trim(now.Add(-m.window))

	if len(w.stamps) >= m.limit {
		return Decision{
			Allowed:   false,
			Limit:     m.limit,
			Remaining: 0,
			ResetAt:   w.stamps[0].Add(m.window),
		}
	}

	if n := len(w.stamps); n > 0 && now.Before(w.stamps[n-1]) {
		now = w.stamps[n-1]
	}
	w.stamps = append(w.stamps, now)
	return Decision{
		Allowed:   true,
		Limit:     m.limit,
		Remaining: m.limit - len(w.stamps),
		ResetAt:   w.stamps[0].Add(m.window),
	}
}

func (m *Memory) lookup(identity string) *window {
	m.mu.RLock()
	w, ok := m.windows[identity]
	m.mu.RUnlock()
	if ok {
		return w
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok = m.windows[identity]; ok {
		return w
	}
	w = &window{stamps: make([]time.Time, 0, m.limit)}
	m.windows[identity] = w
	return w
}

// trim drops the prefix of stamps older than cutoff
func (w *window) trim(cutoff time.Time) {
	i := 0
	for i < len(w.stamps) && w.stamps[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(w.stamps, w.stamps[i:])
	w.stamps = w.stamps[:n]
}

// Count returns how many admissions of identity are still inside the window at now
func (m *Memory) Count(identity string, now time.Time) int {
	m.mu.RLock()
	w, ok := m.windows[identity]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trim(now.Add(-m.window))
	return len(w.stamps)
}

// Len returns the number of identities currently tracked
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.windows)
}

// Sweep forgets identities with no admission left inside the window and returns how many were removed
func (m *Memory) Sweep(now time.Time) int {
	cutoff := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for identity, w := range m.windows {
		w.mu.Lock()
		w.trim(cutoff)
		if len(w.stamps) == 0 {
			w.dead = true
			delete(m.windows, identity)
			removed++
		}
		w.mu.Unlock()
	}
	return removed
}

// StartJanitor sweeps idle identities every cleanupEvery until ctx is done
func (m *Memory) StartJanitor(ctx context.Context) {
	if m.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(m.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				m.Sweep(now)
			}
		}
	}()
}

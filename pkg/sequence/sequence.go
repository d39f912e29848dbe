// Package sequence tracks overlapping requests so that only the newest
// response for a view is treated as current, and so that a form cannot be
// submitted twice while the first submission is still in flight.
package sequence

import (
	"strings"
	"sync"
	"time"
)

// DefaultIdleTTL bounds how long an untouched key is remembered.
const DefaultIdleTTL = 12 * time.Hour

// Tracker remembers the newest request sequence per key. Keys untouched for
// longer than the idle TTL are pruned by Begin, so sessions that expire
// without logging out do not accumulate.
type Tracker struct {
	mu        sync.Mutex
	latest    map[string]entry
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type entry struct {
	seq     uint64
	touched time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithIdleTTL overrides DefaultIdleTTL. Non-positive values keep the default.
func WithIdleTTL(ttl time.Duration) TrackerOption {
	return func(t *Tracker) {
		if ttl > 0 {
			t.idleTTL = ttl
		}
	}
}

// NewTracker builds an empty tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{latest: make(map[string]entry), idleTTL: DefaultIdleTTL, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	t.lastSweep = t.now()
	return t
}

// Ticket identifies one started request.
type Ticket struct {
	tracker *Tracker
	key     string
	seq     uint64
}

// Begin registers a request for key. A zero seq is assigned the next number
// for the key; a client-supplied seq lower than one already seen starts out
// stale.
func (t *Tracker) Begin(key string, seq uint64) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.prune(now)

	current := t.latest[key]
	if seq == 0 {
		seq = current.seq + 1
	}
	if seq > current.seq {
		current.seq = seq
	}
	current.touched = now
	t.latest[key] = current
	return Ticket{tracker: t, key: key, seq: seq}
}

// prune sweeps idle keys at most once per idle TTL. Callers hold mu.
func (t *Tracker) prune(now time.Time) {
	if now.Sub(t.lastSweep) < t.idleTTL {
		return
	}
	t.lastSweep = now
	for key, e := range t.latest {
		if now.Sub(e.touched) >= t.idleTTL {
			delete(t.latest, key)
		}
	}
}

// Len reports how many keys are remembered.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.latest)
}

// Seq returns the sequence number of the ticket.
func (tk Ticket) Seq() uint64 {
	return tk.seq
}

// Stale reports whether a newer request for the same key has started.
func (tk Ticket) Stale() bool {
	if tk.tracker == nil {
		return false
	}
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	return tk.tracker.latest[tk.key].seq > tk.seq
}

// Forget drops every key with the given prefix, e.g. a session id on logout.
func (t *Tracker) Forget(prefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.latest {
		if strings.HasPrefix(key, prefix) {
			delete(t.latest, key)
		}
	}
}

// Guard allows one in-flight operation per key.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard builds an empty guard.
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// TryAcquire claims key. When ok is false another operation holds it and
// release is a no-op.
func (g *Guard) TryAcquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[key]; busy {
		return func() {}, false
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, true
}

// Key joins parts into a tracker or guard key.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

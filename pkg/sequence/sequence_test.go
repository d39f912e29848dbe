package sequence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLastResponseWins(t *testing.T) {
	tr := NewTracker()
	first := tr.Begin(Key("s1", "students"), 0)
	second := tr.Begin(Key("s1", "students"), 0)
	other := tr.Begin(Key("s1", "payments"), 0)

	assert.True(t, first.Stale())
	assert.False(t, second.Stale())
	assert.False(t, other.Stale())
	assert.Equal(t, uint64(2), second.Seq())
}

func TestTrackerClientSequence(t *testing.T) {
	tr := NewTracker()
	newer := tr.Begin("k", 7)
	older := tr.Begin("k", 5)

	assert.False(t, newer.Stale())
	assert.True(t, older.Stale())

	next := tr.Begin("k", 0)
	assert.Equal(t, uint64(8), next.Seq())
	assert.True(t, newer.Stale())
}

func TestTrackerForget(t *testing.T) {
	tr := NewTracker()
	tr.Begin(Key("s1", "students"), 3)
	tr.Begin(Key("s2", "students"), 3)
	tr.Forget("s1|")

	assert.Equal(t, uint64(1), tr.Begin(Key("s1", "students"), 0).Seq())
	assert.Equal(t, uint64(4), tr.Begin(Key("s2", "students"), 0).Seq())
}

func TestTrackerPrunesIdleKeys(t *testing.T) {
	clock := time.Date(2024, 10, 14, 8, 0, 0, 0, time.UTC)
	tr := NewTracker(WithIdleTTL(time.Hour))
	tr.now = func() time.Time { return clock }
	tr.lastSweep = clock

	tr.Begin(Key("expired", "students"), 0)
	clock = clock.Add(30 * time.Minute)
	tr.Begin(Key("active", "students"), 0)
	clock = clock.Add(45 * time.Minute)
	tr.Begin(Key("active", "payments"), 0)

	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, uint64(1), tr.Begin(Key("expired", "students"), 0).Seq())
	assert.Equal(t, uint64(2), tr.Begin(Key("active", "students"), 0).Seq())
}

func TestZeroTicketNeverStale(t *testing.T) {
	assert.False(t, Ticket{}.Stale())
}

func TestGuardSingleFlight(t *testing.T) {
	g := NewGuard()
	release, ok := g.TryAcquire("s1|payment|7")
	require.True(t, ok)

	_, ok = g.TryAcquire("s1|payment|7")
	assert.False(t, ok)

	_, ok = g.TryAcquire("s2|payment|7")
	assert.True(t, ok)

	release()
	release()
	again, ok := g.TryAcquire("s1|payment|7")
	assert.True(t, ok)
	again()
}

func TestGuardConcurrent(t *testing.T) {
	g := NewGuard()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	start := make(chan struct{})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := g.TryAcquire("same"); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, winners)
}

package revalidate

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensCancelPrevious(t *testing.T) {
	tok := NewTokens()
	first, gen1 := tok.Begin(context.Background(), "a")
	second, gen2 := tok.Begin(context.Background(), "a")

	assert.Error(t, first.Err())
	assert.NoError(t, second.Err())
	assert.NotEqual(t, gen1, gen2)

	tok.Done("a", gen1)
	assert.NoError(t, second.Err(), "stale generation must not cancel newer work")
	assert.Equal(t, 1, tok.Pending())

	tok.Done("a", gen2)
	assert.Error(t, second.Err())
	assert.Zero(t, tok.Pending())
}

func TestSchedulerOnlyLastRunPublishes(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)
	var runs atomic.Int32
	var last atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	const edits = 10
	for i := 1; i <= edits; i++ {
		version := int32(i)
		s.Schedule(context.Background(), "doc", func(ctx context.Context) {
			runs.Add(1)
			last.Store(version)
			if version == edits {
				wg.Done()
			}
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled work never ran")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(edits), last.Load())
}

func TestSchedulerCancelStopsPendingWork(t *testing.T) {
	s := NewScheduler(30 * time.Millisecond)
	var ran atomic.Bool
	s.Schedule(context.Background(), "doc", func(context.Context) { ran.Store(true) })
	s.Cancel("doc")
	time.Sleep(80 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestGateMonotonic(t *testing.T) {
	g := NewGate()
	assert.True(t, g.CanPublish("a", 3))
	g.RecordPublish("a", 3)

	assert.False(t, g.CanPublish("a", 2))
	assert.False(t, g.CanPublish("a", 3))
	assert.True(t, g.CanPublish("a", 4))

	g.MarkForce("a")
	assert.True(t, g.CanPublish("a", 3))
	assert.False(t, g.CanPublish("a", 2))
	g.RecordPublish("a", 3)
	assert.False(t, g.CanPublish("a", 3), "force is consumed by a publish")

	g.Clear("a")
	assert.True(t, g.CanPublish("a", 1))
}

func TestActivityPriority(t *testing.T) {
	a := NewActivity()
	now := time.Now()
	a.Update("one", []string{"one", "two"}, now)
	a.Update("three", []string{"three", "two"}, now.Add(time.Second))
	a.Touch("four")

	assert.Equal(t, 0, a.Priority("three"))
	assert.Equal(t, 1, a.Priority("two"))
	assert.Equal(t, 2, a.Priority("four"))
	assert.Equal(t, 3, a.Priority("one"))
	assert.Equal(t, math.MaxInt, a.Priority("other"))

	a.Update("one", nil, now)
	assert.Equal(t, 0, a.Priority("three"), "stale report ignored")

	a.Remove("three")
	assert.Equal(t, math.MaxInt, a.Priority("three"))
}

func TestBuildPlan(t *testing.T) {
	act := NewActivity()
	act.Update("active", []string{"visible"}, time.Now())
	act.Touch("recent")
	open := map[string]bool{"trig": true, "active": true, "visible": true, "recent": true, "z": true, "y": true}
	isOpen := func(u string) bool { return open[u] }

	p := BuildPlan("trig", []string{"z", "closed", "recent", "y", "visible", "active", "trig", "z"}, isOpen, act, 0)
	assert.Equal(t, []string{"trig", "active", "visible", "recent", "y", "z"}, p.Scheduled)
	assert.Empty(t, p.Deferred)

	p = BuildPlan("trig", []string{"z", "recent", "y", "visible", "active"}, isOpen, act, 3)
	require.Len(t, p.Scheduled, 3)
	assert.Equal(t, []string{"trig", "active", "visible"}, p.Scheduled)
	assert.Equal(t, []string{"recent", "y", "z"}, p.Deferred)
}

func TestSnapshotFreshness(t *testing.T) {
	s := Snapshot{Version: 2, Revision: 5}
	assert.True(t, s.Fresh(Snapshot{Version: 2, Revision: 5}, true))
	assert.False(t, s.Fresh(Snapshot{Version: 2, Revision: 6}, true))
	assert.False(t, s.Fresh(s, false))
}

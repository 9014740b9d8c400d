package observ

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(10 * time.Millisecond)

	idx := tm.Begin("discover")
	tm.End(idx, "12 files")
	err := tm.Measure("index", func() error { return errors.New("store locked") })
	require.Error(t, err)
	tm.End(99, "ignored")

	report := tm.Report()
	require.Len(t, report.Phases, 2)
	assert.Equal(t, "discover", report.Phases[0].Name)
	assert.InDelta(t, 10.0, report.Phases[0].DurationMS, 0.001)
	assert.Equal(t, "store locked", report.Phases[1].Note)
	assert.InDelta(t, 20.0, report.TotalMS, 0.001)

	summary := tm.Summary()
	assert.Contains(t, summary, "discover")
	assert.Contains(t, summary, "(12 files)")
	assert.Contains(t, summary, "total")
}

func TestEmptyTimer(t *testing.T) {
	assert.Equal(t, Report{}, NewTimer().Report())
}

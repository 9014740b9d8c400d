package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressModelCountsAndRecent(t *testing.T) {
	events := make(chan Event)
	model := NewProgressModel("indexing", 10, events)

	var m tea.Model = model
	for i := 1; i <= 10; i++ {
		ev := Event{File: "file" + string(rune('a'+i-1)) + ".R", Done: i, Total: 10}
		if i == 3 {
			ev.Err = errors.New("boom")
		}
		m, _ = m.Update(eventMsg(ev))
	}
	view := m.View()
	assert.Contains(t, view, "indexing (10/10), 1 failed")
	assert.NotContains(t, view, "filea.R", "older files scroll out")
	assert.Contains(t, view, "filej.R")

	m, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.True(t, strings.Contains(m.View(), "done: indexing"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short.R", truncate("short.R", 20))
	assert.Equal(t, "a/very/...", truncate("a/very/long/path.R", 10))
	assert.Equal(t, "a/v", truncate("a/very/long/path.R", 3))
}

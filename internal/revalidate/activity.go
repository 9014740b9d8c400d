package revalidate

import (
	"math"
	"slices"
	"sync"
	"time"
)

// maxRecent bounds the recently-active list.
const maxRecent = 20

// Activity tracks which documents the user is looking at.
type Activity struct {
	mu      sync.RWMutex
	active  string
	visible []string
	recent  []string
	updated time.Time
}

func NewActivity() *Activity {
	return &Activity{}
}

// Update records the client's report. A newer active document moves the
// previous one to the head of the recent list. Reports older than the last
// one are ignored.
func (a *Activity) Update(active string, visible []string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !at.IsZero() && at.Before(a.updated) {
		return
	}
	a.updated = at
	if active != "" && active != a.active {
		if a.active != "" {
			a.touchLocked(a.active)
		}
		a.recent = slices.DeleteFunc(a.recent, func(u string) bool { return u == active })
		a.active = active
	}
	a.visible = slices.Clone(visible)
}

// Touch marks uri as recently active without changing the active document.
func (a *Activity) Touch(uri string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if uri == a.active {
		return
	}
	a.touchLocked(uri)
}

func (a *Activity) touchLocked(uri string) {
	a.recent = slices.DeleteFunc(a.recent, func(u string) bool { return u == uri })
	a.recent = slices.Insert(a.recent, 0, uri)
	if len(a.recent) > maxRecent {
		a.recent = a.recent[:maxRecent]
	}
}

// Remove forgets a closed document.
func (a *Activity) Remove(uri string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == uri {
		a.active = ""
	}
	a.visible = slices.DeleteFunc(a.visible, func(u string) bool { return u == uri })
	a.recent = slices.DeleteFunc(a.recent, func(u string) bool { return u == uri })
}

// Priority orders documents: active 0, visible 1, recent 2+i, the rest last.
func (a *Activity) Priority(uri string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	switch {
	case uri == a.active:
		return 0
	case slices.Contains(a.visible, uri):
		return 1
	}
	if i := slices.Index(a.recent, uri); i >= 0 {
		return 2 + i
	}
	return math.MaxInt
}

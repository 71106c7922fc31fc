package input

import (
	"slices"
	"time"
)

// HoldLatch synthesises key releases for sources that only report presses,
// such as terminals. A press starts (or extends) a hold; the key is released
// once no repeat arrives within the hold window.
type HoldLatch struct {
	window   time.Duration
	deadline map[Code]time.Time
}

// NewHoldLatch returns a latch with the given hold window.
func NewHoldLatch(window time.Duration) *HoldLatch {
	return &HoldLatch{
		window:   window,
		deadline: make(map[Code]time.Time),
	}
}

// Press records a press at now. It returns a KeyDown event the first time a
// key is pressed and nil for repeats of a held key.
func (l *HoldLatch) Press(code Code, now time.Time) []KeyEvent {
	_, held := l.deadline[code]
	l.deadline[code] = now.Add(l.window)
	if held {
		return nil
	}
	return []KeyEvent{{Kind: KeyDown, Code: code}}
}

// Expire returns KeyUp events, sorted by code, for every hold whose window
// ended at or before now.
func (l *HoldLatch) Expire(now time.Time) []KeyEvent {
	var expired []Code
	for code, deadline := range l.deadline {
		if !now.Before(deadline) {
			expired = append(expired, code)
		}
	}
	slices.Sort(expired)

	events := make([]KeyEvent, 0, len(expired))
	for _, code := range expired {
		delete(l.deadline, code)
		events = append(events, KeyEvent{Kind: KeyUp, Code: code})
	}
	return events
}

// Held reports whether code is currently latched.
func (l *HoldLatch) Held(code Code) bool {
	_, ok := l.deadline[code]
	return ok
}

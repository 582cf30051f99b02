package recordsync

import (
	"sync"
	"time"
)

// Highlight is the editor marker state. Line is 1-based; Active is false
// once the marker has been cleared or has expired.
type Highlight struct {
	Line   int  `json:"line"`
	Active bool `json:"active"`
}

// Highlighter keeps one line marked for a fixed duration. Arming again
// replaces the marker and restarts the countdown; a timer that was replaced
// never clears the newer marker.
type Highlighter struct {
	d        time.Duration
	onChange func(Highlight)

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
	line  int
}

// NewHighlighter returns a Highlighter that clears after d
// (DefaultHighlightDuration when d <= 0). onChange may be nil.
func NewHighlighter(d time.Duration, onChange func(Highlight)) *Highlighter {
	if d <= 0 {
		d = DefaultHighlightDuration
	}
	return &Highlighter{d: d, onChange: onChange}
}

// Arm marks line and (re)starts the countdown.
func (h *Highlighter) Arm(line int) {
	if line <= 0 {
		return
	}
	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.gen++
	gen := h.gen
	h.line = line
	h.timer = time.AfterFunc(h.d, func() { h.expire(gen) })
	h.mu.Unlock()
	h.emit(Highlight{Line: line, Active: true})
}

// Clear removes the marker immediately.
func (h *Highlighter) Clear() {
	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.gen++
	line := h.line
	h.line = 0
	h.mu.Unlock()
	if line != 0 {
		h.emit(Highlight{Line: line})
	}
}

// Current returns the marker state.
func (h *Highlighter) Current() Highlight {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Highlight{Line: h.line, Active: h.line != 0}
}

func (h *Highlighter) expire(gen uint64) {
	h.mu.Lock()
	if gen != h.gen || h.line == 0 {
		h.mu.Unlock()
		return
	}
	line := h.line
	h.line = 0
	h.timer = nil
	h.mu.Unlock()
	h.emit(Highlight{Line: line})
}

func (h *Highlighter) emit(hl Highlight) {
	if h.onChange != nil {
		h.onChange(hl)
	}
}

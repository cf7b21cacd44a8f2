package notify

import (
	"sync"
	"time"
)

// timerFactory matches time.AfterFunc. Tests inject their own.
type timerFactory func(d time.Duration, fn func()) *time.Timer

// Debouncer coalesces bursts of triggers per key into a single callback
// fired after a quiet window. Triggers arriving while a timer is armed
// reset the window.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	after  timerFactory
	timers map[string]*time.Timer
	fns    map[string]func()
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		after:  time.AfterFunc,
		timers: make(map[string]*time.Timer),
		fns:    make(map[string]func()),
	}
}

// Trigger schedules fn to run once the window elapses without another
// trigger for the same key. The last fn passed wins.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fns[key] = fn
	if t, ok := d.timers[key]; ok {
		t.Reset(d.window)
		return
	}
	d.timers[key] = d.after(d.window, func() {
		d.fire(key)
	})
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	fn := d.fns[key]
	delete(d.timers, key)
	delete(d.fns, key)
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop cancels all pending timers without firing them.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
		delete(d.fns, key)
	}
}

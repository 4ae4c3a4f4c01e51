package state

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid calls: only the latest function runs, once the
// delay passed without another Trigger.
type Debouncer struct {
	mutex sync.Mutex
	delay time.Duration
	timer *time.Timer
	stop  bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stop {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.delay <= 0 {
		d.timer = nil
		go fn()
		return
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels a pending call and ignores every later Trigger.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.stop = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

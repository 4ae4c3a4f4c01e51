package mapview

import (
	"context"
	"slices"
	"sync"
	"time"
)

type FrameID uint64

// FrameScheduler runs callbacks on the next frame.
type FrameScheduler interface {
	Request(fn func()) FrameID
	Cancel(id FrameID)
}

// ManualFrames queues callbacks until Flush is called.
type ManualFrames struct {
	mutex   sync.Mutex
	next    FrameID
	pending map[FrameID]func()
}

func NewManualFrames() *ManualFrames {
	return &ManualFrames{pending: make(map[FrameID]func())}
}

func (f *ManualFrames) Request(fn func()) FrameID {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.next++
	f.pending[f.next] = fn
	return f.next
}

func (f *ManualFrames) Cancel(id FrameID) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	delete(f.pending, id)
}

func (f *ManualFrames) Pending() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return len(f.pending)
}

// Flush runs every callback queued before the call in request order and
// returns how many ran. Callbacks requested while flushing wait for the next frame.
func (f *ManualFrames) Flush() int {
	f.mutex.Lock()
	ids := make([]FrameID, 0, len(f.pending))
	for id := range f.pending {
		ids = append(ids, id)
	}
	f.mutex.Unlock()
	slices.Sort(ids)

	ran := 0
	for _, id := range ids {
		f.mutex.Lock()
		fn, ok := f.pending[id]
		delete(f.pending, id)
		f.mutex.Unlock()

		if ok {
			fn()
			ran++
		}
	}
	return ran
}

// TickerFrames flushes queued callbacks on a fixed interval.
type TickerFrames struct {
	*ManualFrames

	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewTickerFrames(interval time.Duration) *TickerFrames {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &TickerFrames{
		ManualFrames: NewManualFrames(),
		interval:     interval,
	}
}

func (f *TickerFrames) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.Flush()
			}
		}
	}()
}

func (f *TickerFrames) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
	f.cancel = nil
}

package mapview

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFramesOrderAndCancel(t *testing.T) {
	f := NewManualFrames()

	var order []int
	f.Request(func() { order = append(order, 1) })
	second := f.Request(func() { order = append(order, 2) })
	f.Request(func() {
		order = append(order, 3)
		f.Request(func() { order = append(order, 4) })
	})
	f.Cancel(second)

	assert.Equal(t, 2, f.Flush())
	assert.Equal(t, []int{1, 3}, order)
	assert.Equal(t, 1, f.Pending())

	f.Flush()
	assert.Equal(t, []int{1, 3, 4}, order)
}

func TestManualFramesFlushSkipsRanFrames(t *testing.T) {
	f := NewManualFrames()
	for i := 0; i < 1000; i++ {
		f.Request(func() {})
	}
	assert.Equal(t, 1000, f.Flush())

	var order []int
	f.Request(func() { order = append(order, 1) })
	cancelled := f.Request(func() { order = append(order, 2) })
	f.Request(func() { order = append(order, 3) })
	f.Cancel(cancelled)

	assert.Equal(t, 2, f.Flush())
	assert.Equal(t, []int{1, 3}, order)
	assert.Zero(t, f.Flush())
	assert.Zero(t, f.Pending())
}

func TestTickerFramesFlush(t *testing.T) {
	f := NewTickerFrames(5 * time.Millisecond)
	f.Start(context.Background())
	defer f.Stop()

	var ran atomic.Bool
	f.Request(func() { ran.Store(true) })

	assert.Eventually(t, ran.Load, time.Second, 5*time.Millisecond)
}

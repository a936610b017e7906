package interpreter

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := newPool(3)
	var count int32
	for i := 0; i < 20; i++ {
		p.submit(func() { atomic.AddInt32(&count, 1) })
	}
	p.wait()
	assert.EqualValues(t, 20, count)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := newPool(2)
	var current, max int32
	for i := 0; i < 8; i++ {
		p.submit(func() {
			n := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&max)
				if n <= old || atomic.CompareAndSwapInt32(&max, old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		})
	}
	p.wait()
	assert.LessOrEqual(t, max, int32(2))
}

func TestPoolSubmitDoesNotBlockCaller(t *testing.T) {
	p := newPool(1)
	block := make(chan struct{})
	p.submit(func() { <-block })

	done := make(chan struct{})
	go func() {
		p.submit(func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submit blocked the caller")
	}
	close(block)
	p.wait()
}

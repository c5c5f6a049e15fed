package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsAllSubmittedJobs(t *testing.T) {
	p := New(4, nil)
	defer p.Close()

	const jobCount = 200
	var completed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(jobCount)
	for i := 0; i < jobCount; i++ {
		p.Submit(func() {
			defer wg.Done()
			completed.Add(1)
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs did not complete")
	}
	assert.Equal(t, int64(jobCount), completed.Load())
}

func TestPoolRespectsFIFOOrderPerSubmitter(t *testing.T) {
	// a single-worker pool preserves submission order, which is the only
	// ordering guarantee a multi-worker pool can make
	p := New(1, nil)
	defer p.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		i := i
		p.Submit(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestPoolRecoversFromPanickingJob(t *testing.T) {
	p := New(2, nil)
	defer p.Close()

	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(2)
	p.Submit(func() {
		defer wg.Done()
		panic("boom")
	})
	p.Submit(func() {
		defer wg.Done()
		ran.Store(true)
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("panicking job wedged the pool")
	}
	assert.True(t, ran.Load())
}

func TestCloseThenWaitDrainsQueue(t *testing.T) {
	p := New(2, nil)

	var completed atomic.Int64
	for i := 0; i < 20; i++ {
		p.Submit(func() { completed.Add(1) })
	}
	p.Close()
	p.Wait()

	assert.Equal(t, int64(20), completed.Load())

	// further submissions after Close are dropped, not queued
	p.Submit(func() { completed.Add(1) })
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int64(20), completed.Load())
}

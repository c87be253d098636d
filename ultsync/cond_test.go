package ultsync

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/ultpool/api"
	"github.com/momentics/ultpool/backing"
	"github.com/momentics/ultpool/pool"
	"github.com/momentics/ultpool/ult"
	"github.com/momentics/ultpool/ultruntime"
)

func TestCond_SignalWakesOneExternalWaiter(t *testing.T) {
	c := NewCond()
	m := NewSpinMutex()
	m.Lock()

	done := make(chan struct{})
	go func() {
		m.Lock()
		defer m.Unlock()
		_ = c.Wait(context.Background(), m)
		close(done)
	}()
	m.Unlock()

	// give the waiter time to enqueue
	for c.NumWaiters() == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := c.Signal(); err != nil {
		t.Fatalf("signal: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}
}

func TestCond_BroadcastWakesAll(t *testing.T) {
	c := NewCond()
	m := NewSpinMutex()

	const n = 5
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			m.Lock()
			_ = c.Wait(context.Background(), m)
			m.Unlock()
			done <- struct{}{}
		}()
	}

	for c.NumWaiters() < n {
		time.Sleep(time.Millisecond)
	}

	if err := c.Broadcast(); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("only %d/%d waiters woke", i, n)
		}
	}
	if got := c.NumWaiters(); got != 0 {
		t.Fatalf("expected 0 waiters after broadcast, got %d", got)
	}
}

func TestCond_MismatchedMutexRejected(t *testing.T) {
	c := NewCond()
	m1 := NewSpinMutex()
	m2 := NewSpinMutex()

	m1.Lock()
	go func() {
		m1.Lock()
		_ = c.Wait(context.Background(), m1)
		m1.Unlock()
	}()
	m1.Unlock()
	for c.NumWaiters() == 0 {
		time.Sleep(time.Millisecond)
	}

	m2.Lock()
	err := c.Wait(context.Background(), m2)
	m2.Unlock()
	if err != api.ErrInvMutex {
		t.Fatalf("expected ErrInvMutex, got %v", err)
	}

	_ = c.Signal()
}

func TestCond_ULTWaiterRewokenIntoHomePool(t *testing.T) {
	p := pool.New(backing.NewLockFreeMPMC(4), api.PoolMPMC)
	d := ult.New(p, "unit-1")

	c := NewCond()
	m := NewSpinMutex()
	m.Lock()

	ctx := ultruntime.WithULT(context.Background(), d)
	done := make(chan struct{})
	go func() {
		m.Lock()
		_ = c.Wait(ctx, m)
		m.Unlock()
		close(done)
	}()
	m.Unlock()

	for c.NumWaiters() == 0 {
		time.Sleep(time.Millisecond)
	}
	if d.State() != ult.Blocked {
		t.Fatalf("expected ULT BLOCKED while waiting, got %v", d.State())
	}
	if p.TotalSize() != 1 {
		t.Fatalf("expected total_size 1 while blocked, got %d", p.TotalSize())
	}

	if err := c.Signal(); err != nil {
		t.Fatalf("signal: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ULT waiter never woke")
	}

	if d.State() != ult.Ready {
		t.Fatalf("expected ULT READY after signal, got %v", d.State())
	}
	if v, ok := p.Pop(); !ok || v != "unit-1" {
		t.Fatalf("expected the ULT's unit back in its home pool, got (%v,%v)", v, ok)
	}
}

func TestCond_MixedULTAndExternalWaitersFIFO(t *testing.T) {
	p := pool.New(backing.NewLockFreeMPMC(4), api.PoolMPMC)
	d := ult.New(p, "unit-a")

	c := NewCond()
	m := NewSpinMutex()

	order := make(chan string, 2)

	m.Lock()
	ctx := ultruntime.WithULT(context.Background(), d)
	go func() {
		m.Lock()
		_ = c.Wait(ctx, m)
		m.Unlock()
		order <- "ult"
	}()
	m.Unlock()
	for c.NumWaiters() == 0 {
		time.Sleep(time.Millisecond)
	}

	m.Lock()
	go func() {
		m.Lock()
		_ = c.Wait(context.Background(), m)
		m.Unlock()
		order <- "external"
	}()
	m.Unlock()
	for c.NumWaiters() < 2 {
		time.Sleep(time.Millisecond)
	}

	_ = c.Signal()
	first := <-order
	if first != "ult" {
		t.Fatalf("expected FIFO wake order, ult first, got %s", first)
	}

	_ = c.Signal()
	second := <-order
	if second != "external" {
		t.Fatalf("expected external second, got %s", second)
	}
}

func TestCond_CloseWithWaitersPanics(t *testing.T) {
	c := NewCond()
	m := NewSpinMutex()
	m.Lock()
	go func() {
		m.Lock()
		_ = c.Wait(context.Background(), m)
		m.Unlock()
	}()
	m.Unlock()
	for c.NumWaiters() == 0 {
		time.Sleep(time.Millisecond)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected Close with waiters present to panic")
		}
		_ = c.Signal()
	}()
	_ = c.Close()
}

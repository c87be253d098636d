package ultruntime

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/ultpool/api"
	"github.com/momentics/ultpool/backing"
	"github.com/momentics/ultpool/pool"
	"github.com/momentics/ultpool/ult"
)

func TestScheduler_TicksULTBodyWithContextIdentity(t *testing.T) {
	exec := NewExecutor(2)
	defer exec.Close()

	p := pool.New(backing.NewLockFreeMPMC(4), api.PoolMPMC)
	sched := NewScheduler(exec)
	sched.AttachPool(p)
	defer sched.DetachPool(p)

	ran := make(chan bool, 1)
	d := ult.New(p, func(ctx context.Context) {
		got, ok := CurrentULT(ctx)
		ran <- ok && got != nil
	})
	if err := ult.AddThread(d, 0); err != nil {
		t.Fatalf("add thread: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		if sched.Tick() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("scheduler never found the attached unit")
		default:
		}
	}

	select {
	case ok := <-ran:
		if !ok {
			t.Fatal("expected CurrentULT to recover the descriptor inside the body")
		}
	case <-time.After(time.Second):
		t.Fatal("ULT body never ran")
	}
}

func TestScheduler_DetachReleasesPool(t *testing.T) {
	p := pool.New(backing.NewLockFreeMPMC(2), api.PoolMPMC)
	exec := NewExecutor(1)
	defer exec.Close()
	sched := NewScheduler(exec)

	sched.AttachPool(p)
	if p.NumScheds() != 1 {
		t.Fatalf("expected retain count 1, got %d", p.NumScheds())
	}
	sched.DetachPool(p)
	if p.NumScheds() != 0 {
		t.Fatalf("expected retain count 0 after detach, got %d", p.NumScheds())
	}
}

func TestExecutor_ResizeAdjustsWorkerCount(t *testing.T) {
	exec := NewExecutor(2)
	defer exec.Close()
	if exec.NumWorkers() != 2 {
		t.Fatalf("expected 2 workers, got %d", exec.NumWorkers())
	}
	exec.Resize(4)
	if exec.NumWorkers() != 4 {
		t.Fatalf("expected 4 workers after resize, got %d", exec.NumWorkers())
	}
	exec.Resize(1)
	if exec.NumWorkers() != 1 {
		t.Fatalf("expected 1 worker after shrink, got %d", exec.NumWorkers())
	}
}

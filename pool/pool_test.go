package pool

import (
	"testing"
	"time"

	"github.com/momentics/ultpool/api"
	"github.com/momentics/ultpool/backing"
)

func TestPool_AccountingScenario(t *testing.T) {
	// spec scenario 5: push two units, pop one, account a third as blocked.
	p := New(backing.NewLockFreeMPMC(8), api.PoolMPMC)

	if err := p.Push("a", 0); err != nil {
		t.Fatalf("push a: %v", err)
	}
	if err := p.Push("b", 0); err != nil {
		t.Fatalf("push b: %v", err)
	}
	if p.Size() != 2 {
		t.Fatalf("expected size 2, got %d", p.Size())
	}

	if v, ok := p.Pop(); !ok || v != "a" {
		t.Fatalf("expected pop 'a', got (%v,%v)", v, ok)
	}
	if p.Size() != 1 {
		t.Fatalf("expected size 1 after pop, got %d", p.Size())
	}

	p.IncNumBlocked()
	if p.TotalSize() != 2 {
		t.Fatalf("P1/scenario5: expected total_size 2, got %d", p.TotalSize())
	}
	if p.TotalSize() < p.Size() {
		t.Fatalf("P1 violated: total_size %d < size %d", p.TotalSize(), p.Size())
	}

	p.DecNumBlocked()
	if p.TotalSize() != 1 {
		t.Fatalf("expected total_size 1 after unblock, got %d", p.TotalSize())
	}
	if err := p.Push("c-returned", 0); err != nil {
		t.Fatalf("push returned unit: %v", err)
	}
	if p.Size() != 2 || p.TotalSize() != 2 {
		t.Fatalf("expected size==total_size==2, got size=%d total=%d", p.Size(), p.TotalSize())
	}
}

func TestPool_RetainReleaseBalance(t *testing.T) {
	// spec scenario 6.
	p := New(backing.NewLockFreeMPMC(4), api.PoolMPMC)
	p.Retain()
	p.Retain()

	if got := p.Release(); got != 1 {
		t.Fatalf("expected release to return 1, got %d", got)
	}
	if got := p.Release(); got != 0 {
		t.Fatalf("expected release to return 0, got %d", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected unmatched Release to panic")
		}
	}()
	p.Release()
}

func TestPool_SPSCProducerAccessViolation(t *testing.T) {
	p := New(backing.NewRingSPSC(4), api.PoolSPSC)
	if err := p.Push("x", 1); err != nil {
		t.Fatalf("first producer push: %v", err)
	}
	if err := p.Push("y", 2); err != api.ErrInvPoolAccess {
		t.Fatalf("expected ErrInvPoolAccess from a second producer id, got %v", err)
	}
	if p.Size() != 1 {
		t.Fatalf("rejected push must not touch the backing; size=%d", p.Size())
	}
	if err := p.Push("z", 1); err != nil {
		t.Fatalf("same producer id must keep working: %v", err)
	}
}

func TestPool_SPSCConsumerAccessViolation(t *testing.T) {
	p := New(backing.NewRingSPSC(4), api.PoolSPSC)
	_ = p.Push("x", 1)
	_ = p.Push("y", 1)
	if err := p.Remove("x", 10); err != nil {
		t.Fatalf("first consumer remove: %v", err)
	}
	if err := p.Remove("y", 11); err != api.ErrInvPoolAccess {
		t.Fatalf("expected ErrInvPoolAccess from a second consumer id, got %v", err)
	}
}

func TestPool_MPMCAllowsManyProducersAndConsumers(t *testing.T) {
	p := New(backing.NewLockFreeMPMC(16), api.PoolMPMC)
	if err := p.Push("x", 1); err != nil {
		t.Fatalf("producer 1: %v", err)
	}
	if err := p.Push("y", 2); err != nil {
		t.Fatalf("producer 2 should be allowed under MPMC: %v", err)
	}
	if err := p.Remove("x", 10); err != nil {
		t.Fatalf("consumer 10: %v", err)
	}
	if err := p.Remove("y", 11); err != nil {
		t.Fatalf("consumer 11 should be allowed under MPMC: %v", err)
	}
}

func TestPool_RemoveNotFound(t *testing.T) {
	p := New(backing.NewLockFreeMPMC(4), api.PoolMPMC)
	if err := p.Remove("absent", 0); err != api.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPool_PopTimedWaitDeadline(t *testing.T) {
	p := New(backing.NewEapacheFIFO(), api.PoolPrivate)
	start := time.Now()
	_, ok := p.PopTimedWait(start.Add(15 * time.Millisecond))
	if ok {
		t.Fatalf("expected timeout on an empty pool")
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("returned suspiciously early: %v", time.Since(start))
	}
}

func TestPool_CloseRequiresEmptyAndUnretained(t *testing.T) {
	p := New(backing.NewLockFreeMPMC(4), api.PoolMPMC)
	p.Retain()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected Close with outstanding scheduler to panic")
			}
		}()
		_ = p.Close()
	}()

	p.Release()
	if err := p.Close(); err != nil {
		t.Fatalf("expected clean Close, got %v", err)
	}
}

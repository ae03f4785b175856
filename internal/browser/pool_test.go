package browser

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(size int, opened *int32) *Pool {
	p := NewPool(PoolConfig{Size: size})
	p.newTab = func(ctx context.Context) (context.Context, context.CancelFunc, error) {
		atomic.AddInt32(opened, 1)
		tabCtx, cancel := context.WithCancel(context.Background())
		return tabCtx, cancel, nil
	}
	return p
}

func TestPool_BoundsConcurrentPages(t *testing.T) {
	var opened int32
	pool := newTestPool(1, &opened)

	first, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second acquire to time out, got %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("close page: %v", err)
	}
	// closing twice must not release the slot twice
	_ = first.Close()

	second, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected slot after release, got %v", err)
	}
	defer second.Close()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if _, err := pool.Acquire(ctx2); err == nil {
		t.Fatalf("expected pool to stay bounded after double close")
	}
	if atomic.LoadInt32(&opened) != 2 {
		t.Fatalf("expected 2 tabs opened, got %d", opened)
	}
}

func TestPool_CancelledCallerClosesTab(t *testing.T) {
	var opened int32
	pool := newTestPool(2, &opened)

	ctx, cancel := context.WithCancel(context.Background())
	page, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer page.Close()

	cancel()
	tab := page.(*chromePage).tabCtx
	select {
	case <-tab.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected tab context to be cancelled with caller")
	}
}

func TestPool_TabFailureReleasesSlot(t *testing.T) {
	pool := NewPool(PoolConfig{Size: 1})
	pool.newTab = func(ctx context.Context) (context.Context, context.CancelFunc, error) {
		return nil, nil, errors.New("chrome missing")
	}
	if _, err := pool.Acquire(context.Background()); err == nil {
		t.Fatalf("expected error from tab factory")
	}

	var opened int32
	pool.newTab = newTestPool(1, &opened).newTab
	page, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected slot to be free after failure, got %v", err)
	}
	page.Close()
}

func TestPool_Closed(t *testing.T) {
	var opened int32
	pool := newTestPool(1, &opened)
	pool.Close()

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
	if opened != 0 {
		t.Fatalf("expected no tab opened on closed pool")
	}
}

func TestNewPool_Defaults(t *testing.T) {
	pool := NewPool(PoolConfig{})
	if pool.Size() != 1 {
		t.Fatalf("expected default size 1, got %d", pool.Size())
	}
	if pool.cfg.WindowWidth != 1280 || pool.cfg.WindowHeight != 800 {
		t.Fatalf("unexpected window defaults: %+v", pool.cfg)
	}
}

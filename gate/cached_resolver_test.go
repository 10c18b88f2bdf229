package gate_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diewo77/go-policy/gate"
)

func TestCachedResolver_CachesProfile(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile(1, "editor"))

	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)

	p1, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1.Name() != "editor" {
		t.Errorf("expected 'editor', got '%s'", p1.Name())
	}

	inner.Set(1, gate.NewStaticProfile(1, "admin"))

	p2, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p2.Name() != "editor" {
		t.Errorf("expected cached 'editor', got '%s'", p2.Name())
	}
}

func TestCachedResolver_Invalidate(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile(1, "editor"))

	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)
	_, _ = cached.Resolve(context.Background(), 1)

	inner.Set(1, gate.NewStaticProfile(1, "admin"))
	cached.Invalidate(1)

	p, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "admin" {
		t.Errorf("expected 'admin' after invalidation, got '%s'", p.Name())
	}
}

func TestCachedResolver_InvalidateAll(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile(1, "editor"))
	inner.Set(2, gate.NewStaticProfile(2, "viewer"))

	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)
	_, _ = cached.Resolve(context.Background(), 1)
	_, _ = cached.Resolve(context.Background(), 2)
	if cached.Len() != 2 {
		t.Fatalf("expected 2 cached entries, got %d", cached.Len())
	}

	inner.Set(1, gate.NewStaticProfile(1, "admin"))
	inner.Set(2, gate.NewStaticProfile(2, "admin"))
	cached.InvalidateAll()

	p1, _ := cached.Resolve(context.Background(), 1)
	p2, _ := cached.Resolve(context.Background(), 2)
	if p1.Name() != "admin" || p2.Name() != "admin" {
		t.Error("expected both profiles to be 'admin' after InvalidateAll")
	}
}

func TestCachedResolver_TTLExpiry(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile(1, "editor"))

	cached := gate.NewCachedResolver[uint](inner, 10*time.Millisecond)
	_, _ = cached.Resolve(context.Background(), 1)

	inner.Set(1, gate.NewStaticProfile(1, "admin"))
	time.Sleep(30 * time.Millisecond)

	p, _ := cached.Resolve(context.Background(), 1)
	if p.Name() != "admin" {
		t.Errorf("expected 'admin' after TTL expiry, got '%s'", p.Name())
	}
}

func TestCachedResolver_CoalescesMisses(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	inner := gate.ProfileResolverFunc[uint](func(context.Context, uint) (gate.Profile, error) {
		calls.Add(1)
		<-release
		return gate.NewStaticProfile(1, "editor"), nil
	})
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cached.Resolve(context.Background(), 1)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected a single inner lookup, got %d", n)
	}
}

func TestCachedResolver_InvalidateDuringLoad(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	inner := gate.ProfileResolverFunc[uint](func(context.Context, uint) (gate.Profile, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return gate.NewStaticProfile(1, "old"), nil
		}
		return gate.NewStaticProfile(1, "new"), nil
	})
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	done := make(chan gate.Profile)
	go func() {
		p, _ := cached.Resolve(context.Background(), 7)
		done <- p
	}()
	<-started
	cached.Invalidate(7)
	close(release)
	if p := <-done; p.Name() != "old" {
		t.Errorf("expected the in-flight caller to get 'old', got '%s'", p.Name())
	}

	p, err := cached.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "new" {
		t.Errorf("expected 'new' after invalidation during load, got '%s'", p.Name())
	}
}

func TestCachedResolver_InvalidateAllDuringLoad(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	inner := gate.ProfileResolverFunc[uint](func(context.Context, uint) (gate.Profile, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return gate.NewStaticProfile(1, "editor"), nil
	})
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	done := make(chan struct{})
	go func() {
		_, _ = cached.Resolve(context.Background(), 1)
		close(done)
	}()
	<-started
	cached.InvalidateAll()
	close(release)
	<-done

	if cached.Len() != 0 {
		t.Errorf("expected a load overtaken by InvalidateAll not to be cached, got %d entries", cached.Len())
	}
}

func TestCachedResolver_CancelledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	inner := gate.ProfileResolverFunc[uint](func(ctx context.Context, _ uint) (gate.Profile, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return gate.NewStaticProfile(1, "editor"), nil
	})
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error)
	go func() {
		_, err := cached.Resolve(leaderCtx, 1)
		leaderErr <- err
	}()
	<-started

	type result struct {
		p   gate.Profile
		err error
	}
	follower := make(chan result)
	go func() {
		p, err := cached.Resolve(context.Background(), 1)
		follower <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("expected the cancelled caller to get context.Canceled, got %v", err)
	}
	close(release)

	res := <-follower
	if res.err != nil {
		t.Fatalf("expected the live caller to succeed, got %v", res.err)
	}
	if res.p.Name() != "editor" {
		t.Errorf("expected 'editor', got '%s'", res.p.Name())
	}
}

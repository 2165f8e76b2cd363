package core

import (
	"context"
	"strings"
	"sync"
)

// MutationGuard tracks entity keys with a mutation in flight. A second
// mutation on the same key is rejected rather than queued.
type MutationGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewMutationGuard() *MutationGuard {
	return &MutationGuard{inFlight: map[string]struct{}{}}
}

// Acquire claims key. The returned release func is safe to call more than once.
func (g *MutationGuard) Acquire(key string) (func(), error) {
	key = strings.TrimSpace(key)
	if g == nil || key == "" {
		return func() {}, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight == nil {
		g.inFlight = map[string]struct{}{}
	}
	if _, busy := g.inFlight[key]; busy {
		return nil, errMutationInFlight(key)
	}
	g.inFlight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}, nil
}

func (g *MutationGuard) InFlight(key string) bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[strings.TrimSpace(key)]
	return busy
}

// OptimisticMutation describes one local-first change. Capture and Apply run
// back to back under Lock when it is set, so the captured value is the true
// pre-mutation state. Reconcile and Restore run under Lock as well.
type OptimisticMutation[T any] struct {
	Lock      sync.Locker
	Capture   func() (T, error)
	Apply     func(previous T) error
	Remote    func(ctx context.Context) (T, error)
	Reconcile func(previous T, server T)
	Restore   func(previous T)
}

// RunOptimistic applies the change locally, performs the remote call and
// either reconciles with the server's answer or restores the captured value.
func RunOptimistic[T any](ctx context.Context, guard *MutationGuard, key string, m OptimisticMutation[T]) (T, error) {
	var zero T
	if m.Capture == nil || m.Apply == nil || m.Remote == nil || m.Restore == nil {
		return zero, BadInputError("core: optimistic mutation requires capture, apply, remote and restore")
	}
	release, err := guard.Acquire(key)
	if err != nil {
		return zero, err
	}
	defer release()

	previous, err := withLock(m.Lock, func() (T, error) {
		captured, err := m.Capture()
		if err != nil {
			return captured, err
		}
		return captured, m.Apply(captured)
	})
	if err != nil {
		return zero, err
	}

	server, err := m.Remote(ctx)
	if err != nil {
		_, _ = withLock(m.Lock, func() (struct{}, error) {
			m.Restore(previous)
			return struct{}{}, nil
		})
		return zero, err
	}
	if m.Reconcile != nil {
		_, _ = withLock(m.Lock, func() (struct{}, error) {
			m.Reconcile(previous, server)
			return struct{}{}, nil
		})
	}
	return server, nil
}

func withLock[T any](lock sync.Locker, fn func() (T, error)) (T, error) {
	if lock != nil {
		lock.Lock()
		defer lock.Unlock()
	}
	return fn()
}

// Package ctxsync contains locks that can be acquired with a context.
package ctxsync

import (
	"context"
	"sync"
)

// RWMutex is a reader/writer lock whose acquisition can be abandoned by
// canceling a context. Waiting writers keep new readers out, so a steady flow
// of readers cannot starve them. The zero value is not usable; call
// [NewRWMutex].
type RWMutex struct {
	mu       sync.Mutex
	readers  int
	writer   bool
	waiting  int
	released chan struct{}
}

// NewRWMutex returns an unlocked RWMutex.
func NewRWMutex() *RWMutex {
	return &RWMutex{released: make(chan struct{})}
}

// Lock locks m for writing, waiting as long as needed.
func (m *RWMutex) Lock() {
	_ = m.LockWithContext(context.Background())
}

// LockWithContext locks m for writing, or returns the context error if ctx
// is done first.
func (m *RWMutex) LockWithContext(ctx context.Context) error {
	m.mu.Lock()
	m.waiting++
	m.mu.Unlock()
	for {
		m.mu.Lock()
		if !m.writer && m.readers == 0 {
			m.waiting--
			m.writer = true
			m.mu.Unlock()
			return nil
		}
		wait := m.released
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.waiting--
			m.broadcast()
			m.mu.Unlock()
			return ctx.Err()
		case <-wait:
		}
	}
}

// TryLock locks m for writing if it is free and reports whether it did.
func (m *RWMutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writer || m.readers > 0 {
		return false
	}
	m.writer = true
	return true
}

// Unlock releases a write lock.
func (m *RWMutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.writer {
		panic("ctxsync: unlock of unlocked mutex")
	}
	m.writer = false
	m.broadcast()
}

// RLock locks m for reading, waiting as long as needed.
func (m *RWMutex) RLock() {
	_ = m.RLockWithContext(context.Background())
}

// RLockWithContext locks m for reading, or returns the context error if ctx
// is done first.
func (m *RWMutex) RLockWithContext(ctx context.Context) error {
	for {
		m.mu.Lock()
		if !m.writer && m.waiting == 0 {
			m.readers++
			m.mu.Unlock()
			return nil
		}
		wait := m.released
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}

// RUnlock releases a read lock.
func (m *RWMutex) RUnlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readers == 0 {
		panic("ctxsync: runlock of unlocked mutex")
	}
	m.readers--
	if m.readers == 0 {
		m.broadcast()
	}
}

// broadcast wakes every waiter so it checks the state again. m.mu must be
// held.
func (m *RWMutex) broadcast() {
	close(m.released)
	m.released = make(chan struct{})
}

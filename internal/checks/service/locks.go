package service

import (
	"sync"

	id "casecheck/pkg/domain"
)

// keyedMutex serializes read-modify-write cycles per check while letting
// different checks proceed in parallel. Entries are dropped once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[id.CheckID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[id.CheckID]*refMutex)}
}

// Lock blocks until the check's lock is held and returns its release func.
func (k *keyedMutex) Lock(key id.CheckID) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

package services

import (
	"path/filepath"
	"sync"
)

// fileLocks serializes read-modify-write cycles per absolute file path. It is
// shared by every store in the process so two stores over the same root
// still exclude each other.
type fileLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var writeLocks = &fileLocks{locks: make(map[string]*sync.Mutex)}

// lock acquires the mutex for path and returns its release func.
func (l *fileLocks) lock(path string) func() {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	l.mu.Lock()
	m, ok := l.locks[path]
	if !ok {
		m = &sync.Mutex{}
		l.locks[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

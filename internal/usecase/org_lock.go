package usecase

import (
	"context"
	"fmt"
	"sync"
)

// OrgLocker provides operation-level mutual exclusion per organization.
// Seeding for one org serializes behind its own lock instead of a
// process-wide one, so unrelated organizations never queue behind each
// other's first-chat-request latency.
type OrgLocker struct {
	mu    sync.Mutex
	locks map[string]*orgMutex
}

type orgMutex struct {
	mu       sync.Mutex
	refCount int
}

// NewOrgLocker creates a new org locker.
func NewOrgLocker() *OrgLocker {
	return &OrgLocker{
		locks: make(map[string]*orgMutex),
	}
}

// Lock acquires the lock for the given org ID. It blocks until the lock is
// acquired or the context is cancelled. Returns an unlock function that MUST
// be called when the operation is complete.
func (ol *OrgLocker) Lock(ctx context.Context, orgID string) (unlock func(), err error) {
	// Get or create the per-org mutex.
	ol.mu.Lock()
	om, ok := ol.locks[orgID]
	if !ok {
		om = &orgMutex{}
		ol.locks[orgID] = om
	}
	om.refCount++
	ol.mu.Unlock()

	// Try to acquire the org mutex with context cancellation support.
	acquired := make(chan struct{})
	go func() {
		om.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() {
			om.mu.Unlock()
			ol.mu.Lock()
			om.refCount--
			if om.refCount == 0 {
				delete(ol.locks, orgID)
			}
			ol.mu.Unlock()
		}, nil

	case <-ctx.Done():
		// Context cancelled before lock acquired.
		// Must clean up: wait for the goroutine to finish acquiring,
		// then immediately release to prevent a permanent held lock.
		go func() {
			<-acquired
			om.mu.Unlock()
			ol.mu.Lock()
			om.refCount--
			if om.refCount == 0 {
				delete(ol.locks, orgID)
			}
			ol.mu.Unlock()
		}()
		return nil, fmt.Errorf("org lock: %w", ctx.Err())
	}
}

// ActiveCount returns the number of orgs with active or pending locks.
// Intended for testing.
func (ol *OrgLocker) ActiveCount() int {
	ol.mu.Lock()
	defer ol.mu.Unlock()
	return len(ol.locks)
}

package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/poiesic/vibegrep/ai"
)

// MockCompleter is a test double for ai.Completer.
// It is safe for concurrent use and tracks how many calls overlap.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns an empty answer.
	CompleteFunc func(ctx context.Context, req *ai.Request) (string, error)

	callCount   atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64

	mu       sync.Mutex
	requests []*ai.Request
}

var _ ai.Completer = (*MockCompleter)(nil)

// NewMockCompleter creates a mock completer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete records the request and delegates to CompleteFunc.
func (m *MockCompleter) Complete(ctx context.Context, req *ai.Request) (string, error) {
	m.callCount.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		peak := m.maxInFlight.Load()
		if n <= peak || m.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return int(m.callCount.Load())
}

// MaxInFlight returns the highest number of overlapping Complete calls seen.
func (m *MockCompleter) MaxInFlight() int {
	return int(m.maxInFlight.Load())
}

// Requests returns a copy of every request received, in arrival order.
func (m *MockCompleter) Requests() []*ai.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ai.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset clears counters, recorded requests and the custom function.
func (m *MockCompleter) Reset() {
	m.callCount.Store(0)
	m.inFlight.Store(0)
	m.maxInFlight.Store(0)
	m.mu.Lock()
	m.requests = nil
	m.mu.Unlock()
	m.CompleteFunc = nil
}

package server

import (
	"sync"
	"time"
)

// execution is a recorded Interpret result.
type execution struct {
	response InterpretResponse
	created  time.Time
	lastUsed time.Time
}

// ExecutionStore keeps recent Interpret results by execution ID so clients
// can fetch them again with GetExecution.
type ExecutionStore struct {
	mu         sync.RWMutex
	executions map[string]*execution
}

// NewExecutionStore creates an empty store.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		executions: make(map[string]*execution),
	}
}

// Put records a response under its ExecutionID.
func (s *ExecutionStore) Put(resp InterpretResponse) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[resp.ExecutionID] = &execution{
		response: resp,
		created:  now,
		lastUsed: now,
	}
}

// Lookup returns the response recorded for id.
func (s *ExecutionStore) Lookup(id string) (InterpretResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.executions[id]
	if !ok {
		return InterpretResponse{}, false
	}
	e.lastUsed = time.Now()
	return e.response, true
}

// Len returns the number of recorded executions.
func (s *ExecutionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.executions)
}

// Sweep removes executions that haven't been accessed within the TTL.
func (s *ExecutionStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, e := range s.executions {
		if e.lastUsed.Before(cutoff) {
			delete(s.executions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *ExecutionStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep(ttl)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

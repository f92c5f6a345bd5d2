package workflow

import (
	"context"
	"fmt"
	"sync"
)

// Ensure StubStarter implements Starter
var _ Starter = (*StubStarter)(nil)

// StubStarter is a Starter for tests. It counts starts and can be made to
// fail.
type StubStarter struct {
	mu     sync.Mutex
	starts int

	// Err, when set, is returned by StartPipeline instead of starting.
	Err error
}

// NewStubStarter creates a StubStarter.
func NewStubStarter() *StubStarter {
	return &StubStarter{}
}

// StartPipeline records the start and returns a synthetic run identifier.
func (s *StubStarter) StartPipeline(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	s.starts++
	return fmt.Sprintf("run-%d", s.starts), nil
}

// Starts returns how many executions were started.
func (s *StubStarter) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.starts
}

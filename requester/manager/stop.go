package manager

import (
	"sync"
	"sync/atomic"
)

// StopController is the run-wide cancellation flag. Workers poll ShouldStop
// before each request; timer loops select on Done.
type StopController struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

func NewStopController() *StopController {
	return &StopController{done: make(chan struct{})}
}

// RequestStop sets the flag. Calling it again, from any goroutine, has no
// further effect.
func (s *StopController) RequestStop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.done)
	})
}

func (s *StopController) ShouldStop() bool {
	return s.stopped.Load()
}

func (s *StopController) Done() <-chan struct{} {
	return s.done
}

package agentenv

import (
	"sync"
	"sync/atomic"
)

// fakeStream is a test double for Stream.
// Shared across root-package test files.
type fakeStream struct {
	closeCalls atomic.Int32
	closeErr   error
	onClose    func()
	done       chan struct{}
	once       sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{done: make(chan struct{})}
}

// ackingStream completes as soon as end-of-input is signaled.
func ackingStream() *fakeStream {
	s := newFakeStream()
	s.onClose = s.finish
	return s
}

func (s *fakeStream) CloseInput() error {
	s.closeCalls.Add(1)
	if s.onClose != nil {
		s.onClose()
	}
	return s.closeErr
}

func (s *fakeStream) Done() <-chan struct{} { return s.done }

// finish marks the stream complete.
func (s *fakeStream) finish() {
	s.once.Do(func() { close(s.done) })
}

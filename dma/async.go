package dma

import (
	"periph.io/x/conn/v3"
)

// Async is a Channel that performs each transfer on a dedicated goroutine.
//
// The zero value is ready to use. Async is not safe for concurrent use; it is
// meant to be owned by a single driver.
type Async struct {
	done chan error
}

// NewAsync returns an idle asynchronous channel.
func NewAsync() *Async {
	return &Async{}
}

// Start implements Channel.
func (a *Async) Start(w conn.Conn, buf []byte) error {
	if a.done != nil {
		return ErrBusy
	}
	done := make(chan error, 1)
	a.done = done
	go func() {
		done <- Write(w, buf)
	}()
	return nil
}

// Wait implements Channel.
func (a *Async) Wait() error {
	if a.done == nil {
		return ErrIdle
	}
	err := <-a.done
	a.done = nil
	return err
}

// Busy reports whether a transfer was started and not yet waited for.
func (a *Async) Busy() bool {
	return a.done != nil
}

// String implements fmt.Stringer.
func (a *Async) String() string {
	return "dma.Async"
}

// Sync is a Channel that performs the whole transfer inside Start. Wait
// returns the stored result.
type Sync struct {
	busy bool
	err  error
}

// Start implements Channel.
func (s *Sync) Start(w conn.Conn, buf []byte) error {
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	s.err = Write(w, buf)
	return nil
}

// Wait implements Channel.
func (s *Sync) Wait() error {
	if !s.busy {
		return ErrIdle
	}
	s.busy = false
	err := s.err
	s.err = nil
	return err
}

// String implements fmt.Stringer.
func (s *Sync) String() string {
	return "dma.Sync"
}

// Package dma models a single-transfer memory-to-peripheral DMA channel.
//
// A Channel moves one buffer to a bus without involving the caller per byte.
// Exactly one transfer may be in flight on a channel; Start launches it and
// Wait retires it. There is no cancellation: a stalled bus blocks Wait
// forever.
//
// Two host implementations are provided. Async performs the bus write on its
// own goroutine, which is how spidev-backed periph.io buses get their
// transfers overlapped with rendering. Sync performs the write inside Start
// and is meant for buses that cannot be driven concurrently.
package dma

import (
	"errors"

	"periph.io/x/conn/v3"
)

var (
	// ErrBusy is returned by Start when a transfer is already in flight.
	ErrBusy = errors.New("dma: transfer already in flight")
	// ErrIdle is returned by Wait when no transfer was started.
	ErrIdle = errors.New("dma: no transfer in flight")
)

// Channel is an exclusively owned channel supporting a single in-flight
// write of a memory buffer to a peripheral.
type Channel interface {
	// Start launches a write of buf to w. buf must not be modified until Wait
	// returns.
	Start(w conn.Conn, buf []byte) error
	// Wait blocks until the transfer launched by Start completes and returns
	// the bus result.
	Wait() error
}

// Write sends buf to w synchronously, splitting it into pieces no larger than
// the connection's advertised maximum transfer size (see conn.Limits).
func Write(w conn.Conn, buf []byte) error {
	limit := 0
	if l, ok := w.(conn.Limits); ok {
		limit = l.MaxTxSize()
	}
	if limit <= 0 {
		return w.Tx(buf, nil)
	}
	for len(buf) > 0 {
		n := min(len(buf), limit)
		if err := w.Tx(buf[:n], nil); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

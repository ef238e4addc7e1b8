// Package st7789 controls a 240x320 ST7789 color LCD panel via SPI.
//
// The panel runs in 18-bit color mode and is refreshed with full frames only.
// Two frame buffers are handed back and forth between the caller and an
// asynchronous transfer channel.
//
// See the examples for how to use this package.
package st7789

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/st7789/dma"
	"periph.io/x/devices/v3/st7789/image666"
)

// Panel geometry. The controller is always driven with the full window.
const (
	Width         = 240
	Height        = 320
	BytesPerPixel = image666.BytesPerPixel
	// FrameSize is the size in bytes of one frame buffer.
	FrameSize = Width * Height * BytesPerPixel
)

const (
	// RatedFreq is the maximum SPI clock in the ST7789 datasheet.
	RatedFreq = 62500 * physic.KiloHertz
	// BoardFreq is the system clock RP2350 boards drive the bus from. It is
	// above RatedFreq and is only accepted with Opts.Overclock.
	BoardFreq = 150 * physic.MegaHertz
)

var (
	// ErrNotInitialized is returned by Swap before Init.
	ErrNotInitialized = errors.New("st7789: not initialized")
	// ErrInitialized is returned by a second call to Init.
	ErrInitialized = errors.New("st7789: already initialized")
	// ErrNotOwned is returned when a Frame that was already handed to Swap,
	// or that belongs to another device, is used.
	ErrNotOwned = errors.New("st7789: frame not owned by caller")
	// ErrHalted is returned by operations after Halt.
	ErrHalted = errors.New("st7789: halted")
)

// WriteMode selects what happens when a bus or pin write fails.
type WriteMode uint8

const (
	// BestEffort discards write failures. A failed write can leave a stale or
	// garbled frame on the glass; it never affects buffer ownership.
	BestEffort WriteMode = iota
	// Strict remembers the first write failure and reports it from the next
	// Init, Swap or Halt.
	Strict
)

func (m WriteMode) String() string {
	switch m {
	case BestEffort:
		return "best-effort"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("WriteMode(%d)", uint8(m))
	}
}

// Delayer blocks for at least the requested duration.
//
// clockwork.Clock implements it.
type Delayer interface {
	Sleep(d time.Duration)
}

// Opts is the configuration for the ST7789 display.
type Opts struct {
	// SPI clock used by NewSPI (default: RatedFreq)
	Freq physic.Frequency
	// Allow Freq above RatedFreq
	Overclock bool

	Mode   WriteMode    // Write failure policy (default: BestEffort)
	Delay  Delayer      // Delay source (default: real clock)
	Logger *slog.Logger // Optional logger, nil discards
}

// DefaultOpts is the configuration used when nil is passed.
var DefaultOpts = Opts{
	Freq: RatedFreq,
}

// Dev is the device handle for the ST7789 display.
//
// Dev is not safe for concurrent use.
type Dev struct {
	// Communication. c and ch are nil while lent to the in-flight transfer.
	c           spi.Conn
	ch          dma.Channel
	cs, dc, rst gpio.PinOut // cs is nil when the bus drives chip select

	delay  Delayer
	mode   WriteMode
	logger *slog.Logger

	// Buffers
	pool *pool
	xfer *transfer

	// State
	err       error // first failure in Strict mode
	transfers uint64
	halted    bool
}

// NewSPI connects to an ST7789 on SPI port p and returns a Dev.
//
// The port is configured for mode 0, 8-bit words at opts.Freq. When cs is
// non-nil the driver owns chip select and the port is opened with spi.NoCS;
// when cs is nil the port's hardware chip select is used.
//
// opts can be nil to use defaults.
func NewSPI(p spi.Port, cs, dc, rst gpio.PinOut, ch dma.Channel, opts *Opts) (*Dev, error) {
	if p == nil {
		return nil, errors.New("st7789: SPI port is required")
	}
	o := opts.withDefaults()
	if o.Freq > RatedFreq && !o.Overclock {
		return nil, fmt.Errorf("st7789: bus clock %s exceeds the rated %s; set Opts.Overclock to use it", o.Freq, RatedFreq)
	}

	mode := spi.Mode0
	if cs != nil {
		mode |= spi.NoCS
	}
	c, err := p.Connect(o.Freq, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("st7789: failed to connect to %s: %w", p, err)
	}
	return New(c, cs, dc, rst, ch, &o)
}

// New returns a Dev for an already configured SPI connection.
//
// dc and rst are required; cs may be nil when chip select is handled by the
// bus. The device is not touched until Init.
func New(c spi.Conn, cs, dc, rst gpio.PinOut, ch dma.Channel, opts *Opts) (*Dev, error) {
	switch {
	case c == nil:
		return nil, errors.New("st7789: SPI connection is required")
	case dc == nil:
		return nil, errors.New("st7789: DC pin is required")
	case rst == nil:
		return nil, errors.New("st7789: RST pin is required")
	case ch == nil:
		return nil, errors.New("st7789: DMA channel is required")
	}
	o := opts.withDefaults()
	d := &Dev{
		c:      c,
		ch:     ch,
		cs:     cs,
		dc:     dc,
		rst:    rst,
		delay:  o.Delay,
		mode:   o.Mode,
		logger: o.Logger,
	}
	d.debug("device created", slog.String("bus", c.String()), slog.String("mode", o.Mode.String()))
	return d, nil
}

func (o *Opts) withDefaults() Opts {
	r := DefaultOpts
	if o != nil {
		r = *o
	}
	if r.Freq == 0 {
		r.Freq = RatedFreq
	}
	if r.Delay == nil {
		r.Delay = clockwork.NewRealClock()
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Swap hands the filled frame f to the panel and returns the frame that just
// finished transferring.
//
// Swap blocks until the transfer started by the previous Init or Swap has
// completed, then starts a new transfer of f. After Swap returns, f is empty
// and every use of it fails; the returned frame has no pending transfer and
// may be written immediately.
//
// The returned frame is non-nil whenever f was accepted. In Strict mode err
// reports the first write failure since the previous call.
func (d *Dev) Swap(f *Frame) (*Frame, error) {
	if d.halted {
		return nil, ErrHalted
	}
	if d.xfer == nil {
		return nil, ErrNotInitialized
	}
	next, err := d.pool.surrender(f)
	if err != nil {
		return nil, err
	}

	done := d.retire()
	d.out(d.cs, gpio.High, "cs")
	d.delay.Sleep(time.Millisecond)

	d.startFrame()
	d.start(next)

	d.trace("swapped", slog.Int("sent", next.idx), slog.Int("returned", done.idx), slog.Uint64("transfers", d.transfers))
	return d.pool.checkout(done), d.takeErr()
}

// Halt waits for the in-flight transfer, turns the display off and puts the
// controller to sleep.
// After calling Halt, Init and Swap return ErrHalted.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	if d.xfer != nil {
		d.retire()
		d.out(d.cs, gpio.High, "cs")
	}
	d.sendCommand(DISPOFF)
	d.sendCommand(SLPIN)
	d.delay.Sleep(5 * time.Millisecond)
	d.halted = true
	d.info("halted", slog.Uint64("transfers", d.transfers))
	return d.takeErr()
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image666.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("st7789.Dev{%dx%d}", Width, Height)
}

// check records a failed bus or pin write according to the write mode.
func (d *Dev) check(op string, err error) {
	if err == nil {
		return
	}
	if d.mode == Strict && d.err == nil {
		d.err = fmt.Errorf("st7789: %s: %w", op, err)
	}
	d.debug("write failed", slog.String("op", op), slog.Any("err", err))
}

func (d *Dev) takeErr() error {
	err := d.err
	d.err = nil
	return err
}

const levelTrace slog.Level = slog.LevelDebug - 1

func (d *Dev) info(msg string, attrs ...slog.Attr) {
	d.logattrs(slog.LevelInfo, msg, attrs...)
}

func (d *Dev) debug(msg string, attrs ...slog.Attr) {
	d.logattrs(slog.LevelDebug, msg, attrs...)
}

func (d *Dev) trace(msg string, attrs ...slog.Attr) {
	d.logattrs(levelTrace, msg, attrs...)
}

func (d *Dev) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	d.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

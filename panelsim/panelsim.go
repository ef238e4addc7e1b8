// Package panelsim emulates an ST7789 240x320 panel on the far end of an SPI
// bus.
//
// A Panel is a spi.Conn plus the CS, DC and RST lines. It decodes the byte
// stream the way the controller does and keeps the resulting controller state
// and display RAM, so a driver can be exercised and inspected without
// hardware. It models the Waveshare module whose glass needs inversion (INVON)
// to show true colors.
//
// Only 18-bit color (COLMOD 0x06 or 0x66) and the default memory access order
// (MADCTL 0x00) are modeled; anything else is recorded as a violation.
package panelsim

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/st7789"
)

// Opcodes the decoder knows beyond the ones the driver sends.
const (
	NOP    st7789.Opcode = 0x00
	INVOFF st7789.Opcode = 0x20
)

// ErrProtocol wraps every violation recorded by a Panel.
var ErrProtocol = errors.New("panelsim: protocol violation")

var paramLen = map[st7789.Opcode]int{
	st7789.CASET:     4,
	st7789.RASET:     4,
	st7789.MADCTL:    1,
	st7789.COLMOD:    1,
	st7789.PVGAMCTRL: 14,
	st7789.NVGAMCTRL: 14,
}

var noParams = map[st7789.Opcode]bool{
	NOP:            true,
	st7789.SWRESET: true,
	st7789.SLPIN:   true,
	st7789.SLPOUT:  true,
	INVOFF:         true,
	st7789.INVON:   true,
	st7789.DISPOFF: true,
	st7789.DISPON:  true,
}

// ParamLen returns the number of parameter bytes op takes. ok is false for
// opcodes the panel does not decode. RAMWR reports 0: its pixel stream is
// unbounded.
func ParamLen(op st7789.Opcode) (n int, ok bool) {
	if op == st7789.RAMWR || noParams[op] {
		return 0, true
	}
	n, ok = paramLen[op]
	return n, ok
}

// Kind classifies an Event.
type Kind uint8

// Event kinds.
const (
	PinEdge Kind = iota
	Command
	Pixels
)

// Event is one entry of the panel log.
type Event struct {
	Kind Kind
	// PinEdge
	Pin   string
	Level gpio.Level
	// Command
	Op     st7789.Opcode
	Params []byte
	// Pixels: number of complete pixels written by one transaction
	Count int
}

func (e Event) String() string {
	switch e.Kind {
	case PinEdge:
		return fmt.Sprintf("%s=%s", e.Pin, e.Level)
	case Command:
		if len(e.Params) == 0 {
			return e.Op.String()
		}
		return fmt.Sprintf("%s % X", e.Op, e.Params)
	default:
		return fmt.Sprintf("pixels %d", e.Count)
	}
}

// State is a copy of the controller registers.
type State struct {
	Resets   int // hardware and software resets seen
	Sleeping bool
	On       bool
	Inverted bool
	ColMod   byte
	MADCTL   byte
	Window   image.Rectangle // inclusive-exclusive, in panel pixels
	PosGamma []byte
	NegGamma []byte
	Frames   int // complete passes of the write pointer over the window
}

// Opts is the configuration of a Panel.
type Opts struct {
	// MaxTxSize is reported through conn.Limits; 0 means unlimited.
	MaxTxSize int
	Logger    *slog.Logger // Optional logger, nil discards
}

// Panel is a simulated ST7789. It is safe for concurrent use.
type Panel struct {
	mu     sync.Mutex
	limit  int
	logger *slog.Logger

	cs, dc, rst gpio.Level

	st State
	// decoder
	op     st7789.Opcode
	hasOp  bool
	params []byte
	// RAM and write pointer
	ram      [st7789.FrameSize]byte
	px       [3]byte
	pn       int
	col, row int
	written  int

	events     []Event
	violations []error
}

// New returns a powered-up panel that has not been reset yet.
//
// opts can be nil to use defaults.
func New(opts *Opts) *Panel {
	p := &Panel{cs: gpio.High, rst: gpio.High, logger: slog.New(slog.DiscardHandler)}
	if opts != nil {
		p.limit = opts.MaxTxSize
		if opts.Logger != nil {
			p.logger = opts.Logger
		}
	}
	p.powerOn()
	return p
}

func (p *Panel) powerOn() {
	p.st.Sleeping = true
	p.st.On = false
	p.st.Inverted = false
	p.st.ColMod = 0x66
	p.st.MADCTL = 0
	p.st.Window = image.Rect(0, 0, st7789.Width, st7789.Height)
	p.hasOp = false
	p.params = nil
	p.resetPointer()
}

func (p *Panel) resetPointer() {
	p.col, p.row = p.st.Window.Min.X, p.st.Window.Min.Y
	p.pn = 0
}

// String implements conn.Resource.
func (p *Panel) String() string {
	return "panelsim"
}

// Duplex implements conn.Conn.
func (p *Panel) Duplex() conn.Duplex {
	return conn.Half
}

// MaxTxSize implements conn.Limits.
func (p *Panel) MaxTxSize() int {
	return p.limit
}

// Tx implements conn.Conn. Reads are not supported; r must be nil.
func (p *Panel) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("panelsim: reads are not supported")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receive(w)
	return nil
}

// TxPackets implements spi.Conn.
func (p *Panel) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := p.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// CS returns the chip select line.
func (p *Panel) CS() gpio.PinOut {
	return &line{Pin: gpiotest.Pin{N: "CS", Num: 9, L: gpio.High}, set: p.setCS}
}

// DC returns the data/command line.
func (p *Panel) DC() gpio.PinOut {
	return &line{Pin: gpiotest.Pin{N: "DC", Num: 8}, set: p.setDC}
}

// RST returns the reset line.
func (p *Panel) RST() gpio.PinOut {
	return &line{Pin: gpiotest.Pin{N: "RST", Num: 12, L: gpio.High}, set: p.setRST}
}

type line struct {
	gpiotest.Pin
	set func(gpio.Level)
}

func (l *line) Out(v gpio.Level) error {
	if err := l.Pin.Out(v); err != nil {
		return err
	}
	l.set(v)
	return nil
}

func (p *Panel) setCS(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cs == l {
		return
	}
	p.edge("CS", l)
	p.cs = l
	if l == gpio.High {
		p.endTransaction()
	}
}

func (p *Panel) setDC(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dc == l {
		return
	}
	p.edge("DC", l)
	p.dc = l
}

func (p *Panel) setRST(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rst == l {
		return
	}
	p.edge("RST", l)
	p.rst = l
	if l == gpio.High {
		p.powerOn()
		p.st.Resets++
	}
}

func (p *Panel) edge(name string, l gpio.Level) {
	p.events = append(p.events, Event{Kind: PinEdge, Pin: name, Level: l})
}

func (p *Panel) receive(w []byte) {
	switch {
	case p.rst == gpio.Low:
		p.violate("%d bytes written while in reset", len(w))
		return
	case p.cs == gpio.High:
		p.violate("%d bytes written with CS deasserted", len(w))
		return
	}
	for _, b := range w {
		if p.dc == gpio.Low {
			p.command(st7789.Opcode(b))
		} else {
			p.data(b)
		}
	}
}

func (p *Panel) command(op st7789.Opcode) {
	p.flushPixels()
	p.finishCommand()
	if _, ok := ParamLen(op); !ok {
		p.violate("unknown opcode %s", op)
	}
	p.op, p.hasOp, p.params = op, true, nil
	switch op {
	case st7789.SWRESET:
		p.powerOn()
		p.st.Resets++
	case st7789.SLPIN:
		p.st.Sleeping = true
	case st7789.SLPOUT:
		p.st.Sleeping = false
	case INVOFF:
		p.st.Inverted = false
	case st7789.INVON:
		p.st.Inverted = true
	case st7789.DISPOFF:
		p.st.On = false
	case st7789.DISPON:
		p.st.On = true
	case st7789.RAMWR:
		p.resetPointer()
	}
	if n, _ := ParamLen(op); n == 0 {
		p.logCommand()
	}
}

func (p *Panel) data(b byte) {
	if !p.hasOp {
		p.violate("data byte %#02x without a command", b)
		return
	}
	if p.op == st7789.RAMWR {
		p.pixel(b)
		return
	}
	n, _ := ParamLen(p.op)
	if len(p.params) >= n {
		p.violate("extra parameter %#02x for %s", b, p.op)
		return
	}
	p.params = append(p.params, b)
	if len(p.params) == n {
		p.apply()
		p.logCommand()
	}
}

// finishCommand reports a command whose parameters were cut short.
func (p *Panel) finishCommand() {
	if !p.hasOp || p.op == st7789.RAMWR {
		return
	}
	if n, _ := ParamLen(p.op); len(p.params) < n {
		p.violate("%s got %d of %d parameters", p.op, len(p.params), n)
		p.logCommand()
	}
}

func (p *Panel) logCommand() {
	p.events = append(p.events, Event{Kind: Command, Op: p.op, Params: append([]byte(nil), p.params...)})
}

func (p *Panel) apply() {
	b := p.params
	switch p.op {
	case st7789.CASET:
		x0, x1 := int(b[0])<<8|int(b[1]), int(b[2])<<8|int(b[3])
		if x0 > x1 || x1 >= st7789.Width {
			p.violate("column window %d..%d outside the panel", x0, x1)
			return
		}
		p.st.Window.Min.X, p.st.Window.Max.X = x0, x1+1
	case st7789.RASET:
		y0, y1 := int(b[0])<<8|int(b[1]), int(b[2])<<8|int(b[3])
		if y0 > y1 || y1 >= st7789.Height {
			p.violate("row window %d..%d outside the panel", y0, y1)
			return
		}
		p.st.Window.Min.Y, p.st.Window.Max.Y = y0, y1+1
	case st7789.MADCTL:
		p.st.MADCTL = b[0]
		if b[0] != 0 {
			p.violate("MADCTL %#02x is not modeled", b[0])
		}
	case st7789.COLMOD:
		p.st.ColMod = b[0]
		if b[0]&0x07 != 0x06 {
			p.violate("COLMOD %#02x is not 18-bit", b[0])
		}
	case st7789.PVGAMCTRL:
		p.st.PosGamma = append([]byte(nil), b...)
	case st7789.NVGAMCTRL:
		p.st.NegGamma = append([]byte(nil), b...)
	}
}

func (p *Panel) pixel(b byte) {
	if p.st.Sleeping && p.pn == 0 && p.written == 0 {
		p.violate("RAM write while asleep")
	}
	p.px[p.pn] = b
	p.pn++
	if p.pn < len(p.px) {
		return
	}
	p.pn = 0
	i := (p.row*st7789.Width + p.col) * st7789.BytesPerPixel
	copy(p.ram[i:i+3], p.px[:])
	p.written++
	if p.col++; p.col < p.st.Window.Max.X {
		return
	}
	p.col = p.st.Window.Min.X
	if p.row++; p.row < p.st.Window.Max.Y {
		return
	}
	p.row = p.st.Window.Min.Y
	p.st.Frames++
}

// flushPixels logs the pixels written since the last flush.
func (p *Panel) flushPixels() {
	if p.written == 0 {
		return
	}
	p.events = append(p.events, Event{Kind: Pixels, Count: p.written})
	p.written = 0
}

func (p *Panel) endTransaction() {
	p.flushPixels()
}

func (p *Panel) violate(format string, args ...any) {
	err := fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
	p.violations = append(p.violations, err)
	p.logger.LogAttrs(context.Background(), slog.LevelWarn, "protocol violation", slog.Any("err", err))
}

// State returns a copy of the controller registers.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.st
	s.PosGamma = append([]byte(nil), s.PosGamma...)
	s.NegGamma = append([]byte(nil), s.NegGamma...)
	return s
}

// Events returns the log of pin edges, commands and pixel runs.
func (p *Panel) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Commands returns the command events only.
func (p *Panel) Commands() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Kind == Command {
			out = append(out, e)
		}
	}
	return out
}

// Violations returns the protocol violations seen so far. Each wraps
// ErrProtocol.
func (p *Panel) Violations() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.violations...)
}

// Snapshot returns what the glass currently shows.
//
// The glass is black while the display is off or asleep. Without INVON the
// colors come out inverted.
func (p *Panel) Snapshot() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, st7789.Width, st7789.Height))
	for y := 0; y < st7789.Height; y++ {
		for x := 0; x < st7789.Width; x++ {
			img.SetRGBA(x, y, p.glass(x, y))
		}
	}
	return img
}

// At returns the color the glass shows at (x, y).
func (p *Panel) At(x, y int) color.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	if x < 0 || y < 0 || x >= st7789.Width || y >= st7789.Height {
		return color.RGBA{}
	}
	return p.glass(x, y)
}

func (p *Panel) glass(x, y int) color.RGBA {
	if !p.st.On || p.st.Sleeping {
		return color.RGBA{A: 0xFF}
	}
	i := (y*st7789.Width + x) * st7789.BytesPerPixel
	c := color.RGBA{R: expand(p.ram[i]), G: expand(p.ram[i+1]), B: expand(p.ram[i+2]), A: 0xFF}
	if !p.st.Inverted {
		c.R, c.G, c.B = ^c.R, ^c.G, ^c.B
	}
	return c
}

// RAM returns a copy of the display RAM in wire format.
func (p *Panel) RAM() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.ram[:]...)
}

// expand turns a wire byte (6 significant bits) into an 8-bit intensity.
func expand(b byte) byte {
	l := b >> 2
	return l<<2 | l>>4
}

var _ spi.Conn = (*Panel)(nil)
var _ conn.Limits = (*Panel)(nil)

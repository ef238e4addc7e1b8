package panelsim

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/st7789"
)

// bus drives a Panel by hand.
type bus struct {
	t           *testing.T
	p           *Panel
	cs, dc, rst gpio.PinOut
}

func newBus(t *testing.T) *bus {
	p := New(nil)
	return &bus{t: t, p: p, cs: p.CS(), dc: p.DC(), rst: p.RST()}
}

func (b *bus) out(pin gpio.PinOut, l gpio.Level) {
	if err := pin.Out(l); err != nil {
		b.t.Fatal(err)
	}
}

func (b *bus) send(dc gpio.Level, data ...byte) {
	b.out(b.dc, dc)
	b.out(b.cs, gpio.Low)
	if err := b.p.Tx(data, nil); err != nil {
		b.t.Fatal(err)
	}
	b.out(b.cs, gpio.High)
}

func (b *bus) cmd(op st7789.Opcode, params ...byte) {
	b.send(gpio.Low, byte(op))
	if len(params) > 0 {
		b.send(gpio.High, params...)
	}
}

func (b *bus) wake() {
	b.out(b.rst, gpio.Low)
	b.out(b.rst, gpio.High)
	b.cmd(st7789.SLPOUT)
	b.cmd(st7789.INVON)
	b.cmd(st7789.DISPON)
}

func TestParamLen(t *testing.T) {
	tests := []struct {
		op     st7789.Opcode
		want   int
		wantOK bool
	}{
		{st7789.SWRESET, 0, true},
		{st7789.CASET, 4, true},
		{st7789.RASET, 4, true},
		{st7789.COLMOD, 1, true},
		{st7789.MADCTL, 1, true},
		{st7789.PVGAMCTRL, 14, true},
		{st7789.NVGAMCTRL, 14, true},
		{st7789.RAMWR, 0, true},
		{INVOFF, 0, true},
		{st7789.Opcode(0xB2), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			n, ok := ParamLen(tt.op)
			if n != tt.want || ok != tt.wantOK {
				t.Errorf("ParamLen() = %d, %t, want %d, %t", n, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPowerOnState(t *testing.T) {
	p := New(nil)
	s := p.State()
	if !s.Sleeping || s.On || s.Inverted || s.Resets != 0 {
		t.Errorf("power-on state = %+v", s)
	}
	if s.Window != image.Rect(0, 0, st7789.Width, st7789.Height) {
		t.Errorf("power-on window = %v", s.Window)
	}
	if got := p.At(0, 0); got != (color.RGBA{A: 0xFF}) {
		t.Errorf("glass while off = %v, want black", got)
	}
}

func TestDecodeRegisters(t *testing.T) {
	b := newBus(t)
	b.wake()
	b.cmd(st7789.COLMOD, 0x06)
	b.cmd(st7789.MADCTL, 0x00)
	b.cmd(st7789.CASET, 0x00, 0x10, 0x00, 0x1F)
	b.cmd(st7789.RASET, 0x00, 0x00, 0x01, 0x3F)
	b.cmd(st7789.PVGAMCTRL, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)

	s := b.p.State()
	if s.Sleeping || !s.On || !s.Inverted {
		t.Errorf("state = %+v", s)
	}
	if s.ColMod != 0x06 || s.MADCTL != 0 {
		t.Errorf("COLMOD/MADCTL = %#x/%#x", s.ColMod, s.MADCTL)
	}
	if want := image.Rect(16, 0, 32, 320); s.Window != want {
		t.Errorf("window = %v, want %v", s.Window, want)
	}
	if !bytes.Equal(s.PosGamma, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}) {
		t.Errorf("positive gamma = % X", s.PosGamma)
	}
	if s.Resets != 1 {
		t.Errorf("resets = %d, want 1", s.Resets)
	}
	if v := b.p.Violations(); len(v) != 0 {
		t.Errorf("unexpected violations: %v", v)
	}
	cmds := b.p.Commands()
	if got := cmds[len(cmds)-3].String(); got != "CASET 00 10 00 1F" {
		t.Errorf("CASET event = %q", got)
	}
}

func TestRAMWrite(t *testing.T) {
	b := newBus(t)
	b.wake()
	b.cmd(st7789.CASET, 0, 0, 0, 1)
	b.cmd(st7789.RASET, 0, 0, 0, 1)
	// 2x2 window, written twice over plus one pixel: the pointer wraps.
	b.cmd(st7789.RAMWR)
	px := []byte{
		0xFC, 0x00, 0x00, 0x00, 0xFC, 0x00,
		0x00, 0x00, 0xFC, 0xFC, 0xFC, 0xFC,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x80, 0x80, 0x80,
	}
	b.send(gpio.High, px...)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{R: 0x82, G: 0x82, B: 0x82, A: 0xFF}},
		{1, 0, color.RGBA{A: 0xFF}},
		{0, 1, color.RGBA{A: 0xFF}},
		{2, 0, color.RGBA{A: 0xFF}},
	}
	for _, tt := range tests {
		if got := b.p.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
	if s := b.p.State(); s.Frames != 2 {
		t.Errorf("frames = %d, want 2", s.Frames)
	}
	ev := b.p.Events()
	var pixels int
	for _, e := range ev {
		if e.Kind == Pixels {
			pixels += e.Count
		}
	}
	if pixels != 9 {
		t.Errorf("logged %d pixels, want 9", pixels)
	}
}

func TestInversionPolarity(t *testing.T) {
	b := newBus(t)
	b.wake()
	b.cmd(st7789.RAMWR)
	b.send(gpio.High, 0xFC, 0x00, 0x00)
	if got, want := b.p.At(0, 0), (color.RGBA{R: 0xFF, A: 0xFF}); got != want {
		t.Errorf("with INVON = %v, want %v", got, want)
	}
	b.cmd(INVOFF)
	if got, want := b.p.At(0, 0), (color.RGBA{G: 0xFF, B: 0xFF, A: 0xFF}); got != want {
		t.Errorf("without INVON = %v, want %v", got, want)
	}
	b.cmd(st7789.DISPOFF)
	if got := b.p.At(0, 0); got != (color.RGBA{A: 0xFF}) {
		t.Errorf("display off = %v, want black", got)
	}
}

func TestViolations(t *testing.T) {
	tests := []struct {
		name string
		run  func(b *bus)
	}{
		{"bytes with CS high", func(b *bus) {
			if err := b.p.Tx([]byte{0x01}, nil); err != nil {
				b.t.Fatal(err)
			}
		}},
		{"bytes in reset", func(b *bus) {
			b.out(b.rst, gpio.Low)
			b.send(gpio.Low, 0x01)
		}},
		{"data before any command", func(b *bus) {
			b.send(gpio.High, 0x00)
		}},
		{"ram write asleep", func(b *bus) {
			b.cmd(st7789.RAMWR)
			b.send(gpio.High, 0, 0, 0)
		}},
		{"short parameters", func(b *bus) {
			b.cmd(st7789.CASET, 0, 0)
			b.cmd(NOP)
		}},
		{"extra parameter", func(b *bus) {
			b.cmd(st7789.COLMOD, 0x06, 0x06)
		}},
		{"window outside panel", func(b *bus) {
			b.cmd(st7789.CASET, 0, 0, 0x01, 0x00)
		}},
		{"unsupported color mode", func(b *bus) {
			b.cmd(st7789.COLMOD, 0x05)
		}},
		{"unknown opcode", func(b *bus) {
			b.cmd(st7789.Opcode(0xB2))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBus(t)
			tt.run(b)
			v := b.p.Violations()
			if len(v) == 0 {
				t.Fatal("no violation recorded")
			}
			if !errors.Is(v[0], ErrProtocol) {
				t.Errorf("violation %v does not wrap ErrProtocol", v[0])
			}
		})
	}
}

func TestLines(t *testing.T) {
	p := New(&Opts{MaxTxSize: 4096})
	if p.MaxTxSize() != 4096 {
		t.Errorf("MaxTxSize() = %d", p.MaxTxSize())
	}
	cs := p.CS()
	if err := cs.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if err := cs.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	ev := p.Events()
	if len(ev) != 2 || ev[0].String() != "CS=Low" || ev[1].String() != "CS=High" {
		t.Errorf("events = %v", ev)
	}
	if err := p.Tx([]byte{0}, make([]byte, 1)); err == nil {
		t.Error("Tx() with a read buffer should fail")
	}
	if p.String() != "panelsim" {
		t.Errorf("String() = %q", p.String())
	}
}

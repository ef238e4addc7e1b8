package st7789

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/st7789/dma"
)

// Opcode is an ST7789 command byte.
type Opcode byte

// ST7789 commands used by this driver.
const (
	SWRESET   Opcode = 0x01 // Software reset
	SLPIN     Opcode = 0x10 // Sleep in
	SLPOUT    Opcode = 0x11 // Sleep out
	INVON     Opcode = 0x21 // Display inversion on
	DISPOFF   Opcode = 0x28 // Display off
	DISPON    Opcode = 0x29 // Display on
	CASET     Opcode = 0x2A // Column address set
	RASET     Opcode = 0x2B // Row address set
	RAMWR     Opcode = 0x2C // Memory write
	MADCTL    Opcode = 0x36 // Memory data access control
	COLMOD    Opcode = 0x3A // Interface pixel format
	PVGAMCTRL Opcode = 0xE0 // Positive voltage gamma control
	NVGAMCTRL Opcode = 0xE1 // Negative voltage gamma control
)

var opcodeNames = map[Opcode]string{
	SWRESET:   "SWRESET",
	SLPIN:     "SLPIN",
	SLPOUT:    "SLPOUT",
	INVON:     "INVON",
	DISPOFF:   "DISPOFF",
	DISPON:    "DISPON",
	CASET:     "CASET",
	RASET:     "RASET",
	RAMWR:     "RAMWR",
	MADCTL:    "MADCTL",
	COLMOD:    "COLMOD",
	PVGAMCTRL: "PVGAMCTRL",
	NVGAMCTRL: "NVGAMCTRL",
}

func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Opcode(%#02x)", byte(o))
}

// settle is the hold time around CS and DC transitions.
const settle = 100 * time.Nanosecond

// sendCommand sends a single command byte in its own CS-framed transaction.
func (d *Dev) sendCommand(op Opcode) {
	d.out(d.dc, gpio.Low, "dc")
	d.out(d.cs, gpio.Low, "cs")
	d.delay.Sleep(settle)
	d.tx([]byte{byte(op)}, op.String())
	d.out(d.cs, gpio.High, "cs")
	d.delay.Sleep(settle)
}

// sendData sends a parameter or pixel payload in its own CS-framed transaction.
func (d *Dev) sendData(data []byte) {
	d.out(d.dc, gpio.High, "dc")
	d.out(d.cs, gpio.Low, "cs")
	d.delay.Sleep(settle)
	d.tx(data, "data")
	d.out(d.cs, gpio.High, "cs")
	d.delay.Sleep(settle)
}

// startFrame issues RAMWR and leaves CS asserted with DC high, ready for the
// pixel stream of a transfer.
func (d *Dev) startFrame() {
	d.out(d.dc, gpio.Low, "dc")
	d.out(d.cs, gpio.Low, "cs")
	d.delay.Sleep(settle)
	d.tx([]byte{byte(RAMWR)}, RAMWR.String())
	d.delay.Sleep(settle)
	d.out(d.dc, gpio.High, "dc")
	d.delay.Sleep(time.Millisecond)
}

// tx writes b on the bus.
func (d *Dev) tx(b []byte, op string) {
	if d.c == nil {
		// The bus is lent to a transfer; writing now would interleave with it.
		d.check(op, errBusLent)
		return
	}
	d.check(op, dma.Write(d.c, b))
}

// out drives pin p to l. A nil pin is skipped.
func (d *Dev) out(p gpio.PinOut, l gpio.Level, name string) {
	if p == nil {
		return
	}
	d.check(name, p.Out(l))
}

var errBusLent = errors.New("bus in use by an in-flight transfer")

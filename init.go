package st7789

import (
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Panel calibration, loaded verbatim.
var (
	positiveGamma = [14]byte{0xD0, 0x08, 0x11, 0x08, 0x0C, 0x15, 0x39, 0x33, 0x50, 0x36, 0x13, 0x14, 0x29, 0x2D}
	negativeGamma = [14]byte{0xD0, 0x08, 0x10, 0x08, 0x06, 0x06, 0x39, 0x44, 0x51, 0x0B, 0x16, 0x14, 0x2F, 0x31}
)

const (
	colmod18bit   = 0x06 // 18 bits per pixel over the serial interface
	madctlDefault = 0x00 // top to bottom, left to right, RGB order
)

// Init resets and configures the panel, allocates the two frame buffers and
// starts streaming the first one (black) to the panel.
//
// It returns the other frame buffer for the caller to fill and hand to Swap.
// The returned frame is non-nil whenever the sequence ran; in Strict mode err
// reports the first write failure. Init can only be called once.
func (d *Dev) Init() (*Frame, error) {
	if d.halted {
		return nil, ErrHalted
	}
	if d.pool != nil {
		return nil, ErrInitialized
	}

	d.out(d.cs, gpio.High, "cs")
	d.hardReset()

	d.sendCommand(SWRESET)
	d.delay.Sleep(150 * time.Millisecond)

	d.sendCommand(SLPOUT)
	d.delay.Sleep(150 * time.Millisecond)

	d.sendCommand(COLMOD)
	d.sendData([]byte{colmod18bit})

	d.sendCommand(MADCTL)
	d.sendData([]byte{madctlDefault})

	// This panel's liquid crystal polarity needs inversion for true colors.
	d.sendCommand(INVON)

	d.sendCommand(CASET)
	d.sendData(addressWindow(Width))

	d.sendCommand(RASET)
	d.sendData(addressWindow(Height))

	d.sendCommand(PVGAMCTRL)
	d.sendData(positiveGamma[:])

	d.sendCommand(NVGAMCTRL)
	d.sendData(negativeGamma[:])

	d.pool = newPool()
	a, b := &d.pool.slots[0], &d.pool.slots[1]

	// Prime the panel RAM so the glass shows black before streaming starts.
	d.sendCommand(RAMWR)
	d.delay.Sleep(time.Millisecond)
	d.sendData(a.pix[:])
	d.delay.Sleep(time.Millisecond)

	d.sendCommand(DISPON)
	d.delay.Sleep(120 * time.Millisecond)

	d.startFrame()
	d.start(a)

	d.info("display initialized", slog.String("mode", d.mode.String()))
	return d.pool.checkout(b), d.takeErr()
}

// hardReset pulses RST low.
func (d *Dev) hardReset() {
	d.out(d.rst, gpio.High, "rst")
	d.delay.Sleep(100 * time.Millisecond)
	d.out(d.rst, gpio.Low, "rst")
	d.delay.Sleep(100 * time.Millisecond)
	d.out(d.rst, gpio.High, "rst")
	d.delay.Sleep(120 * time.Millisecond)
}

// addressWindow returns the CASET/RASET payload spanning [0, n-1].
func addressWindow(n int) []byte {
	end := n - 1
	return []byte{0x00, 0x00, byte(end >> 8), byte(end)}
}

// Package st7789 controls a 240x320 ST7789 color LCD panel via SPI.
//
// The driver targets modules such as the Waveshare 2" LCD: an ST7789 wired
// for 4-line serial, 18-bit color and a glass that needs display inversion to
// show true colors. The whole panel is always refreshed; there is no partial
// update.
//
// # Display Characteristics
//
// - 240×320 pixels, portrait, top-left origin
// - 18-bit color (RGB666) sent as 3 bytes per pixel, 6 significant bits each
// - 230400 bytes per frame
// - Two frame buffers: one streams to the panel while the other is drawn
//
// # Hardware Connection
//
// Connect the display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	CLK         → SPI Clock (SCLK)
//	DIN         → SPI Data (MOSI)
//	CS          → GPIO, or the SPI chip select (pass a nil cs pin)
//	DC          → GPIO (any available pin)
//	RST         → GPIO (any available pin)
//	BL          → 3.3V or a GPIO for the backlight
//
// # Basic Usage
//
//	package main
//
//	import (
//		"log"
//
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/st7789"
//		"periph.io/x/devices/v3/st7789/dma"
//		"periph.io/x/devices/v3/st7789/pattern"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		if _, err := host.Init(); err != nil {
//			log.Fatal(err)
//		}
//		b, err := spireg.Open("")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer b.Close()
//
//		dc := gpioreg.ByName("GPIO25")
//		rst := gpioreg.ByName("GPIO27")
//		dev, err := st7789.NewSPI(b, nil, dc, rst, dma.NewAsync(), nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Halt()
//
//		// Init brings the panel up, starts streaming a black frame and
//		// returns the other buffer.
//		f, err := dev.Init()
//		if err != nil {
//			log.Fatal(err)
//		}
//		for n := uint32(0); ; n++ {
//			pattern.Gradient(f.Pix(), n, st7789.Width, st7789.Height)
//			if f, err = dev.Swap(f); err != nil {
//				log.Fatal(err)
//			}
//		}
//	}
//
// # Buffer Ownership
//
// A Frame is a handle on one of the two buffers. The caller owns the frame
// returned by Init or Swap and may draw into it through Pix, Set or Image.
// Passing it to Swap gives the buffer back: the handle is emptied, Pix
// returns nil and a second Swap with it fails with ErrNotOwned. Swap blocks
// until the previous transfer is done, so the frame it returns is never
// being read by the bus.
//
// A Frame also implements draw.Image and tinygo's drivers.Displayer, so the
// image/draw package and tinyfont can render into it directly.
//
// # Write Failures
//
// Opts.Mode selects what happens when a bus or pin write fails. BestEffort,
// the default, ignores it: the panel may show a stale or garbled frame but
// the buffer rotation carries on. Strict reports the first failure from the
// next Init, Swap or Halt. In both modes Init and Swap still return the next
// frame, so a caller can log the error and keep going.
//
// # Bus Clock
//
// The ST7789 datasheet rates the serial clock at 62.5MHz, which is the
// default. Higher values, such as the 150MHz some RP2350 boards run at, are
// rejected unless Opts.Overclock is set.
//
// # Transfers
//
// Frames are streamed by a dma.Channel. dma.Async writes on a goroutine so
// drawing the next frame overlaps with the transfer; dma.Sync writes inside
// Swap for buses that cannot be used concurrently. Both split writes to the
// bus's conn.Limits maximum.
//
// # Drawer
//
// NewDrawer wraps a Dev in a periph display.Drawer. It keeps a composed
// canvas so Draw can update any region, and Fit scales an image to the panel.
//
// # Simulator
//
// The panelsim package decodes the command stream into controller state and
// an image, for tests and for running without hardware:
//
//	sim := panelsim.New(nil)
//	dev, err := st7789.New(sim, sim.CS(), sim.DC(), sim.RST(), &dma.Sync{}, nil)
//
// # Datasheet
//
// https://www.waveshare.com/w/upload/a/ae/ST7789_Datasheet.pdf
//
// # Compatibility with periph.io
//
// This driver implements the display.Drawer interface from periph.io through
// Drawer, and can be used with any periph.io tool or library expecting one.
package st7789

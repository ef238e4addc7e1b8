package st7789

import (
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/st7789/dma"
)

// transfer is the one in-flight frame transfer. While it exists the device has
// lent it the DMA channel, the frame buffer and the bus; retire hands all
// three back.
type transfer struct {
	ch  dma.Channel
	s   *slot
	bus spi.Conn
}

// start lends the channel and bus to a new transfer of s. RAMWR must already
// be framed with startFrame.
func (d *Dev) start(s *slot) {
	if d.xfer != nil {
		panic("st7789: transfer started while another is in flight")
	}
	t := &transfer{ch: d.ch, s: s, bus: d.c}
	d.ch, d.c = nil, nil
	s.owner = ownerEngine
	d.check("dma start", t.ch.Start(t.bus, s.pix[:]))
	d.xfer = t
	d.transfers++
}

// retire blocks until the in-flight transfer completes, takes back the
// channel and bus and returns the buffer that was sent.
func (d *Dev) retire() *slot {
	t := d.xfer
	d.xfer = nil
	d.check("dma wait", t.ch.Wait())
	d.ch, d.c = t.ch, t.bus
	return t.s
}

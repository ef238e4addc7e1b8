package st7789

import (
	"image"
	"image/color"

	"periph.io/x/devices/v3/st7789/image666"
)

type owner uint8

const (
	ownerNone owner = iota
	ownerCaller
	ownerEngine
)

// slot is one of the two static frame buffers of a Dev.
type slot struct {
	pix   [FrameSize]byte
	idx   int
	owner owner
	gen   uint32 // bumped on every change of hands
}

// pool holds both frame buffers. It is allocated once by Init and never freed.
type pool struct {
	slots [2]slot
}

func newPool() *pool {
	p := new(pool)
	for i := range p.slots {
		p.slots[i].idx = i
	}
	return p
}

// checkout hands s to the caller.
func (p *pool) checkout(s *slot) *Frame {
	if s.owner == ownerCaller {
		panic("st7789: frame buffer checked out twice")
	}
	s.owner = ownerCaller
	s.gen++
	return &Frame{s: s, gen: s.gen}
}

// surrender takes the buffer of f back from the caller and empties f.
func (p *pool) surrender(f *Frame) (*slot, error) {
	if f == nil || f.live() == nil || !p.owns(f.s) {
		return nil, ErrNotOwned
	}
	s := f.s
	f.s = nil
	s.owner = ownerNone
	s.gen++
	return s, nil
}

func (p *pool) owns(s *slot) bool {
	return s.idx >= 0 && s.idx < len(p.slots) && &p.slots[s.idx] == s
}

// count returns how many buffers are held by o.
func (p *pool) count(o owner) int {
	n := 0
	for i := range p.slots {
		if p.slots[i].owner == o {
			n++
		}
	}
	return n
}

// Frame is the caller's handle on one of the two frame buffers.
//
// A Frame returned by Init or Swap may be written freely until it is passed
// to Swap. From then on it is empty: Pix returns nil, drawing is ignored and
// Swap rejects it with ErrNotOwned.
//
// A copy of a Frame value is tied to the same hand-over: once either copy is
// surrendered, both are empty.
//
// Frame implements draw.Image with the panel's RGB666 color model.
type Frame struct {
	s   *slot
	gen uint32
}

// live returns the slot backing f, or nil when f no longer owns it.
func (f *Frame) live() *slot {
	if f.s == nil || f.s.gen != f.gen || f.s.owner != ownerCaller {
		return nil
	}
	return f.s
}

// Pix returns the raw frame buffer: row-major, 3 bytes per pixel, 6
// significant bits per byte. It returns nil once the frame is surrendered.
//
// The slice must not be retained after the frame is passed to Swap.
func (f *Frame) Pix() []byte {
	s := f.live()
	if s == nil {
		return nil
	}
	return s.pix[:]
}

// Image returns an RGB666 view of the frame buffer, or nil once the frame is
// surrendered. The same retention rule as Pix applies.
func (f *Frame) Image() *image666.RGB666 {
	s := f.live()
	if s == nil {
		return nil
	}
	return image666.Wrap(s.pix[:], f.Bounds())
}

// Owned reports whether the caller still owns the frame.
func (f *Frame) Owned() bool {
	return f.live() != nil
}

// Index identifies which of the two static buffers backs the frame, or -1.
func (f *Frame) Index() int {
	s := f.live()
	if s == nil {
		return -1
	}
	return s.idx
}

// ColorModel returns the color model of the frame.
func (f *Frame) ColorModel() color.Model {
	return image666.Model
}

// Bounds returns the frame bounds.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// At returns the color of the pixel at (x, y).
func (f *Frame) At(x, y int) color.Color {
	return f.RGB666At(x, y)
}

// RGB666At returns the Color666 of the pixel at (x, y).
func (f *Frame) RGB666At(x, y int) image666.Color666 {
	i, ok := f.offset(x, y)
	if !ok {
		return image666.Color666{}
	}
	return image666.FromBytes(f.s.pix[i], f.s.pix[i+1], f.s.pix[i+2])
}

// Set sets the color of the pixel at (x, y).
func (f *Frame) Set(x, y int, c color.Color) {
	f.SetRGB666(x, y, image666.Model.Convert(c).(image666.Color666))
}

// SetRGB666 sets the Color666 of the pixel at (x, y).
func (f *Frame) SetRGB666(x, y int, c image666.Color666) {
	i, ok := f.offset(x, y)
	if !ok {
		return
	}
	f.s.pix[i], f.s.pix[i+1], f.s.pix[i+2] = c.Bytes()
}

// Fill sets every pixel to c.
func (f *Frame) Fill(c image666.Color666) {
	s := f.live()
	if s == nil {
		return
	}
	r, g, b := c.Bytes()
	for i := 0; i < FrameSize; i += BytesPerPixel {
		s.pix[i], s.pix[i+1], s.pix[i+2] = r, g, b
	}
}

func (f *Frame) offset(x, y int) (int, bool) {
	if f.live() == nil || x < 0 || y < 0 || x >= Width || y >= Height {
		return 0, false
	}
	return (y*Width + x) * BytesPerPixel, true
}

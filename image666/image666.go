package image666

import (
	"image"
	"image/color"
)

// BytesPerPixel is the number of bytes one pixel occupies in Pix.
const BytesPerPixel = 3

// Color666 represents an 18-bit color with 6-bit channel levels (0-63).
// Only the lower 6 bits of each channel are used.
type Color666 struct {
	R, G, B uint8
}

// RGBA converts the Color666 color to standard RGBA.
func (c Color666) RGBA() (r, g, b, a uint32) {
	return expand(c.R), expand(c.G), expand(c.B), 0xFFFF
}

// Bytes returns the three wire bytes of the color, levels in the upper 6 bits.
func (c Color666) Bytes() (r, g, b byte) {
	return (c.R & 0x3F) << 2, (c.G & 0x3F) << 2, (c.B & 0x3F) << 2
}

// FromBytes builds a Color666 from three wire bytes. The lower 2 bits of each byte are dropped.
func FromBytes(r, g, b byte) Color666 {
	return Color666{R: r >> 2, G: g >> 2, B: b >> 2}
}

// expand scales a 6-bit level to 16 bits by bit replication.
// 0x3F maps to 0xFFFF, 0x00 to 0x0000.
func expand(v uint8) uint32 {
	l := uint32(v & 0x3F)
	return l<<10 | l<<4 | l>>2
}

func toColor666(c color.Color) color.Color {
	if c6, ok := c.(Color666); ok {
		return c6
	}
	r, g, b, _ := c.RGBA()
	return Color666{R: uint8(r >> 10), G: uint8(g >> 10), B: uint8(b >> 10)}
}

// Model converts colors to Color666.
var Model = color.ModelFunc(toColor666)

// RGB666 is an in-memory image whose Pix layout matches the ST7789 RAM in
// 18-bit mode: row-major, 3 bytes per pixel.
type RGB666 struct {
	Pix    []byte          // Pixel data (3 bytes per pixel)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewRGB666 creates a new RGB666 image with the specified bounds.
func NewRGB666(r image.Rectangle) *RGB666 {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &RGB666{Rect: r}
	}
	stride := w * BytesPerPixel
	return &RGB666{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// Wrap returns an RGB666 image backed by pix. It panics if pix is too small
// for r.
func Wrap(pix []byte, r image.Rectangle) *RGB666 {
	stride := r.Dx() * BytesPerPixel
	if len(pix) < stride*r.Dy() {
		panic("image666: pixel buffer too small")
	}
	return &RGB666{Pix: pix, Stride: stride, Rect: r}
}

// ColorModel returns the color model of the image.
func (p *RGB666) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *RGB666) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (p *RGB666) At(x, y int) color.Color {
	return p.RGB666At(x, y)
}

// RGB666At returns the Color666 of the pixel at (x, y).
func (p *RGB666) RGB666At(x, y int) Color666 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Color666{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+BytesPerPixel : i+BytesPerPixel]
	return FromBytes(s[0], s[1], s[2])
}

// Set sets the color of the pixel at (x, y).
func (p *RGB666) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.SetRGB666(x, y, Model.Convert(c).(Color666))
}

// SetRGB666 sets the Color666 of the pixel at (x, y).
// This is faster than Set() as it doesn't require color conversion.
func (p *RGB666) SetRGB666(x, y int, c Color666) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+BytesPerPixel : i+BytesPerPixel]
	s[0], s[1], s[2] = c.Bytes()
}

// Opaque reports whether the image is fully opaque, which is always true.
func (p *RGB666) Opaque() bool {
	return true
}

// PixOffset returns the index of the first byte of the pixel at (x, y) in Pix.
func (p *RGB666) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*BytesPerPixel
}

// SubImage returns an image representing the portion of p visible through r.
// The returned value shares pixels with the original image.
func (p *RGB666) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &RGB666{}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &RGB666{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}

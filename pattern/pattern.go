// Package pattern renders test images into raw RGB666 frame buffers.
package pattern

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// Gradient fills buf, a w×h frame of 3-byte pixels, with a color gradient.
//
// Red ramps left to right, green top to bottom, and blue follows frame so
// consecutive frames differ. Every byte keeps its two low bits clear, as the
// panel expects for 18-bit color.
func Gradient(buf []byte, frame uint32, w, h int) {
	b := byte(frame & 0xFC)
	for y := 0; y < h; y++ {
		g := level(y, h)
		for x := 0; x < w; x++ {
			i := 3 * (y*w + x)
			buf[i] = level(x, w)
			buf[i+1] = g
			buf[i+2] = b
		}
	}
}

// level maps i in [0, n) to a 6-bit intensity stored in the high bits.
func level(i, n int) byte {
	if n < 2 {
		return 0
	}
	v := float32(i) / float32(n-1)
	return byte(v*255) & 0xFC
}

// Font is the face used by Overlay.
var Font tinyfont.Fonter = &proggy.TinySZ8pt7b

// LineHeight is the vertical advance of Font in pixels.
const LineHeight = 10

// Overlay writes text on d with its baseline at y, one line per '\n'.
func Overlay(d drivers.Displayer, x, y int16, text string, c color.RGBA) {
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != '\n' {
			continue
		}
		tinyfont.WriteLine(d, Font, x, y, text[start:i], c)
		y += LineHeight
		start = i + 1
	}
}

// Width returns the rendered width of a single line in pixels.
func Width(line string) int {
	_, w := tinyfont.LineWidth(Font, line)
	return int(w)
}

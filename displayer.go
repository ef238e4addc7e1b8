package st7789

import (
	"image/color"

	"periph.io/x/devices/v3/st7789/image666"
	"tinygo.org/x/drivers"
)

var _ drivers.Displayer = (*Frame)(nil)

// Size implements drivers.Displayer.
func (f *Frame) Size() (x, y int16) {
	return Width, Height
}

// SetPixel implements drivers.Displayer.
func (f *Frame) SetPixel(x, y int16, c color.RGBA) {
	f.SetRGB666(int(x), int(y), image666.Model.Convert(c).(image666.Color666))
}

// Display implements drivers.Displayer. Pixels reach the panel on the next
// Swap, so it only reports whether the frame is still owned.
func (f *Frame) Display() error {
	if f.live() == nil {
		return ErrNotOwned
	}
	return nil
}

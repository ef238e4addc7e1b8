package st7789

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/st7789/image666"
)

var _ display.Drawer = (*Drawer)(nil)

// Drawer adapts a Dev to periph's display.Drawer.
//
// It keeps a canvas with the last composed image, so Draw can update any
// region; every Draw still sends a full frame through Swap.
type Drawer struct {
	d      *Dev
	back   *Frame
	canvas *image666.RGB666
}

// NewDrawer initializes d and returns a Drawer for it.
//
// The returned Drawer is non-nil whenever Init ran; in Strict mode err
// reports a write failure during bring-up.
func NewDrawer(d *Dev) (*Drawer, error) {
	back, err := d.Init()
	if back == nil {
		return nil, err
	}
	return &Drawer{
		d:      d,
		back:   back,
		canvas: image666.NewRGB666(d.Bounds()),
	}, err
}

// Draw composes src onto the display and pushes the result to the panel.
//
// Only the pixels within dst are changed.
func (dr *Drawer) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	dst = dst.Intersect(dr.canvas.Rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(dr.canvas, dst, src, sp, draw.Src)
	return dr.flush()
}

// Fit scales src to the largest centered rectangle of the display that keeps
// its aspect ratio, clears the rest to black and pushes the result.
func (dr *Drawer) Fit(src image.Image) error {
	clear(dr.canvas.Pix)
	if r := fitRect(src.Bounds(), dr.canvas.Rect); !r.Empty() {
		xdraw.CatmullRom.Scale(dr.canvas, r, src, src.Bounds(), draw.Src, nil)
	}
	return dr.flush()
}

// Canvas returns the composed image. Changes to it are sent by the next Draw,
// Fit or Flush.
func (dr *Drawer) Canvas() *image666.RGB666 {
	return dr.canvas
}

// Flush pushes the canvas to the panel.
func (dr *Drawer) Flush() error {
	return dr.flush()
}

func (dr *Drawer) flush() error {
	copy(dr.back.Pix(), dr.canvas.Pix)
	next, err := dr.d.Swap(dr.back)
	if next != nil {
		dr.back = next
	}
	return err
}

// ColorModel implements display.Drawer.
func (dr *Drawer) ColorModel() color.Model {
	return dr.d.ColorModel()
}

// Bounds implements display.Drawer.
func (dr *Drawer) Bounds() image.Rectangle {
	return dr.d.Bounds()
}

// Halt implements conn.Resource.
func (dr *Drawer) Halt() error {
	return dr.d.Halt()
}

// String implements conn.Resource.
func (dr *Drawer) String() string {
	return fmt.Sprintf("st7789.Drawer{%s}", dr.d)
}

// fitRect returns the largest rectangle with the aspect ratio of src centered
// in dst.
func fitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 {
		return image.Rectangle{}
	}
	w, h := dst.Dx(), dst.Dy()
	if sw*h > sh*w {
		h = sh * w / sw
	} else {
		w = sw * h / sh
	}
	x := dst.Min.X + (dst.Dx()-w)/2
	y := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

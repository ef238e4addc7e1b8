// Package image666 provides an 18-bit RGB image format for the ST7789 display controller.
//
// With COLMOD set to 0x06 the ST7789 consumes three bytes per pixel: red, green
// and blue. Only the upper 6 bits of each byte are significant; the lower 2 bits
// are ignored by the controller.
//
// Memory layout example for a 2-pixel row:
//
//	Pixels: 0                1
//	Levels: R=63 G=0  B=32   R=1 G=2 B=3
//	Bytes:  0xFC 0x00 0x80   0x04 0x08 0x0C
//
// This package provides:
//
// - Color666: A color type holding three 6-bit channel levels (0-63)
// - Model: A color model for converting standard Go colors to Color666
// - RGB666: An image.Image and draw.Image implementation laid out like the panel RAM
//
// Example usage:
//
//	// Create a 240x320 image
//	img := image666.NewRGB666(image.Rect(0, 0, 240, 320))
//
//	// Set a pixel to pure red
//	img.SetRGB666(10, 20, image666.Color666{R: 63})
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
package image666

package image666

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestColor666RGBA(t *testing.T) {
	tests := []struct {
		name  string
		c     Color666
		wantR uint32
		wantG uint32
		wantB uint32
	}{
		{"black", Color666{}, 0x0000, 0x0000, 0x0000},
		{"white", Color666{R: 63, G: 63, B: 63}, 0xFFFF, 0xFFFF, 0xFFFF},
		{"mid red", Color666{R: 32}, 0x8208, 0x0000, 0x0000},
		{"low levels", Color666{R: 5, G: 1, B: 2}, 0x1451, 0x0410, 0x0820},
		{"mask ignored", Color666{R: 0xFF}, 0xFFFF, 0x0000, 0x0000}, // 0xFF & 0x3F = 63
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.c.RGBA()
			if r != tt.wantR || g != tt.wantG || b != tt.wantB || a != 0xFFFF {
				t.Errorf("RGBA() = (%x, %x, %x, %x), want (%x, %x, %x, ffff)",
					r, g, b, a, tt.wantR, tt.wantG, tt.wantB)
			}
		})
	}
}

func TestColor666Bytes(t *testing.T) {
	r, g, b := Color666{R: 63, G: 0, B: 32}.Bytes()
	if r != 0xFC || g != 0x00 || b != 0x80 {
		t.Errorf("Bytes() = (%#02x, %#02x, %#02x), want (0xfc, 0x00, 0x80)", r, g, b)
	}
	if got := FromBytes(0xFF, 0x07, 0x80); got != (Color666{R: 63, G: 1, B: 32}) {
		t.Errorf("FromBytes() = %+v, want {R:63 G:1 B:32}", got)
	}
}

func TestModelConvert(t *testing.T) {
	tests := []struct {
		name  string
		input color.Color
		want  Color666
	}{
		{"passthrough", Color666{R: 7, G: 8, B: 9}, Color666{R: 7, G: 8, B: 9}},
		{"black", color.Black, Color666{}},
		{"white", color.White, Color666{R: 63, G: 63, B: 63}},
		{"gray", color.RGBA{0x80, 0x80, 0x80, 0xFF}, Color666{R: 32, G: 32, B: 32}},
		{"pure green", color.RGBA{0x00, 0xFF, 0x00, 0xFF}, Color666{G: 63}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Model.Convert(tt.input).(Color666)
			if got != tt.want {
				t.Errorf("Model.Convert(%v) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewRGB666(t *testing.T) {
	tests := []struct {
		name       string
		rect       image.Rectangle
		wantStride int
		wantPixLen int
	}{
		{"240x320", image.Rect(0, 0, 240, 320), 720, 230400},
		{"4x2", image.Rect(0, 0, 4, 2), 12, 24},
		{"1x1", image.Rect(0, 0, 1, 1), 3, 3},
		{"offset rect", image.Rect(10, 20, 13, 22), 9, 18},
		{"empty", image.Rect(0, 0, 0, 0), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := NewRGB666(tt.rect)
			if img.Rect != tt.rect {
				t.Errorf("Rect = %v, want %v", img.Rect, tt.rect)
			}
			if img.Stride != tt.wantStride {
				t.Errorf("Stride = %d, want %d", img.Stride, tt.wantStride)
			}
			if len(img.Pix) != tt.wantPixLen {
				t.Errorf("len(Pix) = %d, want %d", len(img.Pix), tt.wantPixLen)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	pix := make([]byte, 2*2*3)
	img := Wrap(pix, image.Rect(0, 0, 2, 2))
	img.SetRGB666(1, 1, Color666{R: 1, G: 2, B: 3})
	if pix[9] != 0x04 || pix[10] != 0x08 || pix[11] != 0x0C {
		t.Errorf("Wrap did not share pixels: % x", pix)
	}

	defer func() {
		if recover() == nil {
			t.Error("Wrap with a short buffer should panic")
		}
	}()
	Wrap(make([]byte, 5), image.Rect(0, 0, 2, 2))
}

func TestRGB666Layout(t *testing.T) {
	img := NewRGB666(image.Rect(0, 0, 2, 2))
	img.SetRGB666(0, 0, Color666{R: 63})
	img.SetRGB666(1, 0, Color666{G: 63})
	img.SetRGB666(0, 1, Color666{B: 63})

	want := []byte{
		0xFC, 0x00, 0x00, 0x00, 0xFC, 0x00,
		0x00, 0x00, 0xFC, 0x00, 0x00, 0x00,
	}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("Pix = % x, want % x", img.Pix, want)
		}
	}
}

func TestRGB666SetGet(t *testing.T) {
	img := NewRGB666(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGB666(x, y, Color666{R: uint8(x), G: uint8(y), B: uint8(x + y)})
		}
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			want := Color666{R: uint8(x), G: uint8(y), B: uint8(x + y)}
			if got := img.RGB666At(x, y); got != want {
				t.Errorf("RGB666At(%d, %d) = %+v, want %+v", x, y, got, want)
			}
		}
	}
}

func TestRGB666Set(t *testing.T) {
	img := NewRGB666(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, Color666{R: 9})
	if got := img.RGB666At(0, 0); got.R != 9 {
		t.Errorf("After Set(0, 0, {R:9}), R = %d, want 9", got.R)
	}
	img.Set(1, 0, color.White)
	if got := img.RGB666At(1, 0); got != (Color666{R: 63, G: 63, B: 63}) {
		t.Errorf("After Set(1, 0, White) = %+v, want white", got)
	}
	if _, ok := img.At(1, 0).(Color666); !ok {
		t.Errorf("At returned %T, want Color666", img.At(1, 0))
	}
}

func TestRGB666OutOfBounds(t *testing.T) {
	img := NewRGB666(image.Rect(0, 0, 4, 4))
	img.SetRGB666(-1, 0, Color666{R: 63})
	img.SetRGB666(4, 0, Color666{R: 63})
	img.Set(0, 4, color.White)
	for i, b := range img.Pix {
		if b != 0 {
			t.Fatalf("out-of-bounds write changed Pix[%d] = %#02x", i, b)
		}
	}
	if got := img.RGB666At(-1, -1); got != (Color666{}) {
		t.Errorf("RGB666At(-1, -1) = %+v, want zero", got)
	}
}

func TestRGB666OffsetRect(t *testing.T) {
	img := NewRGB666(image.Rect(100, 50, 102, 52))
	img.SetRGB666(100, 50, Color666{R: 11})
	if img.Pix[0]>>2 != 11 {
		t.Errorf("Pix[0]>>2 = %d, want 11", img.Pix[0]>>2)
	}
	if got := img.PixOffset(101, 51); got != 9 {
		t.Errorf("PixOffset(101, 51) = %d, want 9", got)
	}
}

func TestRGB666SubImage(t *testing.T) {
	img := NewRGB666(image.Rect(0, 0, 4, 4))
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*RGB666)
	sub.SetRGB666(1, 1, Color666{B: 40})
	if got := img.RGB666At(1, 1); got.B != 40 {
		t.Errorf("SubImage does not share pixels: %+v", got)
	}
	if empty := img.SubImage(image.Rect(10, 10, 12, 12)); !empty.Bounds().Empty() {
		t.Errorf("SubImage outside bounds = %v, want empty", empty.Bounds())
	}
}

func TestRGB666Draw(t *testing.T) {
	img := NewRGB666(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0xFF, 0x00, 0xFF, 0xFF}), image.Point{}, draw.Src)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := img.RGB666At(x, y); got != (Color666{R: 63, B: 63}) {
				t.Fatalf("RGB666At(%d, %d) = %+v after draw", x, y, got)
			}
		}
	}
	if img.ColorModel() != Model {
		t.Error("ColorModel() did not return Model")
	}
	if !img.Opaque() {
		t.Error("Opaque() = false")
	}
}

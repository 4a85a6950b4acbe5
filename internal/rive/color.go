package rive

import "fmt"

// Color is a 32-bit ARGB color.
type Color struct {
	Alpha uint8
	Red   uint8
	Green uint8
	Blue  uint8
}

// ColorFromARGB unpacks a 0xAARRGGBB value.
func ColorFromARGB(argb uint32) Color {
	return Color{
		Alpha: uint8(argb >> 24),
		Red:   uint8(argb >> 16),
		Green: uint8(argb >> 8),
		Blue:  uint8(argb),
	}
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{Alpha: 0xFF, Red: r, Green: g, Blue: b}
}

// ARGB packs the color as 0xAARRGGBB.
func (c Color) ARGB() uint32 {
	return uint32(c.Alpha)<<24 | uint32(c.Red)<<16 | uint32(c.Green)<<8 | uint32(c.Blue)
}

// String returns the color as #AARRGGBB.
func (c Color) String() string {
	return fmt.Sprintf("#%08X", c.ARGB())
}

package rive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColor_ARGBRoundTrip(t *testing.T) {
	c := ColorFromARGB(0x80FF1020)
	assert.Equal(t, Color{Alpha: 0x80, Red: 0xFF, Green: 0x10, Blue: 0x20}, c)
	assert.Equal(t, uint32(0x80FF1020), c.ARGB())
	assert.Equal(t, "#80FF1020", c.String())
}

func TestRGB_IsOpaque(t *testing.T) {
	assert.Equal(t, uint32(0xFF0A0B0C), RGB(0x0A, 0x0B, 0x0C).ARGB())
}

func TestError_Format(t *testing.T) {
	err := valueMismatch("string", "float32")
	assert.Equal(t, "VALUE_MISMATCH: expected string, got float32", err.Error())

	err = errInvalid(ErrCodeInvalidArtboard, "artboard", "Main")
	assert.Equal(t, "INVALID_ARTBOARD: artboard not found (Main)", err.Error())
	assert.False(t, IsMissingData(err))
}

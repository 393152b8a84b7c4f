package detector

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// Color is an 8-bit BGR colour, channel order as in OpenCV frames.
type Color struct {
	B uint8 `json:"b"`
	G uint8 `json:"g"`
	R uint8 `json:"r"`
}

// Inverse returns the per-channel complement (255 - c). Inverse is an involution.
func (c Color) Inverse() Color {
	return Color{B: 255 - c.B, G: 255 - c.G, R: 255 - c.R}
}

// RGBA converts to the color.RGBA that gocv drawing functions expect.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Scalar converts to a gocv Scalar in BGR order.
func (c Color) Scalar() gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

// Hex renders the colour as #rrggbb.
func (c Color) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hex()
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// ColorFromScalar truncates the first three channels of s to a Color.
// Channels outside [0,255] are clamped.
func ColorFromScalar(s gocv.Scalar) Color {
	return Color{B: truncate(s.Val1), G: truncate(s.Val2), R: truncate(s.Val3)}
}

func truncate(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// Package testframes builds synthetic BGR frames for tests.
package testframes

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Reference colours in BGR order.
var (
	// Neutral is mid grey; it has zero saturation and never matches a hue range.
	Neutral = gocv.NewScalar(128, 128, 128, 0)
	// Orange has OpenCV HSV (10, 255, 255), inside the default target range.
	Orange = gocv.NewScalar(0, 85, 255, 0)
	// Skin has OpenCV HSV (10, 120, 200), inside both the target and the excluded range.
	Skin = gocv.NewScalar(106, 137, 200, 0)
)

// New returns a width x height 8-bit BGR frame filled with bg.
// The caller is responsible for closing the returned Mat.
func New(width, height int, bg gocv.Scalar) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(bg, height, width, gocv.MatTypeCV8UC3)
}

// RGBA converts a BGR scalar to the color.RGBA gocv drawing functions take.
func RGBA(s gocv.Scalar) color.RGBA {
	return color.RGBA{R: uint8(s.Val3), G: uint8(s.Val2), B: uint8(s.Val1), A: 255}
}

// FillRect paints r (max exclusive) with c. Edges are not anti-aliased.
func FillRect(frame *gocv.Mat, r image.Rectangle, c gocv.Scalar) {
	// Max is an inclusive corner for the rectangle call.
	gocv.RectangleWithParams(frame, image.Rect(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1), RGBA(c), -1, gocv.Line8, 0)
}

// FillCircle paints a filled disc.
func FillCircle(frame *gocv.Mat, center image.Point, radius int, c gocv.Scalar) {
	gocv.CircleWithParams(frame, center, radius, RGBA(c), -1, gocv.Line8, 0)
}

// CountColor returns how many pixels of a BGR frame equal c exactly.
func CountColor(frame gocv.Mat, c [3]uint8) int {
	n := 0
	for y := 0; y < frame.Rows(); y++ {
		for x := 0; x < frame.Cols(); x++ {
			if Pixel(frame, x, y) == c {
				n++
			}
		}
	}
	return n
}

// Pixel returns the BGR sample at (x, y).
func Pixel(frame gocv.Mat, x, y int) [3]uint8 {
	v := frame.GetVecbAt(y, x)
	return [3]uint8{v[0], v[1], v[2]}
}

// Equal reports whether two frames have identical size, type and pixels.
func Equal(a, b gocv.Mat) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() || a.Type() != b.Type() {
		return false
	}
	return DiffCount(a, b) == 0
}

// DiffCount returns the number of pixels that differ in any channel.
func DiffCount(a, b gocv.Mat) int {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	if diff.Channels() == 1 {
		return gocv.CountNonZero(diff)
	}

	channels := gocv.Split(diff)
	defer func() {
		for _, ch := range channels {
			ch.Close()
		}
	}()

	union := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), diff.Rows(), diff.Cols(), gocv.MatTypeCV8U)
	defer union.Close()
	for _, ch := range channels {
		gocv.BitwiseOr(union, ch, &union)
	}
	return gocv.CountNonZero(union)
}

// Encode returns frame as JPEG bytes.
func Encode(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Decode decodes an encoded image into a BGR frame.
func Decode(data []byte) (*gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("decode frame: empty image")
	}
	return &mat, nil
}

// Pointers returns pointers to frames, in order, for capture.NewMockCamera.
func Pointers(frames []gocv.Mat) []*gocv.Mat {
	out := make([]*gocv.Mat, len(frames))
	for i := range frames {
		out[i] = &frames[i]
	}
	return out
}

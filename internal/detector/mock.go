package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	detection *Detection
	err       error
	calls     int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetection sets the detection that will be returned by Detect.
func (m *MockDetector) SetDetection(d *Detection) {
	m.detection = d
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many frames Detect has seen.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured detection or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Detection, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.detection, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SquareDetection returns a preset Detection for an axis-aligned square
// with its top-left corner at (x, y), filled with mean.
func SquareDetection(x, y, size int, mean Color) *Detection {
	box := image.Rect(x, y, x+size, y+size)
	return &Detection{
		Contour: []image.Point{
			{X: x, Y: y},
			{X: x, Y: y + size - 1},
			{X: x + size - 1, Y: y + size - 1},
			{X: x + size - 1, Y: y},
		},
		Box:        box,
		Center:     BoxCenter(box),
		Area:       float64((size - 1) * (size - 1)),
		Mean:       mean,
		Annotation: mean.Inverse(),
	}
}

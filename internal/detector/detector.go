// Package detector finds the dominant region of a target colour in a BGR frame.
package detector

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/huetrack/internal/config"
)

// ErrUnsupportedFrame is returned for frames that are not 3-channel 8-bit BGR.
var ErrUnsupportedFrame = errors.New("unsupported frame type")

// Detection is the result of one frame: the selected region and the colours derived from it.
type Detection struct {
	// Contour holds the outer boundary of the region, as found by the contour pass.
	Contour []image.Point
	Box     image.Rectangle
	Center  image.Point
	Area    float64
	// Mean is the average frame colour inside the filled contour.
	Mean Color
	// Annotation is the complement of Mean, used for drawing.
	Annotation Color
}

// Detector defines the interface for frame detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the dominant region.
	// Returns nil if nothing qualifies; that is not an error.
	Detect(frame *gocv.Mat) (*Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// ColorDetector implements Detector with HSV thresholding and contour analysis.
// It keeps no state between frames besides its structuring element.
type ColorDetector struct {
	cfg    config.Detection
	kernel gocv.Mat
}

// NewColorDetector creates a ColorDetector for the given parameters.
func NewColorDetector(cfg config.Detection) (*ColorDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	size := cfg.Morph.KernelSize
	return &ColorDetector{
		cfg:    cfg,
		kernel: gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(size, size)),
	}, nil
}

// Config returns the detection parameters in use.
func (d *ColorDetector) Config() config.Detection {
	return d.cfg
}

// Mask runs the segmentation and cleanup stages and returns the cleaned mask.
// The caller is responsible for closing the returned Mat.
func (d *ColorDetector) Mask(frame gocv.Mat) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	raw := Segment(hsv, d.cfg.Target, d.cfg.Excluded)
	defer raw.Close()

	return cleanWithKernel(raw, d.kernel, d.cfg.Morph)
}

// Detect processes a frame.
//
// Algorithm:
// 1. Convert BGR to HSV
// 2. Mask target range minus excluded range
// 3. Open then dilate the mask
// 4. Take the outer contour with the greatest area, if it exceeds MinArea
// 5. Average the frame inside that contour and invert the result
func (d *ColorDetector) Detect(frame *gocv.Mat) (*Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}
	if frame.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("%w: want 8-bit BGR, got %d channels", ErrUnsupportedFrame, frame.Channels())
	}

	mask := d.Mask(*frame)
	defer mask.Close()

	contours, regions := FindRegions(mask)
	defer contours.Close()

	region, ok := SelectLargest(regions, d.cfg.MinArea)
	if !ok {
		return nil, nil
	}

	mean := MeanColor(*frame, contours, region.Index)

	return &Detection{
		Contour:    contours.At(region.Index).ToPoints(),
		Box:        region.Box,
		Center:     region.Center(),
		Area:       region.Area,
		Mean:       mean,
		Annotation: mean.Inverse(),
	}, nil
}

// Close releases the structuring element.
func (d *ColorDetector) Close() error {
	return d.kernel.Close()
}

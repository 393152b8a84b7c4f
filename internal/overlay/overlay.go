// Package overlay draws detection annotations onto frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/huetrack/internal/config"
	"github.com/ayusman/huetrack/internal/detector"
)

// Renderer draws detections with fixed line parameters.
type Renderer struct {
	cfg config.Overlay
}

// NewRenderer creates a Renderer. A non-positive thickness or a negative arm falls back to the default.
func NewRenderer(cfg config.Overlay) *Renderer {
	if cfg.LineThickness <= 0 {
		cfg.LineThickness = config.DefaultLineThickness
	}
	if cfg.CrossArm < 0 {
		cfg.CrossArm = config.DefaultCrossArm
	}
	return &Renderer{cfg: cfg}
}

// Draw annotates frame in place: contour outline, a cross at the box centre and the
// bounding rectangle, all in the detection's annotation colour. A nil detection draws nothing.
// Every stroke is drawn 8-connected without anti-aliasing, so each drawn pixel holds the exact colour.
func (r *Renderer) Draw(frame *gocv.Mat, det *detector.Detection) error {
	if frame == nil || frame.Empty() || det == nil {
		return nil
	}

	c := det.Annotation.RGBA()
	thickness := r.cfg.LineThickness

	if len(det.Contour) > 0 {
		contours := gocv.NewPointsVectorFromPoints([][]image.Point{det.Contour})
		err := gocv.DrawContours(frame, contours, -1, c, thickness)
		contours.Close()
		if err != nil {
			return fmt.Errorf("draw contour: %w", err)
		}
	}

	if err := DrawCross(frame, det.Center, r.cfg.CrossArm, c, thickness); err != nil {
		return err
	}

	if err := gocv.RectangleWithParams(frame, det.Box, c, thickness, gocv.Line8, 0); err != nil {
		return fmt.Errorf("draw rectangle: %w", err)
	}
	return nil
}

// DrawCross draws two perpendicular segments of half-length arm centred on center.
func DrawCross(frame *gocv.Mat, center image.Point, arm int, c color.RGBA, thickness int) error {
	if err := gocv.Line(frame, image.Pt(center.X-arm, center.Y), image.Pt(center.X+arm, center.Y), c, thickness); err != nil {
		return fmt.Errorf("draw cross: %w", err)
	}
	if err := gocv.Line(frame, image.Pt(center.X, center.Y-arm), image.Pt(center.X, center.Y+arm), c, thickness); err != nil {
		return fmt.Errorf("draw cross: %w", err)
	}
	return nil
}

package detector

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/huetrack/internal/config"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Region is a contour candidate: its position in the contour set, enclosed area and bounding box.
type Region struct {
	Index int
	Area  float64
	Box   image.Rectangle
}

// Center returns the centre of the bounding box, using integer division.
func (r Region) Center() image.Point {
	return BoxCenter(r.Box)
}

// BoxCenter returns (x + w/2, y + h/2) for a rectangle.
func BoxCenter(box image.Rectangle) image.Point {
	return image.Pt(box.Min.X+box.Dx()/2, box.Min.Y+box.Dy()/2)
}

func rangeScalars(r config.HSVRange) (gocv.Scalar, gocv.Scalar) {
	lower := gocv.NewScalar(float64(r.Lower.H), float64(r.Lower.S), float64(r.Lower.V), 0)
	upper := gocv.NewScalar(float64(r.Upper.H), float64(r.Upper.S), float64(r.Upper.V), 0)
	return lower, upper
}

// InRange returns a mask with 255 where the HSV frame falls inside r (bounds inclusive).
// The caller is responsible for closing the returned Mat.
func InRange(hsv gocv.Mat, r config.HSVRange) gocv.Mat {
	mask := gocv.NewMat()
	lower, upper := rangeScalars(r)
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)
	return mask
}

// Segment builds the detection mask for an HSV frame: pixels inside target AND NOT inside excluded.
// Identical ranges produce an empty mask.
// The caller is responsible for closing the returned Mat.
func Segment(hsv gocv.Mat, target, excluded config.HSVRange) gocv.Mat {
	targetMask := InRange(hsv, target)
	defer targetMask.Close()

	excludedMask := InRange(hsv, excluded)
	defer excludedMask.Close()

	notExcluded := gocv.NewMat()
	defer notExcluded.Close()
	gocv.BitwiseNot(excludedMask, &notExcluded)

	mask := gocv.NewMat()
	gocv.BitwiseAnd(targetMask, notExcluded, &mask)
	return mask
}

// Clean removes small noise blobs from a binary mask.
//
// Algorithm:
// 1. Opening (erode then dilate) with an elliptical kernel, OpenIterations times
// 2. Dilation with the same kernel, DilateIterations times
//
// The opening runs first so isolated pixels are gone before anything is enlarged.
// The caller is responsible for closing the returned Mat.
func Clean(mask gocv.Mat, m config.Morphology) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(m.KernelSize, m.KernelSize))
	defer kernel.Close()

	return cleanWithKernel(mask, kernel, m)
}

func cleanWithKernel(mask gocv.Mat, kernel gocv.Mat, m config.Morphology) gocv.Mat {
	opened := gocv.NewMat()
	if m.OpenIterations > 0 {
		gocv.MorphologyExWithParams(mask, &opened, gocv.MorphOpen, kernel, m.OpenIterations, gocv.BorderConstant)
	} else {
		mask.CopyTo(&opened)
	}

	if m.DilateIterations <= 0 {
		return opened
	}
	defer opened.Close()

	dilated := gocv.NewMat()
	gocv.MorphologyExWithParams(opened, &dilated, gocv.MorphDilate, kernel, m.DilateIterations, gocv.BorderConstant)
	return dilated
}

// FindRegions extracts the outer contours of a mask and describes each as a Region.
// The caller is responsible for closing the returned PointsVector; Region.Index refers into it.
func FindRegions(mask gocv.Mat) (gocv.PointsVector, []Region) {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)

	regions := make([]Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		regions = append(regions, Region{
			Index: i,
			Area:  gocv.ContourArea(contour),
			Box:   gocv.BoundingRect(contour),
		})
	}

	return contours, regions
}

// SelectLargest returns the region with the greatest area, provided that area exceeds minArea.
// Ties go to the region encountered first.
func SelectLargest(regions []Region, minArea float64) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}

	best := regions[0]
	for _, r := range regions[1:] {
		if r.Area > best.Area {
			best = r
		}
	}

	if best.Area <= minArea {
		return Region{}, false
	}
	return best, true
}

// MeanColor averages the frame over the filled interior of contours[index], boundary included.
// The frame is not modified.
func MeanColor(frame gocv.Mat, contours gocv.PointsVector, index int) Color {
	fill := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), frame.Rows(), frame.Cols(), gocv.MatTypeCV8U)
	defer fill.Close()

	gocv.DrawContours(&fill, contours, index, white, -1)

	return ColorFromScalar(frame.MeanWithMask(fill))
}

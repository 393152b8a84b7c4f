// Package config holds the tunable parameters of the huetrack annotator.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Default tunables, matching the values the annotator was calibrated with.
const (
	DefaultDeviceID      = 0
	DefaultMinArea       = 500.0
	DefaultKernelSize    = 5
	DefaultOpenIters     = 2
	DefaultDilateIters   = 1
	DefaultCrossArm      = 10
	DefaultLineThickness = 2
	DefaultWindowTitle   = "Contour Detection"
	DefaultQuitKey       = "q"
)

// HSVRange is an inclusive hue/saturation/value range in OpenCV units
// (hue 0-179, saturation and value 0-255).
type HSVRange struct {
	Lower HSV `json:"lower"`
	Upper HSV `json:"upper"`
}

// HSV is a single point in OpenCV HSV space.
type HSV struct {
	H int `json:"h"`
	S int `json:"s"`
	V int `json:"v"`
}

// Contains reports whether the given HSV triple falls inside the range, bounds inclusive.
func (r HSVRange) Contains(h, s, v int) bool {
	return h >= r.Lower.H && h <= r.Upper.H &&
		s >= r.Lower.S && s <= r.Upper.S &&
		v >= r.Lower.V && v <= r.Upper.V
}

// Validate checks channel bounds and lower <= upper on every channel.
func (r HSVRange) Validate() error {
	for _, p := range []HSV{r.Lower, r.Upper} {
		if p.H < 0 || p.H > 179 {
			return fmt.Errorf("%w: hue %d outside 0-179", ErrInvalidConfig, p.H)
		}
		if p.S < 0 || p.S > 255 {
			return fmt.Errorf("%w: saturation %d outside 0-255", ErrInvalidConfig, p.S)
		}
		if p.V < 0 || p.V > 255 {
			return fmt.Errorf("%w: value %d outside 0-255", ErrInvalidConfig, p.V)
		}
	}
	if r.Lower.H > r.Upper.H || r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
		return fmt.Errorf("%w: lower bound %+v exceeds upper bound %+v", ErrInvalidConfig, r.Lower, r.Upper)
	}
	return nil
}

// OrangeRange is the default target range.
func OrangeRange() HSVRange {
	return HSVRange{Lower: HSV{H: 5, S: 100, V: 100}, Upper: HSV{H: 15, S: 255, V: 255}}
}

// SkinRange is the default excluded range. Skin tones overlap the orange band.
func SkinRange() HSVRange {
	return HSVRange{Lower: HSV{H: 0, S: 30, V: 60}, Upper: HSV{H: 20, S: 150, V: 255}}
}

// Morphology configures the mask cleanup stage.
type Morphology struct {
	// KernelSize is the width and height of the elliptical structuring element.
	KernelSize int `json:"kernel_size"`
	// OpenIterations is passed to the opening as its iteration count.
	OpenIterations int `json:"open_iterations"`
	// DilateIterations is the iteration count of the dilation that follows the opening.
	DilateIterations int `json:"dilate_iterations"`
}

// Detection groups the parameters of the segmentation and selection stages.
type Detection struct {
	Target   HSVRange   `json:"target"`
	Excluded HSVRange   `json:"excluded"`
	Morph    Morphology `json:"morphology"`
	// MinArea is the contour area a region must exceed to count as a detection.
	MinArea float64 `json:"min_area"`
}

// Overlay configures annotation drawing.
type Overlay struct {
	CrossArm      int `json:"cross_arm"`
	LineThickness int `json:"line_thickness"`
}

// Config is the full annotator configuration.
type Config struct {
	DeviceID    int       `json:"device_id"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	WindowTitle string    `json:"window_title"`
	QuitKey     string    `json:"quit_key"`
	Detection   Detection `json:"detection"`
	Overlay     Overlay   `json:"overlay"`
}

// DefaultDetection returns the detection parameters with their calibrated defaults.
func DefaultDetection() Detection {
	return Detection{
		Target:   OrangeRange(),
		Excluded: SkinRange(),
		Morph: Morphology{
			KernelSize:       DefaultKernelSize,
			OpenIterations:   DefaultOpenIters,
			DilateIterations: DefaultDilateIters,
		},
		MinArea: DefaultMinArea,
	}
}

// DefaultOverlay returns the default drawing parameters.
func DefaultOverlay() Overlay {
	return Overlay{
		CrossArm:      DefaultCrossArm,
		LineThickness: DefaultLineThickness,
	}
}

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		DeviceID:    DefaultDeviceID,
		WindowTitle: DefaultWindowTitle,
		QuitKey:     DefaultQuitKey,
		Detection:   DefaultDetection(),
		Overlay:     DefaultOverlay(),
	}
}

// Load reads a JSON config file on top of the defaults.
// Fields absent from the file keep their default values; unknown fields are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every tunable.
func (c Config) Validate() error {
	if c.DeviceID < 0 {
		return fmt.Errorf("%w: device id %d", ErrInvalidConfig, c.DeviceID)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if len(c.QuitKey) != 1 {
		return fmt.Errorf("%w: quit key must be a single character, got %q", ErrInvalidConfig, c.QuitKey)
	}
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	if c.Overlay.CrossArm < 0 {
		return fmt.Errorf("%w: cross arm %d", ErrInvalidConfig, c.Overlay.CrossArm)
	}
	if c.Overlay.LineThickness <= 0 {
		return fmt.Errorf("%w: line thickness %d", ErrInvalidConfig, c.Overlay.LineThickness)
	}
	return nil
}

// Validate checks the detection parameters.
func (d Detection) Validate() error {
	if err := d.Target.Validate(); err != nil {
		return fmt.Errorf("target range: %w", err)
	}
	if err := d.Excluded.Validate(); err != nil {
		return fmt.Errorf("excluded range: %w", err)
	}
	if d.Morph.KernelSize <= 0 {
		return fmt.Errorf("%w: kernel size %d", ErrInvalidConfig, d.Morph.KernelSize)
	}
	if d.Morph.OpenIterations < 0 || d.Morph.DilateIterations < 0 {
		return fmt.Errorf("%w: negative morphology iterations", ErrInvalidConfig)
	}
	if d.MinArea < 0 {
		return fmt.Errorf("%w: min area %f", ErrInvalidConfig, d.MinArea)
	}
	return nil
}

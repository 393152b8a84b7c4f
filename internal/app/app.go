// Package app provides the main application logic for the huetrack colour annotator.
package app

import (
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/huetrack/internal/capture"
	"github.com/ayusman/huetrack/internal/config"
	"github.com/ayusman/huetrack/internal/detector"
	"github.com/ayusman/huetrack/internal/display"
	"github.com/ayusman/huetrack/internal/overlay"
	"github.com/ayusman/huetrack/internal/store"
)

// Publisher receives every displayed frame along with its detection (nil when none).
// Publish is called on the pipeline goroutine and must not retain frame.
type Publisher interface {
	Publish(frame gocv.Mat, frameNo int, det *detector.Detection)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(frame gocv.Mat, frameNo int, det *detector.Detection)

// Publish calls f.
func (f PublisherFunc) Publish(frame gocv.Mat, frameNo int, det *detector.Detection) {
	f(frame, frameNo, det)
}

// Config holds configuration options for the application.
// Nil components are replaced with their defaults in New.
type Config struct {
	Annotator config.Config
	Store     *store.Store
	Camera    capture.Camera
	Detector  detector.Detector
	Surface   display.Surface
	// Verbose logs every detection.
	Verbose bool
}

// Stats counts the frames seen by the last or current run.
type Stats struct {
	Frames     int
	Detections int
}

// App reads frames, annotates the dominant target-coloured region and shows the result.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	renderer   *overlay.Renderer
	surface    display.Surface
	publishers []Publisher
	enabled    bool
	stats      Stats
	mu         sync.RWMutex
}

// New creates a new App instance with the given configuration.
func New(cfg Config) (*App, error) {
	if cfg.Annotator == (config.Config{}) {
		cfg.Annotator = config.Default()
	}
	if err := cfg.Annotator.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config:   cfg,
		camera:   cfg.Camera,
		detector: cfg.Detector,
		renderer: overlay.NewRenderer(cfg.Annotator.Overlay),
		surface:  cfg.Surface,
		enabled:  true,
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.Annotator.DeviceID, cfg.Annotator.Width, cfg.Annotator.Height)
	}

	if a.detector == nil {
		d, err := detector.NewColorDetector(cfg.Annotator.Detection)
		if err != nil {
			return nil, err
		}
		a.detector = d
	}

	if a.surface == nil {
		a.surface = display.NewHeadless()
	}

	return a, nil
}

// AddPublisher registers a Publisher. Call before Run.
func (a *App) AddPublisher(p Publisher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.publishers = append(a.publishers, p)
}

// SetEnabled enables or disables annotation. Disabled frames are still displayed.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether annotation is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Stats returns the counters of the current or last run.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// ProcessFrame detects the dominant region in frame and draws its annotation in place.
// It returns nil without touching the frame when annotation is disabled or nothing qualifies.
// A drawing failure is returned together with the detection.
func (a *App) ProcessFrame(frame *gocv.Mat) (*detector.Detection, error) {
	if !a.IsEnabled() {
		return nil, nil
	}

	det, err := a.detector.Detect(frame)
	if err != nil {
		return nil, err
	}

	if err := a.renderer.Draw(frame, det); err != nil {
		return det, fmt.Errorf("annotate: %w", err)
	}
	return det, nil
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Close releases the detector.
func (a *App) Close() error {
	if a.detector == nil {
		return nil
	}
	if err := a.detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
		return err
	}
	return nil
}

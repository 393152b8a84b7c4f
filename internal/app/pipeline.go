package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"github.com/ayusman/huetrack/internal/detector"
	"github.com/ayusman/huetrack/internal/store"
)

// Run is the main loop. It opens the camera, then for each frame:
// 1. Read a frame (blocking)
// 2. Detect and annotate the dominant region
// 3. Show the frame, then hand it to publishers and the journal
// 4. Stop if the surface saw the quit key
//
// Run returns nil on a user-requested stop or context cancellation. A camera that
// cannot be opened or a failed read ends the run with an error wrapping
// capture.ErrDeviceUnavailable or capture.ErrFrameUnavailable. The camera and the
// display surface are released on every path.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.surface.Close(); err != nil {
			log.Printf("Error closing display: %v", err)
		}
	}()

	if err := a.camera.Open(); err != nil {
		return err
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
		log.Println("Camera released")
	}()
	log.Printf("Camera %d opened", a.config.Annotator.DeviceID)

	a.mu.Lock()
	a.stats = Stats{}
	a.mu.Unlock()

	sessionID := a.startSession()
	defer a.finishSession(sessionID)

	for frameNo := 1; ; frameNo++ {
		select {
		case <-ctx.Done():
			log.Println("Pipeline cancelled")
			return nil
		default:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			log.Printf("Failed to read frame %d: %v", frameNo, err)
			return fmt.Errorf("frame %d: %w", frameNo, err)
		}

		err = a.step(frame, frameNo, sessionID)
		frame.Close()
		if err != nil {
			return err
		}

		if a.surface.QuitRequested() {
			log.Println("Quit requested")
			return nil
		}
	}
}

// step handles one frame. The caller owns and closes frame.
func (a *App) step(frame *gocv.Mat, frameNo int, sessionID string) error {
	det, err := a.ProcessFrame(frame)
	if err != nil {
		// The frame is still shown.
		log.Printf("Error processing frame %d: %v", frameNo, err)
	}

	if err := a.surface.Show(*frame); err != nil {
		return fmt.Errorf("show frame %d: %w", frameNo, err)
	}

	a.mu.Lock()
	a.stats.Frames++
	if det != nil {
		a.stats.Detections++
	}
	publishers := a.publishers
	a.mu.Unlock()

	for _, p := range publishers {
		p.Publish(*frame, frameNo, det)
	}

	if det == nil {
		return nil
	}

	if a.config.Verbose {
		log.Printf("Frame %d: region %v area %.0f, mean %s, annotation %s",
			frameNo, det.Box, det.Area, det.Mean.Hex(), det.Annotation.Hex())
	}

	a.record(sessionID, frameNo, det)
	return nil
}

// startSession opens a journal session, returning "" when there is no store or it fails.
func (a *App) startSession() string {
	if a.config.Store == nil {
		return ""
	}

	cfgJSON, err := json.Marshal(a.config.Annotator)
	if err != nil {
		cfgJSON = []byte("{}")
	}

	sess, err := a.config.Store.Sessions().Start(a.config.Annotator.DeviceID, string(cfgJSON))
	if err != nil {
		log.Printf("Error starting journal session: %v", err)
		return ""
	}

	log.Printf("Journal session %s started", sess.ID)
	return sess.ID
}

func (a *App) finishSession(sessionID string) {
	if sessionID == "" {
		return
	}

	stats := a.Stats()
	if err := a.config.Store.Sessions().Finish(sessionID, stats.Frames, stats.Detections); err != nil {
		log.Printf("Error finishing journal session: %v", err)
	}
}

// record journals a detection. Failures are logged and do not stop the pipeline.
func (a *App) record(sessionID string, frameNo int, det *detector.Detection) {
	if sessionID == "" {
		return
	}

	row := &store.Detection{
		SessionID:       sessionID,
		Frame:           frameNo,
		X:               det.Box.Min.X,
		Y:               det.Box.Min.Y,
		Width:           det.Box.Dx(),
		Height:          det.Box.Dy(),
		CenterX:         det.Center.X,
		CenterY:         det.Center.Y,
		Area:            det.Area,
		MeanColor:       det.Mean.Hex(),
		AnnotationColor: det.Annotation.Hex(),
	}

	if err := a.config.Store.Detections().Create(row); err != nil {
		log.Printf("Error journaling frame %d: %v", frameNo, err)
	}
}

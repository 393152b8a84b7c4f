// Package display provides output surfaces for annotated frames.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// KeyPollMillis is how long Window waits for a key press after each frame.
const KeyPollMillis = 1

// Surface receives annotated frames and reports user-requested quits.
type Surface interface {
	// Show presents a frame. The surface does not take ownership of it.
	Show(frame gocv.Mat) error
	// QuitRequested reports whether the user asked to stop.
	QuitRequested() bool
	// Close releases the surface.
	Close() error
}

// Window shows frames in a HighGUI window and polls for the quit key.
type Window struct {
	window  *gocv.Window
	quitKey int
	quit    bool
}

// NewWindow opens a HighGUI window with the given title.
// quitKey is the key that latches QuitRequested.
func NewWindow(title string, quitKey byte) *Window {
	return &Window{
		window:  gocv.NewWindow(title),
		quitKey: int(quitKey),
	}
}

// Show displays the frame and polls the keyboard for KeyPollMillis.
func (w *Window) Show(frame gocv.Mat) error {
	w.window.IMShow(frame)
	if key := w.window.WaitKey(KeyPollMillis); key >= 0 && key&0xFF == w.quitKey {
		w.quit = true
	}
	return nil
}

// QuitRequested reports whether the quit key has been pressed.
func (w *Window) QuitRequested() bool {
	return w.quit
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}

// Headless discards frames. It never requests a quit on its own.
type Headless struct{}

// NewHeadless returns a surface that displays nothing.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Show(frame gocv.Mat) error { return nil }
func (h *Headless) QuitRequested() bool       { return false }
func (h *Headless) Close() error              { return nil }

// Recorder keeps a clone of every frame shown, for tests and snapshots.
type Recorder struct {
	frames []gocv.Mat
	quitAt int
	closed bool
	mu     sync.Mutex
}

// NewRecorder returns a Recorder. If quitAfter > 0, QuitRequested turns true once that many frames were shown.
func NewRecorder(quitAfter int) *Recorder {
	return &Recorder{quitAt: quitAfter}
}

func (r *Recorder) Show(frame gocv.Mat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame.Clone())
	return nil
}

func (r *Recorder) QuitRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quitAt > 0 && len(r.frames) >= r.quitAt
}

// Close marks the recorder closed. Recorded frames stay available until Release.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Frames returns the recorded frames. They remain owned by the recorder.
func (r *Recorder) Frames() []gocv.Mat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Release closes all recorded frames.
func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.frames {
		r.frames[i].Close()
	}
	r.frames = nil
}

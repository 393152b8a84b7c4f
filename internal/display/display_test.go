package display

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestHeadless(t *testing.T) {
	h := NewHeadless()

	frame := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if err := h.Show(frame); err != nil {
		t.Errorf("Show() error = %v", err)
	}
	if h.QuitRequested() {
		t.Error("headless surface should never request quit")
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(2)
	defer r.Release()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer frame.Close()

	r.Show(frame)
	if r.QuitRequested() {
		t.Error("QuitRequested() should be false after one frame")
	}

	// Recorded frames are clones.
	frame.SetTo(gocv.NewScalar(0, 0, 0, 0))
	if v := r.Frames()[0].GetVecbAt(0, 0); v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("recorded frame changed with source: %v", v)
	}

	r.Show(frame)
	if !r.QuitRequested() {
		t.Error("QuitRequested() should be true after two frames")
	}

	r.Close()
	if !r.Closed() {
		t.Error("Closed() should be true after Close()")
	}
	if len(r.Frames()) != 2 {
		t.Errorf("len(Frames()) = %d, want 2", len(r.Frames()))
	}
}

func TestRecorder_NoQuit(t *testing.T) {
	r := NewRecorder(0)
	defer r.Release()

	frame := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 5; i++ {
		r.Show(frame)
	}
	if r.QuitRequested() {
		t.Error("recorder with quitAfter 0 should never request quit")
	}
}

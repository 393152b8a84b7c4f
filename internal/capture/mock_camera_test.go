package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	// Third read should fail (no loop)
	_, err := cam.ReadFrame()
	if !errors.Is(err, ErrFrameUnavailable) {
		t.Errorf("ReadFrame() error = %v, want ErrFrameUnavailable", err)
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_ReturnsClones(t *testing.T) {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, false)
	cam.Open()
	defer cam.Close()

	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer f.Close()

	f.SetTo(gocv.NewScalar(0, 0, 0, 0))

	if got := frame.GetVecbAt(0, 0); got[0] != 10 || got[1] != 20 || got[2] != 30 {
		t.Errorf("source frame modified through clone: %v", got)
	}
}

func TestMockCamera_FailOpen(t *testing.T) {
	cam := NewMockCamera(nil, false)
	cam.FailOpen()

	if err := cam.Open(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("Open() error = %v, want ErrDeviceUnavailable", err)
	}
	if cam.IsOpen() {
		t.Error("camera should not be open after failed Open()")
	}
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestMockCamera_CloseCounts(t *testing.T) {
	cam := NewMockCamera(nil, false)
	cam.Open()
	cam.Close()
	cam.Close()

	if cam.Opens() != 1 {
		t.Errorf("Opens() = %d, want 1", cam.Opens())
	}
	if cam.Closes() != 1 {
		t.Errorf("Closes() = %d, want 1", cam.Closes())
	}
}

func TestMockCamera_Reset(t *testing.T) {
	first := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 1, 1, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer first.Close()
	second := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(2, 2, 2, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer second.Close()

	cam := NewMockCamera([]*gocv.Mat{&first, &second}, false)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrFrameUnavailable) {
		t.Fatalf("ReadFrame() error = %v, want ErrFrameUnavailable before Reset", err)
	}

	cam.Reset()

	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after Reset error = %v", err)
	}
	defer f.Close()

	if got := f.GetVecbAt(0, 0); got[0] != 1 {
		t.Errorf("first frame after Reset = %v, want the first recorded frame", got)
	}
}

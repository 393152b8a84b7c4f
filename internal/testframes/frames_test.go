package testframes

import (
	"image"
	"testing"
)

func TestFillRect_Solid(t *testing.T) {
	frame := New(60, 40, Neutral)
	defer frame.Close()

	FillRect(&frame, image.Rect(10, 5, 40, 35), Orange)

	orange := [3]uint8{0, 85, 255}
	if got, want := CountColor(frame, orange), 30*30; got != want {
		t.Errorf("orange pixels = %d, want %d", got, want)
	}
	if got, want := CountColor(frame, [3]uint8{128, 128, 128}), 60*40-30*30; got != want {
		t.Errorf("background pixels = %d, want %d", got, want)
	}

	tests := []struct {
		name string
		x, y int
		want [3]uint8
	}{
		{"top-left corner inside", 10, 5, orange},
		{"bottom-right corner inside", 39, 34, orange},
		{"left of the rectangle", 9, 20, [3]uint8{128, 128, 128}},
		{"past the exclusive max", 40, 35, [3]uint8{128, 128, 128}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pixel(frame, tt.x, tt.y); got != tt.want {
				t.Errorf("Pixel(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestFillCircle_NoBlending(t *testing.T) {
	frame := New(50, 50, Neutral)
	defer frame.Close()

	FillCircle(&frame, image.Pt(25, 25), 10, Orange)

	orange := CountColor(frame, [3]uint8{0, 85, 255})
	neutral := CountColor(frame, [3]uint8{128, 128, 128})
	if orange == 0 {
		t.Fatal("circle not drawn")
	}
	if orange+neutral != 50*50 {
		t.Errorf("%d pixels are blended", 50*50-orange-neutral)
	}
}

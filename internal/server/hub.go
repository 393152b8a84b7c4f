package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/huetrack/internal/detector"
)

// subscriberBuffer is how many detection messages a slow websocket client may lag behind
// before messages to it are dropped.
const subscriberBuffer = 16

// DetectionMessage is the JSON pushed to /api/live clients for every detection.
type DetectionMessage struct {
	Frame           int     `json:"frame"`
	X               int     `json:"x"`
	Y               int     `json:"y"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	CenterX         int     `json:"center_x"`
	CenterY         int     `json:"center_y"`
	Area            float64 `json:"area"`
	MeanColor       string  `json:"mean_color"`
	AnnotationColor string  `json:"annotation_color"`
	Timestamp       int64   `json:"timestamp"`
}

// NewDetectionMessage converts a detection of the given frame.
func NewDetectionMessage(frameNo int, det *detector.Detection) DetectionMessage {
	return DetectionMessage{
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
		Timestamp:       time.Now().UnixMilli(),
	}
}

// Hub sits between the pipeline and HTTP clients. The pipeline publishes into it and
// never waits on a client; stream and websocket handlers read from it.
type Hub struct {
	mu          sync.Mutex
	jpeg        []byte
	frameNo     int
	notify      chan struct{}
	viewers     int
	subscribers map[chan []byte]struct{}
	last        *DetectionMessage
	closed      bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		notify:      make(chan struct{}),
		subscribers: make(map[chan []byte]struct{}),
	}
}

// Publish records an annotated frame and its detection (nil when none).
// The frame is JPEG-encoded only while at least one stream viewer is connected.
func (h *Hub) Publish(frame gocv.Mat, frameNo int, det *detector.Detection) {
	h.mu.Lock()
	viewers := h.viewers
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return
	}

	var data []byte
	if viewers > 0 && !frame.Empty() {
		buf, err := gocv.IMEncode(".jpg", frame)
		if err != nil {
			log.Printf("Error encoding frame %d: %v", frameNo, err)
		} else {
			data = append([]byte(nil), buf.GetBytes()...)
			buf.Close()
		}
	}

	var msg []byte
	var dm DetectionMessage
	if det != nil {
		dm = NewDetectionMessage(frameNo, det)
		var err error
		if msg, err = json.Marshal(dm); err != nil {
			log.Printf("Error encoding detection %d: %v", frameNo, err)
			msg = nil
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	if data != nil {
		h.jpeg = data
		h.frameNo = frameNo
		close(h.notify)
		h.notify = make(chan struct{})
	}

	if msg == nil {
		return
	}
	h.last = &dm
	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Frame returns the latest encoded frame, its number and a channel closed on the next update.
// The returned bytes must not be modified.
func (h *Hub) Frame() ([]byte, int, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.jpeg, h.frameNo, h.notify
}

// AddViewer registers a stream viewer and returns the function that removes it.
func (h *Hub) AddViewer() func() {
	h.mu.Lock()
	h.viewers++
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			h.viewers--
			h.mu.Unlock()
		})
	}
}

// Viewers returns the number of connected stream viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers
}

// Subscribe returns a channel of JSON-encoded DetectionMessages and the function that
// unsubscribes it. The channel is closed on unsubscribe or when the hub closes.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		close(ch)
		h.mu.Unlock()
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
}

// LastDetection returns the most recent detection message, or nil.
func (h *Hub) LastDetection() *DetectionMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return nil
	}
	dm := *h.last
	return &dm
}

// Close wakes all stream viewers and closes every subscription. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.notify)
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// Closed reports whether Close was called.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

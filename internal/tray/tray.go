// Package tray provides a system tray control surface for huetrack.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"gocv.io/x/gocv"

	"github.com/ayusman/huetrack/internal/detector"
)

const (
	titleAnnotating = "● Annotating"
	titlePaused     = "○ Paused"
	lastNone        = "Last: none"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(enabled bool)
	onPreview func()
	onQuit    func()
	enabled   bool
	last      string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	ready      chan struct{}
	readyOnce  sync.Once
}

// New creates a new Tray instance with annotation enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		ready:   make(chan struct{}),
	}
}

// OnToggle sets the callback function to be called when annotation is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPreview sets the callback function to be called when the preview menu item is clicked.
func (t *Tray) OnPreview(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreview = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Ready is closed once the menu is built. Quit must not be called before that.
func (t *Tray) Ready() <-chan struct{} {
	return t.ready
}

func (t *Tray) markReady() {
	t.readyOnce.Do(func() {
		close(t.ready)
	})
}

// Quit closes the tray, making Run return. Call it only after Ready is closed.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("huetrack")
	systray.SetTooltip("huetrack colour annotator")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume annotation")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Annotation colour of the last detection")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuPreview := systray.AddMenuItem("Open Preview...", "Show the preview server address")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit huetrack")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuPreview.ClickedCh:
				t.handlePreview()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	t.markReady()
}

func (t *Tray) onExit() {}

// Toggle flips the annotation state and reports it to the toggle callback.
func (t *Tray) Toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handlePreview handles the preview menu item click.
func (t *Tray) handlePreview() {
	t.mu.RLock()
	callback := t.onPreview
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Publish shows the annotation colour of each detection in the menu.
// Frames without a detection leave the last value in place.
func (t *Tray) Publish(frame gocv.Mat, frameNo int, det *detector.Detection) {
	if det == nil {
		return
	}
	t.SetLast(det.Annotation)
}

// SetLast updates the last detection display in the menu.
func (t *Tray) SetLast(c detector.Color) {
	hex := c.Hex()

	t.mu.Lock()
	defer t.mu.Unlock()

	if hex == t.last {
		return
	}
	t.last = hex
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(hex))
	}
}

// Last returns the hex annotation colour shown in the menu, or "" before any detection.
func (t *Tray) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return titleAnnotating
	}
	return titlePaused
}

func lastTitle(hex string) string {
	if hex == "" {
		return lastNone
	}
	return "Last: " + hex
}

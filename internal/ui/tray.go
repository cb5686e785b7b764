// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     ui
// Description: System tray status indicator (fyne.io/systray)
// License:     MIT
// ============================================================================

package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"fyne.io/systray"

	"voicekey/internal/controller"
)

// Callbacks holds the tray menu actions
type Callbacks struct {
	// OnToggle starts or stops a dictation recording
	OnToggle func()

	// OnCommand starts a command-mode recording
	OnCommand func()

	// OnQuit shuts the application down
	OnQuit func()
}

// Tray shows the recording state in the system tray. It implements
// controller.Observer; every state change recolors the icon.
type Tray struct {
	cb Callbacks

	menuStatus  *systray.MenuItem
	menuToggle  *systray.MenuItem
	menuCommand *systray.MenuItem
	menuQuit    *systray.MenuItem
}

// NewTray creates the tray indicator
func NewTray(cb Callbacks) *Tray {
	return &Tray{cb: cb}
}

// Run starts the tray loop. Blocking; call from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and unblocks Run
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetIcon(dotIcon(stateColor(controller.StateIdle)))
	systray.SetTooltip("voicekey")

	t.menuStatus = systray.AddMenuItem("Status: idle", "Current recording state")
	t.menuStatus.Disable()

	systray.AddSeparator()

	t.menuToggle = systray.AddMenuItem("Toggle dictation", "Start or stop recording")
	t.menuCommand = systray.AddMenuItem("Voice command", "Record a voice command")

	systray.AddSeparator()

	t.menuQuit = systray.AddMenuItem("Quit", "Exit voicekey")

	go t.handleClicks()
}

func (t *Tray) handleClicks() {
	for {
		select {
		case <-t.menuToggle.ClickedCh:
			if t.cb.OnToggle != nil {
				t.cb.OnToggle()
			}
		case <-t.menuCommand.ClickedCh:
			if t.cb.OnCommand != nil {
				t.cb.OnCommand()
			}
		case <-t.menuQuit.ClickedCh:
			if t.cb.OnQuit != nil {
				t.cb.OnQuit()
			}
			systray.Quit()
			return
		}
	}
}

func (t *Tray) onExit() {}

// StateChanged implements controller.Observer. Error reasons show up in
// the status line even when the state itself did not move.
func (t *Tray) StateChanged(from, to controller.State, reason string) {
	systray.SetIcon(dotIcon(stateColor(to)))
	if t.menuStatus == nil {
		return
	}
	title := "Status: " + to.String()
	if reason != "" && reason != "cancelled" {
		title += " (" + reason + ")"
	}
	t.menuStatus.SetTitle(title)
}

func stateColor(s controller.State) color.RGBA {
	switch s {
	case controller.StateRecording:
		return color.RGBA{255, 59, 48, 255} // red
	case controller.StateProcessing:
		return color.RGBA{0, 122, 255, 255} // blue
	case controller.StateModelLoading:
		return color.RGBA{255, 149, 0, 255} // orange
	case controller.StateCancelled:
		return color.RGBA{128, 128, 128, 255} // gray
	default:
		return color.RGBA{255, 255, 255, 255} // white
	}
}

// dotIcon renders a filled circle as a PNG, sized for retina menubars
func dotIcon(c color.RGBA) []byte {
	const size = 22
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	cx, cy := size/2, size/2
	r := size/2 - 3
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

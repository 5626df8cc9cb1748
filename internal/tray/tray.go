// Package tray shows recognition state in the system tray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/letsfight/internal/action"
)

// Tray is the system tray menu. Callbacks run on the menu goroutine.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	last        action.Result
	mu          sync.RWMutex

	menuToggle *systray.MenuItem
	menuAction *systray.MenuItem
}

// New creates a Tray reflecting the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		last:    action.Result{Action: action.Idle},
	}
}

// OnToggle sets the callback invoked when recognition is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback invoked by "Open Dashboard...".
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback invoked before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run blocks until Quit is selected.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Tray) onReady() {
	systray.SetTitle("LetsFight")
	systray.SetTooltip("LetsFight action recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle action recognition")
	systray.AddSeparator()
	t.menuAction = systray.AddMenuItem(ActionLabel(t.last), "Current action")
	t.menuAction.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit LetsFight")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.toggle()
			case <-menuDashboard.ClickedCh:
				t.mu.RLock()
				fn := t.onDashboard
				t.mu.RUnlock()
				if fn != nil {
					fn()
				}
			case <-menuQuit.ClickedCh:
				t.Quit()
				return
			}
		}
	}()
}

// toggle flips the enabled state and notifies the toggle callback.
func (t *Tray) toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock: the callback may call back into the tray.
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) quit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetAction records r. The menu is retitled only when the action changes.
func (t *Tray) SetAction(r action.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r.Action == t.last.Action {
		t.last = r
		return
	}
	t.last = r
	if t.menuAction != nil {
		t.menuAction.SetTitle(ActionLabel(r))
	}
}

// Action returns the last action passed to SetAction.
func (t *Tray) Action() action.Result {
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

// ActionLabel formats a result for the menu, e.g. "Action: GUARD (85%)".
func ActionLabel(r action.Result) string {
	if r.Action == action.Idle {
		return "Action: IDLE"
	}
	return fmt.Sprintf("Action: %s (%.0f%%)", r.Action, r.Confidence*100)
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

// Quit runs the quit callback and ends Run.
func (t *Tray) Quit() {
	t.quit()
	systray.Quit()
}

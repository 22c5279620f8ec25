// Package ui puts transport and history controls for the running editor in
// the system tray.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/cutline/cutline-studio/internal/playback"
	"github.com/cutline/cutline-studio/internal/studio"
	"github.com/cutline/cutline-studio/internal/timeline"
)

// Editor is the part of the session the tray drives.
type Editor interface {
	Playback() playback.State
	TogglePlay() bool
	Stop()
	Undo() bool
	Redo() bool
	CanUndo() bool
	CanRedo() bool
	Subscribe(fn func(studio.Event)) func()
}

type Tray struct {
	editor Editor
	logger *slog.Logger

	statusItem *systray.MenuItem
	playItem   *systray.MenuItem
	stopItem   *systray.MenuItem
	undoItem   *systray.MenuItem
	redoItem   *systray.MenuItem

	mu          sync.Mutex
	shown       menuState
	ready       bool
	unsubscribe func()

	onQuit func()
}

type TrayConfig struct {
	Editor Editor
	Logger *slog.Logger
	OnQuit func()
}

// menuState is everything the menu displays. The tray only touches systray
// when it changes; playback events arrive ten times a second.
type menuState struct {
	status    string
	playTitle string
	canUndo   bool
	canRedo   bool
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		editor: cfg.Editor,
		logger: cfg.Logger,
		onQuit: cfg.OnQuit,
	}
}

// Run blocks until Quit is called. It must be called from the main
// goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Cutline")
	systray.SetTooltip("Cutline Studio")

	t.statusItem = systray.AddMenuItem(statusTitle(playback.State{}), "Playhead position")
	t.statusItem.Disable()

	systray.AddSeparator()

	t.playItem = systray.AddMenuItem("Play", "Start or pause playback")
	t.stopItem = systray.AddMenuItem("Stop", "Stop and rewind")

	systray.AddSeparator()

	t.undoItem = systray.AddMenuItem("Undo", "Undo the last edit")
	t.redoItem = systray.AddMenuItem("Redo", "Redo the last undone edit")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cutline Studio")

	t.mu.Lock()
	t.ready = true
	t.mu.Unlock()

	t.refresh()
	t.unsubscribe = t.editor.Subscribe(func(studio.Event) { t.refresh() })

	go func() {
		for {
			select {
			case <-t.playItem.ClickedCh:
				t.editor.TogglePlay()
			case <-t.stopItem.ClickedCh:
				t.editor.Stop()
			case <-t.undoItem.ClickedCh:
				if !t.editor.Undo() {
					t.logger.Debug("nothing to undo")
				}
			case <-t.redoItem.ClickedCh:
				if !t.editor.Redo() {
					t.logger.Debug("nothing to redo")
				}
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
	t.logger.Info("system tray exiting")
}

func (t *Tray) snapshot() menuState {
	st := t.editor.Playback()
	return menuState{
		status:    statusTitle(st),
		playTitle: playTitle(st),
		canUndo:   t.editor.CanUndo(),
		canRedo:   t.editor.CanRedo(),
	}
}

// refresh re-reads the editor and applies whatever changed since the last
// call.
func (t *Tray) refresh() {
	next := t.snapshot()

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}
	prev := t.shown
	first := prev == menuState{}
	t.shown = next

	if first || next.status != prev.status {
		t.statusItem.SetTitle(next.status)
	}
	if first || next.playTitle != prev.playTitle {
		t.playItem.SetTitle(next.playTitle)
	}
	if first || next.canUndo != prev.canUndo {
		setEnabled(t.undoItem, next.canUndo)
	}
	if first || next.canRedo != prev.canRedo {
		setEnabled(t.redoItem, next.canRedo)
	}
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func statusTitle(st playback.State) string {
	return fmt.Sprintf("%s / %s", timeline.FormatTime(st.CurrentTime), timeline.FormatTime(st.Duration))
}

func playTitle(st playback.State) string {
	if st.Playing {
		return "Pause"
	}
	return "Play"
}

func (t *Tray) Quit() {
	systray.Quit()
}

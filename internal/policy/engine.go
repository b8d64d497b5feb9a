// Package policy decides where new tabs go, which tab is activated after the
// active one closes, and whether popup windows become tabs. Every handler
// runs through a single serializer so their effects never interleave.
package policy

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgnsrekt/taborder/internal/history"
	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/journal"
	"github.com/dgnsrekt/taborder/internal/popups"
	"github.com/dgnsrekt/taborder/internal/serializer"
	"github.com/dgnsrekt/taborder/internal/session"
	"github.com/dgnsrekt/taborder/internal/settings"
	"github.com/dgnsrekt/taborder/internal/tabindex"
)

// ErrUnknownWindow is returned by the read accessors for windows with no
// session state.
var ErrUnknownWindow = errors.New("policy: window not tracked")

// Settings is the subset of the settings store the engine reads and writes.
type Settings interface {
	OpenMode() settings.OpenMode
	CloseMode() settings.CloseMode
	PopupPolicy() settings.PopupPolicy
	SetOpenMode(settings.OpenMode) error
	SetCloseMode(settings.CloseMode) error
}

// Dispatcher queues handler tasks. serializer.Serializer implements it.
type Dispatcher interface {
	Dispatch(name string, fn serializer.Task)
}

// Recorder receives every host mutation the engine issues.
type Recorder interface {
	Record(d journal.Decision)
}

// pendingActivation marks a tab the engine itself asked the host to
// activate. Until the matching activation event arrives, other activations in
// the same window are the host's default choice and are ignored.
type pendingActivation struct {
	windowID int
	tabID    int
}

// Engine owns all policy state. Fields other than the dependencies are only
// touched from serializer tasks.
type Engine struct {
	host     host.Host
	settings Settings
	store    *session.Store
	popups   *popups.Registry
	queue    Dispatcher
	journal  Recorder

	sessionID string
	pending   *pendingActivation
}

// New builds an engine. journal may be nil.
func New(h host.Host, s Settings, store *session.Store, queue Dispatcher, rec Recorder) *Engine {
	return &Engine{
		host:     h,
		settings: s,
		store:    store,
		popups:   popups.NewRegistry(store),
		queue:    queue,
		journal:  rec,
	}
}

// Deliver queues the handler for evt. It never blocks.
func (e *Engine) Deliver(evt host.Event) {
	switch ev := evt.(type) {
	case host.SessionStarted:
		e.dispatch(evt, func(ctx context.Context) error { return e.onSessionStarted(ctx, ev) })
	case host.Installed:
		if ev.Reason != host.InstallReasonInstall {
			return
		}
		e.dispatch(evt, e.onInstalled)
	case host.WindowCreated:
		e.dispatch(evt, func(context.Context) error { return e.onWindowCreated(ev.Window) })
	case host.WindowRemoved:
		e.dispatch(evt, func(context.Context) error { return e.onWindowRemoved(ev) })
	case host.TabCreated:
		e.dispatch(evt, func(ctx context.Context) error { return e.onTabCreated(ctx, ev.Tab) })
	case host.TabAttached:
		e.dispatch(evt, func(ctx context.Context) error { return e.onTabAttached(ctx, ev.TabID) })
	case host.TabRemoved:
		e.dispatch(evt, func(ctx context.Context) error { return e.onTabRemoved(ctx, ev.TabID, ev.WindowID, ev.WindowClosing) })
	case host.TabDetached:
		e.dispatch(evt, func(ctx context.Context) error { return e.onTabRemoved(ctx, ev.TabID, ev.OldWindowID, false) })
	case host.TabMoved:
		e.dispatch(evt, func(ctx context.Context) error { return e.onLayoutChanged(ctx, ev.WindowID) })
	case host.TabUpdated:
		if ev.Change.Pinned != nil {
			e.dispatch(evt, func(ctx context.Context) error { return e.onLayoutChanged(ctx, ev.Tab.WindowID) })
		}
		if ev.Change.URL != nil {
			e.dispatch(evt, func(ctx context.Context) error { return e.onURLUpdated(ctx, ev) })
		}
	case host.TabActivated:
		e.dispatch(evt, func(ctx context.Context) error { return e.onTabActivated(ctx, ev) })
	default:
		slog.Warn("policy unhandled event", "event", evt.EventName())
	}
}

func (e *Engine) dispatch(evt host.Event, fn serializer.Task) {
	e.queue.Dispatch(evt.EventName(), fn)
}

// Resync forgets the initialized flag and rebuilds all window state from the
// host.
func (e *Engine) Resync() {
	e.queue.Dispatch("resync", func(ctx context.Context) error {
		if err := e.store.SetInitialized(false); err != nil {
			return err
		}
		return e.initialize(ctx)
	})
}

func (e *Engine) record(d journal.Decision) {
	if e.journal != nil {
		e.journal.Record(d)
	}
}

// window fetches windowID. ok is false when the window no longer exists.
func (e *Engine) window(ctx context.Context, windowID int) (host.Window, bool, error) {
	w, err := e.host.GetWindow(ctx, windowID)
	if host.IsNotFound(err) {
		slog.Debug("policy window gone", "window_id", windowID, "error", err)
		return host.Window{}, false, nil
	}
	if err != nil {
		return host.Window{}, false, err
	}
	return w, true, nil
}

func (e *Engine) onSessionStarted(ctx context.Context, ev host.SessionStarted) error {
	if ev.SessionID != e.sessionID {
		if e.sessionID != "" {
			slog.Info("policy browser session changed, resetting state", "previous", e.sessionID, "session_id", ev.SessionID)
		}
		e.store.Reset()
		e.pending = nil
		e.sessionID = ev.SessionID
	}
	return e.initialize(ctx)
}

// initialize indexes every normal window and registers every popup window.
// It runs once per session.
func (e *Engine) initialize(ctx context.Context) error {
	if e.store.Initialized() {
		return nil
	}
	windows, err := e.host.ListWindows(ctx, host.WindowNormal)
	if err != nil {
		return err
	}
	for _, w := range windows {
		idx := tabindex.New(w.ID, e.store)
		if err := idx.Rebuild(ctx, e.host); err != nil {
			return err
		}
		if err := idx.Save(); err != nil {
			return err
		}
		hist := history.New(w.ID, e.store)
		if err := hist.PushActive(ctx, e.host); err != nil {
			return err
		}
		if err := hist.Save(); err != nil {
			return err
		}
	}

	popupWindows, err := e.host.ListWindows(ctx, host.WindowPopup)
	if err != nil {
		return err
	}
	for _, w := range popupWindows {
		if err := e.popups.Add(w.ID); err != nil {
			return err
		}
	}
	slog.Info("policy initialized", "windows", len(windows), "popups", len(popupWindows))
	return e.store.SetInitialized(true)
}

func (e *Engine) onInstalled(ctx context.Context) error {
	if err := e.settings.SetOpenMode(settings.OpenDefault); err != nil {
		return err
	}
	if err := e.settings.SetCloseMode(settings.CloseDefault); err != nil {
		return err
	}
	return e.host.OpenOptionsPage(ctx)
}

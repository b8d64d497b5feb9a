package policy

import (
	"context"
	"log/slog"

	"github.com/dgnsrekt/taborder/internal/history"
	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/journal"
	"github.com/dgnsrekt/taborder/internal/tabindex"
)

func (e *Engine) onWindowCreated(w host.Window) error {
	if w.Type != host.WindowNormal {
		return nil
	}
	if err := tabindex.New(w.ID, e.store).Save(); err != nil {
		return err
	}
	return history.New(w.ID, e.store).Save()
}

func (e *Engine) onWindowRemoved(ev host.WindowRemoved) error {
	if ev.Type == host.WindowPopup {
		return e.popups.Remove(ev.WindowID)
	}
	tabindex.New(ev.WindowID, e.store).Clean()
	history.New(ev.WindowID, e.store).Clean()
	if e.pending != nil && e.pending.windowID == ev.WindowID {
		e.pending = nil
	}
	return nil
}

func (e *Engine) onTabAttached(ctx context.Context, tabID int) error {
	tab, err := e.host.GetTab(ctx, tabID)
	if host.IsNotFound(err) {
		slog.Debug("policy attached tab gone", "tab_id", tabID)
		return nil
	}
	if err != nil {
		return err
	}
	return e.onTabCreated(ctx, tab)
}

func (e *Engine) onTabCreated(ctx context.Context, tab host.Tab) error {
	w, ok, err := e.window(ctx, tab.WindowID)
	if err != nil || !ok {
		return err
	}
	if w.Type != host.WindowNormal {
		return nil
	}

	idx := tabindex.New(w.ID, e.store)
	if err := idx.Load(); err != nil {
		return err
	}
	if idx.Contains(tab.ID) {
		return nil
	}
	hist := history.New(w.ID, e.store)
	if err := hist.Load(); err != nil {
		return err
	}

	mode := e.settings.OpenMode()
	target := tab.Index
	if hist.Includes(tab.ID) {
		slog.Debug("policy new tab already in history", "window_id", w.ID, "tab_id", tab.ID)
	} else {
		activeIndex := -1
		if current, ok := hist.Current(); !ok {
			slog.Debug("policy active tab unknown", "window_id", w.ID)
		} else if pos, err := idx.IndexOf(current); err != nil {
			slog.Error("policy active tab not indexed", "window_id", w.ID, "tab_id", current)
		} else {
			activeIndex = pos
		}
		target = openTarget(mode, idx, activeIndex, tab)
	}

	if target == tab.Index {
		if err := idx.Rebuild(ctx, e.host); err != nil {
			return ignoreGone(err)
		}
		return idx.Save()
	}

	slog.Debug("policy move new tab", "window_id", w.ID, "tab_id", tab.ID, "from", tab.Index, "to", target)
	if err := e.host.MoveTab(ctx, tab.ID, target); err != nil {
		return ignoreGone(err)
	}
	e.record(journal.Decision{
		Kind:     journal.KindPlace,
		Mode:     mode.Name(),
		WindowID: w.ID,
		TabID:    tab.ID,
		From:     tab.Index,
		To:       target,
	})
	return nil
}

// onTabRemoved handles a tab leaving a window, closed or detached. No tab is
// activated while the whole window is closing.
func (e *Engine) onTabRemoved(ctx context.Context, tabID, windowID int, windowClosing bool) error {
	w, ok, err := e.window(ctx, windowID)
	if err != nil || !ok {
		return err
	}
	if w.Type != host.WindowNormal {
		return nil
	}

	hist := history.New(w.ID, e.store)
	if err := hist.Load(); err != nil {
		return err
	}
	idx := tabindex.New(w.ID, e.store)
	if err := idx.Load(); err != nil {
		return err
	}

	mode := e.settings.CloseMode()
	var next int
	decided := false
	if windowClosing {
		slog.Debug("policy window closing", "window_id", w.ID, "tab_id", tabID)
	} else if idx.Count() <= 1 {
		slog.Debug("policy removed last tab", "window_id", w.ID, "tab_id", tabID)
	} else if current, ok := hist.Current(); ok && current == tabID {
		next, decided = closeTarget(mode, idx, hist, tabID)
	}

	hist.Remove(tabID)
	if err := idx.Rebuild(ctx, e.host); err != nil {
		return ignoreGone(err)
	}

	if decided && !idx.Contains(next) {
		slog.Error("policy next tab was removed", "window_id", w.ID, "tab_id", next)
		decided = false
	}
	if decided {
		e.pending = &pendingActivation{windowID: w.ID, tabID: next}
		if err := e.host.ActivateTab(ctx, next); err != nil {
			e.pending = nil
			if host.IsDragInProgress(err) {
				return err
			}
			slog.Warn("policy activate failed", "window_id", w.ID, "tab_id", next, "error", err)
			decided = false
		}
	}
	if decided {
		hist.Push(next)
		pos, _ := idx.IndexOf(next)
		e.record(journal.Decision{
			Kind:        journal.KindActivate,
			Mode:        mode.Name(),
			WindowID:    w.ID,
			TabID:       next,
			To:          pos,
			ClosedTabID: tabID,
		})
	}

	if err := hist.Save(); err != nil {
		return err
	}
	return idx.Save()
}

// onLayoutChanged re-reads a window's tab order after a move or pin change.
func (e *Engine) onLayoutChanged(ctx context.Context, windowID int) error {
	w, ok, err := e.window(ctx, windowID)
	if err != nil || !ok {
		return err
	}
	if w.Type != host.WindowNormal {
		return nil
	}
	idx := tabindex.New(w.ID, e.store)
	if err := idx.Rebuild(ctx, e.host); err != nil {
		return ignoreGone(err)
	}
	return idx.Save()
}

func (e *Engine) onURLUpdated(ctx context.Context, ev host.TabUpdated) error {
	w, ok, err := e.window(ctx, ev.Tab.WindowID)
	if err != nil || !ok {
		return err
	}
	if w.Type != host.WindowPopup {
		return nil
	}
	registered, err := e.popups.Includes(w.ID)
	if err != nil || registered {
		return err
	}
	url := *ev.Change.URL
	if url == "" || url == "about:blank" {
		return nil
	}
	if err := e.popups.Add(w.ID); err != nil {
		return err
	}

	rule := e.settings.PopupPolicy()
	if !rule.Enabled {
		return nil
	}
	if rule.Excludes(url) {
		slog.Debug("policy popup excluded", "window_id", w.ID, "url", url)
		return nil
	}

	target, err := e.host.LastFocusedWindow(ctx, host.WindowNormal)
	if host.IsNotFound(err) {
		slog.Info("policy no normal window for popup", "window_id", w.ID)
		return nil
	}
	if err != nil {
		return e.unregister(w.ID, err)
	}
	if err := e.host.MoveTabToWindow(ctx, ev.TabID, target.ID, host.EndIndex); err != nil {
		if host.IsNotFound(err) {
			return nil
		}
		return e.unregister(w.ID, err)
	}
	if err := e.host.ActivateTab(ctx, ev.TabID); err != nil {
		slog.Warn("policy activate redirected popup failed", "tab_id", ev.TabID, "error", err)
	}
	e.record(journal.Decision{
		Kind:           journal.KindRedirect,
		WindowID:       w.ID,
		TabID:          ev.TabID,
		TargetWindowID: target.ID,
		To:             host.EndIndex,
		URL:            url,
	})
	return nil
}

// unregister undoes a popup registration so a retried task evaluates the
// window again.
func (e *Engine) unregister(windowID int, cause error) error {
	if host.IsDragInProgress(cause) {
		if err := e.popups.Remove(windowID); err != nil {
			slog.Warn("policy unregister popup failed", "window_id", windowID, "error", err)
		}
	}
	return cause
}

func (e *Engine) onTabActivated(ctx context.Context, ev host.TabActivated) error {
	w, ok, err := e.window(ctx, ev.WindowID)
	if err != nil || !ok {
		return err
	}
	if w.Type != host.WindowNormal {
		return nil
	}
	if p := e.pending; p != nil && p.windowID == w.ID {
		if p.tabID != ev.TabID {
			slog.Debug("policy skip host activation", "window_id", w.ID, "tab_id", ev.TabID, "pending", p.tabID)
			return nil
		}
		e.pending = nil
		return nil
	}

	hist := history.New(w.ID, e.store)
	if err := hist.Load(); err != nil {
		return err
	}
	hist.Push(ev.TabID)
	return hist.Save()
}

// ignoreGone swallows errors about tabs or windows closed mid-handler.
func ignoreGone(err error) error {
	if host.IsNotFound(err) {
		slog.Debug("policy target gone", "error", err)
		return nil
	}
	return err
}

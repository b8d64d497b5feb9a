package policy

import (
	"log/slog"

	"github.com/dgnsrekt/taborder/internal/history"
	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/settings"
	"github.com/dgnsrekt/taborder/internal/tabindex"
)

// openTarget returns the position tab should occupy under mode. idx is the
// window's index before tab was added; activeIndex is negative when the
// previously active tab is unknown.
func openTarget(mode settings.OpenMode, idx *tabindex.Index, activeIndex int, tab host.Tab) int {
	target := tab.Index
	switch mode {
	case settings.OpenDefault:
	case settings.OpenLeftEnd:
		target = 0
	case settings.OpenLeft:
		if activeIndex >= 0 {
			target = activeIndex
		}
	case settings.OpenRight:
		if activeIndex >= 0 {
			target = activeIndex + 1
		}
	case settings.OpenRightEnd:
		target = idx.Count()
	default:
		slog.Error("policy illegal open mode", "mode", string(mode))
	}
	if !tab.Pinned {
		if first := idx.FirstUnpinned(); target < first {
			target = first
		}
	}
	return target
}

// closeTarget picks the tab to activate after removed, the window's current
// tab, closes. idx and hist are the state before the removal. ok is false
// when the host's own choice should stand.
func closeTarget(mode settings.CloseMode, idx *tabindex.Index, hist *history.History, removed int) (next int, ok bool) {
	at := func(pos int) (int, bool) {
		id, err := idx.IDAt(pos)
		if err != nil {
			slog.Error("policy close target out of range", "window_id", idx.WindowID(), "position", pos, "error", err)
			return 0, false
		}
		return id, true
	}
	last := idx.Count() - 1

	switch mode {
	case settings.CloseDefault:
		return 0, false
	case settings.CloseLeftmost:
		if next, ok = at(0); ok && next == removed {
			return at(1)
		}
		return next, ok
	case settings.CloseLeft, settings.CloseRight:
		pos, err := idx.IndexOf(removed)
		if err != nil {
			slog.Error("policy active tab not indexed", "window_id", idx.WindowID(), "tab_id", removed)
			return 0, false
		}
		if mode == settings.CloseLeft {
			if pos == 0 {
				return at(1)
			}
			return at(pos - 1)
		}
		if pos == last {
			return at(pos - 1)
		}
		return at(pos + 1)
	case settings.CloseRightmost:
		if next, ok = at(last); ok && next == removed {
			return at(last - 1)
		}
		return next, ok
	case settings.CloseOrder:
		if next, ok = hist.Previous(); !ok {
			slog.Debug("policy no previously active tab", "window_id", idx.WindowID())
		}
		return next, ok
	default:
		slog.Error("policy illegal close mode", "mode", string(mode))
		return 0, false
	}
}

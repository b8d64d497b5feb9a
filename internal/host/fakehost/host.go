package fakehost

import (
	"context"

	"github.com/dgnsrekt/taborder/internal/host"
)

var _ host.Host = (*Browser)(nil)

func (b *Browser) QueryTabs(_ context.Context, windowID int) ([]host.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("QueryTabs", windowID); err != nil {
		return nil, err
	}
	w, ok := b.windows[windowID]
	if !ok {
		return nil, noWindow(windowID)
	}
	tabs := make([]host.Tab, 0, len(w.tabs))
	for pos := range w.tabs {
		tabs = append(tabs, snapshot(w, pos))
	}
	return tabs, nil
}

func (b *Browser) ActiveTabs(_ context.Context, windowID int) ([]host.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ActiveTabs", windowID); err != nil {
		return nil, err
	}
	w, ok := b.windows[windowID]
	if !ok {
		return nil, noWindow(windowID)
	}
	var tabs []host.Tab
	if pos := w.position(w.active); pos >= 0 {
		tabs = append(tabs, snapshot(w, pos))
	}
	return tabs, nil
}

func (b *Browser) GetTab(_ context.Context, tabID int) (host.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("GetTab", tabID); err != nil {
		return host.Tab{}, err
	}
	w, pos := b.locate(tabID)
	if w == nil {
		return host.Tab{}, noTab(tabID)
	}
	return snapshot(w, pos), nil
}

func (b *Browser) GetWindow(_ context.Context, windowID int) (host.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("GetWindow", windowID); err != nil {
		return host.Window{}, err
	}
	w, ok := b.windows[windowID]
	if !ok {
		return host.Window{}, noWindow(windowID)
	}
	return host.Window{ID: w.id, Type: w.typ}, nil
}

// ListWindows lists windows of windowType in creation order; an empty type
// lists every window.
func (b *Browser) ListWindows(_ context.Context, windowType host.WindowType) ([]host.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListWindows"); err != nil {
		return nil, err
	}
	var out []host.Window
	for _, wid := range b.order {
		w := b.windows[wid]
		if windowType == "" || w.typ == windowType {
			out = append(out, host.Window{ID: w.id, Type: w.typ})
		}
	}
	return out, nil
}

// LastFocusedWindow returns the focused window when it has windowType,
// otherwise the most recently created window of that type.
func (b *Browser) LastFocusedWindow(_ context.Context, windowType host.WindowType) (host.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("LastFocusedWindow"); err != nil {
		return host.Window{}, err
	}
	if w, ok := b.windows[b.focused]; ok && (windowType == "" || w.typ == windowType) {
		return host.Window{ID: w.id, Type: w.typ}, nil
	}
	for i := len(b.order) - 1; i >= 0; i-- {
		w := b.windows[b.order[i]]
		if windowType == "" || w.typ == windowType {
			return host.Window{ID: w.id, Type: w.typ}, nil
		}
	}
	return host.Window{}, host.NewError(host.CodeNotFound, "No last-focused window", nil)
}

// MoveTab moves a tab within its window. Unpinned tabs cannot be placed
// before pinned ones and vice versa; the index is clamped like the host does.
func (b *Browser) MoveTab(_ context.Context, tabID, index int) error {
	b.mu.Lock()
	if err := b.begin("MoveTab", tabID, index); err != nil {
		b.mu.Unlock()
		return err
	}
	w, from := b.locate(tabID)
	if w == nil {
		b.mu.Unlock()
		return noTab(tabID)
	}
	t := w.tabs[from]
	w.tabs = append(w.tabs[:from], w.tabs[from+1:]...)
	to := clampInsert(w, t.pinned, index)
	insert(w, t, to)
	b.mu.Unlock()

	if from != to {
		b.emit([]host.Event{host.TabMoved{TabID: tabID, WindowID: w.id, FromIndex: from, ToIndex: to}})
	}
	return nil
}

// MoveTabToWindow detaches a tab and attaches it to windowID at index, or at
// the end for host.EndIndex. A source window left without tabs is closed.
func (b *Browser) MoveTabToWindow(_ context.Context, tabID, windowID, index int) error {
	b.mu.Lock()
	if err := b.begin("MoveTabToWindow", tabID, windowID, index); err != nil {
		b.mu.Unlock()
		return err
	}
	src, from := b.locate(tabID)
	if src == nil {
		b.mu.Unlock()
		return noTab(tabID)
	}
	dst, ok := b.windows[windowID]
	if !ok {
		b.mu.Unlock()
		return noWindow(windowID)
	}
	if index == host.EndIndex {
		index = len(dst.tabs)
	}
	if src == dst {
		b.mu.Unlock()
		return b.MoveTab(context.Background(), tabID, index)
	}

	t := src.tabs[from]
	events := b.detach(src, from)
	to := clampInsert(dst, t.pinned, index)
	insert(dst, t, to)
	events = append(events, host.TabAttached{TabID: tabID, NewWindowID: dst.id, NewPosition: to})
	if len(src.tabs) == 0 {
		events = append(events, b.removeWindow(src))
	}
	b.mu.Unlock()

	b.emit(events)
	return nil
}

func (b *Browser) ActivateTab(_ context.Context, tabID int) error {
	b.mu.Lock()
	if err := b.begin("ActivateTab", tabID); err != nil {
		b.mu.Unlock()
		return err
	}
	w, _ := b.locate(tabID)
	if w == nil {
		b.mu.Unlock()
		return noTab(tabID)
	}
	changed := w.active != tabID
	w.active = tabID
	b.mu.Unlock()

	if changed {
		b.emit([]host.Event{host.TabActivated{TabID: tabID, WindowID: w.id}})
	}
	return nil
}

func (b *Browser) OpenOptionsPage(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("OpenOptionsPage"); err != nil {
		return err
	}
	b.options++
	return nil
}

func clampInsert(w *window, pinned bool, index int) int {
	lo, hi := 0, len(w.tabs)
	if pinned {
		hi = w.firstUnpinned()
	} else {
		lo = w.firstUnpinned()
	}
	if index < lo {
		return lo
	}
	if index > hi {
		return hi
	}
	return index
}

func insert(w *window, t *tab, pos int) {
	w.tabs = append(w.tabs, nil)
	copy(w.tabs[pos+1:], w.tabs[pos:])
	w.tabs[pos] = t
}

// detach removes the tab at pos from w and hands activation to a neighbour
// when it was active. Caller holds b.mu.
func (b *Browser) detach(w *window, pos int) []host.Event {
	t := w.tabs[pos]
	w.tabs = append(w.tabs[:pos], w.tabs[pos+1:]...)
	events := []host.Event{host.TabDetached{TabID: t.id, OldWindowID: w.id, OldPosition: pos}}
	if next, ok := b.handOff(w, t.id, pos); ok {
		events = append(events, next)
	}
	return events
}

// handOff picks the host's default successor of a closed active tab: the
// right neighbour, else the left one.
func (b *Browser) handOff(w *window, tabID, pos int) (host.Event, bool) {
	if w.active != tabID {
		return nil, false
	}
	w.active = 0
	if len(w.tabs) == 0 {
		return nil, false
	}
	if pos >= len(w.tabs) {
		pos = len(w.tabs) - 1
	}
	w.active = w.tabs[pos].id
	return host.TabActivated{TabID: w.active, WindowID: w.id}, true
}

func (b *Browser) removeWindow(w *window) host.Event {
	delete(b.windows, w.id)
	for i, wid := range b.order {
		if wid == w.id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	if b.focused == w.id {
		b.focused = 0
	}
	return host.WindowRemoved{WindowID: w.id, Type: w.typ}
}

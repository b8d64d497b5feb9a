package fakehost

import (
	"fmt"

	"github.com/dgnsrekt/taborder/internal/host"
)

// The methods below play the user's part: they change browser state the way
// clicking in the UI would and emit the resulting events.

// TabOptions configures OpenTab. Index is the host's own placement; nil
// appends after the last tab, or after the last pinned tab for pinned tabs.
type TabOptions struct {
	URL    string
	Pinned bool
	Index  *int
	Active bool
}

// At is a helper for TabOptions.Index.
func At(i int) *int { return &i }

// NewWindow opens an empty window and focuses it.
func (b *Browser) NewWindow(typ host.WindowType) int {
	b.mu.Lock()
	w := &window{id: b.id(), typ: typ}
	b.windows[w.id] = w
	b.order = append(b.order, w.id)
	b.focused = w.id
	b.mu.Unlock()

	b.emit([]host.Event{host.WindowCreated{Window: host.Window{ID: w.id, Type: typ}}})
	return w.id
}

// OpenTab creates a tab in windowID and returns its ID.
func (b *Browser) OpenTab(windowID int, opts TabOptions) int {
	b.mu.Lock()
	w, ok := b.windows[windowID]
	if !ok {
		b.mu.Unlock()
		panic(fmt.Sprintf("fakehost: no window %d", windowID))
	}
	t := &tab{id: b.id(), pinned: opts.Pinned, url: opts.URL}
	pos := len(w.tabs)
	if opts.Pinned {
		pos = w.firstUnpinned()
	}
	if opts.Index != nil {
		pos = clampInsert(w, t.pinned, *opts.Index)
	}
	insert(w, t, pos)
	events := []host.Event{host.TabCreated{Tab: snapshot(w, pos)}}
	if opts.Active || w.active == 0 {
		w.active = t.id
		events = append(events, host.TabActivated{TabID: t.id, WindowID: w.id})
	}
	b.mu.Unlock()

	b.emit(events)
	return t.id
}

// Activate makes tabID active as if the user clicked it.
func (b *Browser) Activate(tabID int) {
	b.mu.Lock()
	w, _ := b.locate(tabID)
	if w == nil || w.active == tabID {
		b.mu.Unlock()
		return
	}
	w.active = tabID
	b.focused = w.id
	b.mu.Unlock()

	b.emit([]host.Event{host.TabActivated{TabID: tabID, WindowID: w.id}})
}

// CloseTab closes tabID. When the last tab of a window closes, the window
// closes with it.
func (b *Browser) CloseTab(tabID int) {
	b.mu.Lock()
	w, pos := b.locate(tabID)
	if w == nil {
		b.mu.Unlock()
		return
	}
	w.tabs = append(w.tabs[:pos], w.tabs[pos+1:]...)
	closing := len(w.tabs) == 0
	events := []host.Event{host.TabRemoved{TabID: tabID, WindowID: w.id, WindowClosing: closing}}
	if next, ok := b.handOff(w, tabID, pos); ok {
		events = append(events, next)
	}
	if closing {
		events = append(events, b.removeWindow(w))
	}
	b.mu.Unlock()

	b.emit(events)
}

// CloseWindow closes windowID and all of its tabs.
func (b *Browser) CloseWindow(windowID int) {
	b.mu.Lock()
	w, ok := b.windows[windowID]
	if !ok {
		b.mu.Unlock()
		return
	}
	var events []host.Event
	for _, t := range w.tabs {
		events = append(events, host.TabRemoved{TabID: t.id, WindowID: w.id, WindowClosing: true})
	}
	w.tabs = nil
	events = append(events, b.removeWindow(w))
	b.mu.Unlock()

	b.emit(events)
}

// SetPinned pins or unpins tabID, moving it to the edge of the pinned block.
func (b *Browser) SetPinned(tabID int, pinned bool) {
	b.mu.Lock()
	w, pos := b.locate(tabID)
	if w == nil || w.tabs[pos].pinned == pinned {
		b.mu.Unlock()
		return
	}
	t := w.tabs[pos]
	w.tabs = append(w.tabs[:pos], w.tabs[pos+1:]...)
	t.pinned = pinned
	to := w.firstUnpinned()
	insert(w, t, to)
	events := []host.Event{host.TabUpdated{
		TabID:  tabID,
		Change: host.TabChange{Pinned: &pinned},
		Tab:    snapshot(w, to),
	}}
	if to != pos {
		events = append(events, host.TabMoved{TabID: tabID, WindowID: w.id, FromIndex: pos, ToIndex: to})
	}
	b.mu.Unlock()

	b.emit(events)
}

// Navigate changes the URL of tabID.
func (b *Browser) Navigate(tabID int, url string) {
	b.mu.Lock()
	w, pos := b.locate(tabID)
	if w == nil {
		b.mu.Unlock()
		return
	}
	w.tabs[pos].url = url
	evt := host.TabUpdated{TabID: tabID, Change: host.TabChange{URL: &url}, Tab: snapshot(w, pos)}
	b.mu.Unlock()

	b.emit([]host.Event{evt})
}

// Focus makes windowID the last focused window.
func (b *Browser) Focus(windowID int) {
	b.mu.Lock()
	if _, ok := b.windows[windowID]; ok {
		b.focused = windowID
	}
	b.mu.Unlock()
}

// Order returns the tab IDs of windowID in host order.
func (b *Browser) Order(windowID int) []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[windowID]
	if !ok {
		return nil
	}
	ids := make([]int, len(w.tabs))
	for i, t := range w.tabs {
		ids[i] = t.id
	}
	return ids
}

// Active returns the active tab of windowID, or 0.
func (b *Browser) Active(windowID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.windows[windowID]; ok {
		return w.active
	}
	return 0
}

// WindowOf returns the window holding tabID, or 0.
func (b *Browser) WindowOf(tabID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, _ := b.locate(tabID); w != nil {
		return w.id
	}
	return 0
}

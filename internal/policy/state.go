package policy

import (
	"github.com/dgnsrekt/taborder/internal/session"
	"github.com/dgnsrekt/taborder/internal/tabindex"
)

// WindowState is the tracked state of one normal window.
type WindowState struct {
	WindowID int              `json:"window_id"`
	Tabs     []tabindex.Entry `json:"tabs"`
	History  []int            `json:"history"`
}

// Window reads the persisted state of windowID. It is safe to call outside
// the serializer; the result may lag queued events.
func (e *Engine) Window(windowID int) (WindowState, error) {
	st := WindowState{WindowID: windowID, Tabs: []tabindex.Entry{}, History: []int{}}
	hasIndex, err := e.store.Get(session.TabIndexKey(windowID), &st.Tabs)
	if err != nil {
		return WindowState{}, err
	}
	hasHistory, err := e.store.Get(session.HistoryKey(windowID), &st.History)
	if err != nil {
		return WindowState{}, err
	}
	if !hasIndex && !hasHistory {
		return WindowState{}, ErrUnknownWindow
	}
	return st, nil
}

// Windows lists the IDs of every tracked normal window.
func (e *Engine) Windows() []int {
	var ids []int
	for _, k := range e.store.Keys() {
		if k.Kind == session.KindTabIndex {
			ids = append(ids, k.WindowID)
		}
	}
	return ids
}

// Popups lists registered popup window IDs.
func (e *Engine) Popups() ([]int, error) {
	return e.popups.List()
}

// Initialized reports whether startup initialization has completed.
func (e *Engine) Initialized() bool {
	return e.store.Initialized()
}

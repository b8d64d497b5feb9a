// Package history keeps the per-window stack of recently activated tabs.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/session"
)

// ActiveTabQuerier resolves the active tab of a window.
type ActiveTabQuerier interface {
	ActiveTabs(ctx context.Context, windowID int) ([]host.Tab, error)
}

// History is the activation stack of one window, most recent last.
type History struct {
	windowID int
	store    *session.Store
	stack    []int
}

func New(windowID int, store *session.Store) *History {
	return &History{windowID: windowID, store: store}
}

func (h *History) key() session.Key { return session.HistoryKey(h.windowID) }

func (h *History) Load() error {
	var stack []int
	ok, err := h.store.Get(h.key(), &stack)
	if err != nil {
		return err
	}
	if !ok {
		slog.Error("history not saved", "key", h.key().String())
		h.stack = nil
		return nil
	}
	h.stack = stack
	return nil
}

func (h *History) Save() error {
	stack := h.stack
	if stack == nil {
		stack = []int{}
	}
	return h.store.Set(h.key(), stack)
}

func (h *History) Clean() {
	h.store.Remove(h.key())
}

// Push moves tabID to the top of the stack.
func (h *History) Push(tabID int) {
	h.Remove(tabID)
	h.stack = append(h.stack, tabID)
}

// PushActive pushes the window's active tab. Anything other than exactly one
// active tab is logged and ignored.
func (h *History) PushActive(ctx context.Context, q ActiveTabQuerier) error {
	tabs, err := q.ActiveTabs(ctx, h.windowID)
	if err != nil {
		return fmt.Errorf("history: active tab of window %d: %w", h.windowID, err)
	}
	if len(tabs) != 1 {
		slog.Warn("history active tab count is not 1", "window_id", h.windowID, "count", len(tabs))
		return nil
	}
	h.Push(tabs[0].ID)
	return nil
}

// Remove drops every occurrence of tabID.
func (h *History) Remove(tabID int) {
	kept := h.stack[:0]
	for _, id := range h.stack {
		if id != tabID {
			kept = append(kept, id)
		}
	}
	h.stack = kept
}

func (h *History) Current() (int, bool) {
	if len(h.stack) == 0 {
		return 0, false
	}
	return h.stack[len(h.stack)-1], true
}

func (h *History) Previous() (int, bool) {
	if len(h.stack) < 2 {
		return 0, false
	}
	return h.stack[len(h.stack)-2], true
}

func (h *History) Includes(tabID int) bool {
	for _, id := range h.stack {
		if id == tabID {
			return true
		}
	}
	return false
}

func (h *History) Len() int { return len(h.stack) }

// Stack returns a copy, oldest first.
func (h *History) Stack() []int {
	out := make([]int, len(h.stack))
	copy(out, h.stack)
	return out
}

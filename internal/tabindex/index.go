// Package tabindex keeps the positional map of a window's tabs.
package tabindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/session"
)

var (
	ErrNotFound   = errors.New("tabindex: tab not indexed")
	ErrOutOfRange = errors.New("tabindex: position out of range")
)

// Entry is one position of the index.
type Entry struct {
	TabID  int  `json:"id"`
	Pinned bool `json:"pinned"`
}

// TabLister lists a window's tabs in host order.
type TabLister interface {
	QueryTabs(ctx context.Context, windowID int) ([]host.Tab, error)
}

// Index is the ordered tab map of a single window. It carries no lock;
// callers hold the serializer gate.
type Index struct {
	windowID int
	store    *session.Store
	entries  []Entry
}

func New(windowID int, store *session.Store) *Index {
	return &Index{windowID: windowID, store: store}
}

func (x *Index) WindowID() int { return x.windowID }

func (x *Index) key() session.Key { return session.TabIndexKey(x.windowID) }

// Load replaces the in-memory entries with the persisted ones. A missing key
// is logged and leaves the index empty.
func (x *Index) Load() error {
	var entries []Entry
	ok, err := x.store.Get(x.key(), &entries)
	if err != nil {
		return err
	}
	if !ok {
		slog.Error("tabindex not saved", "key", x.key().String())
		x.entries = nil
		return nil
	}
	x.entries = entries
	return nil
}

func (x *Index) Save() error {
	entries := x.entries
	if entries == nil {
		entries = []Entry{}
	}
	return x.store.Set(x.key(), entries)
}

func (x *Index) Clean() {
	x.store.Remove(x.key())
}

// Rebuild discards the entries and repopulates them from the host's live tab
// list. Tabs with a negative position are dropped. Gaps left by dropped or
// missing positions are compacted so positions stay dense.
func (x *Index) Rebuild(ctx context.Context, lister TabLister) error {
	tabs, err := lister.QueryTabs(ctx, x.windowID)
	if err != nil {
		return fmt.Errorf("tabindex: query window %d: %w", x.windowID, err)
	}

	valid := make([]host.Tab, 0, len(tabs))
	for _, tab := range tabs {
		if tab.Index < 0 {
			slog.Error("tabindex tab index is negative", "window_id", x.windowID, "tab_id", tab.ID, "index", tab.Index)
			continue
		}
		valid = append(valid, tab)
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Index < valid[j].Index })

	x.entries = make([]Entry, 0, len(valid))
	for pos, tab := range valid {
		if tab.Index != pos {
			slog.Warn("tabindex position compacted", "window_id", x.windowID, "tab_id", tab.ID, "reported", tab.Index, "stored", pos)
		}
		x.entries = append(x.entries, Entry{TabID: tab.ID, Pinned: tab.Pinned})
	}
	if !x.pinnedContiguous() {
		slog.Error("tabindex pinned tabs not contiguous", "window_id", x.windowID)
	}
	return nil
}

func (x *Index) pinnedContiguous() bool {
	seenUnpinned := false
	for _, e := range x.entries {
		if !e.Pinned {
			seenUnpinned = true
		} else if seenUnpinned {
			return false
		}
	}
	return true
}

func (x *Index) Count() int { return len(x.entries) }

// IndexOf returns the position of tabID.
func (x *Index) IndexOf(tabID int) (int, error) {
	for pos, e := range x.entries {
		if e.TabID == tabID {
			return pos, nil
		}
	}
	return 0, ErrNotFound
}

// Contains reports whether tabID is indexed.
func (x *Index) Contains(tabID int) bool {
	_, err := x.IndexOf(tabID)
	return err == nil
}

// IDAt returns the tab at pos.
func (x *Index) IDAt(pos int) (int, error) {
	if pos < 0 || pos >= len(x.entries) {
		return 0, fmt.Errorf("%w: %d of %d", ErrOutOfRange, pos, len(x.entries))
	}
	return x.entries[pos].TabID, nil
}

// FirstUnpinned returns the first unpinned position, or Count when every tab
// is pinned.
func (x *Index) FirstUnpinned() int {
	for pos, e := range x.entries {
		if !e.Pinned {
			return pos
		}
	}
	return len(x.entries)
}

// Entries returns a copy of the index.
func (x *Index) Entries() []Entry {
	out := make([]Entry, len(x.entries))
	copy(out, x.entries)
	return out
}

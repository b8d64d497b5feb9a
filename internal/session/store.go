// Package session holds per-browser-session state keyed by typed keys.
// Nothing in the store survives a browser restart: the bridge resets it
// whenever the shim reports a new session ID.
package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Kind selects which structure a Key addresses.
type Kind int

const (
	KindTabIndex Kind = iota + 1
	KindHistory
	KindPopupSet
	KindInitialized
)

// Key addresses one session entry. WindowID is only meaningful for the
// per-window kinds.
type Key struct {
	Kind     Kind
	WindowID int
}

func TabIndexKey(windowID int) Key { return Key{Kind: KindTabIndex, WindowID: windowID} }
func HistoryKey(windowID int) Key  { return Key{Kind: KindHistory, WindowID: windowID} }

var (
	PopupSetKey    = Key{Kind: KindPopupSet}
	InitializedKey = Key{Kind: KindInitialized}
)

// String renders the key in its compact textual form (M12, A12, popups, initialized).
func (k Key) String() string {
	switch k.Kind {
	case KindTabIndex:
		return "M" + strconv.Itoa(k.WindowID)
	case KindHistory:
		return "A" + strconv.Itoa(k.WindowID)
	case KindPopupSet:
		return "popups"
	case KindInitialized:
		return "initialized"
	default:
		return fmt.Sprintf("unknown(%d,%d)", int(k.Kind), k.WindowID)
	}
}

// Store is an in-memory JSON value store. Values are stored encoded so a
// caller never aliases another caller's slice.
type Store struct {
	mu     sync.RWMutex
	values map[Key][]byte
}

func NewStore() *Store {
	return &Store{values: make(map[Key][]byte)}
}

// Get decodes the value under key into out. It reports false when the key
// is absent, leaving out untouched.
func (s *Store) Get(key Key, out any) (bool, error) {
	s.mu.RLock()
	data, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	s.mu.Lock()
	s.values[key] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) Remove(key Key) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Reset drops every entry.
func (s *Store) Reset() {
	s.mu.Lock()
	s.values = make(map[Key][]byte)
	s.mu.Unlock()
}

// Keys returns all present keys ordered by kind then window ID.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].WindowID < keys[j].WindowID
	})
	return keys
}

// Initialized reports the persisted initialization guard.
func (s *Store) Initialized() bool {
	var done bool
	if _, err := s.Get(InitializedKey, &done); err != nil {
		return false
	}
	return done
}

func (s *Store) SetInitialized(done bool) error {
	return s.Set(InitializedKey, done)
}

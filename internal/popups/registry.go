// Package popups remembers which popup windows already received a redirect
// decision.
package popups

import "github.com/dgnsrekt/taborder/internal/session"

// Registry is an ordered set of popup window IDs persisted under one session
// key. Every call is a read-modify-write; callers hold the serializer gate.
type Registry struct {
	store *session.Store
}

func NewRegistry(store *session.Store) *Registry {
	return &Registry{store: store}
}

// List returns the registered window IDs in insertion order.
func (r *Registry) List() ([]int, error) {
	var ids []int
	if _, err := r.store.Get(session.PopupSetKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Registry) Add(windowID int) error {
	ids, err := r.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == windowID {
			return nil
		}
	}
	return r.store.Set(session.PopupSetKey, append(ids, windowID))
}

func (r *Registry) Remove(windowID int) error {
	ids, err := r.List()
	if err != nil {
		return err
	}
	kept := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != windowID {
			kept = append(kept, id)
		}
	}
	return r.store.Set(session.PopupSetKey, kept)
}

func (r *Registry) Includes(windowID int) (bool, error) {
	ids, err := r.List()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == windowID {
			return true, nil
		}
	}
	return false, nil
}

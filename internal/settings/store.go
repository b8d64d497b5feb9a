// Package settings persists the user-facing policy options.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps rejected updates.
var ErrInvalid = errors.New("settings: invalid value")

// Values is the on-disk shape of the settings file. Empty fields are unset.
type Values struct {
	Open       OpenMode     `yaml:"open,omitempty" json:"open"`
	Close      CloseMode    `yaml:"close,omitempty" json:"close"`
	PopupAsTab *PopupPolicy `yaml:"popupAsTab,omitempty" json:"popupAsTab"`
	Debug      bool         `yaml:"debug" json:"debug"`
}

// Store is a YAML-file backed settings store.
type Store struct {
	path string

	updateMu sync.Mutex // serializes Update and Reload from read to publish

	mu       sync.RWMutex
	values   Values
	onChange []func(Values)
}

// Open loads the settings file at path. A missing file yields empty values.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("settings: mkdir %s: %w", filepath.Dir(path), err)
	}
	s := &Store{path: filepath.Clean(path)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) read() (Values, error) {
	var v Values
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return v, fmt.Errorf("settings: read %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("settings: parse %s: %w", s.path, err)
	}
	return v, nil
}

// Reload re-reads the file and notifies listeners if anything changed.
func (s *Store) Reload() error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	v, err := s.read()
	if err != nil {
		return err
	}
	s.replace(v)
	return nil
}

func (s *Store) replace(v Values) {
	s.mu.Lock()
	changed := !reflect.DeepEqual(s.values, v)
	s.values = v
	listeners := append([]func(Values){}, s.onChange...)
	s.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(v)
		}
	}
}

// OnChange registers fn to be called with the new values after every change.
func (s *Store) OnChange(fn func(Values)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Raw returns the values exactly as stored.
func (s *Store) Raw() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.values
	if v.PopupAsTab != nil {
		p := *v.PopupAsTab
		p.ExclusionList = append([]string{}, p.ExclusionList...)
		v.PopupAsTab = &p
	}
	return v
}

// Resolved returns the values with defaults applied to unset fields.
func (s *Store) Resolved() Values {
	p := s.PopupPolicy()
	return Values{
		Open:       s.OpenMode(),
		Close:      s.CloseMode(),
		PopupAsTab: &p,
		Debug:      s.Debug(),
	}
}

// OpenMode returns the configured open mode, or OpenDefault when unset or invalid.
func (s *Store) OpenMode() OpenMode {
	s.mu.RLock()
	m := s.values.Open
	s.mu.RUnlock()
	if m == "" {
		slog.Error("settings option is not saved", "option", "open")
		return OpenDefault
	}
	if !m.Valid() {
		slog.Error("settings illegal open mode", "open", string(m))
		return OpenDefault
	}
	return m
}

// CloseMode returns the configured close mode, or CloseDefault when unset or invalid.
func (s *Store) CloseMode() CloseMode {
	s.mu.RLock()
	m := s.values.Close
	s.mu.RUnlock()
	if m == "" {
		slog.Error("settings option is not saved", "option", "close")
		return CloseDefault
	}
	if !m.Valid() {
		slog.Error("settings illegal close mode", "close", string(m))
		return CloseDefault
	}
	return m
}

// PopupPolicy returns the popup policy; unset means disabled.
func (s *Store) PopupPolicy() PopupPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.values.PopupAsTab == nil {
		return PopupPolicy{ExclusionList: []string{}}
	}
	p := *s.values.PopupAsTab
	p.ExclusionList = append([]string{}, p.ExclusionList...)
	return p
}

func (s *Store) Debug() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Debug
}

// Update applies fn to a copy of the stored values, persists the result and
// publishes it. fn returning an error aborts the update. Updates are applied
// one at a time, so concurrent callers never overwrite each other.
func (s *Store) Update(fn func(v *Values) error) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	v := s.Raw()
	if err := fn(&v); err != nil {
		return err
	}
	if v.Open != "" && !v.Open.Valid() {
		return fmt.Errorf("%w: open mode %q", ErrInvalid, v.Open)
	}
	if v.Close != "" && !v.Close.Valid() {
		return fmt.Errorf("%w: close mode %q", ErrInvalid, v.Close)
	}
	if err := s.write(v); err != nil {
		return err
	}
	s.replace(v)
	return nil
}

func (s *Store) SetOpenMode(m OpenMode) error {
	return s.Update(func(v *Values) error { v.Open = m; return nil })
}

func (s *Store) SetCloseMode(m CloseMode) error {
	return s.Update(func(v *Values) error { v.Close = m; return nil })
}

func (s *Store) SetPopupPolicy(p PopupPolicy) error {
	return s.Update(func(v *Values) error { v.PopupAsTab = &p; return nil })
}

func (s *Store) SetDebug(on bool) error {
	return s.Update(func(v *Values) error { v.Debug = on; return nil })
}

func (s *Store) write(v Values) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("settings: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("settings: rename: %w", err)
	}
	return nil
}

// Watch reloads the file whenever it changes on disk until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("settings: watch %s: %w", filepath.Dir(s.path), err)
	}
	slog.Info("settings watch started", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				slog.Warn("settings reload failed", "path", s.path, "error", err)
				continue
			}
			slog.Debug("settings reloaded", "path", s.path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("settings watcher error", "error", err)
		}
	}
}

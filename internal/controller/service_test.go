package controller

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dgnsrekt/taborder/internal/bridge"
	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/host/fakehost"
	"github.com/dgnsrekt/taborder/internal/policy"
	"github.com/dgnsrekt/taborder/internal/serializer"
	"github.com/dgnsrekt/taborder/internal/session"
	"github.com/dgnsrekt/taborder/internal/settings"
)

func newService(t *testing.T) (*Service, *session.Store) {
	t.Helper()
	st, err := settings.Open(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("settings.Open() error = %v", err)
	}
	store := session.NewStore()
	queue := serializer.New(serializer.DefaultRetryPolicy())
	engine := policy.New(fakehost.New(), st, store, queue, nil)
	return NewService(st, engine, bridge.New(0), queue), store
}

func ptr[T any](v T) *T { return &v }

func TestUpdateSettingsPartial(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	got, err := s.UpdateSettings(ctx, SettingsPatch{Open: ptr(settings.OpenRight)})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if got.Open != settings.OpenRight || got.Close != settings.CloseDefault {
		t.Fatalf("UpdateSettings() = %+v; want open r, close d", got)
	}

	got, err = s.UpdateSettings(ctx, SettingsPatch{PopupAsTab: &PopupPatch{
		Enabled:       ptr(true),
		ExclusionText: ptr("https://a.test\n  https://b.test  "),
	}})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if got.Open != settings.OpenRight {
		t.Fatalf("Open = %q; want unchanged %q", got.Open, settings.OpenRight)
	}
	want := settings.PopupPolicy{Enabled: true, ExclusionList: []string{"https://a.test", "https://b.test"}}
	if !reflect.DeepEqual(*got.PopupAsTab, want) {
		t.Fatalf("PopupAsTab = %+v; want %+v", *got.PopupAsTab, want)
	}

	got, err = s.UpdateSettings(ctx, SettingsPatch{PopupAsTab: &PopupPatch{Enabled: ptr(false)}})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if got.PopupAsTab.Enabled || len(got.PopupAsTab.ExclusionList) != 2 {
		t.Fatalf("PopupAsTab = %+v; want disabled with list kept", *got.PopupAsTab)
	}
}

func TestUpdateSettingsRejectsInvalidMode(t *testing.T) {
	s, _ := newService(t)
	_, err := s.UpdateSettings(context.Background(), SettingsPatch{Close: ptr(settings.CloseMode("z"))})
	if !errors.Is(err, settings.ErrInvalid) {
		t.Fatalf("UpdateSettings() error = %v; want ErrInvalid", err)
	}
	cur, _ := s.GetSettings(context.Background())
	if cur.Close != settings.CloseDefault {
		t.Fatalf("Close = %q; want %q", cur.Close, settings.CloseDefault)
	}
}

func TestResyncRequiresShim(t *testing.T) {
	s, _ := newService(t)
	err := s.Resync(context.Background())
	if got := host.CodeOf(err); got != host.CodeUnavailable {
		t.Fatalf("CodeOf(Resync()) = %q; want %q", got, host.CodeUnavailable)
	}
}

func TestHealthDegradedWithoutShim(t *testing.T) {
	s, _ := newService(t)
	h, err := s.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Status != "degraded" || h.Bridge.Connected {
		t.Fatalf("Health() = %+v; want degraded and disconnected", h)
	}
}

func TestListWindowsAndPopups(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()

	popups, err := s.ListPopups(ctx)
	if err != nil || popups == nil || len(popups) != 0 {
		t.Fatalf("ListPopups() = %v, %v; want empty", popups, err)
	}

	if err := store.Set(session.TabIndexKey(3), []map[string]any{{"id": 7, "pinned": false}}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(session.HistoryKey(3), []int{7}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	windows, err := s.ListWindows(ctx)
	if err != nil {
		t.Fatalf("ListWindows() error = %v", err)
	}
	if len(windows) != 1 || windows[0].WindowID != 3 || windows[0].Tabs[0].TabID != 7 {
		t.Fatalf("ListWindows() = %+v; want window 3 with tab 7", windows)
	}
	if _, err := s.GetWindow(ctx, 4); !errors.Is(err, policy.ErrUnknownWindow) {
		t.Fatalf("GetWindow(4) error = %v; want ErrUnknownWindow", err)
	}
}

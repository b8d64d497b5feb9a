package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "config", "settings.yaml"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := s.OpenMode(); got != OpenDefault {
		t.Fatalf("OpenMode() = %q; want %q", got, OpenDefault)
	}
	if got := s.CloseMode(); got != CloseDefault {
		t.Fatalf("CloseMode() = %q; want %q", got, CloseDefault)
	}
	if p := s.PopupPolicy(); p.Enabled || len(p.ExclusionList) != 0 {
		t.Fatalf("PopupPolicy() = %+v; want disabled and empty", p)
	}
}

func TestOpenParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `open: r
close: o
popupAsTab:
  enabled: true
  exclusionList:
    - https://example.com
    - https://accounts.
debug: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.OpenMode() != OpenRight || s.CloseMode() != CloseOrder || !s.Debug() {
		t.Fatalf("values = %+v", s.Raw())
	}
	p := s.PopupPolicy()
	if !p.Enabled || !reflect.DeepEqual(p.ExclusionList, []string{"https://example.com", "https://accounts."}) {
		t.Fatalf("PopupPolicy() = %+v", p)
	}
}

func TestIllegalModeFallsBackToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("open: x\nclose: z\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.OpenMode() != OpenDefault || s.CloseMode() != CloseDefault {
		t.Fatalf("OpenMode(), CloseMode() = %q, %q; want defaults", s.OpenMode(), s.CloseMode())
	}
}

func TestSetPersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	var seen []Values
	s.OnChange(func(v Values) { seen = append(seen, v) })

	if err := s.SetOpenMode(OpenLeftEnd); err != nil {
		t.Fatalf("SetOpenMode() error = %v", err)
	}
	if err := s.SetCloseMode(CloseRightmost); err != nil {
		t.Fatalf("SetCloseMode() error = %v", err)
	}
	if err := s.SetPopupPolicy(PopupPolicy{Enabled: true, ExclusionList: []string{"https://a"}}); err != nil {
		t.Fatalf("SetPopupPolicy() error = %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("OnChange calls = %d; want 3", len(seen))
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if reopened.OpenMode() != OpenLeftEnd || reopened.CloseMode() != CloseRightmost {
		t.Fatalf("reopened values = %+v", reopened.Raw())
	}
	if !reopened.PopupPolicy().Excludes("https://a/b") {
		t.Fatal("reopened popup policy lost exclusion list")
	}
}

func TestUpdateRejectsInvalidModes(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.SetOpenMode("x"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("SetOpenMode(x) = %v; want ErrInvalid", err)
	}
	if err := s.SetCloseMode("?"); err == nil {
		t.Fatal("SetCloseMode(?) = nil; want error")
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Fatalf("settings file written despite invalid update: %v", err)
	}
}

func TestExcludesByPrefix(t *testing.T) {
	p := PopupPolicy{Enabled: true, ExclusionList: []string{"https://example.com"}}
	if !p.Excludes("https://example.com/x") {
		t.Fatal("Excludes(https://example.com/x) = false; want true")
	}
	if p.Excludes("https://other.com") {
		t.Fatal("Excludes(https://other.com) = true; want false")
	}
	if (PopupPolicy{ExclusionList: []string{""}}).Excludes("https://any") {
		t.Fatal("empty prefix must not match everything")
	}
}

func TestParseExclusionList(t *testing.T) {
	got := ParseExclusionList("https://a.com\n  https://b.com\thttps://c.com\n\n")
	want := []string{"https://a.com", "https://b.com", "https://c.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseExclusionList() = %v; want %v", got, want)
	}
	if got := ParseExclusionList("  \n "); got == nil || len(got) != 0 {
		t.Fatalf("ParseExclusionList(blank) = %#v; want empty", got)
	}
}

func TestWatchReloadsExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	changed := make(chan Values, 4)
	s.OnChange(func(v Values) {
		select {
		case changed <- v:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Watch(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// The watcher registers asynchronously; keep writing until it notices.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case v := <-changed:
			// A reload can observe a truncated file mid-write.
			if v.Open == OpenRightEnd {
				return
			}
		case <-tick.C:
			if err := os.WriteFile(path, []byte("open: R\n"), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
		case <-deadline:
			t.Fatal("settings change not observed")
		}
	}
}

func TestConcurrentUpdatesKeepBothChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	slow := make(chan error, 1)
	go func() {
		slow <- s.Update(func(v *Values) error {
			close(started)
			<-release
			v.Open = OpenLeft
			return nil
		})
	}()
	<-started

	fast := make(chan error, 1)
	go func() { fast <- s.SetCloseMode(CloseOrder) }()
	select {
	case err := <-fast:
		t.Fatalf("SetCloseMode() = %v while another update was in progress; want it to wait", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if err := <-slow; err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := <-fast; err != nil {
		t.Fatalf("SetCloseMode() error = %v", err)
	}
	if s.OpenMode() != OpenLeft || s.CloseMode() != CloseOrder {
		t.Fatalf("values = %+v; want open l and close o", s.Raw())
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := reopened.Raw(); got.Open != OpenLeft || got.Close != CloseOrder {
		t.Fatalf("persisted = %+v; want open l and close o", got)
	}
}

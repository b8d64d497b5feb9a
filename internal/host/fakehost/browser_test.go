package fakehost

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dgnsrekt/taborder/internal/host"
)

func record(b *Browser) *[]host.Event {
	var events []host.Event
	b.SetSink(func(e host.Event) { events = append(events, e) })
	return &events
}

func TestCloseActiveTabHandsOffToRightNeighbour(t *testing.T) {
	b := New()
	w := b.NewWindow(host.WindowNormal)
	t1 := b.OpenTab(w, TabOptions{})
	t2 := b.OpenTab(w, TabOptions{Active: true})
	t3 := b.OpenTab(w, TabOptions{})
	events := record(b)

	b.CloseTab(t2)

	want := []host.Event{
		host.TabRemoved{TabID: t2, WindowID: w},
		host.TabActivated{TabID: t3, WindowID: w},
	}
	if !reflect.DeepEqual(*events, want) {
		t.Fatalf("events = %+v; want %+v", *events, want)
	}
	if got := b.Order(w); !reflect.DeepEqual(got, []int{t1, t3}) {
		t.Fatalf("Order() = %v; want %v", got, []int{t1, t3})
	}
}

func TestCloseLastTabClosesWindow(t *testing.T) {
	b := New()
	w := b.NewWindow(host.WindowNormal)
	t1 := b.OpenTab(w, TabOptions{})
	events := record(b)

	b.CloseTab(t1)

	want := []host.Event{
		host.TabRemoved{TabID: t1, WindowID: w, WindowClosing: true},
		host.WindowRemoved{WindowID: w, Type: host.WindowNormal},
	}
	if !reflect.DeepEqual(*events, want) {
		t.Fatalf("events = %+v; want %+v", *events, want)
	}
	if _, err := b.GetWindow(context.Background(), w); !host.IsNotFound(err) {
		t.Fatalf("GetWindow() error = %v; want not found", err)
	}
}

func TestMoveTabKeepsPinnedBlock(t *testing.T) {
	b := New()
	w := b.NewWindow(host.WindowNormal)
	p1 := b.OpenTab(w, TabOptions{Pinned: true})
	t1 := b.OpenTab(w, TabOptions{})
	t2 := b.OpenTab(w, TabOptions{})

	if err := b.MoveTab(context.Background(), t2, 0); err != nil {
		t.Fatalf("MoveTab() error = %v", err)
	}
	if got, want := b.Order(w), []int{p1, t2, t1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Order() = %v; want %v", got, want)
	}
}

func TestMoveTabToWindowDetachesAndAttaches(t *testing.T) {
	b := New()
	normal := b.NewWindow(host.WindowNormal)
	b.OpenTab(normal, TabOptions{})
	popup := b.NewWindow(host.WindowPopup)
	pt := b.OpenTab(popup, TabOptions{})
	events := record(b)

	if err := b.MoveTabToWindow(context.Background(), pt, normal, host.EndIndex); err != nil {
		t.Fatalf("MoveTabToWindow() error = %v", err)
	}
	want := []host.Event{
		host.TabDetached{TabID: pt, OldWindowID: popup, OldPosition: 0},
		host.TabAttached{TabID: pt, NewWindowID: normal, NewPosition: 1},
		host.WindowRemoved{WindowID: popup, Type: host.WindowPopup},
	}
	if !reflect.DeepEqual(*events, want) {
		t.Fatalf("events = %+v; want %+v", *events, want)
	}
}

func TestFailNext(t *testing.T) {
	b := New()
	w := b.NewWindow(host.WindowNormal)
	id := b.OpenTab(w, TabOptions{})
	drag := host.NewError(host.CodeDragInProgress, "Tabs cannot be edited right now", nil)
	b.FailNext("ActivateTab", drag)

	if err := b.ActivateTab(context.Background(), id); !errors.Is(err, drag) {
		t.Fatalf("ActivateTab() error = %v; want %v", err, drag)
	}
	if err := b.ActivateTab(context.Background(), id); err != nil {
		t.Fatalf("ActivateTab() error = %v; want nil", err)
	}
	if got := b.CallCount("ActivateTab"); got != 2 {
		t.Fatalf("CallCount() = %d; want 2", got)
	}
}

func TestLastFocusedWindowSkipsOtherTypes(t *testing.T) {
	b := New()
	normal := b.NewWindow(host.WindowNormal)
	b.NewWindow(host.WindowPopup)

	got, err := b.LastFocusedWindow(context.Background(), host.WindowNormal)
	if err != nil {
		t.Fatalf("LastFocusedWindow() error = %v", err)
	}
	if got.ID != normal {
		t.Fatalf("LastFocusedWindow() = %d; want %d", got.ID, normal)
	}
}

package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecordPublishesStampedDecision(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	j := New(nil, b)
	j.Record(Decision{Kind: KindPlace, Mode: "R", WindowID: 1, TabID: 7, From: 4, To: 5})

	select {
	case evt := <-ch:
		if evt.Kind != KindPlace {
			t.Fatalf("Kind = %q; want %q", evt.Kind, KindPlace)
		}
		var d Decision
		if err := json.Unmarshal([]byte(evt.Payload), &d); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if d.ID == "" || d.Time.IsZero() {
			t.Fatalf("decision not stamped: %+v", d)
		}
		if d.TabID != 7 || d.To != 5 {
			t.Fatalf("decision = %+v; want tab 7 to 5", d)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestRecordNilJournal(t *testing.T) {
	var j *Journal
	j.Record(Decision{Kind: KindActivate})
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	id, _ := b.Subscribe()
	for i := 0; i < subscriberBufSize+10; i++ {
		b.Publish(Event{Kind: KindPlace})
	}
	if got := b.Dropped(); got != 10 {
		t.Fatalf("Dropped() = %d; want 10", got)
	}
	if got := b.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d; want 1", got)
	}
	b.Unsubscribe(id)
	b.Unsubscribe(id)
	if got := b.ClientCount(); got != 0 {
		t.Fatalf("ClientCount() = %d; want 0", got)
	}
}

func TestBrokerFiltersByKind(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe(KindActivate)
	defer b.Unsubscribe(id)

	b.Publish(Event{Kind: KindPlace})
	b.Publish(Event{Kind: KindActivate, Payload: "x"})

	select {
	case evt := <-ch:
		if evt.Kind != KindActivate {
			t.Fatalf("Kind = %q; want %q", evt.Kind, KindActivate)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	if got := b.Dropped(); got != 0 {
		t.Fatalf("Dropped() = %d; want 0", got)
	}
}

func TestWriterAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "decisions.jsonl")
	w, err := NewWriter(path, 16, 1)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	j := New(w, nil)
	j.Record(Decision{Kind: KindPlace, TabID: 1})
	j.Record(Decision{Kind: KindActivate, TabID: 2})
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Write(Decision{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write() after Close error = %v; want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	var lines []Decision
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var d Decision
		if err := json.Unmarshal(sc.Bytes(), &d); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		lines = append(lines, d)
	}
	if len(lines) != 2 || lines[0].TabID != 1 || lines[1].Kind != KindActivate {
		t.Fatalf("lines = %+v; want place(1), activate(2)", lines)
	}
}

func TestSSEHandlerFiltersKinds(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(SSEHandler(b))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?kinds=redirect")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q; want text/event-stream", ct)
	}

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	b.Publish(Event{Kind: KindPlace, Payload: `{"kind":"place"}`})
	b.Publish(Event{Kind: KindRedirect, Payload: `{"kind":"redirect"}`})

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString() error = %v", err)
	}
	if !strings.HasPrefix(line, "event: redirect") {
		t.Fatalf("first line = %q; want event: redirect", line)
	}
}

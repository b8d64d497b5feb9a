// Package fakehost is an in-memory browser implementing host.Host. It models
// windows, ordered tabs, activation and focus, and emits the same lifecycle
// events a real browser would when its state changes.
package fakehost

import (
	"fmt"
	"sync"

	"github.com/dgnsrekt/taborder/internal/host"
)

type tab struct {
	id     int
	pinned bool
	url    string
}

type window struct {
	id     int
	typ    host.WindowType
	tabs   []*tab
	active int
}

func (w *window) position(tabID int) int {
	for i, t := range w.tabs {
		if t.id == tabID {
			return i
		}
	}
	return -1
}

func (w *window) firstUnpinned() int {
	for i, t := range w.tabs {
		if !t.pinned {
			return i
		}
	}
	return len(w.tabs)
}

// Call is one recorded host.Host invocation.
type Call struct {
	Method string
	Args   []int
}

// Browser is safe for concurrent use. Events are delivered to the sink after
// the lock is released, in the order the state changes happened.
type Browser struct {
	mu       sync.Mutex
	nextID   int
	windows  map[int]*window
	order    []int
	focused  int
	sink     func(host.Event)
	failures map[string][]error
	calls    []Call
	options  int
}

func New() *Browser {
	return &Browser{
		nextID:   1,
		windows:  make(map[int]*window),
		failures: make(map[string][]error),
	}
}

// SetSink installs the event receiver. Changes made before a sink is set emit
// nothing, which is how tests seed pre-existing browser state.
func (b *Browser) SetSink(fn func(host.Event)) {
	b.mu.Lock()
	b.sink = fn
	b.mu.Unlock()
}

// FailNext makes the next call of method return err. Calls queue up.
func (b *Browser) FailNext(method string, err error) {
	b.mu.Lock()
	b.failures[method] = append(b.failures[method], err)
	b.mu.Unlock()
}

// Calls returns the recorded host.Host calls.
func (b *Browser) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallCount counts recorded calls of method.
func (b *Browser) CallCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (b *Browser) ResetCalls() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

// OptionsOpened reports how many times the options page was requested.
func (b *Browser) OptionsOpened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.options
}

// begin records a call and pops an injected failure. Caller holds b.mu.
func (b *Browser) begin(method string, args ...int) error {
	b.calls = append(b.calls, Call{Method: method, Args: args})
	queue := b.failures[method]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	b.failures[method] = queue[1:]
	return err
}

func (b *Browser) emit(events []host.Event) {
	b.mu.Lock()
	sink := b.sink
	b.mu.Unlock()
	if sink == nil {
		return
	}
	for _, evt := range events {
		sink(evt)
	}
}

func (b *Browser) id() int {
	id := b.nextID
	b.nextID++
	return id
}

func noWindow(id int) error {
	return host.NewError(host.CodeNotFound, fmt.Sprintf("No window with id: %d.", id), nil)
}

func noTab(id int) error {
	return host.NewError(host.CodeNotFound, fmt.Sprintf("No tab with id: %d.", id), nil)
}

// locate finds the window holding tabID. Caller holds b.mu.
func (b *Browser) locate(tabID int) (*window, int) {
	for _, wid := range b.order {
		w := b.windows[wid]
		if pos := w.position(tabID); pos >= 0 {
			return w, pos
		}
	}
	return nil, -1
}

func snapshot(w *window, pos int) host.Tab {
	t := w.tabs[pos]
	return host.Tab{
		ID:       t.id,
		WindowID: w.id,
		Index:    pos,
		Pinned:   t.pinned,
		Active:   t.id == w.active,
		URL:      t.url,
	}
}

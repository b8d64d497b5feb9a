// Package bridge serves the WebSocket the browser-side shim connects to. It
// implements host.Host by sending requests to the shim and matching responses
// by sequence ID, and it decodes the shim's lifecycle events for a sink.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/dgnsrekt/taborder/internal/host"
)

const DefaultTimeout = 5 * time.Second

// Sink receives decoded host events. It is called from the read loop and
// must not block.
type Sink func(host.Event)

type wireError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type response struct {
	Result json.RawMessage
	Error  *wireError
}

// peer is one shim connection with its own in-flight requests.
type peer struct {
	conn        net.Conn
	connectedAt time.Time

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[int64]chan response
}

func (p *peer) write(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return wsutil.WriteServerText(p.conn, data)
}

func (p *peer) add(id int64, ch chan response) {
	p.pendingMu.Lock()
	p.pending[id] = ch
	p.pendingMu.Unlock()
}

func (p *peer) take(id int64) (chan response, bool) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	ch, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	return ch, ok
}

func (p *peer) closeAllPending() {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	for id, ch := range p.pending {
		close(ch)
		delete(p.pending, id)
	}
}

func (p *peer) inFlight() int {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	return len(p.pending)
}

// Bridge accepts one shim connection at a time; a new connection replaces
// the previous one.
type Bridge struct {
	timeout time.Duration
	seq     atomic.Int64

	mu        sync.Mutex
	peer      *peer
	sink      Sink
	sessionID string
	closed    bool
}

// Status describes the current shim connection.
type Status struct {
	Connected   bool      `json:"connected"`
	SessionID   string    `json:"session_id,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
	InFlight    int       `json:"in_flight"`
}

// New creates a bridge whose requests time out after timeout.
func New(timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{timeout: timeout}
}

// SetSink installs the event receiver.
func (b *Bridge) SetSink(fn Sink) {
	b.mu.Lock()
	b.sink = fn
	b.mu.Unlock()
}

func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{SessionID: b.sessionID}
	if b.peer != nil {
		st.Connected = true
		st.ConnectedAt = b.peer.connectedAt
		st.InFlight = b.peer.inFlight()
	}
	return st
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the shim disconnects or is replaced.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		http.Error(w, "bridge closed", http.StatusServiceUnavailable)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Warn("bridge upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	p := &peer{conn: conn, connectedAt: time.Now().UTC(), pending: make(map[int64]chan response)}
	if !b.attach(p) {
		conn.Close()
		return
	}
	slog.Info("bridge shim connected", "remote", r.RemoteAddr)
	b.readLoop(p)
}

func (b *Bridge) attach(p *peer) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	if old := b.peer; old != nil {
		slog.Warn("bridge replacing shim connection")
		old.conn.Close()
	}
	b.peer = p
	return true
}

func (b *Bridge) detach(p *peer) {
	b.mu.Lock()
	if b.peer == p {
		b.peer = nil
	}
	b.mu.Unlock()
	p.conn.Close()
	p.closeAllPending()
}

func (b *Bridge) current() *peer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peer
}

// Close drops the current connection and refuses new ones.
func (b *Bridge) Close() error {
	b.mu.Lock()
	b.closed = true
	p := b.peer
	b.peer = nil
	b.mu.Unlock()
	if p != nil {
		p.closeAllPending()
		return p.conn.Close()
	}
	return nil
}

type inbound struct {
	ID     int64           `json:"id"`
	Event  string          `json:"event"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *wireError      `json:"error"`
}

func (b *Bridge) readLoop(p *peer) {
	defer b.detach(p)
	for {
		data, err := wsutil.ReadClientText(p.conn)
		if err != nil {
			slog.Info("bridge shim disconnected", "error", err)
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("bridge malformed message", "error", err)
			continue
		}
		switch {
		case msg.ID > 0:
			if ch, ok := p.take(msg.ID); ok {
				ch <- response{Result: msg.Result, Error: msg.Error}
			} else {
				slog.Debug("bridge response without request", "id", msg.ID)
			}
		case msg.Event != "":
			b.handleEvent(msg.Event, msg.Params)
		default:
			slog.Warn("bridge message has neither id nor event")
		}
	}
}

func (b *Bridge) handleEvent(name string, params json.RawMessage) {
	evt, err := decodeEvent(name, params)
	if err != nil {
		slog.Warn("bridge event dropped", "event", name, "error", err)
		return
	}
	if hello, ok := evt.(host.SessionStarted); ok {
		if hello.SessionID == "" {
			hello.SessionID = uuid.NewString()
			evt = hello
		}
		b.mu.Lock()
		b.sessionID = hello.SessionID
		b.mu.Unlock()
	}

	b.mu.Lock()
	sink := b.sink
	b.mu.Unlock()
	if sink != nil {
		sink(evt)
	}
}

type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

// call sends method to the shim and decodes the result into out.
func (b *Bridge) call(ctx context.Context, method string, params, out any) error {
	p := b.current()
	if p == nil {
		return host.NewError(host.CodeUnavailable, "no shim connected", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	id := b.seq.Add(1)
	data, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("bridge: marshal %s: %w", method, err)
	}

	ch := make(chan response, 1)
	p.add(id, ch)
	if err := p.write(data); err != nil {
		p.take(id)
		return host.NewError(host.CodeUnavailable, "send "+method, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return host.NewError(host.CodeUnavailable, method+": connection closed", nil)
		}
		if resp.Error != nil {
			return classify(method, resp.Error)
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return host.NewError(host.CodeFailure, "decode "+method, err)
		}
		return nil
	case <-ctx.Done():
		p.take(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return host.NewError(host.CodeTimeout, method, ctx.Err())
		}
		return ctx.Err()
	}
}

var knownCodes = map[string]bool{
	host.CodeDragInProgress: true,
	host.CodeNotFound:       true,
	host.CodeUnavailable:    true,
	host.CodeTimeout:        true,
	host.CodeFailure:        true,
}

// classify trusts a code sent by the shim and otherwise maps the host's
// message text.
func classify(method string, e *wireError) error {
	code := e.Code
	if !knownCodes[code] {
		code = host.ClassifyMessage(e.Message)
	}
	return host.NewError(code, method+": "+e.Message, nil)
}

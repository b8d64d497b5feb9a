package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	ErrClosed     = errors.New("journal: writer closed")
	ErrBufferFull = errors.New("journal: buffer full")
)

// Writer appends decisions as JSON lines to a size-rotated file. Decisions
// are queued and encoded by one background goroutine so Record never waits
// on disk.
type Writer struct {
	out *lumberjack.Logger

	mu     sync.RWMutex // guards closed against sends on queue
	closed bool
	queue  chan Decision

	finished chan struct{}
}

// NewWriter opens filename for appending, rotating at maxSizeMB.
func NewWriter(filename string, bufferSize, maxSizeMB int) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("journal: mkdir: %w", err)
	}
	w := &Writer{
		out: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    maxSizeMB,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
		queue:    make(chan Decision, bufferSize),
		finished: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Write queues d without blocking.
func (w *Writer) Write(d Decision) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.queue <- d:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close writes everything still queued and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.finished
	return w.out.Close()
}

func (w *Writer) loop() {
	defer close(w.finished)
	enc := json.NewEncoder(w.out)
	for d := range w.queue {
		if err := enc.Encode(d); err != nil {
			slog.Error("journal write failed", "decision_id", d.ID, "error", err)
		}
	}
}

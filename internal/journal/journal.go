// Package journal records policy decisions to a rotating JSONL file and fans
// them out to live subscribers.
package journal

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	KindPlace    = "place"
	KindActivate = "activate"
	KindRedirect = "redirect"
)

// Decision is one host mutation the policy chose to issue.
type Decision struct {
	ID             string    `json:"id"`
	Time           time.Time `json:"time"`
	Kind           string    `json:"kind"`
	Mode           string    `json:"mode,omitempty"`
	WindowID       int       `json:"window_id"`
	TabID          int       `json:"tab_id"`
	From           int       `json:"from"`
	To             int       `json:"to"`
	ClosedTabID    int       `json:"closed_tab_id,omitempty"`
	TargetWindowID int       `json:"target_window_id,omitempty"`
	URL            string    `json:"url,omitempty"`
}

// Journal writes decisions to an optional Writer and publishes them to an
// optional Broker.
type Journal struct {
	writer *Writer
	broker *Broker
	now    func() time.Time
}

func New(writer *Writer, broker *Broker) *Journal {
	return &Journal{writer: writer, broker: broker, now: time.Now}
}

// Record stamps d and forwards it. Failures are logged, never returned.
func (j *Journal) Record(d Decision) {
	if j == nil {
		return
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Time.IsZero() {
		d.Time = j.now().UTC()
	}
	if j.writer != nil {
		if err := j.writer.Write(d); err != nil {
			slog.Warn("journal write failed", "kind", d.Kind, "error", err)
		}
	}
	if j.broker != nil {
		payload, err := json.Marshal(d)
		if err != nil {
			slog.Warn("journal marshal failed", "kind", d.Kind, "error", err)
			return
		}
		j.broker.Publish(Event{Kind: d.Kind, Payload: string(payload)})
	}
}

package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/dgnsrekt/taborder/internal/host"
)

type decoder func(json.RawMessage) (host.Event, error)

func decode[T host.Event](raw json.RawMessage) (host.Event, error) {
	var evt T
	if len(raw) == 0 {
		return evt, nil
	}
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, err
	}
	return evt, nil
}

var decoders = map[string]decoder{
	host.EventSessionHello:  decode[host.SessionStarted],
	host.EventInstalled:     decode[host.Installed],
	host.EventWindowCreated: decode[host.WindowCreated],
	host.EventWindowRemoved: decode[host.WindowRemoved],
	host.EventTabCreated:    decode[host.TabCreated],
	host.EventTabRemoved:    decode[host.TabRemoved],
	host.EventTabDetached:   decode[host.TabDetached],
	host.EventTabAttached:   decode[host.TabAttached],
	host.EventTabMoved:      decode[host.TabMoved],
	host.EventTabUpdated:    decode[host.TabUpdated],
	host.EventTabActivated:  decode[host.TabActivated],
}

func decodeEvent(name string, params json.RawMessage) (host.Event, error) {
	dec, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("unknown event %q", name)
	}
	evt, err := dec(params)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return evt, nil
}

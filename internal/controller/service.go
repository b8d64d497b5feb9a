package controller

import (
	"context"
	"strings"
	"time"

	"github.com/dgnsrekt/taborder/internal/bridge"
	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/policy"
	"github.com/dgnsrekt/taborder/internal/serializer"
	"github.com/dgnsrekt/taborder/internal/settings"
)

// Service backs the control API with the daemon's live components.
type Service struct {
	settings  *settings.Store
	engine    *policy.Engine
	bridge    *bridge.Bridge
	queue     *serializer.Serializer
	startedAt time.Time
}

func NewService(st *settings.Store, engine *policy.Engine, br *bridge.Bridge, queue *serializer.Serializer) *Service {
	return &Service{settings: st, engine: engine, bridge: br, queue: queue, startedAt: time.Now()}
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	Open       *settings.OpenMode  `json:"open,omitempty" doc:"Open mode: d, L, l, r or R"`
	Close      *settings.CloseMode `json:"close,omitempty" doc:"Close mode: d, L, l, r, R or o"`
	PopupAsTab *PopupPatch         `json:"popupAsTab,omitempty"`
	Debug      *bool               `json:"debug,omitempty" doc:"Verbose logging"`
}

// PopupPatch updates the popup policy. ExclusionText replaces the exclusion
// list with whitespace-separated prefixes, the way the options page submits
// it, and wins over ExclusionList.
type PopupPatch struct {
	Enabled       *bool    `json:"enabled,omitempty" doc:"Redirect popup windows into tabs"`
	ExclusionList []string `json:"exclusionList,omitempty" doc:"URL prefixes never redirected"`
	ExclusionText *string  `json:"exclusionText,omitempty" doc:"Exclusion prefixes separated by whitespace"`
}

// Health summarizes the daemon's runtime state.
type Health struct {
	Status        string           `json:"status"`
	Bridge        bridge.Status    `json:"bridge"`
	Initialized   bool             `json:"initialized"`
	Queue         serializer.Stats `json:"queue"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

func (s *Service) GetSettings(ctx context.Context) (settings.Values, error) {
	return s.settings.Resolved(), nil
}

func (s *Service) UpdateSettings(ctx context.Context, patch SettingsPatch) (settings.Values, error) {
	err := s.settings.Update(func(v *settings.Values) error {
		if patch.Open != nil {
			v.Open = *patch.Open
		}
		if patch.Close != nil {
			v.Close = *patch.Close
		}
		if patch.Debug != nil {
			v.Debug = *patch.Debug
		}
		pp := patch.PopupAsTab
		if pp == nil {
			return nil
		}
		p := settings.PopupPolicy{ExclusionList: []string{}}
		if v.PopupAsTab != nil {
			p = *v.PopupAsTab
		}
		if pp.Enabled != nil {
			p.Enabled = *pp.Enabled
		}
		if pp.ExclusionList != nil {
			p.ExclusionList = trimAll(pp.ExclusionList)
		}
		if pp.ExclusionText != nil {
			p.ExclusionList = settings.ParseExclusionList(*pp.ExclusionText)
		}
		v.PopupAsTab = &p
		return nil
	})
	if err != nil {
		return settings.Values{}, err
	}
	return s.settings.Resolved(), nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *Service) GetWindow(ctx context.Context, windowID int) (policy.WindowState, error) {
	return s.engine.Window(windowID)
}

func (s *Service) ListWindows(ctx context.Context) ([]policy.WindowState, error) {
	ids := s.engine.Windows()
	out := make([]policy.WindowState, 0, len(ids))
	for _, id := range ids {
		st, err := s.engine.Window(id)
		if err != nil {
			// closed between listing and reading
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Service) ListPopups(ctx context.Context) ([]int, error) {
	ids, err := s.engine.Popups()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}

func (s *Service) Health(ctx context.Context) (Health, error) {
	h := Health{
		Status:        "ok",
		Bridge:        s.bridge.Status(),
		Initialized:   s.engine.Initialized(),
		Queue:         s.queue.Stats(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if !h.Bridge.Connected || !h.Initialized {
		h.Status = "degraded"
	}
	return h, nil
}

// Resync rebuilds all window state from the browser. It needs a connected
// shim.
func (s *Service) Resync(ctx context.Context) error {
	if !s.bridge.Status().Connected {
		return host.NewError(host.CodeUnavailable, "no shim connected", nil)
	}
	s.engine.Resync()
	return nil
}

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgnsrekt/taborder/internal/controller"
	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/policy"
	"github.com/dgnsrekt/taborder/internal/settings"
)

type Service interface {
	GetSettings(ctx context.Context) (settings.Values, error)
	UpdateSettings(ctx context.Context, patch controller.SettingsPatch) (settings.Values, error)
	ListWindows(ctx context.Context) ([]policy.WindowState, error)
	GetWindow(ctx context.Context, windowID int) (policy.WindowState, error)
	ListPopups(ctx context.Context) ([]int, error)
	Health(ctx context.Context) (controller.Health, error)
	Resync(ctx context.Context) error
}

// Streams are the long-lived endpoints served beside the REST API.
type Streams struct {
	// Bridge is the shim WebSocket, mounted at /bridge.
	Bridge http.Handler
	// Events is the decision feed, mounted at /api/v1/events.
	Events http.Handler
}

func NewServer(svc Service, streams Streams) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("taborderd API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/docs/bridge", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(bridgeDocsHTML)); err != nil {
			slog.Debug("bridge docs response write failed", "error", err)
		}
	})
	if streams.Bridge != nil {
		router.Handle("/bridge", streams.Bridge)
	}
	if streams.Events != nil {
		router.Handle("/api/v1/events", streams.Events)
	}

	registerSettingsHandlers(api, svc)
	registerStateHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, settings.ErrInvalid) {
		return huma.Error400BadRequest(err.Error())
	}
	if errors.Is(err, policy.ErrUnknownWindow) {
		return huma.Error404NotFound(err.Error())
	}
	var he *host.Error
	if errors.As(err, &he) {
		switch he.Code {
		case host.CodeNotFound:
			return huma.Error404NotFound(he.Message)
		case host.CodeTimeout:
			return huma.Error504GatewayTimeout(he.Message)
		case host.CodeUnavailable:
			return huma.Error503ServiceUnavailable(he.Message)
		case host.CodeDragInProgress:
			return huma.Error409Conflict(he.Message)
		default:
			return huma.Error502BadGateway(fmt.Sprintf("%s: %s", he.Code, he.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

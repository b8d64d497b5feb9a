package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/taborder/internal/controller"
	"github.com/dgnsrekt/taborder/internal/policy"
)

func registerStateHandlers(api huma.API, svc Service) {
	type windowOutput struct {
		Body policy.WindowState
	}

	type listWindowsOutput struct {
		Body struct {
			Windows []policy.WindowState `json:"windows"`
		}
	}

	type popupsOutput struct {
		Body struct {
			WindowIDs []int `json:"window_ids"`
		}
	}

	type healthOutput struct {
		Body controller.Health
	}

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-windows", Method: http.MethodGet, Path: "/api/v1/windows", Summary: "List tracked windows", Tags: []string{"State"}},
		func(ctx context.Context, input *struct{}) (*listWindowsOutput, error) {
			windows, err := svc.ListWindows(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listWindowsOutput{}
			out.Body.Windows = windows
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-window", Method: http.MethodGet, Path: "/api/v1/windows/{window_id}", Summary: "Get a window's tab index and activation history", Tags: []string{"State"}},
		func(ctx context.Context, input *struct {
			WindowID int `path:"window_id"`
		}) (*windowOutput, error) {
			st, err := svc.GetWindow(ctx, input.WindowID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &windowOutput{Body: st}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "list-popups", Method: http.MethodGet, Path: "/api/v1/popups", Summary: "List popup windows already evaluated", Tags: []string{"State"}},
		func(ctx context.Context, input *struct{}) (*popupsOutput, error) {
			ids, err := svc.ListPopups(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &popupsOutput{}
			out.Body.WindowIDs = ids
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/api/v1/health", Summary: "Bridge, initialization and queue status", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			h, err := svc.Health(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &healthOutput{Body: h}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "resync", Method: http.MethodPost, Path: "/api/v1/resync", Summary: "Rebuild all window state from the browser", Tags: []string{"State"}, DefaultStatus: http.StatusAccepted},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			if err := svc.Resync(ctx); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "queued"
			return out, nil
		})
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/taborder/internal/controller"
	"github.com/dgnsrekt/taborder/internal/settings"
)

func registerSettingsHandlers(api huma.API, svc Service) {
	type settingsOutput struct {
		Body settings.Values
	}

	huma.Register(api, huma.Operation{OperationID: "get-settings", Method: http.MethodGet, Path: "/api/v1/settings", Summary: "Get open, close and popup settings", Tags: []string{"Settings"}},
		func(ctx context.Context, input *struct{}) (*settingsOutput, error) {
			v, err := svc.GetSettings(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &settingsOutput{Body: v}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "update-settings", Method: http.MethodPut, Path: "/api/v1/settings", Summary: "Update settings; omitted fields are kept", Tags: []string{"Settings"}},
		func(ctx context.Context, input *struct {
			Body controller.SettingsPatch
		}) (*settingsOutput, error) {
			v, err := svc.UpdateSettings(ctx, input.Body)
			if err != nil {
				return nil, mapErr(err)
			}
			return &settingsOutput{Body: v}, nil
		})
}

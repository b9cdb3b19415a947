package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/hdmiinput/internal/api/models"
	"github.com/smazurov/hdmiinput/internal/hal"
)

func (s *Server) registerHDMIRoutes() {
	if s.options.Service == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-hdmi-devices",
		Method:      http.MethodGet,
		Path:        "/api/hdmi/devices",
		Summary:     "List HDMI inputs",
		Description: "List HDMI input ports and whether a source is connected",
		Tags:        []string{"hdmi"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.DevicesResponse, error) {
		devices := s.options.Service.Devices(ctx)
		out := make([]models.DeviceInfo, 0, len(devices))
		for _, d := range devices {
			out = append(out, models.DeviceInfo{
				ID:        d.ID,
				Locator:   d.Locator,
				Connected: d.Connected == "true",
			})
		}
		return &models.DevicesResponse{
			Body: models.DevicesData{Devices: out, Count: len(out)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-hdmi-edid",
		Method:      http.MethodGet,
		Path:        "/api/hdmi/ports/{port_id}/edid",
		Summary:     "Read EDID",
		Description: "Read the EDID advertised on an HDMI input port",
		Tags:        []string{"hdmi"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500, 501, 503},
	}, func(ctx context.Context, input *models.EDIDRequest) (*models.EDIDResponse, error) {
		edid, err := s.options.Service.EDID(ctx, input.PortID)
		if err != nil {
			return nil, halStatusError(err)
		}
		return &models.EDIDResponse{
			Body: models.EDIDData{
				PortID: input.PortID,
				EDID:   base64.StdEncoding.EncodeToString(edid),
				Size:   len(edid),
			},
		}, nil
	})
}

// halStatusError maps HAL failures to HTTP errors.
func halStatusError(err error) error {
	switch {
	case errors.Is(err, hal.ErrInvalidPort):
		return huma.Error404NotFound("Unknown HDMI port", err)
	case errors.Is(err, hal.ErrNotSupported):
		return huma.Error501NotImplemented("Not supported by the HDMI HAL", err)
	case errors.Is(err, hal.ErrUnavailable):
		return huma.Error503ServiceUnavailable("HDMI HAL unavailable", err)
	default:
		return huma.Error500InternalServerError("HDMI HAL error", err)
	}
}

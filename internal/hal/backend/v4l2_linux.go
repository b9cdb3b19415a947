//go:build linux

package backend

import (
	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/hal/v4l2hal"
)

func openV4L2(cfg Config) (hal.HdmiInput, error) {
	return v4l2hal.New(v4l2hal.Options{
		PollInterval: cfg.V4L2PollInterval,
		CacheTTL:     cfg.V4L2CacheTTL,
		EDIDPad:      cfg.V4L2EDIDPad,
	}), nil
}

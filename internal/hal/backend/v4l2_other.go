//go:build !linux

package backend

import (
	"errors"

	"github.com/smazurov/hdmiinput/internal/hal"
)

func openV4L2(Config) (hal.HdmiInput, error) {
	return nil, errors.New("v4l2 hal backend requires linux")
}

// Package remote reaches an HDMI input HAL in another process over the
// platform bus. Each operation is a NATS request on dsmgr.hdmiin.rpc.<op>
// with a JSON body; Serve exposes any hal.HdmiInput on those subjects.
package remote

import (
	"errors"

	"github.com/smazurov/hdmiinput/internal/hal"
)

// SubjectPrefix is the request subject prefix; the operation name follows.
const SubjectPrefix = "dsmgr.hdmiin.rpc"

// Subject returns the request subject for op.
func Subject(op string) string {
	return SubjectPrefix + "." + op
}

// Operation names, matching the hal.HdmiInput methods.
const (
	OpNumberOfInputs        = "NumberOfInputs"
	OpIsPortConnected       = "IsPortConnected"
	OpSelectPort            = "SelectPort"
	OpScaleVideo            = "ScaleVideo"
	OpEDIDBytes             = "EDIDBytes"
	OpWriteEDID             = "WriteEDID"
	OpSPDInfo               = "SPDInfo"
	OpSetEdidVersion        = "SetEdidVersion"
	OpEdidVersion           = "EdidVersion"
	OpSupportedGameFeatures = "SupportedGameFeatures"
	OpALLMStatus            = "ALLMStatus"
)

// Request is the body of every operation. Fields an operation does not use
// are left zero.
type Request struct {
	Port    int             `json:"port"`
	X       int             `json:"x,omitempty"`
	Y       int             `json:"y,omitempty"`
	Width   int             `json:"w,omitempty"`
	Height  int             `json:"h,omitempty"`
	EDID    []byte          `json:"edid,omitempty"`
	Version hal.EdidVersion `json:"version,omitempty"`
}

// Response carries either a result or an error.
type Response struct {
	Count     int             `json:"count,omitempty"`
	Connected bool            `json:"connected,omitempty"`
	Data      []byte          `json:"data,omitempty"`
	Version   hal.EdidVersion `json:"version,omitempty"`
	Features  []string        `json:"features,omitempty"`
	Enabled   bool            `json:"enabled,omitempty"`

	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Error codes carried in Response.Code.
const (
	CodeNotSupported = "not_supported"
	CodeInvalidPort  = "invalid_port"
	CodeUnavailable  = "unavailable"
)

var codes = []struct {
	code string
	err  error
}{
	{CodeNotSupported, hal.ErrNotSupported},
	{CodeInvalidPort, hal.ErrInvalidPort},
	{CodeUnavailable, hal.ErrUnavailable},
}

func codeOf(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// errorOf rebuilds the cause of a failed response.
func errorOf(r Response) error {
	for _, c := range codes {
		if r.Code == c.code {
			return c.err
		}
	}
	return errors.New(r.Error)
}

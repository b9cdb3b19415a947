package hdmiinput

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/jsonrpc"
)

const maxEDIDSize = 65535

// Locator returns the hdmiin:// locator of port.
func Locator(port int) string {
	return fmt.Sprintf("hdmiin://localhost/deviceid/%d", port)
}

// Devices enumerates the HDMI inputs. A failing or non-positive port count
// yields an empty list; a port that fails mid-enumeration ends the list with
// the ports listed so far.
func (s *Service) Devices(ctx context.Context) []Device {
	n, err := s.hal.NumberOfInputs(ctx)
	if err != nil {
		s.halError(MethodGetDevices, err)
		return []Device{}
	}
	if n <= 0 {
		return []Device{}
	}
	devices := make([]Device, 0, n)
	for i := 0; i < n; i++ {
		connected, err := s.hal.IsPortConnected(ctx, i)
		if err != nil {
			s.halError(MethodGetDevices, err)
			return devices
		}
		devices = append(devices, Device{
			ID:        i,
			Locator:   Locator(i),
			Connected: strconv.FormatBool(connected),
		})
	}
	return devices
}

// EDID returns the raw EDID advertised on port.
func (s *Service) EDID(ctx context.Context, port int) ([]byte, error) {
	edid, err := s.hal.EDIDBytes(ctx, port)
	if err != nil {
		s.halError(MethodReadEDID, err)
		return nil, err
	}
	return edid, nil
}

func (s *Service) getHDMIInputDevices(ctx context.Context, _ jsonrpc.Params) outcome {
	return DevicesResult{Devices: s.Devices(ctx), Result: success()}
}

func (s *Service) startHdmiInput(ctx context.Context, p jsonrpc.Params) outcome {
	port, present, err := intParam(p, "portId")
	if !present {
		return failure("")
	}
	if err != nil {
		s.logger.Warn("Invalid portId", "method", MethodStartInput, "error", err)
		return failure("")
	}
	if err := s.hal.SelectPort(ctx, port); err != nil {
		s.halError(MethodStartInput, err)
		return failure("")
	}
	return success()
}

func (s *Service) stopHdmiInput(ctx context.Context, _ jsonrpc.Params) outcome {
	if err := s.hal.SelectPort(ctx, hal.StopPort); err != nil {
		s.halError(MethodStopInput, err)
		return failure("")
	}
	return success()
}

func (s *Service) setVideoRectangle(ctx context.Context, p jsonrpc.Params) outcome {
	if !p.Has("x") && !p.Has("y") {
		return failure("please specify coordinates (x,y)")
	}
	if !p.Has("w") && !p.Has("h") {
		return failure("please specify window width and height (w,h)")
	}
	var rect [4]int
	for i, name := range []string{"x", "y", "w", "h"} {
		v, present, err := intParam(p, name)
		if err != nil {
			s.logger.Warn("Invalid video rectangle", "param", name, "error", err)
			return failure("")
		}
		if present {
			rect[i] = v
		}
	}
	if err := s.hal.ScaleVideo(ctx, rect[0], rect[1], rect[2], rect[3]); err != nil {
		s.halError(MethodSetVideoRectangle, err)
		return failure("failed to set scale")
	}
	return success()
}

func (s *Service) writeEDID(ctx context.Context, p jsonrpc.Params) outcome {
	port, present, err := intParam(p, "deviceId")
	message, hasMessage := p.String("message")
	if !present || !hasMessage {
		return failure("")
	}
	if err != nil {
		s.logger.Warn("Invalid deviceId", "method", MethodWriteEDID, "error", err)
		return failure("")
	}
	edid, err := decodeBase64(message)
	if err != nil {
		s.logger.Warn("Invalid EDID encoding", "method", MethodWriteEDID, "error", err)
		return failure("")
	}
	if err := s.hal.WriteEDID(ctx, port, edid); err != nil {
		if errors.Is(err, hal.ErrNotSupported) {
			s.logger.Info("EDID write not supported by HAL", "port", port)
			return success()
		}
		s.halError(MethodWriteEDID, err)
		return failure("")
	}
	return success()
}

func (s *Service) readEDID(ctx context.Context, p jsonrpc.Params) outcome {
	port := 0
	if v, present, err := intParam(p, "deviceId"); present {
		if err != nil {
			s.logger.Warn("Invalid deviceId", "method", MethodReadEDID, "error", err)
			return EDIDResult{Result: failure("")}
		}
		port = v
	}
	edid, err := s.hal.EDIDBytes(ctx, port)
	if err != nil {
		s.halError(MethodReadEDID, err)
		return EDIDResult{Result: failure("")}
	}
	if len(edid) > maxEDIDSize {
		s.logger.Warn("EDID too large", "port", port, "size", len(edid))
		return EDIDResult{Result: failure("")}
	}
	if len(edid) == 0 {
		return EDIDResult{Result: failure("")}
	}
	return EDIDResult{EDID: base64.StdEncoding.EncodeToString(edid), Result: success()}
}

// spd fetches the SPD infoframe of the port named by portId.
func (s *Service) spd(ctx context.Context, method string, p jsonrpc.Params) ([]byte, bool) {
	port, present, err := intParam(p, "portId")
	if !present || err != nil {
		return nil, false
	}
	raw, err := s.hal.SPDInfo(ctx, port)
	if err != nil {
		s.halError(method, err)
		return nil, false
	}
	return raw, len(raw) > 0
}

func (s *Service) getRawHDMISPD(ctx context.Context, p jsonrpc.Params) outcome {
	raw, found := s.spd(ctx, MethodGetRawSPD, p)
	if !found {
		return SPDResult{Result: failure("")}
	}
	return SPDResult{HDMISPD: base64.RawStdEncoding.EncodeToString(raw), Result: success()}
}

func (s *Service) getHDMISPD(ctx context.Context, p jsonrpc.Params) outcome {
	raw, found := s.spd(ctx, MethodGetSPD, p)
	if !found {
		return SPDResult{Result: failure("")}
	}
	return SPDResult{HDMISPD: FormatSPD(hal.ParseSPD(raw)), Result: success()}
}

// FormatSPD renders an infoframe the way getHDMISPD reports it.
func FormatSPD(f hal.SPDInfoFrame) string {
	return fmt.Sprintf("Packet Type:%02X,Version:%d,Length:%d,vendor name:%s,product des:%s,source info:%02X",
		f.PacketType, f.Version, f.Length, f.VendorName, f.ProductDesc, f.SourceInfo)
}

func (s *Service) setEdidVersion(ctx context.Context, p jsonrpc.Params) outcome {
	port, present, err := intParam(p, "portId")
	name, hasVersion := p.String("edidVersion")
	if !present || !hasVersion || err != nil {
		return failure("")
	}
	version, known := hal.ParseEdidVersion(name)
	if !known {
		s.logger.Warn("Unknown EDID version", "edidVersion", name)
		return failure("")
	}
	if err := s.hal.SetEdidVersion(ctx, port, version); err != nil {
		s.halError(MethodSetEdidVersion, err)
		return failure("")
	}
	return success()
}

func (s *Service) getEdidVersion(ctx context.Context, p jsonrpc.Params) outcome {
	port, present, err := intParam(p, "portId")
	if !present || err != nil {
		return EdidVersionResult{Result: failure("")}
	}
	version, err := s.hal.EdidVersion(ctx, port)
	if err != nil {
		s.halError(MethodGetEdidVersion, err)
		return EdidVersionResult{Result: failure("")}
	}
	if version < 0 {
		return EdidVersionResult{Result: failure("")}
	}
	return EdidVersionResult{EdidVersion: version.String(), Result: success()}
}

func (s *Service) getSupportedGameFeatures(ctx context.Context, _ jsonrpc.Params) outcome {
	features, err := s.hal.SupportedGameFeatures(ctx)
	if err != nil {
		s.halError(MethodSupportedGameFeatures, err)
		return GameFeaturesResult{Result: failure("")}
	}
	if len(features) == 0 {
		return GameFeaturesResult{Result: failure("")}
	}
	return GameFeaturesResult{SupportedGameFeatures: features, Result: success()}
}

func (s *Service) getHdmiGameFeatureStatus(ctx context.Context, p jsonrpc.Params) outcome {
	port, present, err := intParam(p, "portId")
	feature, hasFeature := p.String("gameFeature")
	if !present || !hasFeature || err != nil {
		return GameFeatureStatusResult{Result: failure("")}
	}
	if feature != hal.GameFeatureALLM {
		return GameFeatureStatusResult{Result: failure("Mode is not supported. Supported mode: ALLM")}
	}
	mode, err := s.hal.ALLMStatus(ctx, port)
	if err != nil {
		s.halError(MethodGameFeatureStatus, err)
		mode = false
	}
	return GameFeatureStatusResult{Mode: &mode, Result: success()}
}

// decodeBase64 accepts padded and unpadded standard encoding.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

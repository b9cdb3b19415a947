package sim

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/smazurov/hdmiinput/internal/hal"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML description of a simulated receiver:
//
//	features: [ALLM]
//	ports:
//	  - connected: true
//	    signal: stableSignal
//	    resolution: 3
//	    frameRate: 4
//	    edidVersion: HDMI2.0
//	    spd: "83011900..."
//	    allm: true
type Fixture struct {
	Features []string      `yaml:"features"`
	Ports    []PortFixture `yaml:"ports"`
}

// PortFixture describes one port. Binary fields are hex encoded; an empty EDID
// keeps the default.
type PortFixture struct {
	Connected   bool   `yaml:"connected"`
	Signal      string `yaml:"signal"`
	Resolution  int    `yaml:"resolution"`
	Interlaced  bool   `yaml:"interlaced"`
	FrameRate   int    `yaml:"frameRate"`
	EDID        string `yaml:"edid"`
	SPD         string `yaml:"spd"`
	EdidVersion string `yaml:"edidVersion"`
	ALLM        bool   `yaml:"allm"`
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// Options converts the fixture into HAL options.
func (f Fixture) Options() ([]Option, error) {
	var opts []Option
	if f.Features != nil {
		opts = append(opts, WithFeatures(f.Features...))
	}
	if len(f.Ports) == 0 {
		return opts, nil
	}

	ports := make([]Port, len(f.Ports))
	for i, pf := range f.Ports {
		p, err := pf.port(i)
		if err != nil {
			return nil, fmt.Errorf("port %d: %w", i, err)
		}
		ports[i] = p
	}
	return append(opts, WithPorts(ports...)), nil
}

func (pf PortFixture) port(i int) (Port, error) {
	p := DefaultPort(i)
	p.Connected = pf.Connected
	p.ALLM = pf.ALLM
	p.Mode = hal.VideoResolution{
		PixelResolution: hal.PixelResolution(pf.Resolution),
		Interlaced:      pf.Interlaced,
		FrameRate:       hal.FrameRate(pf.FrameRate),
	}

	if pf.Signal != "" {
		status, ok := parseSignal(pf.Signal)
		if !ok {
			return Port{}, fmt.Errorf("unknown signal %q", pf.Signal)
		}
		p.Signal = status
	}
	if pf.EdidVersion != "" {
		v, ok := hal.ParseEdidVersion(pf.EdidVersion)
		if !ok {
			return Port{}, fmt.Errorf("unknown edidVersion %q", pf.EdidVersion)
		}
		p.EdidVersion = v
	}

	var err error
	if pf.EDID != "" {
		if p.EDID, err = decodeHex(pf.EDID); err != nil {
			return Port{}, fmt.Errorf("edid: %w", err)
		}
	}
	if pf.SPD != "" {
		if p.SPD, err = decodeHex(pf.SPD); err != nil {
			return Port{}, fmt.Errorf("spd: %w", err)
		}
	}
	return p, nil
}

func parseSignal(s string) (hal.SignalStatus, bool) {
	for _, status := range []hal.SignalStatus{hal.SignalNoSignal, hal.SignalUnstable, hal.SignalNotSupported, hal.SignalStable, hal.SignalNone} {
		if status.String() == s {
			return status, true
		}
	}
	return hal.SignalNone, false
}

// decodeHex accepts hex with optional whitespace between bytes.
func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.Join(strings.Fields(s), ""))
}

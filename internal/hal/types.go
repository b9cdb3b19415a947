package hal

import (
	"fmt"
	"math"
)

// SignalStatus is the receiver's signal state. Values match the platform ABI.
type SignalStatus int

// Signal states.
const (
	SignalNone         SignalStatus = -1
	SignalNoSignal     SignalStatus = 0
	SignalUnstable     SignalStatus = 1
	SignalNotSupported SignalStatus = 2
	SignalStable       SignalStatus = 3
)

func (s SignalStatus) String() string {
	switch s {
	case SignalNoSignal:
		return "noSignal"
	case SignalUnstable:
		return "unstableSignal"
	case SignalNotSupported:
		return "notSupportedSignal"
	case SignalStable:
		return "stableSignal"
	default:
		return "none"
	}
}

// PixelResolution enumerates the video resolutions the platform reports.
type PixelResolution int

// Pixel resolutions.
const (
	Resolution720x480   PixelResolution = 0
	Resolution720x576   PixelResolution = 1
	Resolution1280x720  PixelResolution = 2
	Resolution1920x1080 PixelResolution = 3
	Resolution3840x2160 PixelResolution = 4
	Resolution4096x2160 PixelResolution = 5
)

var resolutionSizes = map[PixelResolution][2]int{
	Resolution720x480:   {720, 480},
	Resolution720x576:   {720, 576},
	Resolution1280x720:  {1280, 720},
	Resolution1920x1080: {1920, 1080},
	Resolution3840x2160: {3840, 2160},
	Resolution4096x2160: {4096, 2160},
}

// Size returns the width and height of r. ok is false for unknown values.
func (r PixelResolution) Size() (width, height int, ok bool) {
	wh, ok := resolutionSizes[r]
	return wh[0], wh[1], ok
}

func (r PixelResolution) String() string {
	if w, h, ok := r.Size(); ok {
		return fmt.Sprintf("%dx%d", w, h)
	}
	return fmt.Sprintf("PixelResolution(%d)", int(r))
}

// ResolutionFromSize maps a frame size to the platform enumeration.
func ResolutionFromSize(width, height int) (PixelResolution, bool) {
	for r, wh := range resolutionSizes {
		if wh[0] == width && wh[1] == height {
			return r, true
		}
	}
	return 0, false
}

// FrameRate enumerates the frame rates the platform reports.
type FrameRate int

// Frame rates.
const (
	FrameRateUnknown FrameRate = 0
	FrameRate24      FrameRate = 1
	FrameRate25      FrameRate = 2
	FrameRate30      FrameRate = 3
	FrameRate60      FrameRate = 4
	FrameRate23_98   FrameRate = 5
	FrameRate29_97   FrameRate = 6
	FrameRate50      FrameRate = 7
	FrameRate59_94   FrameRate = 8
)

var frameRateFractions = map[FrameRate][2]int{
	FrameRate24:    {24000, 1000},
	FrameRate25:    {25000, 1000},
	FrameRate30:    {30000, 1000},
	FrameRate60:    {60000, 1000},
	FrameRate23_98: {24000, 1001},
	FrameRate29_97: {30000, 1001},
	FrameRate50:    {50000, 1000},
	FrameRate59_94: {60000, 1001},
}

// Fraction returns the frame rate as numerator/denominator. ok is false for
// FrameRateUnknown and values outside the enumeration.
func (f FrameRate) Fraction() (num, den int, ok bool) {
	nd, ok := frameRateFractions[f]
	return nd[0], nd[1], ok
}

func (f FrameRate) String() string {
	if n, d, ok := f.Fraction(); ok {
		return fmt.Sprintf("%.2f", float64(n)/float64(d))
	}
	return "unknown"
}

// FrameRateFromFPS picks the enumerated rate nearest to fps, within 0.05.
func FrameRateFromFPS(fps float64) FrameRate {
	best, bestDiff := FrameRateUnknown, 0.05
	for f, nd := range frameRateFractions {
		diff := math.Abs(fps - float64(nd[0])/float64(nd[1]))
		if diff < bestDiff {
			best, bestDiff = f, diff
		}
	}
	return best
}

// VideoResolution describes the mode of the incoming signal.
type VideoResolution struct {
	PixelResolution PixelResolution `json:"pixelResolution"`
	Interlaced      bool            `json:"interlaced"`
	FrameRate       FrameRate       `json:"frameRate"`
}

// EdidVersion selects the EDID the receiver advertises.
type EdidVersion int

// EDID versions.
const (
	EdidVersionUnset EdidVersion = -1
	EdidVersion14    EdidVersion = 0
	EdidVersion20    EdidVersion = 1
)

func (v EdidVersion) String() string {
	switch v {
	case EdidVersion14:
		return "HDMI1.4"
	case EdidVersion20:
		return "HDMI2.0"
	default:
		return ""
	}
}

// ParseEdidVersion accepts "HDMI1.4" and "HDMI2.0".
func ParseEdidVersion(s string) (EdidVersion, bool) {
	switch s {
	case "HDMI1.4":
		return EdidVersion14, true
	case "HDMI2.0":
		return EdidVersion20, true
	default:
		return EdidVersionUnset, false
	}
}

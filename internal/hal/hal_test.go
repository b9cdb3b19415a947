package hal

import (
	"errors"
	"fmt"
	"testing"
)

func TestSignalStatusString(t *testing.T) {
	tests := []struct {
		status SignalStatus
		want   string
	}{
		{SignalNoSignal, "noSignal"},
		{SignalUnstable, "unstableSignal"},
		{SignalNotSupported, "notSupportedSignal"},
		{SignalStable, "stableSignal"},
		{SignalNone, "none"},
		{SignalStatus(42), "none"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("SignalStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestPixelResolutionSize(t *testing.T) {
	tests := []struct {
		res    PixelResolution
		w, h   int
		wantOK bool
	}{
		{Resolution720x480, 720, 480, true},
		{Resolution720x576, 720, 576, true},
		{Resolution1280x720, 1280, 720, true},
		{Resolution1920x1080, 1920, 1080, true},
		{Resolution3840x2160, 3840, 2160, true},
		{Resolution4096x2160, 4096, 2160, true},
		{PixelResolution(9), 0, 0, false},
	}
	for _, tt := range tests {
		w, h, ok := tt.res.Size()
		if w != tt.w || h != tt.h || ok != tt.wantOK {
			t.Errorf("%v.Size() = (%d, %d, %v), want (%d, %d, %v)", tt.res, w, h, ok, tt.w, tt.h, tt.wantOK)
		}
		if tt.wantOK {
			if back, ok := ResolutionFromSize(tt.w, tt.h); !ok || back != tt.res {
				t.Errorf("ResolutionFromSize(%d, %d) = (%v, %v)", tt.w, tt.h, back, ok)
			}
		}
	}
	if _, ok := ResolutionFromSize(800, 600); ok {
		t.Error("800x600 should not map to an enumerated resolution")
	}
}

func TestFrameRateFraction(t *testing.T) {
	tests := []struct {
		rate     FrameRate
		num, den int
		wantOK   bool
	}{
		{FrameRate24, 24000, 1000, true},
		{FrameRate25, 25000, 1000, true},
		{FrameRate30, 30000, 1000, true},
		{FrameRate60, 60000, 1000, true},
		{FrameRate23_98, 24000, 1001, true},
		{FrameRate29_97, 30000, 1001, true},
		{FrameRate50, 50000, 1000, true},
		{FrameRate59_94, 60000, 1001, true},
		{FrameRateUnknown, 0, 0, false},
		{FrameRate(99), 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.rate.String(), func(t *testing.T) {
			num, den, ok := tt.rate.Fraction()
			if num != tt.num || den != tt.den || ok != tt.wantOK {
				t.Errorf("Fraction() = (%d, %d, %v), want (%d, %d, %v)", num, den, ok, tt.num, tt.den, tt.wantOK)
			}
		})
	}
}

func TestFrameRateFromFPS(t *testing.T) {
	tests := []struct {
		fps  float64
		want FrameRate
	}{
		{60.0, FrameRate60},
		{59.94, FrameRate59_94},
		{50.0, FrameRate50},
		{29.97, FrameRate29_97},
		{25.0, FrameRate25},
		{23.976, FrameRate23_98},
		{24.0, FrameRate24},
		{61.25, FrameRateUnknown},
		{0, FrameRateUnknown},
	}
	for _, tt := range tests {
		if got := FrameRateFromFPS(tt.fps); got != tt.want {
			t.Errorf("FrameRateFromFPS(%v) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestEdidVersion(t *testing.T) {
	for _, name := range []string{"HDMI1.4", "HDMI2.0"} {
		v, ok := ParseEdidVersion(name)
		if !ok || v.String() != name {
			t.Errorf("ParseEdidVersion(%q) = (%v, %v)", name, v, ok)
		}
	}
	if v, ok := ParseEdidVersion("HDMI2.1"); ok || v != EdidVersionUnset {
		t.Errorf("ParseEdidVersion(HDMI2.1) = (%v, %v), want unset", v, ok)
	}
	if got := EdidVersion(7).String(); got != "" {
		t.Errorf("unknown version String() = %q, want empty", got)
	}
}

func TestError(t *testing.T) {
	err := NewError("WriteEDID", 1, ErrNotSupported)
	wrapped := fmt.Errorf("writeEDID: %w", err)

	if !errors.Is(wrapped, ErrNotSupported) {
		t.Error("errors.Is should see the sentinel through *Error")
	}
	if got := Op(wrapped); got != "WriteEDID" {
		t.Errorf("Op() = %q, want WriteEDID", got)
	}
	if got := err.Error(); got != "hal WriteEDID port 1: operation not supported" {
		t.Errorf("Error() = %q", got)
	}
	if got := NewError("SupportedGameFeatures", -1, ErrUnavailable).Error(); got != "hal SupportedGameFeatures: hal unavailable" {
		t.Errorf("portless Error() = %q", got)
	}
	if NewError("x", 0, nil) != nil {
		t.Error("NewError(nil) should be nil")
	}
	if Op(errors.New("plain")) != "" {
		t.Error("Op of a plain error should be empty")
	}
}

func TestParseSPD(t *testing.T) {
	raw := SPDInfoFrame{
		PacketType:  0x83,
		Version:     1,
		Length:      25,
		Checksum:    0x5a,
		VendorName:  "SONY",
		ProductDesc: "PlayStation 5",
		SourceInfo:  0x08,
	}.Bytes()

	if len(raw) != SPDInfoFrameSize {
		t.Fatalf("Bytes() length = %d", len(raw))
	}

	got := ParseSPD(raw)
	if got.PacketType != 0x83 || got.Version != 1 || got.Length != 25 || got.Checksum != 0x5a || got.SourceInfo != 0x08 {
		t.Errorf("header fields wrong: %+v", got)
	}
	if got.VendorName != "SONY" || got.ProductDesc != "PlayStation 5" {
		t.Errorf("names = %q / %q", got.VendorName, got.ProductDesc)
	}
}

func TestParseSPDShortAndFullNames(t *testing.T) {
	short := ParseSPD([]byte{0x83, 0x01})
	if short.PacketType != 0x83 || short.Version != 1 || short.Length != 0 || short.VendorName != "" || short.SourceInfo != 0 {
		t.Errorf("short buffer not zero filled: %+v", short)
	}

	// Names that fill their field have no NUL terminator.
	full := SPDInfoFrame{VendorName: "ABCDEFGHIJ", ProductDesc: "0123456789abcdefXYZ"}.Bytes()
	got := ParseSPD(full)
	if got.VendorName != "ABCDEFGH" || got.ProductDesc != "0123456789abcdef" {
		t.Errorf("names = %q / %q", got.VendorName, got.ProductDesc)
	}

	if empty := ParseSPD(nil); empty != (SPDInfoFrame{}) {
		t.Errorf("ParseSPD(nil) = %+v", empty)
	}
}

package hdmiinput

// Result is the common part of every method result.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Success }

type outcome interface{ OK() bool }

func success() Result { return Result{Success: true} }

func failure(message string) Result { return Result{Message: message} }

// Device is one HDMI input as listed by getHDMIInputDevices.
type Device struct {
	ID        int    `json:"id"`
	Locator   string `json:"locator"`
	Connected string `json:"connected"`
}

// DevicesResult answers getHDMIInputDevices.
type DevicesResult struct {
	Devices []Device `json:"devices"`
	Result
}

// EDIDResult answers readEDID.
type EDIDResult struct {
	EDID string `json:"EDID"`
	Result
}

// SPDResult answers getRawHDMISPD and getHDMISPD.
type SPDResult struct {
	HDMISPD string `json:"HDMISPD"`
	Result
}

// EdidVersionResult answers getEdidVersion.
type EdidVersionResult struct {
	EdidVersion string `json:"edidVersion,omitempty"`
	Result
}

// GameFeaturesResult answers getSupportedGameFeatures.
type GameFeaturesResult struct {
	SupportedGameFeatures []string `json:"supportedGameFeatures,omitempty"`
	Result
}

// GameFeatureStatusResult answers getHdmiGameFeatureStatus.
type GameFeatureStatusResult struct {
	Mode *bool `json:"mode,omitempty"`
	Result
}

//go:build linux

// Package v4l2 provides pure Go bindings to the parts of the Video4Linux2 API
// an HDMI receiver needs: device enumeration, DV timing queries, source
// change events and EDID access.
//
// This package does not use cgo, so the daemon cross-compiles for the usual
// set-top-box targets (arm, arm64) as well as amd64.
//
// # Device Enumeration
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # HDMI Signal Detection
//
//	status := v4l2.GetDVTimings("/dev/video0")
//	if status.State == v4l2.SignalStateLocked {
//	    fmt.Printf("Signal: %dx%d @ %.2f fps\n", status.Width, status.Height, status.FPS)
//	}
//
// # EDID
//
// Receivers expose the EDID they advertise to the source on pad 0:
//
//	edid, err := v4l2.GetEDID("/dev/video0", 0)
//	err = v4l2.SetEDID("/dev/video0", 0, edid)
package v4l2

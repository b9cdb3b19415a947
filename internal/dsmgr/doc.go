// Package dsmgr connects the service to the platform device-settings bus.
//
// The bus is NATS. Platform daemons (or the simulated HAL) publish HDMI
// input events on the dsmgr.hdmiin.* subjects:
//
//	dsmgr.hdmiin.hotplug    {"port":0,"isPortConnected":true}
//	dsmgr.hdmiin.signal     {"port":0,"status":3}
//	dsmgr.hdmiin.status     {"port":0,"isPresented":true}
//	dsmgr.hdmiin.videomode  {"port":0,"resolution":{...}}
//	dsmgr.hdmiin.allm       {"port":0,"allmMode":true}
//
// Bridge turns those into typed events on the in-process bus. Publisher is
// the sending side. Server embeds a NATS server for stand-alone use, and
// NotificationForwarder mirrors outgoing notifications onto
// hdmiinput.notify.<event>.
package dsmgr

// Package models holds the request and response types of the REST API.
package models

import "github.com/smazurov/hdmiinput/internal/logging"

// Health check models
type HealthData struct {
	Status   string `json:"status" example:"ok" doc:"Service status"`
	Message  string `json:"message" example:"API is healthy" doc:"Status message"`
	Sessions int    `json:"sessions" example:"1" doc:"Open JSON-RPC WebSocket sessions"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version    string `json:"version" example:"1.2.0" doc:"Application version"`
	APIVersion string `json:"api_version" example:"1.0.0" doc:"HdmiInput JSON-RPC interface version"`
	GitCommit  string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate  string `json:"build_date" example:"2026-01-09T10:30:00Z" doc:"Build timestamp"`
	GoVersion  string `json:"go_version" example:"go1.24.11" doc:"Go runtime version"`
	Platform   string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// JSON-RPC over HTTP models
type RPCRequest struct {
	RawBody []byte `contentType:"application/json" doc:"JSON-RPC 2.0 request object"`
}

type RPCResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// HDMI input models
type DeviceInfo struct {
	ID        int    `json:"id" example:"0" doc:"Port number"`
	Locator   string `json:"locator" example:"hdmiin://localhost/deviceid/0" doc:"Input locator"`
	Connected bool   `json:"connected" example:"true" doc:"Whether a source is plugged in"`
}

type DevicesData struct {
	Devices []DeviceInfo `json:"devices" doc:"HDMI inputs"`
	Count   int          `json:"count" example:"3" doc:"Number of inputs"`
}

type DevicesResponse struct {
	Body DevicesData
}

type EDIDRequest struct {
	PortID int `path:"port_id" minimum:"0" example:"0" doc:"Port number"`
}

type EDIDData struct {
	PortID int    `json:"port_id" example:"0" doc:"Port number"`
	EDID   string `json:"edid" doc:"EDID bytes, base64"`
	Size   int    `json:"size" example:"256" doc:"EDID length in bytes"`
}

type EDIDResponse struct {
	Body EDIDData
}

// Log models
type LogsRequest struct {
	Tail int `query:"tail" minimum:"0" example:"100" doc:"Return only the newest N entries (0 for all)"`
}

type LogsData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Buffered log entries, oldest first"`
	Count   int                `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}

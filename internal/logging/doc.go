// Package logging provides structured logging with per-module log levels.
//
// Every package asks for its own logger:
//
//	logger := logging.GetLogger("hdmiinput")
//	logger.Info("port selected", "port", 1)
//
// Records fan out to stdout (text or json), to the systemd journal when
// journald is reachable, and to an in-memory ring buffer served by /api/logs.
//
// Levels are configured globally and per module:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	hdmiinput = "debug"
//	dsmgr = "warn"
//
// SetLevels re-applies levels at runtime without touching handlers; the
// configuration watcher calls it when the file changes.
//
// Journal entries carry SYSLOG_IDENTIFIER=hdmiinputd and attributes as
// upper-case fields:
//
//	journalctl -t hdmiinputd MODULE=dsmgr
package logging

// Package exporters serves the metrics registry over HTTP.
package exporters

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"

	appversion "github.com/smazurov/hdmiinput/internal/version"
)

var registerOnce sync.Once

// RegisterBuildInfo exposes hdmiinput_build_info with the application
// version. Repeated calls are no-ops.
func RegisterBuildInfo() {
	registerOnce.Do(func() {
		version.Version = appversion.Version
		version.Revision = appversion.GitCommit
		version.BuildDate = appversion.BuildDate
		prometheus.MustRegister(versioncollector.NewCollector("hdmiinput"))
	})
}

// HTTPHandler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func HTTPHandler() http.Handler {
	RegisterBuildInfo()
	return promhttp.Handler()
}

package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SpawnResultParent = "parent"
	SpawnResultFailed = "failed"
)

var (
	registry = prometheus.NewRegistry()

	spawns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forkexec",
		Name:      "spawns_total",
		Help:      "Duplication attempts by outcome as seen from the original process.",
	}, []string{"result"})

	replaceFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "forkexec",
		Name:      "replace_failures_total",
		Help:      "Image replacements the child reported as failed.",
	})

	childExitCode = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "forkexec",
		Name:      "child_exit_code",
		Help:      "Exit status of the most recent child (128+signal for signal deaths).",
	})

	childDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "forkexec",
		Name:      "child_duration_seconds",
		Help:      "Time from spawning the child to observing its termination.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "forkexec",
		Name:      "build_info",
		Help:      "Build metadata for the running forkexec binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(spawns, replaceFailures, childExitCode, childDuration, buildInfo)
}

// Registry returns the Prometheus registry containing all forkexec metrics.
func Registry() *prometheus.Registry {
	return registry
}

// RecordSpawn counts a duplication attempt.
func RecordSpawn(ok bool) {
	result := SpawnResultParent
	if !ok {
		result = SpawnResultFailed
	}
	spawns.WithLabelValues(result).Inc()
}

// IncrementReplaceFailure counts an image replacement that returned.
func IncrementReplaceFailure() {
	replaceFailures.Inc()
}

// ObserveChild records how the most recent child ended.
func ObserveChild(code int, d time.Duration) {
	childExitCode.Set(float64(code))
	childDuration.Observe(d.Seconds())
}

// WriteTextfile dumps the registry in the text exposition format, for the node
// exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}

// vcsLabels maps build settings to build_info label names.
var vcsLabels = map[string]string{
	"vcs":          "vcs",
	"vcs.revision": "vcs_revision",
	"vcs.time":     "vcs_time",
	"vcs.modified": "vcs_modified",
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		info, _ := debug.ReadBuildInfo()
		buildInfo.With(buildLabels(info)).Set(1)
	})
}

func buildLabels(info *debug.BuildInfo) prometheus.Labels {
	labels := prometheus.Labels{"go_version": runtime.Version()}
	for _, name := range vcsLabels {
		labels[name] = ""
	}
	if info == nil {
		return labels
	}
	if info.GoVersion != "" {
		labels["go_version"] = info.GoVersion
	}
	for _, setting := range info.Settings {
		if name, ok := vcsLabels[setting.Key]; ok {
			labels[name] = setting.Value
		}
	}
	return labels
}

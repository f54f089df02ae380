package beans

import "github.com/xraph/beans/internal/metrics"

// MetricsRecorder receives container events worth counting.
type MetricsRecorder = metrics.Recorder

// MetricsConfig configures metrics collection.
type MetricsConfig = metrics.Config

// Metrics recorders.
var (
	NewPrometheusRecorder = metrics.NewPrometheus
	NewNoOpRecorder       = metrics.NewNoOpRecorder
)

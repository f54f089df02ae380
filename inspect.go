package beans

import "github.com/xraph/beans/internal/inspect"

// InspectOption configures InspectHandler.
type InspectOption = inspect.Option

// InspectSource is the container state an inspect handler exposes.
type InspectSource = inspect.Source

// Diagnostics over HTTP. InspectHandler serves GET /, /beans,
// /beans/{name} and /order as JSON, plus /metrics with a gatherer.
var (
	InspectHandler      = inspect.Handler
	WithInspectGatherer = inspect.WithGatherer
	WithInspectLogger   = inspect.WithLogger
)

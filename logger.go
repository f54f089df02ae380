package beans

import "github.com/xraph/beans/internal/logger"

// Re-export logger types
type (
	Logger        = logger.Logger
	Field         = logger.Field
	LogLevel      = logger.LogLevel
	LoggingConfig = logger.LoggingConfig
)

// Re-export logger constants
const (
	LevelDebug = logger.LevelDebug
	LevelInfo  = logger.LevelInfo
	LevelWarn  = logger.LevelWarn
	LevelError = logger.LevelError
)

// Re-export logger constructors
var (
	NewLogger            = logger.NewLogger
	NewDevelopmentLogger = logger.NewDevelopmentLogger
	NewNoopLogger        = logger.NewNoopLogger
	NewTestLogger        = logger.NewTestLogger
	FromZap              = logger.FromZap
)

package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field.
type Field = zap.Field

// Field constructors.
var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Bool     = zap.Bool
	Duration = zap.Duration
	Any      = zap.Any
)

// Error creates an error field.
func Error(err error) Field {
	return zap.Error(err)
}

// Bean names the bean an entry is about.
func Bean(name string) Field {
	return zap.String("bean", name)
}

// Scope records a bean scope.
func Scope(scope string) Field {
	return zap.String("scope", scope)
}

// Stage records a lifecycle stage.
func Stage(stage string) Field {
	return zap.String("stage", stage)
}

// ContextID records an execution context id.
func ContextID(id string) Field {
	return zap.String("context_id", id)
}

// Elapsed records the time spent since start.
func Elapsed(start time.Time) Field {
	return zap.Duration("elapsed", time.Since(start))
}

// FieldMap flattens fields into a map, mostly for tests and diagnostics.
func FieldMap(fields []Field) map[string]any {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return enc.Fields
}

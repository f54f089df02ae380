package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors
const (
	CodeUnknownBean        = "UNKNOWN_BEAN"
	CodeCyclicDependency   = "CYCLIC_DEPENDENCY"
	CodeConstructionFailed = "CONSTRUCTION_FAILED"
	CodeSetterResolution   = "SETTER_RESOLUTION"
	CodeShutdownFailed     = "SHUTDOWN_FAILED"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeLifecycle          = "LIFECYCLE_ERROR"
)

// Stages name the step of a bean's life in which an error was raised.
const (
	StageRegister           = "register"
	StageResolveOrder       = "resolve-order"
	StageLookup             = "lookup"
	StageResolve            = "resolve"
	StageResolveConstructor = "resolve-constructor"
	StageInstantiate        = "instantiate"
	StageInjectField        = "inject-field"
	StageInitParams         = "init-params"
	StagePostConstruct      = "post-construct"
	StagePreDestroy         = "pre-destroy"
	StageShutdown           = "shutdown"
	StageValidate           = "validate"
)

// =============================================================================
// BEAN ERROR (STRUCTURED ERROR)
// =============================================================================

// BeanError represents a structured container error. Every error raised by the
// runtime carries the offending bean and the stage that failed.
type BeanError struct {
	Code      string
	Bean      string
	Stage     string
	Message   string
	Cause     error
	Chain     []string
	Timestamp time.Time
}

func (e *BeanError) Error() string {
	var b strings.Builder
	if e.Bean != "" {
		b.WriteString("bean ")
		b.WriteString(strconv.Quote(e.Bean))
		b.WriteString(": ")
	}
	if e.Stage != "" {
		b.WriteString(e.Stage)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *BeanError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is interface for BeanError.
// Compares by error code, allowing matching against sentinel errors
func (e *BeanError) Is(target error) bool {
	t, ok := target.(*BeanError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

func newBeanError(code, bean, stage, message string, cause error) *BeanError {
	return &BeanError{
		Code:      code,
		Bean:      bean,
		Stage:     stage,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// ErrUnknownBean creates an error for a name that matches no descriptor.
func ErrUnknownBean(bean, stage string) *BeanError {
	return newBeanError(CodeUnknownBean, bean, stage, "no bean registered under this name", nil)
}

// ErrCyclicDependency creates an error describing a dependency cycle. The chain
// lists the beans on the cycle with the first bean repeated at the end.
func ErrCyclicDependency(chain []string) *BeanError {
	bean := ""
	if len(chain) > 0 {
		bean = chain[0]
	}
	e := newBeanError(CodeCyclicDependency, bean, StageResolveOrder,
		"cyclic dependency detected: "+strings.Join(chain, " -> "), nil)
	e.Chain = chain
	return e
}

// ErrConstruction creates an error for a failed creation stage.
func ErrConstruction(bean, stage string, cause error) *BeanError {
	return newBeanError(CodeConstructionFailed, bean, stage, "construction failed", cause)
}

// ErrSetterResolution creates an error for an initialization value that no
// setter accepts.
func ErrSetterResolution(bean, property string, value any) *BeanError {
	return newBeanError(CodeSetterResolution, bean, StageInitParams,
		fmt.Sprintf("no setter %q accepts a value of type %T", property, value), nil)
}

// ErrShutdown creates an error raised while tearing beans down.
func ErrShutdown(bean, stage, message string, cause error) *BeanError {
	return newBeanError(CodeShutdownFailed, bean, stage, message, cause)
}

// ErrConfiguration creates an error for a descriptor that breaks a
// configuration invariant.
func ErrConfiguration(bean, stage, message string) *BeanError {
	return newBeanError(CodeConfiguration, bean, stage, message, nil)
}

// ErrLifecycle creates an error for a container used out of its lifecycle.
func ErrLifecycle(bean, stage, message string) *BeanError {
	return newBeanError(CodeLifecycle, bean, stage, message, nil)
}

// ErrClosed creates a lifecycle error for a container that has been shut down.
func ErrClosed(bean, stage string) *BeanError {
	return newBeanError(CodeLifecycle, bean, stage, "unavailable", ErrContainerClosed)
}

// ErrShutdownTwice creates a lifecycle error for a repeated shutdown.
func ErrShutdownTwice() *BeanError {
	return newBeanError(CodeLifecycle, "", StageShutdown, "rejected", ErrAlreadyShutdown)
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

var (
	// ErrUnknownBeanSentinel matches any unknown bean error
	ErrUnknownBeanSentinel = &BeanError{Code: CodeUnknownBean}

	// ErrCyclicDependencySentinel matches any cyclic dependency error
	ErrCyclicDependencySentinel = &BeanError{Code: CodeCyclicDependency}

	// ErrConstructionSentinel matches any construction error
	ErrConstructionSentinel = &BeanError{Code: CodeConstructionFailed}

	// ErrSetterResolutionSentinel matches any setter resolution error
	ErrSetterResolutionSentinel = &BeanError{Code: CodeSetterResolution}

	// ErrShutdownSentinel matches any shutdown error
	ErrShutdownSentinel = &BeanError{Code: CodeShutdownFailed}

	// ErrConfigurationSentinel matches any configuration error
	ErrConfigurationSentinel = &BeanError{Code: CodeConfiguration}

	// ErrLifecycleSentinel matches any lifecycle error
	ErrLifecycleSentinel = &BeanError{Code: CodeLifecycle}
)

var (
	// ErrContainerClosed is the cause of every lookup made after shutdown.
	ErrContainerClosed = errors.New("container is shut down")

	// ErrAlreadyShutdown is returned by a second shutdown.
	ErrAlreadyShutdown = errors.New("container already shut down")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsUnknownBean checks if the error is an unknown bean error
func IsUnknownBean(err error) bool {
	return Is(err, ErrUnknownBeanSentinel)
}

// IsCyclicDependency checks if the error is a cyclic dependency error
func IsCyclicDependency(err error) bool {
	return Is(err, ErrCyclicDependencySentinel)
}

// IsConstruction checks if the error is a construction error
func IsConstruction(err error) bool {
	return Is(err, ErrConstructionSentinel)
}

// IsSetterResolution checks if the error is a setter resolution error
func IsSetterResolution(err error) bool {
	return Is(err, ErrSetterResolutionSentinel)
}

// IsShutdown checks if the error is a shutdown error
func IsShutdown(err error) bool {
	return Is(err, ErrShutdownSentinel)
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	return Is(err, ErrConfigurationSentinel)
}

// IsLifecycle checks if the error is a lifecycle error
func IsLifecycle(err error) bool {
	return Is(err, ErrLifecycleSentinel)
}

// CodeOf returns the code of the outermost BeanError in err's chain, or "".
func CodeOf(err error) string {
	var be *BeanError
	if As(err, &be) {
		return be.Code
	}
	return ""
}

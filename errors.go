package beans

import (
	"github.com/xraph/beans/internal/errors"
)

// BeanError is the structured error returned by the container.
type BeanError = errors.BeanError

// Error codes.
const (
	CodeUnknownBean        = errors.CodeUnknownBean
	CodeCyclicDependency   = errors.CodeCyclicDependency
	CodeConstructionFailed = errors.CodeConstructionFailed
	CodeSetterResolution   = errors.CodeSetterResolution
	CodeShutdownFailed     = errors.CodeShutdownFailed
	CodeConfiguration      = errors.CodeConfiguration
	CodeLifecycle          = errors.CodeLifecycle
)

// Re-export sentinel errors for error comparison using errors.Is().
var (
	ErrUnknownBean      = errors.ErrUnknownBeanSentinel
	ErrCyclicDependency = errors.ErrCyclicDependencySentinel
	ErrConstruction     = errors.ErrConstructionSentinel
	ErrSetterResolution = errors.ErrSetterResolutionSentinel
	ErrShutdown         = errors.ErrShutdownSentinel
	ErrConfiguration    = errors.ErrConfigurationSentinel
	ErrLifecycle        = errors.ErrLifecycleSentinel
	ErrContainerClosed  = errors.ErrContainerClosed
	ErrAlreadyShutdown  = errors.ErrAlreadyShutdown
)

// Error classification helpers.
var (
	IsUnknownBean      = errors.IsUnknownBean
	IsCyclicDependency = errors.IsCyclicDependency
	IsConstruction     = errors.IsConstruction
	IsSetterResolution = errors.IsSetterResolution
	IsShutdown         = errors.IsShutdown
	IsConfiguration    = errors.IsConfiguration
	IsLifecycle        = errors.IsLifecycle
	CodeOf             = errors.CodeOf
)

package beans

import "github.com/xraph/beans/internal/config"

// Config holds container settings.
type Config = config.Config

// Environments.
const (
	EnvProduction  = config.EnvProduction
	EnvDevelopment = config.EnvDevelopment
	EnvTest        = config.EnvTest
)

// Configuration loaders.
var (
	DefaultConfig  = config.Default
	LoadConfig     = config.Load
	LoadConfigFile = config.LoadFile
)

package conf

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable read by
// EnvironmentLayer.
const EnvPrefix = "STARTUPAPP_"

// environment lists the switches that may be set from the environment.
// Unset variables leave their field nil.
type environment struct {
	ConfigDir *string `env:"CONFIG_DIR"`
	CmdFile   *string `env:"CONFIG"`
	LogSys    *string `env:"LOGSYS"`
	Verbose   *int    `env:"VERBOSE"`
	Debug     *bool   `env:"DEBUG"`
	TestRun   *bool   `env:"TESTRUN"`
	NoLogging *bool   `env:"NOLOGGING"`
	NoConfig  *bool   `env:"NOCONFIG"`
}

// EnvironmentLayer reads the STARTUPAPP_* variables from environ, or from the
// process environment when environ is nil.
func EnvironmentLayer(environ map[string]string) (ConfigMap, error) {
	var e environment
	err := env.ParseWithOptions(&e, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return ConfigMap{}, fmt.Errorf("error getting env configs: %w", err)
	}

	var m ConfigMap
	set := func(key string, value any) {
		m.Set(ConfigEntry{Key: key, Value: value, Origin: Environment, Overridable: true})
	}
	if e.ConfigDir != nil {
		set(KeyConfigDir, *e.ConfigDir)
	}
	if e.CmdFile != nil {
		set(KeyCmdFile, *e.CmdFile)
	}
	if e.LogSys != nil {
		set(KeyLogSys, *e.LogSys)
	}
	if e.Verbose != nil {
		set(KeyVerbose, *e.Verbose)
	}
	if e.Debug != nil {
		set(KeyDebug, *e.Debug)
	}
	if e.TestRun != nil {
		set(KeyTestRun, *e.TestRun)
	}
	if e.NoLogging != nil {
		set(KeyNoLogging, *e.NoLogging)
	}
	if e.NoConfig != nil {
		set(KeyNoConfig, *e.NoConfig)
	}
	return m, nil
}

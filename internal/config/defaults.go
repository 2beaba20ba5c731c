// Package config provides internal configuration loading and processing.
package config

import (
	"github.com/smykla-skalski/calcengine/pkg/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// DefaultConfig returns a configuration with every section populated.
func DefaultConfig() *config.Config {
	level := logger.LevelError

	return &config.Config{
		Plugins: &config.PluginsConfig{
			Directory:        config.DefaultPluginsDirectory,
			Ignore:           []string{},
			InterfaceVersion: config.DefaultInterfaceVersion,
		},
		Log: &config.LogConfig{
			Level: &level,
		},
		REPL: &config.REPLConfig{
			Prompt: config.PromptAuto,
		},
		Doctor: &config.DoctorConfig{
			Timeout: config.Duration(config.DefaultDoctorTimeout),
		},
	}
}

// defaultsToMap mirrors DefaultConfig as a koanf-loadable map.
func defaultsToMap() map[string]any {
	return map[string]any{
		"plugins": map[string]any{
			"directory":         config.DefaultPluginsDirectory,
			"ignore":            []string{},
			"interface_version": config.DefaultInterfaceVersion,
		},
		"log": map[string]any{
			"level": "error",
			"file":  "",
		},
		"repl": map[string]any{
			"prompt": string(config.PromptAuto),
		},
		"doctor": map[string]any{
			"timeout": config.DefaultDoctorTimeout.String(),
		},
	}
}

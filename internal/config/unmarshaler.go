package config

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/smykla-skalski/calcengine/pkg/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// CustomDecoderConfig returns a mapstructure decoder config with hooks for
// the log level and duration types.
func CustomDecoderConfig(result any) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToLevelHookFunc(),
			stringToDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           result,
	}
}

// stringToLevelHookFunc converts level names to logger.Level.
//
//nolint:ireturn // required by mapstructure.DecodeHookFunc interface
func stringToLevelHookFunc() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeFor[logger.Level]() {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return logger.ParseLevel(v)
		case int:
			return logger.Level(v), nil
		default:
			return data, nil
		}
	}
}

// stringToDurationHookFunc converts duration strings to config.Duration.
//
//nolint:ireturn // required by mapstructure.DecodeHookFunc interface
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeFor[config.Duration]() {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}

			return config.Duration(d), nil
		case int64:
			return config.Duration(time.Duration(v)), nil
		case float64:
			return config.Duration(time.Duration(v)), nil
		default:
			return data, nil
		}
	}
}

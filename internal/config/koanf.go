package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/maps"
	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/smykla-skalski/calcengine/pkg/config"
)

var (
	// ErrConfigNotFound is returned when an explicit configuration file is missing.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidPermissions is returned when config file has insecure permissions.
	ErrInvalidPermissions = errors.New("config file has insecure permissions")
)

const (
	// GlobalConfigDir is the directory name for global configuration.
	GlobalConfigDir = ".calcengine"

	// GlobalConfigFile is the name of the global configuration file.
	GlobalConfigFile = "config.toml"

	// ProjectConfigFile is the project configuration file name.
	ProjectConfigFile = "calcengine.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CALCENGINE_"
)

// Flag keys understood by Load.
const (
	FlagConfig     = "config"
	FlagPluginsDir = "plugins-dir"
	FlagLogLevel   = "log-level"
	FlagLogFile    = "log-file"
)

// KoanfLoader handles configuration loading from multiple sources using koanf.
// Precedence order (highest to lowest):
// 1. CLI Flags
// 2. Environment Variables (CALCENGINE_*)
// 3. Project Config (./calcengine.toml, or the file named by --config)
// 4. Global Config (~/.calcengine/config.toml)
// 5. Defaults
type KoanfLoader struct {
	k       *koanf.Koanf
	homeDir string
	workDir string
	sources []string
}

// NewKoanfLoader creates a new KoanfLoader with default directories.
func NewKoanfLoader() (*KoanfLoader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get home directory")
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get working directory")
	}

	return NewKoanfLoaderWithDirs(homeDir, workDir), nil
}

// NewKoanfLoaderWithDirs creates a new KoanfLoader with custom directories.
func NewKoanfLoaderWithDirs(homeDir, workDir string) *KoanfLoader {
	return &KoanfLoader{
		k:       koanf.New("."),
		homeDir: homeDir,
		workDir: workDir,
	}
}

// Load loads and validates configuration from all sources.
func (l *KoanfLoader) Load(flags map[string]any) (*config.Config, error) {
	cfg, err := l.LoadWithoutValidation(flags)
	if err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// LoadWithoutValidation loads configuration without running validation.
// Defaults → Global TOML → Project TOML → Env Vars → CLI Flags
func (l *KoanfLoader) LoadWithoutValidation(flags map[string]any) (*config.Config, error) {
	l.k = koanf.New(".")
	l.sources = nil

	if err := l.k.Load(confmap.Provider(defaultsToMap(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	if err := l.loadTOMLFile(l.GlobalConfigPath()); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load global config")
	}

	projectPath, explicit := l.projectConfigPath(flags)
	if err := l.loadTOMLFile(projectPath); err != nil {
		switch {
		case os.IsNotExist(err) && explicit:
			return nil, errors.Wrapf(ErrConfigNotFound, "%s", projectPath)
		case !os.IsNotExist(err):
			return nil, errors.Wrap(err, "failed to load project config")
		}
	}

	envOpt := env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
	}

	if err := l.k.Load(env.Provider(".", envOpt), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	if flagConfig := flagsToConfig(flags); len(flagConfig) > 0 {
		if err := l.k.Load(confmap.Provider(flagConfig, "."), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	var cfg config.Config

	conf := koanf.UnmarshalConf{
		Tag:           "koanf",
		DecoderConfig: CustomDecoderConfig(&cfg),
	}

	if err := l.k.UnmarshalWithConf("", &cfg, conf); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// Effective returns the merged configuration of the last load as a nested map.
func (l *KoanfLoader) Effective() map[string]any {
	return maps.Unflatten(l.k.All(), ".")
}

// Sources returns the config files that contributed to the last load.
func (l *KoanfLoader) Sources() []string {
	return append([]string(nil), l.sources...)
}

// loadTOMLFile loads a TOML configuration file with security checks.
func (l *KoanfLoader) loadTOMLFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.Mode().Perm()&0o002 != 0 {
		return errors.Wrapf(
			ErrInvalidPermissions,
			"%s is world-writable (mode: %s)",
			path,
			info.Mode().Perm(),
		)
	}

	if err := l.k.Load(file.Provider(path), tomlparser.Parser()); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}

	l.sources = append(l.sources, path)

	return nil
}

// envTransform maps CALCENGINE_<SECTION>_<KEY> to section.key. Only the first
// underscore separates the section, so CALCENGINE_PLUGINS_INTERFACE_VERSION
// becomes plugins.interface_version.
func envTransform(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key, value
	}

	if section == "plugins" && rest == "ignore" {
		return section + "." + rest, strings.Split(value, ",")
	}

	return section + "." + rest, value
}

// GlobalConfigPath returns the path to the global configuration file.
func (l *KoanfLoader) GlobalConfigPath() string {
	return filepath.Join(l.homeDir, GlobalConfigDir, GlobalConfigFile)
}

// ProjectConfigPath returns the path to the project configuration file.
func (l *KoanfLoader) ProjectConfigPath() string {
	return filepath.Join(l.workDir, ProjectConfigFile)
}

func (l *KoanfLoader) projectConfigPath(flags map[string]any) (string, bool) {
	if path, ok := flags[FlagConfig].(string); ok && path != "" {
		path = config.ExpandHome(path)
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.workDir, path)
		}

		return path, true
	}

	return l.ProjectConfigPath(), false
}

// flagsToConfig converts CLI flags to a configuration map. Empty values are
// treated as unset.
func flagsToConfig(flags map[string]any) map[string]any {
	result := make(map[string]any)

	for key, value := range flags {
		strVal, ok := value.(string)
		if !ok || strVal == "" {
			continue
		}

		switch key {
		case FlagPluginsDir:
			ensureMapKey(result, "plugins")["directory"] = strVal
		case FlagLogLevel:
			ensureMapKey(result, "log")["level"] = strVal
		case FlagLogFile:
			ensureMapKey(result, "log")["file"] = strVal
		}
	}

	return result
}

// ensureMapKey ensures a key exists as a map and returns it.
func ensureMapKey(cfg map[string]any, key string) map[string]any {
	if _, ok := cfg[key]; !ok {
		cfg[key] = make(map[string]any)
	}

	result, _ := cfg[key].(map[string]any)

	return result
}

package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/smykla-skalski/calcengine/internal/schema"
	"github.com/smykla-skalski/calcengine/pkg/config"
)

const (
	// ConfigFileMode is the file mode for configuration files (user read/write only).
	ConfigFileMode = 0o600

	// ConfigDirMode is the file mode for configuration directories (user rwx only).
	ConfigDirMode = 0o700

	diffContextLines = 3
)

// ErrConfigExists is returned when writing over an existing file without force.
var ErrConfigExists = errors.New("configuration file already exists")

// Writer handles writing configuration to TOML files.
type Writer struct {
	homeDir string
	workDir string
}

// NewWriterWithDirs creates a new Writer with custom directories.
func NewWriterWithDirs(homeDir, workDir string) *Writer {
	return &Writer{
		homeDir: homeDir,
		workDir: workDir,
	}
}

// Render encodes the configuration as TOML, prefixed with the schema directive.
func (*Writer) Render(cfg *config.Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "config is nil")
	}

	var buf bytes.Buffer

	buf.WriteString(schema.SchemaDirective())
	buf.WriteString("\n\n")

	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)

	if err := encoder.Encode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to encode config to TOML")
	}

	return buf.Bytes(), nil
}

// WriteFile writes the configuration to the given path. An existing file is
// only replaced when force is set.
func (w *Writer) WriteFile(path string, cfg *config.Config, force bool) error {
	data, err := w.Render(cfg)
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.Wrapf(ErrConfigExists, "%s", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, ConfigDirMode); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	if err := os.WriteFile(path, data, ConfigFileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}

	return nil
}

// Diff returns a unified diff from the file at path to the rendered
// configuration. A missing file diffs against empty content. The result is
// empty when nothing would change.
func (w *Writer) Diff(path string, cfg *config.Config) (string, error) {
	next, err := w.Render(cfg)
	if err != nil {
		return "", err
	}

	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(string(next)),
		FromFile: path,
		ToFile:   path + " (new)",
		Context:  diffContextLines,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", errors.Wrap(err, "failed to compute diff")
	}

	return text, nil
}

// GlobalConfigPath returns the path to the global configuration file.
func (w *Writer) GlobalConfigPath() string {
	return filepath.Join(w.homeDir, GlobalConfigDir, GlobalConfigFile)
}

// ProjectConfigPath returns the path to the project configuration file.
func (w *Writer) ProjectConfigPath() string {
	return filepath.Join(w.workDir, ProjectConfigFile)
}

// Package fixers provides auto-fix implementations for doctor results.
package fixers

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/internal/doctor"
)

const (
	pluginsDirPermissions = 0o750
	configPermissions     = 0o600
)

var (
	_ doctor.Fixer = (*PluginsDirFixer)(nil)
	_ doctor.Fixer = (*PermissionsFixer)(nil)
)

// PluginsDirFixer creates the plugins directory.
type PluginsDirFixer struct {
	dir string
}

// NewPluginsDirFixer creates a fixer for dir.
func NewPluginsDirFixer(dir string) *PluginsDirFixer {
	return &PluginsDirFixer{dir: dir}
}

// ID returns the fixer identifier.
func (*PluginsDirFixer) ID() string {
	return doctor.FixCreatePluginsDir
}

// Description returns a human-readable description.
func (f *PluginsDirFixer) Description() string {
	return "Create plugins directory " + f.dir
}

// Fix creates the directory and any missing parents.
func (f *PluginsDirFixer) Fix(_ context.Context) error {
	if err := os.MkdirAll(f.dir, pluginsDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", f.dir)
	}

	return nil
}

// PermissionsFixer removes world write access from config files.
type PermissionsFixer struct {
	paths []string
}

// NewPermissionsFixer creates a fixer for the given config files. Missing
// files are ignored.
func NewPermissionsFixer(paths ...string) *PermissionsFixer {
	return &PermissionsFixer{paths: paths}
}

// ID returns the fixer identifier.
func (*PermissionsFixer) ID() string {
	return doctor.FixConfigPermissions
}

// Description returns a human-readable description.
func (*PermissionsFixer) Description() string {
	return "Restrict configuration files to mode 0600"
}

// Fix chmods every world-writable file to 0600.
func (f *PermissionsFixer) Fix(_ context.Context) error {
	for _, path := range f.paths {
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return errors.Wrapf(err, "failed to stat %s", path)
		}

		if info.Mode().Perm()&0o002 == 0 {
			continue
		}

		if err := os.Chmod(path, configPermissions); err != nil {
			return errors.Wrapf(err, "failed to chmod %s", path)
		}
	}

	return nil
}

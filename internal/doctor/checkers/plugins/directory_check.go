// Package plugins provides checkers for the plugins directory.
package plugins

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"github.com/smykla-skalski/calcengine/internal/doctor"
)

const checkName = "Plugins directory"

// DirectoryChecker checks that the plugins directory exists and is readable.
type DirectoryChecker struct {
	dir string
}

// NewDirectoryChecker creates a checker for dir, which must already have ~
// expanded.
func NewDirectoryChecker(dir string) *DirectoryChecker {
	return &DirectoryChecker{dir: dir}
}

// Name returns the name of the check
func (*DirectoryChecker) Name() string {
	return checkName
}

// Category returns the category of the check
func (*DirectoryChecker) Category() doctor.Category {
	return doctor.CategoryPlugins
}

// Check performs the plugins directory check
func (c *DirectoryChecker) Check(_ context.Context) doctor.CheckResult {
	info, err := os.Stat(c.dir)

	switch {
	case errors.Is(err, os.ErrNotExist):
		return doctor.FailError(checkName, "Directory not found").
			WithDetails("Expected at: "+c.dir).
			WithFixID(doctor.FixCreatePluginsDir)
	case err != nil:
		return doctor.FailError(checkName, fmt.Sprintf("Cannot stat: %v", err))
	case !info.IsDir():
		return doctor.FailError(checkName, "Not a directory").WithDetails("Path: " + c.dir)
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return doctor.FailError(checkName, "Directory not readable").
			WithDetails("Path: "+c.dir, err.Error())
	}

	var (
		files int
		size  uint64
	)

	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil || fi.IsDir() {
			continue
		}

		files++
		size += uint64(max(fi.Size(), 0))
	}

	if info.Mode().Perm()&0o002 != 0 {
		return doctor.FailWarning(checkName, "World-writable").
			WithDetails(
				"Path: "+c.dir,
				"Any user can install modules that calcengine will load",
			)
	}

	return doctor.Pass(checkName, fmt.Sprintf("%d file(s), %s", files, humanize.Bytes(size))).
		WithDetails("Path: " + c.dir)
}

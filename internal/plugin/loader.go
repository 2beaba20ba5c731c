// Package plugin discovers native operation modules and manages their
// lifecycle.
package plugin

//go:generate mockgen -source=loader.go -destination=loader_mock.go -package=plugin

import (
	"github.com/smykla-skalski/calcengine/pkg/plugin"
)

// Loader opens native libraries and calls their exported entry points.
type Loader interface {
	// Open maps the library at path. It returns ErrLibraryNotFound when the
	// file does not exist and ErrLibraryOpenFailed for anything else. A
	// failed Open leaves no state behind.
	Open(path string) (plugin.LibraryHandle, error)

	// Close unmaps a library. Zero and already closed handles are ignored.
	Close(lib plugin.LibraryHandle)

	// CreateInstance calls the library's create export.
	CreateInstance(lib plugin.LibraryHandle) (plugin.Instance, error)

	// DestroyInstance calls the library's destroy export on inst.
	DestroyInstance(lib plugin.LibraryHandle, inst plugin.Instance) error

	// PluginType returns the result of getType, or "" when it is absent.
	PluginType(lib plugin.LibraryHandle) string

	// PluginName returns the result of getName, or "" when it is absent.
	PluginName(lib plugin.LibraryHandle) string
}

package plugin

import "github.com/cockroachdb/errors"

var (
	// ErrDirectoryUnavailable is recorded when the plugins directory cannot be listed.
	ErrDirectoryUnavailable = errors.New("plugins directory unavailable")

	// ErrProbeFailed marks a discovery candidate that was not registered.
	ErrProbeFailed = errors.New("probe failed")

	// ErrLibraryNotFound is returned when the library file does not exist.
	ErrLibraryNotFound = errors.New("library not found")

	// ErrLibraryOpenFailed is returned when the file is not a loadable library.
	ErrLibraryOpenFailed = errors.New("library open failed")

	// ErrSymbolNotFound is returned when a required export is missing.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUnknownPlugin is returned when no descriptor matches (type, name).
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrInstanceCreateFailed is returned when create yields no usable instance.
	ErrInstanceCreateFailed = errors.New("instance creation failed")

	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("registry already initialized")

	// ErrUnsupportedPlatform is returned by loaders on platforms without dlopen.
	ErrUnsupportedPlatform = errors.New("native plugins are not supported on this platform")
)

//go:build !linux && !darwin && !freebsd

package plugin

import (
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/plugin"
)

// NativeLoader is unavailable on this platform. Every Open fails with
// ErrUnsupportedPlatform, so discovery records each candidate as OpenFailed.
type NativeLoader struct{}

// NewNativeLoader creates a new NativeLoader.
func NewNativeLoader() *NativeLoader {
	return &NativeLoader{}
}

// Open always fails with ErrUnsupportedPlatform.
func (*NativeLoader) Open(path string) (plugin.LibraryHandle, error) {
	return 0, errors.Mark(errors.Wrapf(ErrUnsupportedPlatform, "%s", path), ErrLibraryOpenFailed)
}

// Close is a no-op.
func (*NativeLoader) Close(plugin.LibraryHandle) {}

// CreateInstance always fails with ErrUnsupportedPlatform.
//
//nolint:ireturn // interface return is required by Loader interface
func (*NativeLoader) CreateInstance(plugin.LibraryHandle) (plugin.Instance, error) {
	return nil, ErrUnsupportedPlatform
}

// DestroyInstance always fails with ErrUnsupportedPlatform.
func (*NativeLoader) DestroyInstance(plugin.LibraryHandle, plugin.Instance) error {
	return ErrUnsupportedPlatform
}

// PluginType returns "".
func (*NativeLoader) PluginType(plugin.LibraryHandle) string { return "" }

// PluginName returns "".
func (*NativeLoader) PluginName(plugin.LibraryHandle) string { return "" }

// ResolveSymbol always fails with ErrUnsupportedPlatform.
func ResolveSymbol[T any](_ plugin.LibraryHandle, symbol string) (T, error) {
	var fn T

	return fn, errors.Wrapf(ErrUnsupportedPlatform, "%s", symbol)
}

//go:build linux || darwin || freebsd

package plugin

import (
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/ebitengine/purego"

	"github.com/smykla-skalski/calcengine/pkg/plugin"
)

// vtableSlots is the number of function pointers at the start of an instance.
const vtableSlots = 2

// NativeLoader loads C-ABI shared libraries through dlopen.
//
// Every successful Open must be paired with one Close. The loader counts
// opens per handle so that stray or repeated Close calls never reach dlclose.
type NativeLoader struct {
	mu   sync.Mutex
	refs map[plugin.LibraryHandle]int
}

// NewNativeLoader creates a new NativeLoader.
func NewNativeLoader() *NativeLoader {
	return &NativeLoader{
		refs: make(map[plugin.LibraryHandle]int),
	}
}

// Open maps the library at path with RTLD_NOW|RTLD_LOCAL. Relative paths are
// resolved against the working directory; dlopen never searches the system
// library path.
func (l *NativeLoader) Open(path string) (plugin.LibraryHandle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "resolve %s", path), ErrLibraryOpenFailed)
	}

	path = abs

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Wrapf(ErrLibraryNotFound, "%s", path)
		}

		return 0, errors.Mark(errors.Wrapf(err, "stat %s", path), ErrLibraryOpenFailed)
	}

	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "dlopen %s", path), ErrLibraryOpenFailed)
	}

	lib := plugin.LibraryHandle(handle)

	l.mu.Lock()
	l.refs[lib]++
	l.mu.Unlock()

	return lib, nil
}

// Close releases one reference taken by Open.
func (l *NativeLoader) Close(lib plugin.LibraryHandle) {
	if lib.IsZero() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.refs[lib]
	if !ok {
		return
	}

	if n <= 1 {
		delete(l.refs, lib)
	} else {
		l.refs[lib] = n - 1
	}

	_ = purego.Dlclose(uintptr(lib))
}

// CreateInstance calls create and binds the returned instance's vtable.
//
//nolint:ireturn // interface return is required by Loader interface
func (*NativeLoader) CreateInstance(lib plugin.LibraryHandle) (plugin.Instance, error) {
	create, err := ResolveSymbol[func() uintptr](lib, plugin.SymbolCreate)
	if err != nil {
		return nil, err
	}

	handle := create()
	if handle == 0 {
		return nil, errors.Wrap(ErrInstanceCreateFailed, "create returned null")
	}

	inst, err := bindInstance(plugin.InstanceHandle(handle))
	if err != nil {
		if destroy, derr := ResolveSymbol[func(uintptr)](lib, plugin.SymbolDestroy); derr == nil {
			destroy(handle)
		}

		return nil, err
	}

	return inst, nil
}

// DestroyInstance calls destroy on the instance handle.
func (*NativeLoader) DestroyInstance(lib plugin.LibraryHandle, inst plugin.Instance) error {
	if inst == nil {
		return nil
	}

	destroy, err := ResolveSymbol[func(uintptr)](lib, plugin.SymbolDestroy)
	if err != nil {
		return err
	}

	destroy(uintptr(inst.Handle()))

	return nil
}

// PluginType returns the result of getType, or "".
func (*NativeLoader) PluginType(lib plugin.LibraryHandle) string {
	return callString(lib, plugin.SymbolGetType)
}

// PluginName returns the result of getName, or "".
func (*NativeLoader) PluginName(lib plugin.LibraryHandle) string {
	return callString(lib, plugin.SymbolGetName)
}

func callString(lib plugin.LibraryHandle, symbol string) string {
	get, err := ResolveSymbol[func() string](lib, symbol)
	if err != nil {
		return ""
	}

	return get()
}

// ResolveSymbol binds the export named symbol to a Go function of type T.
// A missing export is reported as ErrSymbolNotFound, never as a nil func.
func ResolveSymbol[T any](lib plugin.LibraryHandle, symbol string) (T, error) {
	var fn T

	if lib.IsZero() {
		return fn, errors.Wrapf(ErrSymbolNotFound, "%s: no library", symbol)
	}

	ptr, err := purego.Dlsym(uintptr(lib), symbol)
	if err != nil || ptr == 0 {
		return fn, errors.Wrapf(ErrSymbolNotFound, "%s", symbol)
	}

	if err := bindFunc(&fn, ptr); err != nil {
		return fn, errors.Wrapf(err, "bind %s", symbol)
	}

	return fn, nil
}

// bindFunc wraps purego.RegisterFunc, which panics on unsupported signatures.
func bindFunc(fptr any, ptr uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("register native function: %v", r)
		}
	}()

	purego.RegisterFunc(fptr, ptr)

	return nil
}

func bindInstance(handle plugin.InstanceHandle) (*nativeInstance, error) {
	//nolint:govet // handle points into C memory owned by the module
	vtable := *(**[vtableSlots]uintptr)(unsafe.Pointer(&handle))

	versionPtr, executePtr := vtable[0], vtable[1]
	if versionPtr == 0 || executePtr == 0 {
		return nil, errors.Wrap(ErrInstanceCreateFailed, "instance vtable has null entries")
	}

	inst := &nativeInstance{handle: handle}

	if err := bindFunc(&inst.version, versionPtr); err != nil {
		return nil, errors.Mark(err, ErrInstanceCreateFailed)
	}

	if err := bindFunc(&inst.execute, executePtr); err != nil {
		return nil, errors.Mark(err, ErrInstanceCreateFailed)
	}

	return inst, nil
}

// nativeInstance calls through the vtable of a C instance.
type nativeInstance struct {
	handle  plugin.InstanceHandle
	version func(self uintptr) string
	execute func(self uintptr, a, b float64) float64
}

func (i *nativeInstance) Execute(a, b float64) float64 {
	return i.execute(uintptr(i.handle), a, b)
}

func (i *nativeInstance) Version() string {
	return i.version(uintptr(i.handle))
}

func (i *nativeInstance) Handle() plugin.InstanceHandle {
	return i.handle
}

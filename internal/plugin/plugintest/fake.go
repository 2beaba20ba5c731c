// Package plugintest provides an in-memory Loader for tests.
package plugintest

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"

	internalplugin "github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/pkg/plugin"
)

// Module describes a fake library served by a Loader.
type Module struct {
	Type    string
	Name    string
	Version string
	Func    func(a, b float64) float64

	// NotLibrary makes Open fail as it would for a plain file.
	NotLibrary bool
	// FailCreate makes CreateInstance fail.
	FailCreate bool
	// FailDestroy makes DestroyInstance fail.
	FailDestroy bool
}

// Add returns a module computing a+b.
func Add() Module {
	return Module{
		Type:    plugin.TypeOperation,
		Name:    "add",
		Version: plugin.InterfaceVersion,
		Func:    func(a, b float64) float64 { return a + b },
	}
}

// Sub returns a module computing a-b.
func Sub() Module {
	return Module{
		Type:    plugin.TypeOperation,
		Name:    "sub",
		Version: plugin.InterfaceVersion,
		Func:    func(a, b float64) float64 { return a - b },
	}
}

// Loader is a Loader backed by a path → Module table. It counts every
// lifecycle call so tests can assert that handles balance.
type Loader struct {
	mu      sync.Mutex
	modules map[string]Module
	libs    map[plugin.LibraryHandle]string
	live    map[plugin.InstanceHandle]bool
	next    uintptr

	Opens    int
	Closes   int
	Creates  int
	Destroys int

	// StaleCalls counts Execute calls on instances already destroyed.
	StaleCalls int
}

var _ internalplugin.Loader = (*Loader)(nil)

// NewLoader creates a Loader serving modules keyed by path.
func NewLoader(modules map[string]Module) *Loader {
	if modules == nil {
		modules = make(map[string]Module)
	}

	return &Loader{
		modules: modules,
		libs:    make(map[plugin.LibraryHandle]string),
		live:    make(map[plugin.InstanceHandle]bool),
	}
}

// NewDirectory creates one placeholder file in dir per entry of modules,
// keyed by file name, and returns a Loader serving them by full path.
func NewDirectory(dir string, modules map[string]Module) (*Loader, error) {
	byPath := make(map[string]Module, len(modules))

	for name, m := range modules {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0o600); err != nil {
			return nil, errors.Wrapf(err, "write %s", path)
		}

		byPath[path] = m
	}

	return NewLoader(byPath), nil
}

// Open implements Loader.
func (l *Loader) Open(path string) (plugin.LibraryHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.modules[path]
	if !ok {
		return 0, errors.Wrapf(internalplugin.ErrLibraryNotFound, "%s", path)
	}

	if m.NotLibrary {
		return 0, errors.Wrapf(internalplugin.ErrLibraryOpenFailed, "%s", path)
	}

	l.next++
	lib := plugin.LibraryHandle(l.next)
	l.libs[lib] = path
	l.Opens++

	return lib, nil
}

// Close implements Loader.
func (l *Loader) Close(lib plugin.LibraryHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.libs[lib]; !ok {
		return
	}

	delete(l.libs, lib)
	l.Closes++
}

// CreateInstance implements Loader.
//
//nolint:ireturn // interface return is required by Loader interface
func (l *Loader) CreateInstance(lib plugin.LibraryHandle) (plugin.Instance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.module(lib)
	if err != nil {
		return nil, err
	}

	if m.FailCreate {
		return nil, errors.Wrap(internalplugin.ErrInstanceCreateFailed, "create returned null")
	}

	l.next++
	handle := plugin.InstanceHandle(l.next)
	l.live[handle] = true
	l.Creates++

	return &Instance{handle: handle, module: m, loader: l}, nil
}

// DestroyInstance implements Loader.
func (l *Loader) DestroyInstance(lib plugin.LibraryHandle, inst plugin.Instance) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.module(lib)
	if err != nil {
		return err
	}

	if m.FailDestroy {
		return errors.Wrapf(internalplugin.ErrSymbolNotFound, "%s", plugin.SymbolDestroy)
	}

	if !l.live[inst.Handle()] {
		return errors.Newf("instance %d destroyed twice", inst.Handle())
	}

	delete(l.live, inst.Handle())
	l.Destroys++

	return nil
}

// PluginType implements Loader.
func (l *Loader) PluginType(lib plugin.LibraryHandle) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.module(lib)
	if err != nil {
		return ""
	}

	return m.Type
}

// PluginName implements Loader.
func (l *Loader) PluginName(lib plugin.LibraryHandle) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.module(lib)
	if err != nil {
		return ""
	}

	return m.Name
}

// Replace swaps the module served at path. Already open libraries keep
// their handle but see the new behavior.
func (l *Loader) Replace(path string, m Module) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.modules[path] = m
}

// OpenLibraries returns how many libraries are currently open.
func (l *Loader) OpenLibraries() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.libs)
}

// LiveInstances returns how many instances have not been destroyed.
func (l *Loader) LiveInstances() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.live)
}

// Reset zeroes the call counters.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Opens, l.Closes, l.Creates, l.Destroys, l.StaleCalls = 0, 0, 0, 0, 0
}

func (l *Loader) module(lib plugin.LibraryHandle) (Module, error) {
	path, ok := l.libs[lib]
	if !ok {
		return Module{}, errors.Newf("library %d is not open", lib)
	}

	return l.modules[path], nil
}

// Instance is a fake plugin.Instance.
type Instance struct {
	handle plugin.InstanceHandle
	module Module
	loader *Loader
}

// Execute implements plugin.Operation.
func (i *Instance) Execute(a, b float64) float64 {
	i.loader.mu.Lock()
	if !i.loader.live[i.handle] {
		i.loader.StaleCalls++
	}
	i.loader.mu.Unlock()

	if i.module.Func == nil {
		return 0
	}

	return i.module.Func(a, b)
}

// Version implements plugin.Operation.
func (i *Instance) Version() string {
	return i.module.Version
}

// Handle implements plugin.Instance.
func (i *Instance) Handle() plugin.InstanceHandle {
	return i.handle
}

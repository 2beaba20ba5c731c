package plugin

import (
	"cmp"
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
	"github.com/smykla-skalski/calcengine/pkg/plugin"
)

// Registry discovers modules in a directory and manages loaded instances.
//
// The catalog is built once by Initialize. Load and Unload manage at most one
// live instance per descriptor ID. All methods are safe for concurrent use.
type Registry struct {
	loader    Loader
	logger    logger.Logger
	directory string
	ignore    []string

	mu          sync.RWMutex
	initialized bool
	catalog     map[string]Descriptor
	loaded      map[string]*loadedModule
	events      []DiscoveryEvent
	scanErr     error
}

// loadedModule pairs an open library with its live instance.
type loadedModule struct {
	lib      plugin.LibraryHandle
	instance plugin.Instance
}

// Option configures a Registry.
type Option func(*Registry)

// WithDirectory sets the directory scanned by Initialize.
func WithDirectory(dir string) Option {
	return func(r *Registry) {
		r.directory = dir
	}
}

// WithIgnorePatterns sets doublestar globs matched against entry names.
func WithIgnorePatterns(patterns ...string) Option {
	return func(r *Registry) {
		r.ignore = append(r.ignore, patterns...)
	}
}

// NewRegistry creates a registry that loads modules through loader.
func NewRegistry(loader Loader, log logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		loader:    loader,
		logger:    log,
		directory: config.DefaultPluginsDirectory,
		catalog:   make(map[string]Descriptor),
		loaded:    make(map[string]*loadedModule),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.directory = absDirectory(r.directory)

	return r
}

// absDirectory expands ~ and makes dir absolute so that candidate paths
// always contain a slash. dir is returned expanded but relative when the
// working directory is unknown.
func absDirectory(dir string) string {
	dir = config.ExpandHome(dir)

	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	return abs
}

// Directory returns the directory scanned by Initialize.
func (r *Registry) Directory() string {
	return r.directory
}

// Initialize scans the directory once and builds the catalog.
//
// An unreadable directory is not fatal: the catalog stays empty and the
// cause is available from ScanError.
func (r *Registry) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return ErrAlreadyInitialized
	}

	r.initialized = true

	events, err := scanDirectory(r.loader, r.directory, r.ignore)
	if err != nil {
		r.scanErr = err
		r.logger.Error("plugins directory unavailable", "dir", r.directory, "error", err)

		return nil
	}

	for _, event := range events {
		r.record(event)
	}

	r.logger.Info("discovered plugins", "dir", r.directory, "count", len(r.catalog))

	return nil
}

// record applies one discovery event. Must be called with the write lock held.
func (r *Registry) record(event DiscoveryEvent) {
	switch {
	case event.Accepted():
		d := *event.Descriptor
		if prev, ok := r.catalog[d.ID()]; ok {
			event.Reason = ReasonReplaced
			event.Replaces = prev.LibraryPath
			r.shadow(d.ID(), d.LibraryPath)
			r.logger.Debug("replacing plugin",
				"id", d.ID(),
				"previous", prev.LibraryPath,
				"path", d.LibraryPath,
			)
		} else {
			r.logger.Debug("registered plugin", "id", d.ID(), "path", d.LibraryPath)
		}

		r.catalog[d.ID()] = d
	case event.Err != nil:
		r.logger.Info("skipping candidate",
			"path", event.Path,
			"reason", event.Reason.String(),
			"error", event.Err,
		)
	default:
		r.logger.Debug("skipping entry", "path", event.Path, "reason", event.Reason.String())
	}

	r.events = append(r.events, event)
}

// shadow marks the accepted event for id as superseded by path. Must be
// called with the write lock held.
func (r *Registry) shadow(id, path string) {
	for i := range r.events {
		e := &r.events[i]
		if e.Accepted() && e.Descriptor != nil && e.Descriptor.ID() == id {
			e.Reason = ReasonShadowed
			e.ShadowedBy = path
		}
	}
}

// ScanError returns why the directory could not be listed, if it could not.
func (r *Registry) ScanError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.scanErr
}

// Lookup finds the descriptor for (pluginType, name).
func (r *Registry) Lookup(pluginType, name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.catalog[ID(pluginType, name)]

	return d, ok
}

// All returns the catalog sorted by ID.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.SortedFunc(maps.Values(r.catalog), func(a, b Descriptor) int {
		return cmp.Compare(a.ID(), b.ID())
	})
}

// Events returns the discovery events in scan order.
func (r *Registry) Events() []DiscoveryEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.events)
}

// Loaded reports whether d has a live cached instance.
func (r *Registry) Loaded(d Descriptor) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.loaded[d.ID()]

	return ok
}

// Load returns the live instance for d, opening the library and creating an
// instance on first use. The instance is borrowed: it must not be used after
// the matching Unload.
//
//nolint:ireturn // instances are opaque native objects
func (r *Registry) Load(d Descriptor) (plugin.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := d.ID()

	if m, ok := r.loaded[id]; ok {
		return m.instance, nil
	}

	lib, err := r.loader.Open(d.LibraryPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", id)
	}

	inst, err := r.loader.CreateInstance(lib)
	if err != nil {
		r.loader.Close(lib)

		return nil, errors.Wrapf(err, "load %s", id)
	}

	r.loaded[id] = &loadedModule{lib: lib, instance: inst}
	r.logger.Debug("loaded plugin", "id", id, "path", d.LibraryPath)

	return inst, nil
}

// Unload destroys the cached instance of d and closes its library. It is a
// no-op when nothing is cached. A failed destroy still closes the library
// and evicts the entry; the destroy error is returned.
func (r *Registry) Unload(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := d.ID()

	m, ok := r.loaded[id]
	if !ok {
		return nil
	}

	return r.unload(id, m)
}

// unload releases m. Must be called with the write lock held.
func (r *Registry) unload(id string, m *loadedModule) error {
	err := r.loader.DestroyInstance(m.lib, m.instance)
	r.loader.Close(m.lib)
	delete(r.loaded, id)

	if err != nil {
		r.logger.Error("failed to destroy instance", "id", id, "error", err)

		return errors.Wrapf(err, "unload %s", id)
	}

	r.logger.Debug("unloaded plugin", "id", id)

	return nil
}

// Close unloads every cached instance and drops the catalog. Errors from
// individual unloads are joined. Calling Close again is safe.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for _, id := range slices.Sorted(maps.Keys(r.loaded)) {
		if err := r.unload(id, r.loaded[id]); err != nil {
			errs = append(errs, err)
		}
	}

	clear(r.catalog)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Package engine runs operations from discovered modules.
package engine

import (
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/internal/invoke"
	"github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/pkg/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
	pluginapi "github.com/smykla-skalski/calcengine/pkg/plugin"
)

var (
	// ErrPluginUnavailable is returned when a known module cannot be loaded.
	ErrPluginUnavailable = errors.New("plugin unavailable")

	// ErrIncompatibleVersion is returned when a module reports an interface
	// version outside the configured constraint.
	ErrIncompatibleVersion = errors.New("incompatible interface version")
)

// Engine resolves operations by (type, name) and runs them through the
// registry, loading the module for each call and unloading it afterwards.
//
// Engine is safe for concurrent use. The registry caches one instance per
// module, so calls on the same module run one at a time; calls on different
// modules run in parallel.
type Engine struct {
	registry   *plugin.Registry
	logger     logger.Logger
	constraint *semver.Constraints

	locks sync.Map // module ID -> *sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine) error

// WithVersionConstraint sets the semver constraint instance versions must
// satisfy. The default is "^1.0".
func WithVersionConstraint(constraint string) Option {
	return func(e *Engine) error {
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			return errors.Wrapf(err, "version constraint %q", constraint)
		}

		e.constraint = c

		return nil
	}
}

// New creates an Engine over registry.
func New(registry *plugin.Registry, log logger.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: registry,
		logger:   log,
	}

	opts = append([]Option{WithVersionConstraint(config.DefaultInterfaceVersion)}, opts...)

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Start scans the plugins directory.
func (e *Engine) Start() error {
	if err := e.registry.Initialize(); err != nil {
		return errors.Wrap(err, "start engine")
	}

	e.logger.Info("engine started", "operations", len(e.registry.All()))

	return nil
}

// Stop unloads every module.
func (e *Engine) Stop() error {
	return e.registry.Close()
}

// IsSupported reports whether a module for (pluginType, name) was discovered.
func (e *Engine) IsSupported(pluginType, name string) bool {
	_, ok := e.registry.Lookup(pluginType, name)

	return ok
}

// Catalog returns every discovered descriptor, sorted by ID.
func (e *Engine) Catalog() []plugin.Descriptor {
	return e.registry.All()
}

// Registry returns the underlying registry.
func (e *Engine) Registry() *plugin.Registry {
	return e.registry
}

// Run executes the operation (pluginType, name) on a and b.
func (e *Engine) Run(pluginType, name string, a, b float64) (float64, error) {
	var result float64

	err := e.withInstance(pluginType, name, func(inst pluginapi.Instance) error {
		result = inst.Execute(a, b)

		return nil
	})
	if err != nil {
		return 0, err
	}

	return result, nil
}

// Verify loads the module (pluginType, name), checks its reported interface
// version against the constraint and unloads it. It returns the reported
// version, which is set even when the check fails.
func (e *Engine) Verify(pluginType, name string) (string, error) {
	var version string

	err := e.withInstance(pluginType, name, func(pluginapi.Instance) error {
		return nil
	}, func(inst pluginapi.Instance) {
		version = inst.Version()
	})

	return version, err
}

// Invoke calls a JSON method on the operation (pluginType, name).
func (e *Engine) Invoke(pluginType, name, method string, input []byte) ([]byte, error) {
	var output []byte

	err := e.withInstance(pluginType, name, func(inst pluginapi.Instance) error {
		var err error

		output, err = invoke.ForOperation(inst).Invoke(method, input)

		return err
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// Describe returns the JSON schemas of method without loading the module.
func (e *Engine) Describe(pluginType, name, method string) (invoke.MethodSchema, error) {
	if !e.IsSupported(pluginType, name) {
		return invoke.MethodSchema{}, errors.Wrapf(plugin.ErrUnknownPlugin, "%s", plugin.ID(pluginType, name))
	}

	return invoke.ForOperation(nil).Describe(method)
}

// Methods returns the JSON method names every operation exposes.
func (*Engine) Methods() []string {
	return invoke.ForOperation(nil).Methods()
}

// withInstance runs fn against a freshly loaded instance and unloads it
// afterwards, holding the module's lock throughout. Observers see the instance before its version is checked.
// Unload failures are logged and never returned.
func (e *Engine) withInstance(
	pluginType, name string,
	fn func(pluginapi.Instance) error,
	observe ...func(pluginapi.Instance),
) error {
	d, ok := e.registry.Lookup(pluginType, name)
	if !ok {
		return errors.Wrapf(plugin.ErrUnknownPlugin, "%s", plugin.ID(pluginType, name))
	}

	mu := e.lock(d.ID())
	defer mu.Unlock()

	inst, err := e.registry.Load(d)
	if err != nil {
		return errors.Mark(err, ErrPluginUnavailable)
	}

	for _, o := range observe {
		o(inst)
	}

	opErr := e.checkVersion(d, inst)
	if opErr == nil {
		opErr = fn(inst)
	}

	if err := e.registry.Unload(d); err != nil {
		e.logger.Error("failed to unload plugin", "id", d.ID(), "error", err)
	}

	return opErr
}

// lock acquires the mutex guarding the load/unload cycle of id.
func (e *Engine) lock(id string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex) //nolint:forcetypeassert // only *sync.Mutex is stored

	mu.Lock()

	return mu
}

func (e *Engine) checkVersion(d plugin.Descriptor, inst pluginapi.Instance) error {
	reported := inst.Version()

	v, err := semver.NewVersion(reported)
	if err != nil {
		return errors.Wrapf(ErrIncompatibleVersion, "%s reports %q", d.ID(), reported)
	}

	if !e.constraint.Check(v) {
		return errors.Wrapf(ErrIncompatibleVersion, "%s reports %s, want %s", d.ID(), reported, e.constraint)
	}

	return nil
}

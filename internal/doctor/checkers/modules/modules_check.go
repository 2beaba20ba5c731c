// Package modules provides checkers that probe installed modules.
package modules

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/internal/doctor"
	"github.com/smykla-skalski/calcengine/internal/engine"
	"github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// EngineFactory builds an engine over a fresh registry. Every check run gets
// its own engine so concurrent checks never share native handles.
type EngineFactory func() (*engine.Engine, error)

var (
	_ doctor.MultiChecker = (*DiscoveryChecker)(nil)
	_ doctor.MultiChecker = (*VersionChecker)(nil)
)

// DiscoveryChecker reports one row per plugins directory entry.
type DiscoveryChecker struct {
	newEngine EngineFactory
	logger    logger.Logger
}

// NewDiscoveryChecker creates a DiscoveryChecker.
func NewDiscoveryChecker(newEngine EngineFactory, log logger.Logger) *DiscoveryChecker {
	return &DiscoveryChecker{newEngine: newEngine, logger: log}
}

// Name returns the name of the check
func (*DiscoveryChecker) Name() string {
	return "Modules discovered"
}

// Category returns the category of the check
func (*DiscoveryChecker) Category() doctor.Category {
	return doctor.CategoryModules
}

// Check returns the first row of CheckAll.
func (c *DiscoveryChecker) Check(ctx context.Context) doctor.CheckResult {
	return c.CheckAll(ctx)[0]
}

// CheckAll scans the plugins directory and turns each discovery event into
// a result. It always returns at least one result.
func (c *DiscoveryChecker) CheckAll(_ context.Context) []doctor.CheckResult {
	eng, done, result := start(c.Name(), c.newEngine, c.logger)
	if eng == nil {
		return []doctor.CheckResult{result}
	}
	defer done()

	registry := eng.Registry()

	if err := registry.ScanError(); err != nil {
		return []doctor.CheckResult{
			doctor.Skip(c.Name(), "Plugins directory unavailable").WithDetails(err.Error()),
		}
	}

	events := registry.Events()
	if len(events) == 0 {
		return []doctor.CheckResult{
			doctor.FailWarning(c.Name(), "No modules installed").
				WithDetails("Directory: " + registry.Directory()),
		}
	}

	results := make([]doctor.CheckResult, 0, len(events))
	for _, event := range events {
		results = append(results, eventResult(event))
	}

	return results
}

func eventResult(event plugin.DiscoveryEvent) doctor.CheckResult {
	name := filepath.Base(event.Path)

	var result doctor.CheckResult

	switch event.Reason {
	case plugin.ReasonRegistered:
		result = doctor.Pass(name, event.Descriptor.ID())
	case plugin.ReasonReplaced:
		result = doctor.FailWarning(name, event.Descriptor.ID()+" replaces "+filepath.Base(event.Replaces))
	case plugin.ReasonShadowed:
		result = doctor.FailWarning(name, event.Descriptor.ID()+" shadowed by "+filepath.Base(event.ShadowedBy))
	case plugin.ReasonSkipped:
		result = doctor.Skip(name, "Directory")
	case plugin.ReasonIgnored:
		result = doctor.Skip(name, "Ignored by pattern")
	case plugin.ReasonOpenFailed:
		result = doctor.FailWarning(name, "Not a loadable library")
	case plugin.ReasonCreateFailed:
		result = doctor.FailError(name, "create failed")
	case plugin.ReasonMissingType:
		result = doctor.FailError(name, "getType missing or empty")
	case plugin.ReasonMissingName:
		result = doctor.FailError(name, "getName missing or empty")
	case plugin.ReasonDestroyFailed:
		result = doctor.FailError(name, "destroy failed")
	default:
		result = doctor.FailError(name, event.Reason.String())
	}

	result = result.WithDetails(
		"Path: "+event.Path,
		"Probe: "+event.Duration.String(),
	)

	if msg := event.ErrorMessage(); msg != "" {
		result = result.WithDetails("Error: " + msg)
	}

	return result
}

// VersionChecker loads every discovered module and checks its reported
// interface version against the configured constraint.
type VersionChecker struct {
	newEngine EngineFactory
	logger    logger.Logger
}

// NewVersionChecker creates a VersionChecker.
func NewVersionChecker(newEngine EngineFactory, log logger.Logger) *VersionChecker {
	return &VersionChecker{newEngine: newEngine, logger: log}
}

// Name returns the name of the check
func (*VersionChecker) Name() string {
	return "Interface version"
}

// Category returns the category of the check
func (*VersionChecker) Category() doctor.Category {
	return doctor.CategoryModules
}

// Check returns the first row of CheckAll.
func (c *VersionChecker) Check(ctx context.Context) doctor.CheckResult {
	return c.CheckAll(ctx)[0]
}

// CheckAll returns one result per catalog entry. It stops early, skipping
// the remaining entries, when ctx is done.
func (c *VersionChecker) CheckAll(ctx context.Context) []doctor.CheckResult {
	eng, done, result := start(c.Name(), c.newEngine, c.logger)
	if eng == nil {
		return []doctor.CheckResult{result}
	}
	defer done()

	catalog := eng.Catalog()
	if len(catalog) == 0 {
		return []doctor.CheckResult{doctor.Skip(c.Name(), "No modules discovered")}
	}

	results := make([]doctor.CheckResult, 0, len(catalog))

	for _, d := range catalog {
		name := "version " + d.ID()

		if ctx.Err() != nil {
			results = append(results, doctor.Skip(name, "Cancelled"))
			continue
		}

		version, err := eng.Verify(d.Type, d.Name)

		switch {
		case err == nil:
			results = append(results, doctor.Pass(name, "Reports "+version))
		case errors.Is(err, engine.ErrIncompatibleVersion):
			results = append(results,
				doctor.FailError(name, fmt.Sprintf("Reports %q", version)).WithDetails(err.Error()))
		default:
			results = append(results,
				doctor.FailError(name, "Unavailable").WithDetails(err.Error()))
		}
	}

	return results
}

// start builds and starts an engine. On failure it returns a nil engine and
// a failing result named name.
func start(
	name string,
	newEngine EngineFactory,
	log logger.Logger,
) (*engine.Engine, func(), doctor.CheckResult) {
	eng, err := newEngine()
	if err != nil {
		return nil, nil, doctor.FailError(name, "Cannot create engine").WithDetails(err.Error())
	}

	if err := eng.Start(); err != nil {
		return nil, nil, doctor.FailError(name, "Cannot start engine").WithDetails(err.Error())
	}

	done := func() {
		if err := eng.Stop(); err != nil {
			log.Error("failed to stop engine", "check", name, "error", err)
		}
	}

	return eng, done, doctor.CheckResult{}
}

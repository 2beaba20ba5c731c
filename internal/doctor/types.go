// Package doctor provides health checks and diagnostics for calcengine.
package doctor

import (
	"context"
	"slices"
)

// Severity represents the severity level of a check result
type Severity string

const (
	// SeverityError indicates a problem that stops operations from running
	SeverityError Severity = "error"
	// SeverityWarning indicates a problem that degrades the catalog
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates informational output
	SeverityInfo Severity = "info"
)

// Status represents the status of a health check
type Status string

const (
	// StatusPass indicates the check passed
	StatusPass Status = "pass"
	// StatusFail indicates the check failed
	StatusFail Status = "fail"
	// StatusSkipped indicates the check was skipped
	StatusSkipped Status = "skipped"
)

// Category groups related checks in reports.
type Category string

const (
	// CategoryConfig checks configuration files.
	CategoryConfig Category = "config"
	// CategoryPlugins checks the plugins directory.
	CategoryPlugins Category = "plugins"
	// CategoryModules checks individual modules.
	CategoryModules Category = "modules"
)

// Fix IDs shared by checkers and fixers.
const (
	// FixCreatePluginsDir creates a missing plugins directory.
	FixCreatePluginsDir = "create_plugins_dir"
	// FixConfigPermissions removes world write access from config files.
	FixConfigPermissions = "fix_config_permissions"
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Status   Status   `json:"status"`
	Message  string   `json:"message"`
	Details  []string `json:"details,omitempty"`

	// FixID links to a Fixer that can repair this result, if any.
	FixID string `json:"fix_id,omitempty"`
}

// HealthChecker performs a health check and returns a result
type HealthChecker interface {
	Name() string
	Category() Category
	Check(ctx context.Context) CheckResult
}

// MultiChecker is a HealthChecker that reports one row per inspected item.
// Registries call CheckAll instead of Check when a checker implements it.
type MultiChecker interface {
	HealthChecker
	CheckAll(ctx context.Context) []CheckResult
}

// Fixer repairs issues identified by health checks
type Fixer interface {
	ID() string
	Description() string
	Fix(ctx context.Context) error
}

// Reporter formats and outputs check results
type Reporter interface {
	Report(results []CheckResult, verbose bool)
}

// StreamingReporter runs the checks itself to show progress while they
// execute. The Runner calls RunAndReport for the first pass and Report for
// the re-run after fixes.
type StreamingReporter interface {
	Reporter
	RunAndReport(ctx context.Context, registry *Registry, checkers []HealthChecker, verbose bool) []CheckResult
}

// NewCheckResult creates a new CheckResult with the given parameters
func NewCheckResult(name string, severity Severity, status Status, message string) CheckResult {
	return CheckResult{
		Name:     name,
		Severity: severity,
		Status:   status,
		Message:  message,
	}
}

// WithDetails adds details to a copy of the CheckResult
func (r CheckResult) WithDetails(details ...string) CheckResult {
	r.Details = append(slices.Clip(r.Details), details...)

	return r
}

// WithFixID sets the fix ID for a CheckResult
func (r CheckResult) WithFixID(fixID string) CheckResult {
	r.FixID = fixID

	return r
}

// Pass creates a passing check result
func Pass(name, message string) CheckResult {
	return NewCheckResult(name, SeverityInfo, StatusPass, message)
}

// FailError creates a failing check result with error severity
func FailError(name, message string) CheckResult {
	return NewCheckResult(name, SeverityError, StatusFail, message)
}

// FailWarning creates a failing check result with warning severity
func FailWarning(name, message string) CheckResult {
	return NewCheckResult(name, SeverityWarning, StatusFail, message)
}

// Skip creates a skipped check result
func Skip(name, message string) CheckResult {
	return NewCheckResult(name, SeverityInfo, StatusSkipped, message)
}

// IsError returns true if the result is an error
func (r CheckResult) IsError() bool {
	return r.Status == StatusFail && r.Severity == SeverityError
}

// IsWarning returns true if the result is a warning
func (r CheckResult) IsWarning() bool {
	return r.Status == StatusFail && r.Severity == SeverityWarning
}

// IsPassed returns true if the check passed
func (r CheckResult) IsPassed() bool {
	return r.Status == StatusPass
}

// IsSkipped returns true if the check was skipped
func (r CheckResult) IsSkipped() bool {
	return r.Status == StatusSkipped
}

// HasFix returns true if the result has a fix available
func (r CheckResult) HasFix() bool {
	return r.FixID != ""
}

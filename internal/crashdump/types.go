// Package crashdump records host panics as JSON files for later inspection.
package crashdump

import "time"

// CrashInfo is the content of one crash dump file.
type CrashInfo struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	PanicValue string         `json:"panic_value"`
	StackTrace string         `json:"stack_trace"`
	Runtime    RuntimeInfo    `json:"runtime"`
	Context    *ContextInfo   `json:"context,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
	Metadata   DumpMetadata   `json:"metadata"`
}

// RuntimeInfo describes the Go runtime at crash time.
type RuntimeInfo struct {
	GOOS         string `json:"goos"`
	GOARCH       string `json:"goarch"`
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
}

// ContextInfo describes what calcengine was doing when it crashed.
type ContextInfo struct {
	// Command is the CLI command name, e.g. "run".
	Command string `json:"command"`
	// PluginType and PluginName identify the operation in use, if any.
	PluginType string `json:"plugin_type,omitempty"`
	PluginName string `json:"plugin_name,omitempty"`
	// Args are the raw command arguments.
	Args []string `json:"args,omitempty"`
	// PluginsDir is the scanned plugins directory.
	PluginsDir string `json:"plugins_dir,omitempty"`
	// Catalog lists the IDs of every discovered module.
	Catalog []string `json:"catalog,omitempty"`
}

// DumpMetadata holds host details.
type DumpMetadata struct {
	Version    string `json:"version"`
	User       string `json:"user,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	WorkingDir string `json:"working_dir,omitempty"`
}

// DumpSummary is a short listing entry for one dump.
type DumpSummary struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	PanicValue string    `json:"panic_value"`
	FilePath   string    `json:"file_path"`
	Size       int64     `json:"size"`
}

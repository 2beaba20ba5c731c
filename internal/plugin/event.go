package plugin

import "time"

//go:generate enumer -type=Reason -trimprefix=Reason -transform=snake -json -text -yaml

// Reason classifies the outcome of one discovery candidate.
type Reason int

const (
	// ReasonRegistered means the candidate produced a new catalog entry.
	ReasonRegistered Reason = iota
	// ReasonReplaced means the candidate overwrote an entry with the same ID.
	ReasonReplaced
	// ReasonSkipped means the entry is a directory.
	ReasonSkipped
	// ReasonIgnored means the entry matched an ignore pattern.
	ReasonIgnored
	// ReasonOpenFailed means the file is not a loadable library.
	ReasonOpenFailed
	// ReasonCreateFailed means create was missing or returned no usable instance.
	ReasonCreateFailed
	// ReasonMissingType means getType was missing or returned an empty string.
	ReasonMissingType
	// ReasonMissingName means getName was missing or returned an empty string.
	ReasonMissingName
	// ReasonDestroyFailed means the probe instance could not be destroyed.
	ReasonDestroyFailed
	// ReasonShadowed means a later candidate with the same ID replaced this
	// one in the catalog.
	ReasonShadowed
)

// DiscoveryEvent records what happened to one directory entry during scan.
// Replaces is set on a Replaced event to the library path it took over from;
// ShadowedBy is set on a Shadowed event to the library path that took over.
type DiscoveryEvent struct {
	Path       string        `json:"path"                  yaml:"path"`
	Reason     Reason        `json:"reason"                yaml:"reason"`
	Err        error         `json:"-"                     yaml:"-"`
	Descriptor *Descriptor   `json:"descriptor,omitempty"  yaml:"descriptor,omitempty"`
	Duration   time.Duration `json:"duration"              yaml:"duration"`
	Replaces   string        `json:"replaces,omitempty"    yaml:"replaces,omitempty"`
	ShadowedBy string        `json:"shadowed_by,omitempty" yaml:"shadowed_by,omitempty"`
}

// Accepted reports whether the event produced a catalog entry.
func (e DiscoveryEvent) Accepted() bool {
	return e.Reason == ReasonRegistered || e.Reason == ReasonReplaced
}

// ErrorMessage returns the error message, or "" when there is none.
func (e DiscoveryEvent) ErrorMessage() string {
	if e.Err == nil {
		return ""
	}

	return e.Err.Error()
}

package plugin

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/plugin"
)

// Probe harvests the metadata of the library at path. The library is opened,
// a throwaway instance is created and queried, then the instance is destroyed
// and the library closed before Probe returns, whatever the outcome.
func Probe(loader Loader, path string) DiscoveryEvent {
	start := time.Now()

	event := probe(loader, path)
	event.Duration = time.Since(start)

	return event
}

func probe(loader Loader, path string) DiscoveryEvent {
	lib, err := loader.Open(path)
	if err != nil {
		return rejected(path, ReasonOpenFailed, err)
	}
	defer loader.Close(lib)

	inst, err := loader.CreateInstance(lib)
	if err != nil {
		return rejected(path, ReasonCreateFailed, err)
	}

	pluginType := loader.PluginType(lib)
	name := loader.PluginName(lib)

	if err := loader.DestroyInstance(lib, inst); err != nil {
		return rejected(path, ReasonDestroyFailed, err)
	}

	if pluginType == "" {
		return rejected(path, ReasonMissingType, errors.Newf("%s returned nothing", plugin.SymbolGetType))
	}

	if name == "" {
		return rejected(path, ReasonMissingName, errors.Newf("%s returned nothing", plugin.SymbolGetName))
	}

	return DiscoveryEvent{
		Path:   path,
		Reason: ReasonRegistered,
		Descriptor: &Descriptor{
			Type:        pluginType,
			Name:        name,
			LibraryPath: path,
		},
	}
}

func rejected(path string, reason Reason, cause error) DiscoveryEvent {
	return DiscoveryEvent{
		Path:   path,
		Reason: reason,
		Err:    errors.Mark(errors.Wrapf(cause, "probe %s", path), ErrProbeFailed),
	}
}

// scanDirectory lists dir without recursing and classifies every entry.
// Directories and ignored names are reported without being probed.
func scanDirectory(loader Loader, dir string, ignore []string) ([]DiscoveryEvent, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read %s", dir), ErrDirectoryUnavailable)
	}

	events := make([]DiscoveryEvent, 0, len(entries))

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		switch {
		case isDir(entry, path):
			events = append(events, DiscoveryEvent{Path: path, Reason: ReasonSkipped})
		case matchesAny(ignore, entry.Name()):
			events = append(events, DiscoveryEvent{Path: path, Reason: ReasonIgnored})
		default:
			events = append(events, Probe(loader, path))
		}
	}

	return events, nil
}

// isDir follows symlinks so a linked directory is skipped rather than probed.
func isDir(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}

	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}

	return false
}

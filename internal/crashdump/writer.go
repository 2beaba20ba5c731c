package crashdump

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/config"
)

const (
	// FilePerm is the file permission for crash dump files.
	FilePerm fs.FileMode = 0o600

	// DirPerm is the directory permission for crash dump directories.
	DirPerm fs.FileMode = 0o700

	// FileExtension is the extension for crash dump files.
	FileExtension = ".json"

	tempSuffix = ".tmp"
)

var (
	// ErrWriteFailed is returned when writing a crash dump fails.
	ErrWriteFailed = errors.New("failed to write crash dump")

	// ErrInvalidDumpDir is returned when the dump directory is invalid.
	ErrInvalidDumpDir = errors.New("invalid dump directory")
)

// Writer writes crash dumps into a directory.
type Writer struct {
	dumpDir string
}

// NewWriter creates a Writer for dumpDir, expanding a leading ~.
func NewWriter(dumpDir string) (*Writer, error) {
	if dumpDir == "" {
		return nil, errors.Wrap(ErrInvalidDumpDir, "dump directory cannot be empty")
	}

	return &Writer{dumpDir: config.ExpandHome(dumpDir)}, nil
}

// Write stores info as <id>.json through a temp file and rename, returning
// the final path.
func (w *Writer) Write(info *CrashInfo) (string, error) {
	if info == nil {
		return "", errors.Wrap(ErrWriteFailed, "crash info is nil")
	}

	if err := os.MkdirAll(w.dumpDir, DirPerm); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "create %s", w.dumpDir), ErrInvalidDumpDir)
	}

	path := filepath.Join(w.dumpDir, info.ID+FileExtension)
	tempPath := path + tempSuffix

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "marshal crash info"), ErrWriteFailed)
	}

	if err := os.WriteFile(tempPath, data, FilePerm); err != nil {
		return "", errors.Mark(errors.Wrap(err, "write temp file"), ErrWriteFailed)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)

		return "", errors.Mark(errors.Wrap(err, "rename temp file"), ErrWriteFailed)
	}

	return path, nil
}

// Dir returns the dump directory.
func (w *Writer) Dir() string {
	return w.dumpDir
}

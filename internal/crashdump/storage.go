package crashdump

import (
	"cmp"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/config"
)

// ErrDumpNotFound is returned when a crash dump is not found.
var ErrDumpNotFound = errors.New("crash dump not found")

const maxSummaryPanicLen = 80

// Storage lists, reads and prunes crash dumps in a directory.
type Storage struct {
	dumpDir string
	now     func() time.Time
}

// NewStorage creates a Storage for dumpDir, expanding a leading ~.
func NewStorage(dumpDir string) (*Storage, error) {
	if dumpDir == "" {
		return nil, errors.Wrap(ErrInvalidDumpDir, "dump directory cannot be empty")
	}

	return &Storage{dumpDir: config.ExpandHome(dumpDir), now: time.Now}, nil
}

// List returns every readable dump, newest first. Corrupt files are skipped
// and a missing directory yields an empty list.
func (s *Storage) List() ([]DumpSummary, error) {
	entries, err := os.ReadDir(s.dumpDir)
	if errors.Is(err, os.ErrNotExist) {
		return []DumpSummary{}, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to read dump directory")
	}

	summaries := make([]DumpSummary, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FileExtension) {
			continue
		}

		summary, err := s.loadSummary(entry.Name())
		if err != nil {
			continue
		}

		summaries = append(summaries, summary)
	}

	slices.SortFunc(summaries, func(a, b DumpSummary) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})

	return summaries, nil
}

func (s *Storage) loadSummary(filename string) (DumpSummary, error) {
	path := filepath.Join(s.dumpDir, filename)

	info, err := loadFile(path)
	if err != nil {
		return DumpSummary{}, err
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		return DumpSummary{}, errors.Wrap(err, "failed to stat file")
	}

	panicValue := info.PanicValue
	if len(panicValue) > maxSummaryPanicLen {
		panicValue = panicValue[:maxSummaryPanicLen] + "..."
	}

	return DumpSummary{
		ID:         info.ID,
		Timestamp:  info.Timestamp,
		PanicValue: panicValue,
		FilePath:   path,
		Size:       fileInfo.Size(),
	}, nil
}

// Get reads the dump with the given ID.
func (s *Storage) Get(id string) (*CrashInfo, error) {
	return loadFile(s.path(id))
}

func loadFile(path string) (*CrashInfo, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the dump dir
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(ErrDumpNotFound, "%s", filepath.Base(path))
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to read dump file")
	}

	var info CrashInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", filepath.Base(path))
	}

	return &info, nil
}

// Delete removes the dump with the given ID.
func (s *Storage) Delete(id string) error {
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(ErrDumpNotFound, "%s", id)
	}

	if err != nil {
		return errors.Wrap(err, "failed to delete dump file")
	}

	return nil
}

// Prune removes dumps older than maxAge (when positive), then the oldest
// dumps beyond maxDumps (when non-negative). It returns how many it removed.
func (s *Storage) Prune(maxDumps int, maxAge time.Duration) (int, error) {
	summaries, err := s.List()
	if err != nil {
		return 0, err
	}

	now := s.now()
	removed := 0
	kept := summaries[:0]

	for _, summary := range summaries {
		if maxAge > 0 && now.Sub(summary.Timestamp) > maxAge {
			if err := s.Delete(summary.ID); err == nil {
				removed++

				continue
			}
		}

		kept = append(kept, summary)
	}

	if maxDumps < 0 {
		return removed, nil
	}

	for _, summary := range kept[min(maxDumps, len(kept)):] {
		if err := s.Delete(summary.ID); err == nil {
			removed++
		}
	}

	return removed, nil
}

// Dir returns the dump directory.
func (s *Storage) Dir() string {
	return s.dumpDir
}

func (s *Storage) path(id string) string {
	return filepath.Join(s.dumpDir, filepath.Base(id)+FileExtension)
}

package crashdump

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"runtime/debug"
	"time"
)

const (
	shortIDLength = 8
	panicNilStr   = "panic(nil)"
)

// formatPanicValue renders a recovered value, treating *runtime.PanicNilError
// like a bare panic(nil).
func formatPanicValue(v any) string {
	switch val := v.(type) {
	case nil, *runtime.PanicNilError:
		return panicNilStr
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Collector gathers crash information from a recovered panic.
type Collector struct {
	version   string
	sanitizer *Sanitizer
	now       func() time.Time
}

// NewCollector creates a Collector stamping dumps with version.
func NewCollector(version string) *Collector {
	return &Collector{
		version:   version,
		sanitizer: NewSanitizer(),
		now:       time.Now,
	}
}

// Collect builds a CrashInfo. ctx and effective may be nil when the crash
// happened before they were known.
func (c *Collector) Collect(recovered any, ctx *ContextInfo, effective map[string]any) *CrashInfo {
	now := c.now()
	panicValue := formatPanicValue(recovered)

	info := &CrashInfo{
		ID:         generateCrashID(now, panicValue),
		Timestamp:  now,
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Runtime: RuntimeInfo{
			GOOS:         runtime.GOOS,
			GOARCH:       runtime.GOARCH,
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
		},
		Metadata: c.collectMetadata(),
	}

	if ctx != nil {
		sanitized := c.sanitizer.SanitizeContext(*ctx)
		info.Context = &sanitized
	}

	if effective != nil {
		info.Config = c.sanitizer.SanitizeMap(effective)
	}

	return info
}

func (c *Collector) collectMetadata() DumpMetadata {
	meta := DumpMetadata{Version: c.version}

	if u, err := user.Current(); err == nil {
		meta.User = u.Username
	}

	if hostname, err := os.Hostname(); err == nil {
		meta.Hostname = hostname
	}

	if wd, err := os.Getwd(); err == nil {
		meta.WorkingDir = c.sanitizer.SanitizeString(wd)
	}

	return meta
}

// generateCrashID returns crash-<timestamp>-<short hash>.
func generateCrashID(timestamp time.Time, panicValue string) string {
	data := fmt.Sprintf("%d-%s", timestamp.UnixNano(), panicValue)
	hash := sha256.Sum256([]byte(data))
	shortHash := hex.EncodeToString(hash[:])[:shortIDLength]

	return fmt.Sprintf("crash-%s-%s", timestamp.Format("20060102T150405"), shortHash)
}

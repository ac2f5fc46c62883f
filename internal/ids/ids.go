package ids

import (
	mathrand "math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const reportPrefix = "RPT-"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier suitable for storage keys.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// ReportID returns the public identifier printed on generated reports.
func ReportID() string {
	return reportPrefix + New()
}

// ObjectName derives a blob key for an uploaded document. The original
// extension is kept (lower-cased) so downloads stay recognisable.
func ObjectName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(originalName)))
	return New() + ext
}

package output

import (
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// runIDs hands out time-sortable run ids. The monotonic entropy keeps ids
// created within the same millisecond ordered.
var runIDs = struct {
	sync.Mutex
	entropy io.Reader
}{entropy: ulid.Monotonic(rand.Reader, 0)}

// NewRunID returns a fresh ULID string.
func NewRunID() string {
	runIDs.Lock()
	defer runIDs.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), runIDs.entropy).String()
}

// DocumentWorkspace creates the workspace of document n (1-based) of a run:
// <root>/<runID>/<n>_<slug>.
func DocumentWorkspace(root, runID string, n int, rawURL string) (*Workspace, error) {
	return NewWorkspace(filepath.Join(root, runID, fmt.Sprintf("%d_%s", n, Slug(rawURL))))
}

package notify

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"subtrack/internal/subtrack"
)

// deniedMarker blocks posting while present in the marker directory. Like the
// alarm permission, it is stat'd on every PostAllowed call, never cached.
const deniedMarker = "post_denied"

// TerminalNotifier writes notifications to a writer, one line per post.
// Replacement semantics cannot be rendered on an append-only stream, so the
// group key is printed for the reader to correlate.
type TerminalNotifier struct {
	markerDir string

	mu sync.Mutex
	w  io.Writer
}

var _ subtrack.NotificationFacility = (*TerminalNotifier)(nil)

// NewTerminalNotifier creates a notifier writing to w, with permission
// controlled by markers in markerDir. An empty markerDir means always
// permitted.
func NewTerminalNotifier(w io.Writer, markerDir string) *TerminalNotifier {
	return &TerminalNotifier{w: w, markerDir: markerDir}
}

func (t *TerminalNotifier) Post(groupKey, title, body string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.w, "[%s] %s: %s\n", groupKey, title, body); err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}

func (t *TerminalNotifier) PostAllowed() bool {
	if t.markerDir == "" {
		return true
	}
	_, err := os.Stat(filepath.Join(t.markerDir, deniedMarker))
	return os.IsNotExist(err)
}

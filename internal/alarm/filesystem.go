package alarm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"subtrack/internal/subtrack"
)

// deniedMarker blocks exact scheduling while present in the table directory.
// It stands in for the platform permission toggle, which can change between
// any two calls — so it is stat'd on every ExactAllowed call, never cached.
const deniedMarker = "exact_denied"

const tableName = "table.toml"

// tableFile is the on-disk alarm table.
type tableFile struct {
	Alarms []Pending `toml:"alarms"`
}

// FileAlarms is a durable alarm table stored as a file in dir. The daemon
// sweep consumes elapsed entries from it; the file, not process memory, is
// authoritative.
type FileAlarms struct {
	dir string
	mu  sync.Mutex
}

var _ subtrack.AlarmFacility = (*FileAlarms)(nil)

// NewFileAlarms creates a table rooted at dir.
func NewFileAlarms(dir string) (*FileAlarms, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating alarm directory: %w", err)
	}
	return &FileAlarms{dir: dir}, nil
}

func (f *FileAlarms) Schedule(key int64, payableID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	table, err := f.load()
	if err != nil {
		return err
	}

	// Replace, never duplicate: drop any entry under the same key first.
	kept := table.Alarms[:0]
	for _, p := range table.Alarms {
		if p.Key != key {
			kept = append(kept, p)
		}
	}
	table.Alarms = append(kept, Pending{Key: key, PayableID: payableID, At: at})
	return f.save(table)
}

func (f *FileAlarms) Cancel(key int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	table, err := f.load()
	if err != nil {
		return err
	}

	kept := table.Alarms[:0]
	for _, p := range table.Alarms {
		if p.Key != key {
			kept = append(kept, p)
		}
	}
	table.Alarms = kept
	return f.save(table)
}

func (f *FileAlarms) ExactAllowed() bool {
	_, err := os.Stat(filepath.Join(f.dir, deniedMarker))
	return os.IsNotExist(err)
}

// Elapsed atomically removes and returns every wake-up due at or before now,
// soonest first.
func (f *FileAlarms) Elapsed(now time.Time) ([]Pending, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table, err := f.load()
	if err != nil {
		return nil, err
	}

	var due []Pending
	kept := table.Alarms[:0]
	for _, p := range table.Alarms {
		if !p.At.After(now) {
			due = append(due, p)
		} else {
			kept = append(kept, p)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}

	table.Alarms = kept
	if err := f.save(table); err != nil {
		return nil, err
	}
	sort.Slice(due, func(i, j int) bool { return due[i].At.Before(due[j].At) })
	return due, nil
}

// Pending returns the current table contents without consuming anything.
func (f *FileAlarms) Pending() ([]Pending, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table, err := f.load()
	if err != nil {
		return nil, err
	}
	return table.Alarms, nil
}

// load reads the table file. Caller holds f.mu.
func (f *FileAlarms) load() (*tableFile, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, tableName))
	if err != nil {
		if os.IsNotExist(err) {
			return &tableFile{}, nil
		}
		return nil, fmt.Errorf("reading alarm table: %w", err)
	}

	var table tableFile
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decoding alarm table: %w", err)
	}
	return &table, nil
}

// save writes the table atomically. Caller holds f.mu.
func (f *FileAlarms) save(table *tableFile) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(table); err != nil {
		return fmt.Errorf("encoding alarm table: %w", err)
	}

	path := filepath.Join(f.dir, tableName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing alarm table: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing alarm table: %w", err)
	}
	return nil
}

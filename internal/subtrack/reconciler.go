package subtrack

import (
	"errors"
	"fmt"
	"sync"

	"subtrack/internal/model"
)

// RecordKind names the three record collections a snapshot carries.
type RecordKind string

const (
	KindPayable       RecordKind = "payable"
	KindCategory      RecordKind = "category"
	KindPaymentMethod RecordKind = "payment_method"
)

// Snapshot is a parsed backup document: three ordered collections of flat
// records sharing the live store's identifier scheme. Parsing always
// completes before any record is applied, so a malformed document never
// leaves partial writes behind.
type Snapshot struct {
	Payables       []*model.Payable
	Categories     []*model.Category
	PaymentMethods []*model.PaymentMethod
}

// Decision adjudicates a conflict.
type Decision int

const (
	// DecisionSkip retains the existing record; the incoming one is dropped.
	DecisionSkip Decision = iota
	// DecisionOverwrite replaces the existing record with the incoming one.
	DecisionOverwrite
)

// ConflictEntry pairs an incoming record with the existing record that holds
// the same identifier. It stays pending until adjudicated; neither record is
// touched in the meantime.
type ConflictEntry struct {
	Kind     RecordKind
	Incoming Record
	Existing Record
}

// ID returns the colliding identifier.
func (c ConflictEntry) ID() string { return c.Incoming.RecordID() }

// ErrResolved is returned when a conflict is adjudicated a second time.
var ErrResolved = errors.New("conflict already resolved")

// Reconciler merges backup snapshots into the live record store.
type Reconciler struct {
	store  RecordStore
	logger Logger
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store RecordStore, logger Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Import walks every record in the snapshot: records whose identifier is
// absent from the store are inserted directly; collisions are queued as
// conflicts on the returned run without blocking the rest of the batch.
// Categories and payment methods go first so payables never precede the
// records they reference.
//
// A store error aborts the walk; records inserted before the error remain.
func (r *Reconciler) Import(snap *Snapshot) (*ImportRun, error) {
	run := &ImportRun{
		store:    r.store,
		logger:   r.logger,
		resolved: make(map[string]bool),
		queued:   make(map[string]bool),
	}

	for _, c := range snap.Categories {
		existing, err := r.store.GetCategory(c.ID)
		if err != nil {
			return run, fmt.Errorf("looking up category %s: %w", c.ID, err)
		}
		if existing == nil {
			if err := r.store.InsertCategory(c); err != nil {
				return run, fmt.Errorf("inserting category %s: %w", c.ID, err)
			}
			run.inserted++
			continue
		}
		run.queue(ConflictEntry{Kind: KindCategory, Incoming: c, Existing: existing})
	}

	for _, m := range snap.PaymentMethods {
		existing, err := r.store.GetPaymentMethod(m.ID)
		if err != nil {
			return run, fmt.Errorf("looking up payment method %s: %w", m.ID, err)
		}
		if existing == nil {
			if err := r.store.InsertPaymentMethod(m); err != nil {
				return run, fmt.Errorf("inserting payment method %s: %w", m.ID, err)
			}
			run.inserted++
			continue
		}
		run.queue(ConflictEntry{Kind: KindPaymentMethod, Incoming: m, Existing: existing})
	}

	for _, p := range snap.Payables {
		existing, err := r.store.GetPayable(p.ID)
		if err != nil {
			return run, fmt.Errorf("looking up payable %s: %w", p.ID, err)
		}
		if existing == nil {
			if err := r.store.InsertPayable(p); err != nil {
				return run, fmt.Errorf("inserting payable %s: %w", p.ID, err)
			}
			run.inserted++
			continue
		}
		run.queue(ConflictEntry{Kind: KindPayable, Incoming: p, Existing: existing})
	}

	r.logger.Info("import walked", "inserted", run.inserted, "conflicts", len(run.conflicts))
	return run, nil
}

// ImportRun holds the outcome of one snapshot walk: insert counts plus the
// queue of pending conflicts awaiting adjudication. The queue is drained
// within the run; conflicts still unresolved when the run is abandoned are
// discarded, leaving the stored records untouched.
//
// Safe for concurrent use: the import walk and the adjudicating consumer may
// live on different goroutines.
type ImportRun struct {
	store  RecordStore
	logger Logger

	mu        sync.Mutex
	conflicts []ConflictEntry
	queued    map[string]bool
	resolved  map[string]bool
	inserted  int
	updated   int
}

func conflictKey(kind RecordKind, id string) string {
	return string(kind) + "/" + id
}

// queue appends a conflict unless one is already pending for the same
// identifier — a snapshot carrying an identifier twice surfaces one conflict,
// never a concurrent pair.
func (run *ImportRun) queue(c ConflictEntry) {
	run.mu.Lock()
	defer run.mu.Unlock()

	key := conflictKey(c.Kind, c.ID())
	if run.queued[key] {
		run.logger.Warn("duplicate identifier within snapshot", "kind", c.Kind, "id", c.ID())
		return
	}
	run.queued[key] = true
	run.conflicts = append(run.conflicts, c)
}

// Conflicts returns the pending conflict queue in walk order.
func (run *ImportRun) Conflicts() []ConflictEntry {
	run.mu.Lock()
	defer run.mu.Unlock()
	out := make([]ConflictEntry, len(run.conflicts))
	copy(out, run.conflicts)
	return out
}

// Resolve applies exactly one adjudication to a conflict. Overwrite updates
// the stored record with the incoming one; skip performs no mutation. A
// second resolution for the same conflict returns ErrResolved with no effect.
func (run *ImportRun) Resolve(c ConflictEntry, d Decision) error {
	run.mu.Lock()
	key := conflictKey(c.Kind, c.ID())
	if run.resolved[key] {
		run.mu.Unlock()
		return ErrResolved
	}
	run.resolved[key] = true
	run.mu.Unlock()

	if d == DecisionSkip {
		run.logger.Debug("conflict skipped", "kind", c.Kind, "id", c.ID())
		return nil
	}

	var err error
	switch c.Kind {
	case KindPayable:
		err = run.store.UpdatePayable(c.Incoming.(*model.Payable))
	case KindCategory:
		err = run.store.UpdateCategory(c.Incoming.(*model.Category))
	case KindPaymentMethod:
		err = run.store.UpdatePaymentMethod(c.Incoming.(*model.PaymentMethod))
	default:
		err = fmt.Errorf("unknown record kind %q", c.Kind)
	}
	if err != nil {
		return fmt.Errorf("overwriting %s %s: %w", c.Kind, c.ID(), err)
	}

	run.mu.Lock()
	run.updated++
	run.mu.Unlock()
	run.logger.Info("conflict overwritten", "kind", c.Kind, "id", c.ID())
	return nil
}

// Inserted returns how many records were inserted directly.
func (run *ImportRun) Inserted() int {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.inserted
}

// Updated returns how many conflicts were adjudicated as overwrites.
func (run *ImportRun) Updated() int {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.updated
}

// Unresolved returns how many conflicts are still pending.
func (run *ImportRun) Unresolved() int {
	run.mu.Lock()
	defer run.mu.Unlock()
	n := 0
	for _, c := range run.conflicts {
		if !run.resolved[conflictKey(c.Kind, c.ID())] {
			n++
		}
	}
	return n
}

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/alarm"
	"subtrack/internal/backup"
	"subtrack/internal/config"
	"subtrack/internal/model"
	"subtrack/internal/notify"
	"subtrack/internal/settings"
	"subtrack/internal/store"
	"subtrack/internal/subtrack"
)

// App is the application layer between the CLI and the scheduler core. It
// constructs all dependencies from config, exposes high-level operations that
// accept raw strings, and manages resource lifecycles on Close.
type App struct {
	cfg        *config.Config
	store      subtrack.RecordStore
	settings   subtrack.Settings
	alarms     alarm.Facility
	notifier   subtrack.NotificationFacility
	scheduler  *subtrack.AlarmScheduler
	dispatcher *subtrack.NotificationDispatcher
	reconciler *subtrack.Reconciler
	clock      subtrack.Clock
	idgen      subtrack.IDGenerator
	logger     subtrack.Logger
	loc        *time.Location
	logFile    *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Sync", "Import"). passphrase
// unlocks the encrypted settings store; it is unused for a memory store.
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string, passphrase string) (*App, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone: %w", err)
		}
	}

	prefs, err := settings.NewSettingsFromConfig(cfg.Settings, passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating settings store: %w", err)
	}

	recordStore, err := store.NewStoreFromConfig(cfg.Store)
	if err != nil {
		prefs.Close()
		return nil, fmt.Errorf("creating record store: %w", err)
	}

	alarms, err := alarm.NewFacilityFromConfig(cfg.Alarms)
	if err != nil {
		recordStore.Close()
		prefs.Close()
		return nil, fmt.Errorf("creating alarm facility: %w", err)
	}

	notifier, err := notify.NewNotifierFromConfig(cfg.Notify)
	if err != nil {
		recordStore.Close()
		prefs.Close()
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		recordStore.Close()
		prefs.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger.With("op", operation)}

	clock := subtrack.RealClock{}
	scheduler := subtrack.NewAlarmScheduler(alarms, prefs, clock, logger)
	dispatcher := subtrack.NewNotificationDispatcher(recordStore, scheduler, notifier, prefs, clock, logger)
	reconciler := subtrack.NewReconciler(recordStore, logger)

	return &App{
		cfg:        cfg,
		store:      recordStore,
		settings:   prefs,
		alarms:     alarms,
		notifier:   notifier,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		reconciler: reconciler,
		clock:      clock,
		idgen:      subtrack.UUIDGenerator{},
		logger:     logger,
		loc:        loc,
		logFile:    logFile,
	}, nil
}

// Settings exposes the preference store for the settings commands.
func (a *App) Settings() subtrack.Settings { return a.settings }

// AddPayable creates a payable from raw CLI inputs. An empty currency falls
// back to the default-currency preference. When enable is true the payable
// joins the enabled set and its first reminder is armed immediately.
func (a *App) AddPayable(title, amount, currency, anchor, cycle string, intervalDays int, enable bool) (*model.Payable, subtrack.Outcome, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	anchorDate, err := time.ParseInLocation("2006-01-02", anchor, a.loc)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid anchor date %q, want YYYY-MM-DD: %w", anchor, err)
	}

	if currency == "" {
		currency, err = a.settings.DefaultCurrency()
		if err != nil {
			return nil, 0, fmt.Errorf("reading default currency: %w", err)
		}
	}

	p := &model.Payable{
		ID:         a.idgen.New(),
		Title:      title,
		Amount:     amt,
		Currency:   currency,
		AnchorDate: anchorDate,
		Cycle:      model.BillingCycle(cycle),
		CreatedAt:  a.clock.Now(),
	}
	if p.Cycle == model.CycleCustom {
		p.IntervalDays = intervalDays
	}

	if err := a.store.InsertPayable(p); err != nil {
		return nil, 0, fmt.Errorf("inserting payable: %w", err)
	}

	outcome := subtrack.OutcomeSkipped
	if enable {
		if err := a.settings.EnablePayable(p.ID); err != nil {
			return p, 0, fmt.Errorf("enabling payable: %w", err)
		}
		outcome, err = a.scheduler.RescheduleNextAlarm(p)
		if err != nil {
			return p, outcome, err
		}
	}
	return p, outcome, nil
}

// ListPayables returns all payables with their enabled state.
func (a *App) ListPayables() ([]*model.Payable, map[string]bool, error) {
	payables, err := a.store.ListPayables()
	if err != nil {
		return nil, nil, err
	}

	enabled := make(map[string]bool, len(payables))
	for _, p := range payables {
		on, err := a.settings.IsPayableEnabled(p.ID)
		if err != nil {
			return nil, nil, err
		}
		enabled[p.ID] = on
	}
	return payables, enabled, nil
}

// EnablePayable opts a payable into notifications and arms its reminder.
func (a *App) EnablePayable(id string) (subtrack.Outcome, error) {
	p, err := a.store.GetPayable(id)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, fmt.Errorf("no payable with id %s", id)
	}

	if err := a.settings.EnablePayable(id); err != nil {
		return 0, fmt.Errorf("enabling payable: %w", err)
	}
	return a.scheduler.RescheduleNextAlarm(p)
}

// DisablePayable opts a payable out and cancels any pending reminder, keeping
// the no-alarm-when-opted-out invariant.
func (a *App) DisablePayable(id string) error {
	if err := a.settings.DisablePayable(id); err != nil {
		return fmt.Errorf("disabling payable: %w", err)
	}
	return a.scheduler.CancelAlarm(id)
}

// SyncAll reconciles the alarm table with the current record and preference
// state: enabled payables get their next reminder re-armed, everything else
// gets any stale alarm cancelled. Returns how many alarms are now scheduled.
func (a *App) SyncAll() (int, error) {
	payables, err := a.store.ListPayables()
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for _, p := range payables {
		enabled, err := a.settings.IsPayableEnabled(p.ID)
		if err != nil {
			return scheduled, err
		}
		if !enabled {
			if err := a.scheduler.CancelAlarm(p.ID); err != nil {
				return scheduled, err
			}
			continue
		}

		outcome, err := a.scheduler.RescheduleNextAlarm(p)
		if err != nil {
			a.logger.Error("sync reschedule failed", "payable", p.ID, "error", err)
			continue
		}
		if outcome.Scheduled() {
			scheduled++
		}
	}

	a.logger.Info("sync complete", "payables", len(payables), "scheduled", scheduled)
	return scheduled, nil
}

// Sweep delivers every elapsed alarm to the dispatcher. Each delivery posts
// the reminder and re-arms the next cycle. Returns how many alarms elapsed.
func (a *App) Sweep() (int, error) {
	due, err := a.alarms.Elapsed(a.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("reading alarm table: %w", err)
	}

	for _, pending := range due {
		if _, err := a.dispatcher.HandleElapsed(pending.PayableID); err != nil {
			a.logger.Error("dispatch failed", "payable", pending.PayableID, "error", err)
		}
	}
	return len(due), nil
}

// Fire delivers a single elapsed-alarm event for the payable, the manual
// equivalent of the facility waking us up.
func (a *App) Fire(payableID string) (subtrack.Outcome, error) {
	return a.dispatcher.HandleElapsed(payableID)
}

// EnsurePermissions runs the one-time first-run permission flow: the
// notification permission is probed first, then the exact-alarm permission,
// and the request is recorded so it never repeats. Later scheduling attempts
// still re-check both on every call.
func (a *App) EnsurePermissions() error {
	done, err := a.settings.PermissionRequested()
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	if !a.notifier.PostAllowed() {
		a.logger.Warn("notification permission required")
	}
	if !a.alarms.ExactAllowed() {
		a.logger.Warn("exact alarm permission required")
	}
	return a.settings.MarkPermissionRequested()
}

// Import fetches and parses a snapshot from location (a file path or an
// s3://bucket/key URL), merges it into the record store, and adjudicates each
// identifier collision through decide. Conflicts left unresolved when decide
// fails are discarded, leaving the stored records untouched.
func (a *App) Import(ctx context.Context, location string, decide func(subtrack.ConflictEntry) (subtrack.Decision, error)) (*subtrack.ImportRun, error) {
	src, err := backup.ResolveSource(location, a.cfg.Backup)
	if err != nil {
		return nil, err
	}

	r, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer r.Close()

	snap, err := backup.DecodeSnapshot(r)
	if err != nil {
		// Nothing was written; one terse failure covers the whole import.
		return nil, err
	}

	run, err := a.reconciler.Import(snap)
	if err != nil {
		return run, err
	}

	for _, c := range run.Conflicts() {
		decision, err := decide(c)
		if err != nil {
			a.logger.Warn("conflict left unresolved", "kind", c.Kind, "id", c.ID(), "error", err)
			continue
		}
		if err := run.Resolve(c, decision); err != nil {
			return run, err
		}
	}
	return run, nil
}

// Export writes the live store's three record collections to w as a snapshot
// document.
func (a *App) Export(w io.Writer) error {
	payables, err := a.store.ListPayables()
	if err != nil {
		return err
	}
	categories, err := a.store.ListCategories()
	if err != nil {
		return err
	}
	methods, err := a.store.ListPaymentMethods()
	if err != nil {
		return err
	}

	return backup.EncodeSnapshot(w, &subtrack.Snapshot{
		Payables:       payables,
		Categories:     categories,
		PaymentMethods: methods,
	})
}

// Close releases all resources.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.settings.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

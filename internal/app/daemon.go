package app

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Daemon runs the background jobs: a frequent sweep that delivers elapsed
// alarms to the dispatcher, and a daily consistency sync that re-arms every
// enabled payable. The two jobs and a just-handled alarm may race on the same
// payable; the facility's replace-by-key semantics keep at most one alarm
// live per payable regardless of who wins.
type Daemon struct {
	app  *App
	cron *cron.Cron
}

// DefaultSweepSpec delivers elapsed alarms once a minute.
const DefaultSweepSpec = "@every 1m"

// DefaultSyncSpec re-syncs the whole alarm table daily at 04:00.
const DefaultSyncSpec = "0 4 * * *"

// NewDaemon creates a daemon over the app with the given cron specs.
func NewDaemon(a *App, sweepSpec, syncSpec string) (*Daemon, error) {
	d := &Daemon{
		app:  a,
		cron: cron.New(cron.WithLocation(a.loc)),
	}

	if _, err := d.cron.AddFunc(sweepSpec, d.sweep); err != nil {
		return nil, fmt.Errorf("adding sweep job: %w", err)
	}
	if _, err := d.cron.AddFunc(syncSpec, d.sync); err != nil {
		return nil, fmt.Errorf("adding sync job: %w", err)
	}
	return d, nil
}

// Start begins the background jobs after one immediate sync, so a freshly
// started daemon does not wait a day to repair the alarm table.
func (d *Daemon) Start() {
	d.sync()
	d.cron.Start()
	d.app.logger.Info("daemon started")
}

// Stop halts the jobs and waits for any running one to finish.
func (d *Daemon) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.app.logger.Info("daemon stopped")
}

func (d *Daemon) sweep() {
	n, err := d.app.Sweep()
	if err != nil {
		d.app.logger.Error("sweep failed", "error", err)
		return
	}
	if n > 0 {
		d.app.logger.Info("alarms delivered", "count", n)
	}
}

func (d *Daemon) sync() {
	if _, err := d.app.SyncAll(); err != nil {
		d.app.logger.Error("daily sync failed", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

// SyncStatus fetches and prints one status snapshot.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	snapshot, err := r.sync.Status(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snapshot, true)
	}

	r.writePlain("State: %s\n", snapshot.State.Label())
	if snapshot.LastError != "" {
		r.writePlain("Last error: %s\n", snapshot.LastError)
	}
	if len(snapshot.Logs) > 0 {
		r.writePlainln("Activity:")
		for _, line := range snapshot.Logs {
			r.writePlain("  %s\n", line)
		}
	}
	return nil
}

// SyncStart starts a sync for the requested date range. The start is gated
// on a fresh status poll so an already-running or unconfigured job fails
// before anything is sent.
func (r *Runner) SyncStart(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	dateRange, err := parseRangeFlags(cmd.String("from"), cmd.String("to"))
	if err != nil {
		return err
	}

	snapshot, err := r.sync.Status(ctx)
	if err != nil {
		return err
	}
	r.supervisor.Observe(snapshot)

	if err := r.supervisor.Start(ctx, dateRange); err != nil {
		if errors.Is(err, shared.ErrConfigMissing) {
			return fmt.Errorf("%w: run 'tcbsync settings set' to configure the sync first", err)
		}
		return err
	}

	r.logger.Info("sync started", "from", dateRange.FromString(), "to", dateRange.ToString())
	r.writePlain("✓ Sync started for %s → %s\n", dateRange.FromString(), dateRange.ToString())

	if cmd.Bool("watch") {
		return r.watchJob(ctx, true)
	}
	return nil
}

// SyncStop asks the service to stop the running job. The job winds down on
// the service side; the terminal state arrives through later polls.
func (r *Runner) SyncStop(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	snapshot, err := r.sync.Status(ctx)
	if err != nil {
		return err
	}
	r.supervisor.Observe(snapshot)

	if err := r.supervisor.StopJob(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Stop requested\n")
}

// SyncWatch follows the job until it reaches a terminal state.
func (r *Runner) SyncWatch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	return r.watchJob(ctx, cmd.Bool("logs"))
}

// watchJob polls until the job leaves the running states. New activity log
// lines are printed as they appear; the snapshot always replaces local state
// wholesale, so only the tail beyond what was already printed is new.
func (r *Runner) watchJob(ctx context.Context, printLogs bool) error {
	sub := r.poller.Subscribe(ctx)
	defer sub.Stop()

	var lastState models.SyncState
	printed := 0

	for update := range sub.Updates() {
		if update.Err != nil {
			r.logger.Warn("status poll failed", "error", update.Err)
			continue
		}

		snapshot := update.Snapshot
		r.supervisor.Observe(snapshot)

		if snapshot.State != lastState {
			r.writePlain("state: %s\n", snapshot.State.Label())
			if snapshot.State.WaitingOTP() {
				r.writePlain("  approve the login in your banking app, or open %s\n", r.sync.StreamURL())
			}
			lastState = snapshot.State
		}

		if printLogs {
			if len(snapshot.Logs) < printed {
				printed = 0
			}
			for _, line := range snapshot.Logs[printed:] {
				r.writePlain("  %s\n", line)
			}
			printed = len(snapshot.Logs)
		}

		if snapshot.State == models.StateSuccess {
			return r.writePlain("✓ Sync finished\n")
		}
		if snapshot.State == models.StateError {
			return fmt.Errorf("%w: %s", shared.ErrAPIRequest, snapshot.LastError)
		}
		if snapshot.State == models.StateIdle {
			return r.writePlain("No sync is running\n")
		}
	}

	return ctx.Err()
}

// SyncHistory lists runs recorded in the local database.
func (r *Runner) SyncHistory(ctx context.Context, cmd *cli.Command) error {
	if r.runs == nil {
		return fmt.Errorf("%w: local database unavailable, run 'tcbsync setup'", shared.ErrServiceUnavailable)
	}

	runs, err := r.runs.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet\n")
	}

	for _, run := range runs {
		outcome := run.Outcome
		if outcome == "" {
			outcome = "in progress"
		}
		r.writePlain("%s  %s → %s  %s", run.StartedAt.Format("2006-01-02 15:04"), run.DateFrom, run.DateTo, outcome)
		if run.LastError != "" {
			r.writePlain("  (%s)", run.LastError)
		}
		r.writePlain("\n")
	}
	return nil
}

// SyncLive opens the live browser view of the scraping session.
func (r *Runner) SyncLive(ctx context.Context, cmd *cli.Command) error {
	url := r.sync.StreamURL()

	if cmd.Bool("print") {
		return r.writePlain("%s\n", url)
	}

	r.logger.Info("opening live view", "url", url)
	if err := shared.OpenBrowser(url); err != nil {
		return fmt.Errorf("failed to open browser, view manually at %s: %w", url, err)
	}
	return nil
}

func parseRangeFlags(from, to string) (models.DateRange, error) {
	dateRange, err := models.ParseDateRange(from, to)
	if err != nil {
		return models.DateRange{}, err
	}
	if err := dateRange.Validate(); err != nil {
		return models.DateRange{}, err
	}
	return dateRange, nil
}

package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

// JobController starts and stops the remote job.
// Implemented by services.SyncService.
type JobController interface {
	Start(ctx context.Context, dateRange models.DateRange) error
	Stop(ctx context.Context) error
}

// RunLog records sync runs locally. Implemented by
// repositories.RunRepository; nil disables history.
type RunLog interface {
	Begin(dateRange models.DateRange) (string, error)
	Finish(id, outcome, lastError string) error
}

// Supervisor gates job control on the last observed state and keeps the
// local run history current.
type Supervisor struct {
	mu        sync.Mutex
	jobs      JobController
	runs      RunLog
	last      *models.StatusSnapshot
	activeRun string
	logger    *log.Logger
}

// NewSupervisor creates a Supervisor. runs may be nil.
func NewSupervisor(jobs JobController, runs RunLog, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Supervisor{jobs: jobs, runs: runs, logger: logger}
}

// Observe records a polled snapshot as the current truth. When a run started
// through this supervisor reaches a terminal state, its history row is
// finished with that outcome.
func (s *Supervisor) Observe(snapshot *models.StatusSnapshot) {
	if snapshot == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = snapshot

	if s.activeRun != "" && snapshot.State.Startable() {
		if s.runs != nil {
			if err := s.runs.Finish(s.activeRun, string(snapshot.State), snapshot.LastError); err != nil {
				s.logger.Warn("failed to record run outcome", "err", err)
			}
		}
		s.activeRun = ""
	}
}

// Latest returns the last observed snapshot, or nil before the first poll.
func (s *Supervisor) Latest() *models.StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// State returns the last observed state, empty before the first poll.
func (s *Supervisor) State() models.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return ""
	}
	return s.last.State
}

// Start requests a new job. It refuses locally while the last observed state
// is in the running family, and also before any state has been observed: the
// client is never allowed to assume what the service is doing.
func (s *Supervisor) Start(ctx context.Context, dateRange models.DateRange) error {
	if err := dateRange.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	switch {
	case s.last == nil:
		s.mu.Unlock()
		return fmt.Errorf("%w: job state not observed yet", shared.ErrSyncInProgress)
	case !s.last.State.Startable():
		state := s.last.State
		s.mu.Unlock()
		return fmt.Errorf("%w: job is %s", shared.ErrSyncInProgress, state.Label())
	}
	s.mu.Unlock()

	if err := s.jobs.Start(ctx, dateRange); err != nil {
		return err
	}

	if s.runs != nil {
		id, err := s.runs.Begin(dateRange)
		if err != nil {
			s.logger.Warn("failed to record run start", "err", err)
		} else {
			s.mu.Lock()
			s.activeRun = id
			s.mu.Unlock()
		}
	}

	return nil
}

// StopJob requests cancellation of the running job. Allowed only while the
// last observed state is in the running family; the local state is left
// untouched until a poll confirms the outcome.
func (s *Supervisor) StopJob(ctx context.Context) error {
	s.mu.Lock()
	if s.last == nil || !s.last.State.Running() {
		s.mu.Unlock()
		return shared.ErrSyncNotRunning
	}
	s.mu.Unlock()

	return s.jobs.Stop(ctx)
}

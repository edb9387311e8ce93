package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

// scriptedFetcher returns snapshots in sequence, repeating the last one.
type scriptedFetcher struct {
	mu        sync.Mutex
	snapshots []*models.StatusSnapshot
	errs      []error
	calls     atomic.Int64
}

func (f *scriptedFetcher) Status(ctx context.Context) (*models.StatusSnapshot, error) {
	n := int(f.calls.Add(1)) - 1
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		idx := n
		if idx >= len(f.errs) {
			idx = len(f.errs) - 1
		}
		if f.errs[idx] != nil {
			return nil, f.errs[idx]
		}
	}
	idx := n
	if idx >= len(f.snapshots) {
		idx = len(f.snapshots) - 1
	}
	return f.snapshots[idx], nil
}

func snap(state models.SyncState, logs ...string) *models.StatusSnapshot {
	return &models.StatusSnapshot{State: state, Logs: logs}
}

func TestPoller(t *testing.T) {
	t.Run("First Poll Fires Immediately", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []*models.StatusSnapshot{snap(models.StateIdle)}}
		poller := NewPoller(fetcher, time.Hour, nil)

		sub := poller.Subscribe(context.Background())
		defer sub.Stop()

		select {
		case update := <-sub.Updates():
			if update.Err != nil {
				t.Fatalf("expected no error, got %v", update.Err)
			}
			if update.Snapshot.State != models.StateIdle {
				t.Errorf("expected idle, got %s", update.Snapshot.State)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected first poll without waiting for the interval")
		}
	})

	t.Run("Delivers In Order", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []*models.StatusSnapshot{
			snap(models.StateStarting),
			snap(models.StateFetching),
			snap(models.StateSuccess),
		}}
		poller := NewPoller(fetcher, time.Millisecond, nil)

		sub := poller.Subscribe(context.Background())
		defer sub.Stop()

		want := []models.SyncState{models.StateStarting, models.StateFetching, models.StateSuccess}
		for i, state := range want {
			update := <-sub.Updates()
			if update.Snapshot.State != state {
				t.Errorf("update %d: expected %s, got %s", i, state, update.Snapshot.State)
			}
		}
	})

	t.Run("At Most One Poll In Flight", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []*models.StatusSnapshot{snap(models.StateIdle)}}
		poller := NewPoller(fetcher, time.Millisecond, nil)

		sub := poller.Subscribe(context.Background())
		defer sub.Stop()

		// Do not consume. The loop must block on delivery instead of
		// polling again.
		time.Sleep(50 * time.Millisecond)
		if calls := fetcher.calls.Load(); calls != 1 {
			t.Errorf("expected exactly 1 poll while consumer is slow, got %d", calls)
		}

		<-sub.Updates()
	})

	t.Run("Poll Errors Are Delivered And Polling Continues", func(t *testing.T) {
		fetcher := &scriptedFetcher{
			snapshots: []*models.StatusSnapshot{nil, snap(models.StateIdle)},
			errs:      []error{errors.New("connection refused"), nil},
		}
		poller := NewPoller(fetcher, time.Millisecond, nil)

		sub := poller.Subscribe(context.Background())
		defer sub.Stop()

		first := <-sub.Updates()
		if first.Err == nil {
			t.Fatal("expected first update to carry the poll error")
		}

		second := <-sub.Updates()
		if second.Err != nil || second.Snapshot.State != models.StateIdle {
			t.Errorf("expected polling to recover, got %+v", second)
		}
	})

	t.Run("Stop Waits And Closes", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []*models.StatusSnapshot{snap(models.StateIdle)}}
		poller := NewPoller(fetcher, time.Millisecond, nil)

		sub := poller.Subscribe(context.Background())
		<-sub.Updates()
		sub.Stop()

		// After Stop returns no further update can arrive; the channel
		// is closed.
		if _, ok := <-sub.Updates(); ok {
			t.Error("expected updates channel closed after Stop")
		}
	})

	t.Run("Context Cancellation Ends The Loop", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []*models.StatusSnapshot{snap(models.StateIdle)}}
		poller := NewPoller(fetcher, time.Millisecond, nil)

		ctx, cancel := context.WithCancel(context.Background())
		sub := poller.Subscribe(ctx)
		<-sub.Updates()
		cancel()

		select {
		case <-sub.done:
		case <-time.After(2 * time.Second):
			t.Fatal("expected loop to exit on context cancellation")
		}
	})

	t.Run("Default Interval", func(t *testing.T) {
		poller := NewPoller(&scriptedFetcher{snapshots: []*models.StatusSnapshot{snap(models.StateIdle)}}, 0, nil)
		if poller.interval != time.Second {
			t.Errorf("expected 1s default interval, got %v", poller.interval)
		}
	})
}

// fakeJobs records control calls.
type fakeJobs struct {
	startErr error
	stopErr  error
	starts   int
	stops    int
}

func (j *fakeJobs) Start(ctx context.Context, dateRange models.DateRange) error {
	j.starts++
	return j.startErr
}

func (j *fakeJobs) Stop(ctx context.Context) error {
	j.stops++
	return j.stopErr
}

// fakeRunLog records history calls.
type fakeRunLog struct {
	begun    int
	finished []string
}

func (l *fakeRunLog) Begin(dateRange models.DateRange) (string, error) {
	l.begun++
	return "run-1", nil
}

func (l *fakeRunLog) Finish(id, outcome, lastError string) error {
	l.finished = append(l.finished, id+":"+outcome)
	return nil
}

func TestSupervisor(t *testing.T) {
	ctx := context.Background()
	dateRange, _ := models.ParseDateRange("2026-08-01", "2026-08-29")

	t.Run("Start", func(t *testing.T) {
		t.Run("Refuses Before First Observation", func(t *testing.T) {
			jobs := &fakeJobs{}
			s := NewSupervisor(jobs, nil, nil)

			err := s.Start(ctx, dateRange)
			if !errors.Is(err, shared.ErrSyncInProgress) {
				t.Errorf("expected ErrSyncInProgress, got %v", err)
			}
			if jobs.starts != 0 {
				t.Error("expected no start request before an observation")
			}
		})

		t.Run("Refuses While Running", func(t *testing.T) {
			for _, state := range []models.SyncState{
				models.StateStarting, models.StateLoggingIn, models.StateWaitingOTP,
				models.StateFetching, models.StateSaving,
			} {
				jobs := &fakeJobs{}
				s := NewSupervisor(jobs, nil, nil)
				s.Observe(snap(state))

				if err := s.Start(ctx, dateRange); !errors.Is(err, shared.ErrSyncInProgress) {
					t.Errorf("state %s: expected ErrSyncInProgress, got %v", state, err)
				}
				if jobs.starts != 0 {
					t.Errorf("state %s: expected no start request", state)
				}
			}
		})

		t.Run("Allows From Terminal States", func(t *testing.T) {
			for _, state := range []models.SyncState{models.StateIdle, models.StateError, models.StateSuccess} {
				jobs := &fakeJobs{}
				s := NewSupervisor(jobs, nil, nil)
				s.Observe(snap(state))

				if err := s.Start(ctx, dateRange); err != nil {
					t.Errorf("state %s: expected start to succeed, got %v", state, err)
				}
				if jobs.starts != 1 {
					t.Errorf("state %s: expected one start request", state)
				}
			}
		})

		t.Run("Rejects Invalid Range", func(t *testing.T) {
			jobs := &fakeJobs{}
			s := NewSupervisor(jobs, nil, nil)
			s.Observe(snap(models.StateIdle))

			inverted, _ := models.ParseDateRange("2026-08-29", "2026-08-01")
			if err := s.Start(ctx, inverted); !errors.Is(err, shared.ErrInvalidDateRange) {
				t.Errorf("expected ErrInvalidDateRange, got %v", err)
			}
		})

		t.Run("Records Run History", func(t *testing.T) {
			jobs := &fakeJobs{}
			runs := &fakeRunLog{}
			s := NewSupervisor(jobs, runs, nil)
			s.Observe(snap(models.StateIdle))

			if err := s.Start(ctx, dateRange); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runs.begun != 1 {
				t.Errorf("expected one run recorded, got %d", runs.begun)
			}

			// The run finishes when a terminal state is observed.
			s.Observe(snap(models.StateFetching))
			if len(runs.finished) != 0 {
				t.Error("expected run to stay open while running")
			}
			s.Observe(&models.StatusSnapshot{State: models.StateError, LastError: "bank said no"})
			if len(runs.finished) != 1 || runs.finished[0] != "run-1:error" {
				t.Errorf("expected run finished with error outcome, got %v", runs.finished)
			}
		})

		t.Run("Remote Failure Does Not Record A Run", func(t *testing.T) {
			jobs := &fakeJobs{startErr: shared.ErrConfigMissing}
			runs := &fakeRunLog{}
			s := NewSupervisor(jobs, runs, nil)
			s.Observe(snap(models.StateIdle))

			if err := s.Start(ctx, dateRange); !errors.Is(err, shared.ErrConfigMissing) {
				t.Errorf("expected ErrConfigMissing, got %v", err)
			}
			if runs.begun != 0 {
				t.Error("expected no run recorded when the service refused")
			}
		})
	})

	t.Run("StopJob", func(t *testing.T) {
		t.Run("Refuses When Not Running", func(t *testing.T) {
			jobs := &fakeJobs{}
			s := NewSupervisor(jobs, nil, nil)

			if err := s.StopJob(ctx); !errors.Is(err, shared.ErrSyncNotRunning) {
				t.Errorf("expected ErrSyncNotRunning, got %v", err)
			}

			s.Observe(snap(models.StateIdle))
			if err := s.StopJob(ctx); !errors.Is(err, shared.ErrSyncNotRunning) {
				t.Errorf("expected ErrSyncNotRunning from idle, got %v", err)
			}
			if jobs.stops != 0 {
				t.Error("expected no stop request")
			}
		})

		t.Run("Allows While Running", func(t *testing.T) {
			jobs := &fakeJobs{}
			s := NewSupervisor(jobs, nil, nil)
			s.Observe(snap(models.StateWaitingOTP))

			if err := s.StopJob(ctx); err != nil {
				t.Errorf("expected stop to succeed, got %v", err)
			}
			if jobs.stops != 1 {
				t.Error("expected one stop request")
			}
		})
	})

	t.Run("State", func(t *testing.T) {
		s := NewSupervisor(&fakeJobs{}, nil, nil)
		if s.State() != "" {
			t.Errorf("expected empty state before first poll, got %s", s.State())
		}

		s.Observe(snap(models.StateFetching, "line one"))
		if s.State() != models.StateFetching {
			t.Errorf("expected fetching_data, got %s", s.State())
		}

		// Snapshots replace wholesale.
		s.Observe(snap(models.StateSaving))
		if len(s.Latest().Logs) != 0 {
			t.Error("expected new snapshot to fully replace the old one")
		}
	})
}

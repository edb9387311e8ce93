package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

// StatusFetcher fetches the authoritative job status.
// Implemented by services.SyncService.
type StatusFetcher interface {
	Status(ctx context.Context) (*models.StatusSnapshot, error)
}

// StatusUpdate is one poll result: either a snapshot or the error the poll
// failed with. Poll failures are non-fatal; polling continues.
type StatusUpdate struct {
	Snapshot *models.StatusSnapshot
	Err      error
	At       time.Time
}

// Poller schedules status polls on a fixed period.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	logger   *log.Logger
}

// NewPoller creates a Poller. The interval defaults to one second.
func NewPoller(fetcher StatusFetcher, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Poller{fetcher: fetcher, interval: interval, logger: logger}
}

// Subscription is the disposal handle for an active poll loop.
type Subscription struct {
	updates chan StatusUpdate
	cancel  context.CancelFunc
	done    chan struct{}
}

// Updates delivers poll results in order. The channel closes after Stop or
// when the subscription context ends.
func (s *Subscription) Updates() <-chan StatusUpdate {
	return s.updates
}

// Stop cancels the poll loop and waits for it to exit. Results of any
// in-flight poll are discarded, never delivered late. Stop is idempotent.
func (s *Subscription) Stop() {
	s.cancel()
	<-s.done
}

// Subscribe starts a poll loop and returns its handle. The first poll fires
// immediately, then once per interval. Delivery is synchronous: the loop
// blocks until the consumer has taken the update, which keeps at most one
// poll in flight and means the displayed state is always the most recently
// received one.
func (p *Poller) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		updates: make(chan StatusUpdate),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go p.loop(ctx, sub)
	return sub
}

func (p *Poller) loop(ctx context.Context, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.updates)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		snapshot, err := p.fetcher.Status(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Debug("status poll failed", "err", err)
		}

		update := StatusUpdate{Snapshot: snapshot, Err: err, At: time.Now()}
		select {
		case sub.updates <- update:
		case <-ctx.Done():
			return
		}

		timer.Reset(p.interval)
	}
}

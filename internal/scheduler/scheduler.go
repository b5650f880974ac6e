package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

// Refresher is the job the scheduler runs; *weather.Service satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically refreshes the forecast for the last searched city.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. A non-positive interval disables it.
func New(interval time.Duration, refresher Refresher) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Info("scheduler: refresh interval not set; nothing to schedule")
		return nil
	}

	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if err := s.refresher.Refresh(ctx); err != nil {
		log.WithError(err).Warn("scheduler: forecast refresh failed; keeping last good forecast")
		return
	}
	log.WithField("took", time.Since(started)).Debug("scheduler: forecast refreshed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

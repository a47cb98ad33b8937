package scheduler

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/signalwatch/propagraph/internal/logging"
)

// Poller runs the scheduler continuously, processing a batch every interval.
// A rate limiter caps store polling independently of the ticker so a
// misconfigured short interval cannot hammer the database.
type Poller struct {
	scheduler *Scheduler
	interval  time.Duration
	batchSize int
	limiter   *rate.Limiter
	logger    logging.Logger
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewPoller creates a poller. ratePerSec bounds how often batches may start.
func NewPoller(s *Scheduler, interval time.Duration, batchSize int, ratePerSec float64, logger logging.Logger) *Poller {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}

	return &Poller{
		scheduler: s,
		interval:  interval,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 1),
		logger:    logger,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start begins polling in a background goroutine. It processes one batch
// immediately, then on every tick.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting scheduler poller",
		logging.Duration("interval", p.interval),
		logging.Int("batch_size", p.batchSize),
	)

	go p.run(ctx)
}

// Stop signals the poller to stop and waits for the current batch to finish.
func (p *Poller) Stop() {
	p.logger.Info("Stopping scheduler poller")
	close(p.stopChan)
	<-p.doneChan
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.doneChan)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.process(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller context cancelled")
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.process(ctx)
		}
	}
}

func (p *Poller) process(ctx context.Context) {
	if err := p.limiter.Wait(ctx); err != nil {
		return
	}

	report, err := p.scheduler.RunBatch(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("Scheduler batch failed", logging.Error(err))
		return
	}

	if report.Claimed == 0 {
		return
	}

	p.logger.Debug("Poll cycle complete",
		logging.Int("claimed", report.Claimed),
		logging.Int("committed", report.Committed),
	)
}

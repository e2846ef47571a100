/*
scheduler.go - Periodic rate timeline refresh

PURPOSE:
  Rate records are published twice a year (late-payment rate) or once a
  year (legal rate) and are often loaded into the database by a separate
  ingestion job. The refresher reloads the handler's cached timeline on an
  interval so new records are picked up without a restart.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reloads immediately on start, then on every tick
  - A failed reload keeps the previous timeline and is logged

CONFIGURATION:
  - Interval: How often to reload (default: 1 hour)
  - Enabled: Whether the refresher is active (default: true)

USAGE:
  refresher := NewRateRefresher(handler, logger)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - handlers.go: LoadRates
*/
package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RateRefresher reloads the rate timeline periodically.
type RateRefresher struct {
	Handler  *Handler
	Logger   *zap.Logger
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	reloads atomic.Int64
}

// NewRateRefresher creates a new refresher.
func NewRateRefresher(handler *Handler, logger *zap.Logger) *RateRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateRefresher{
		Handler:  handler,
		Logger:   logger,
		Interval: 1 * time.Hour,
		Enabled:  true,
	}
}

// Start begins the refresher.
func (rr *RateRefresher) Start() {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if !rr.Enabled || rr.ticker != nil {
		rr.Logger.Info("rate refresher not started", zap.Bool("enabled", rr.Enabled))
		return
	}

	rr.ticker = time.NewTicker(rr.Interval)
	rr.stop = make(chan struct{})
	rr.wg.Add(1)

	go rr.run()

	rr.Logger.Info("rate refresher started", zap.Duration("interval", rr.Interval))
}

// Stop stops the refresher and waits for an in-flight reload.
func (rr *RateRefresher) Stop() {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.ticker != nil {
		rr.ticker.Stop()
		close(rr.stop)
		rr.wg.Wait()
		rr.ticker = nil
		rr.Logger.Info("rate refresher stopped")
	}
}

// Reloads returns the number of successful reloads.
func (rr *RateRefresher) Reloads() int {
	return int(rr.reloads.Load())
}

func (rr *RateRefresher) run() {
	defer rr.wg.Done()

	// Run immediately on start
	rr.refresh()

	for {
		select {
		case <-rr.ticker.C:
			rr.refresh()
		case <-rr.stop:
			return
		}
	}
}

func (rr *RateRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rr.Handler.LoadRates(ctx); err != nil {
		rr.Logger.Error("rate reload failed, keeping previous timeline", zap.Error(err))
		return
	}

	rr.reloads.Add(1)
	rr.Logger.Debug("rate timeline reloaded")
}

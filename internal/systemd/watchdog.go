package systemd

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Watchdog pings the systemd watchdog at half of WatchdogSec= for as long as
// the scheduler loop keeps beating. A loop stalled for longer than staleAfter
// gets no pings, so systemd restarts the service.
type Watchdog struct {
	interval   time.Duration
	staleAfter time.Duration
	notify     func() error
	now        func() time.Time
	logger     zerolog.Logger

	lastBeat atomic.Int64
}

// NewWatchdog creates a watchdog for the given WatchdogSec= interval.
func NewWatchdog(interval, staleAfter time.Duration, logger zerolog.Logger) *Watchdog {
	w := &Watchdog{
		interval:   interval,
		staleAfter: staleAfter,
		notify:     NotifyWatchdog,
		now:        time.Now,
		logger:     logger.With().Str("component", "watchdog").Logger(),
	}
	w.Beat()
	return w
}

// Beat records that the scheduler loop is alive.
func (w *Watchdog) Beat() {
	w.lastBeat.Store(w.now().UnixNano())
}

// Run pings until ctx is done.
func (w *Watchdog) Run(ctx context.Context) {
	every := w.interval / 2
	if every <= 0 {
		every = w.interval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	w.ping()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ping()
		}
	}
}

// ping reports whether a notification was sent.
func (w *Watchdog) ping() bool {
	since := w.now().Sub(time.Unix(0, w.lastBeat.Load()))
	if since > w.staleAfter {
		w.logger.Error().
			Dur("since_last_tick", since).
			Msg("Scheduler loop stalled, withholding watchdog ping")
		return false
	}
	if err := w.notify(); err != nil {
		w.logger.Warn().Err(err).Msg("Failed to send systemd watchdog notification")
	}
	return true
}

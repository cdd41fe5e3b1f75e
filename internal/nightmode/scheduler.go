// Package nightmode decides when night mode is forced on or off.
//
// The scheduler polls the clock and acts only when a window boundary was
// crossed since the previous poll. Between boundaries it leaves the display
// alone, so a manual toggle stays in effect until the next boundary. The
// display mode is never cached; every decision re-reads it from the port.
package nightmode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goodtune/nighttime/internal/display"
	"github.com/goodtune/nighttime/internal/metrics"
	"github.com/goodtune/nighttime/internal/storage"
	"github.com/goodtune/nighttime/internal/timewindow"
	"github.com/rs/zerolog"
)

// ErrStopped is returned by Toggle once Shutdown has started.
var ErrStopped = errors.New("nightmode: scheduler stopped")

// ShutdownTimeout bounds the restore Run performs after its context ends.
const ShutdownTimeout = 10 * time.Second

// Config holds the scheduler settings that are fixed for its lifetime.
type Config struct {
	PollInterval  time.Duration
	RestoreOnExit bool
}

// Hooks are optional callbacks run by the loop.
type Hooks struct {
	// AfterTick runs after every tick Run performs, successful or not.
	AfterTick func(TickResult, error)
}

// TickResult describes what a single tick did.
type TickResult struct {
	At      time.Time
	Crossed bool // a boundary was crossed since the previous check
	Desired bool // night mode wanted at At; only meaningful when Crossed
	Changed bool // the display mode was written
}

// Status is a point-in-time snapshot for presentation layers.
type Status struct {
	Window        timewindow.Window
	Now           time.Time
	Night         bool // Now is inside the window
	Mode          bool // as read from the port
	LastApplied   bool
	RestoreMode   bool
	NextBoundary  time.Time
	UntilBoundary time.Duration
	PreviousCheck time.Time
}

// Scheduler forces night mode on and off at window boundaries.
type Scheduler struct {
	window timewindow.Window
	port   display.Port
	cfg    Config
	clock  Clock
	store  storage.Store
	hooks  Hooks
	logger zerolog.Logger

	// tickMu guards previousCheck, stopped and the retry fields, and keeps
	// Shutdown from running in the middle of a tick. Toggle never takes it.
	tickMu        sync.Mutex
	previousCheck time.Time
	stopped       bool

	// A crossing whose port call failed is retried on the next tick unless
	// the user toggled since; then only a boundary after retryFrom counts.
	retryPending bool
	retryFrom    time.Time
	retryToggles uint64

	// stateMu orders journal state writes; once the clean-exit state is
	// saved no later write may mark the journal running again.
	stateMu     sync.Mutex
	stateClosed bool

	toggles     atomic.Uint64 // successful manual toggles
	checkedAt   atomic.Int64  // previousCheck in Unix nanoseconds, for Status
	restoreMode atomic.Bool
	lastApplied atomic.Bool
	stopping    atomic.Bool

	startOnce    sync.Once
	startErr     error
	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a scheduler for window driving port.
func New(window timewindow.Window, port display.Port, cfg Config, logger zerolog.Logger) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	s := &Scheduler{
		window:        window,
		port:          port,
		cfg:           cfg,
		clock:         RealClock{},
		logger:        logger.With().Str("component", "scheduler").Logger(),
		previousCheck: time.Unix(0, 0),
	}
	s.checkedAt.Store(s.previousCheck.UnixNano())
	return s
}

// SetClock sets the clock used to evaluate the window (for testing).
func (s *Scheduler) SetClock(clock Clock) {
	s.clock = clock
}

// SetStore sets the journal. A nil store disables journaling.
func (s *Scheduler) SetStore(store storage.Store) {
	s.store = store
}

// SetHooks sets the loop callbacks.
func (s *Scheduler) SetHooks(hooks Hooks) {
	s.hooks = hooks
}

// Start captures the mode to restore on exit and marks the journal running.
// If the journal shows the previous process never shut down cleanly, its
// restore mode wins over the current display mode, which that process may
// have forced. Start only does its work once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		s.startErr = s.start(ctx)
	})
	return s.startErr
}

func (s *Scheduler) start(ctx context.Context) error {
	current, err := s.port.Mode(ctx)
	if err != nil {
		metrics.DisplayErrors.WithLabelValues("read").Inc()
		return fmt.Errorf("read initial display mode: %w", err)
	}
	metrics.SetMode(current)
	s.lastApplied.Store(current)

	restore := current
	if s.store != nil {
		state, err := s.store.State().Load(ctx)
		switch {
		case err == nil && state.Running:
			restore = state.RestoreMode
			s.logger.Warn().
				Bool("restore_mode", restore).
				Time("last_update", state.UpdatedAt).
				Msg("Previous run did not shut down cleanly, keeping its restore mode")
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			s.logger.Error().Err(err).Msg("Failed to load scheduler state")
		}
	}
	s.restoreMode.Store(restore)
	s.saveState(ctx, true)

	s.logger.Info().
		Str("window", s.window.String()).
		Dur("poll_interval", s.cfg.PollInterval).
		Bool("mode", current).
		Bool("restore_mode", restore).
		Msg("Night mode scheduler started")
	return nil
}

// Tick runs one scheduling decision. When a boundary was crossed since the
// previous check it forces the mode the window wants at this instant;
// otherwise it leaves the display alone.
//
// If the port fails during a crossing, the previous check time is kept so the
// next tick sees the crossing again. A manual toggle in between cancels that
// retry. Ticks after Shutdown do nothing.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.stopped {
		return TickResult{}, nil
	}

	now := s.clock.Now()
	result := TickResult{At: now}
	metrics.TicksTotal.Inc()
	metrics.NextBoundary.Set(float64(s.window.NextBoundaryAfter(now).Unix()))

	since := s.previousCheck
	if s.retryPending && s.toggles.Load() != s.retryToggles {
		s.logger.Info().Msg("Manual toggle since the failed crossing, dropping the retry")
		since = s.retryFrom
		s.retryPending = false
	}

	if !s.window.CrossedBoundary(since, now) {
		s.setPreviousCheck(now)
		return result, nil
	}

	result.Crossed = true
	result.Desired = s.window.Contains(now)
	metrics.BoundaryCrossings.Inc()
	toggles := s.toggles.Load()

	current, err := s.port.Mode(ctx)
	if err != nil {
		metrics.DisplayErrors.WithLabelValues("read").Inc()
		s.logger.Error().Err(err).Msg("Failed to read display mode, will retry next tick")
		s.markRetry(now, toggles)
		return result, fmt.Errorf("read display mode: %w", err)
	}
	metrics.SetMode(current)

	if current != result.Desired {
		if err := s.port.SetMode(ctx, result.Desired); err != nil {
			metrics.DisplayErrors.WithLabelValues("write").Inc()
			s.logger.Error().Err(err).
				Bool("desired", result.Desired).
				Msg("Failed to set display mode, will retry next tick")
			s.markRetry(now, toggles)
			return result, fmt.Errorf("set display mode: %w", err)
		}
		result.Changed = true
		s.lastApplied.Store(result.Desired)
		metrics.SetMode(result.Desired)
		s.record(ctx, storage.SourceSchedule, current, result.Desired, now)
	}

	s.logger.Info().
		Bool("night", result.Desired).
		Bool("changed", result.Changed).
		Time("next_boundary", s.window.NextBoundaryAfter(now)).
		Msg("Crossed window boundary")

	s.retryPending = false
	s.setPreviousCheck(now)
	return result, nil
}

// markRetry keeps previousCheck so the next tick sees the crossing again.
func (s *Scheduler) markRetry(at time.Time, toggles uint64) {
	s.retryPending = true
	s.retryFrom = at
	s.retryToggles = toggles
}

func (s *Scheduler) setPreviousCheck(t time.Time) {
	s.previousCheck = t
	s.checkedAt.Store(t.UnixNano())
}

// Toggle flips the display mode and makes the new mode the one restored on
// exit. It does not wait for an in-flight tick.
func (s *Scheduler) Toggle(ctx context.Context) (bool, error) {
	if s.stopping.Load() {
		return false, ErrStopped
	}

	current, err := s.port.Mode(ctx)
	if err != nil {
		metrics.DisplayErrors.WithLabelValues("read").Inc()
		return false, fmt.Errorf("read display mode: %w", err)
	}

	next := !current
	if err := s.port.SetMode(ctx, next); err != nil {
		metrics.DisplayErrors.WithLabelValues("write").Inc()
		return current, fmt.Errorf("set display mode: %w", err)
	}
	s.restoreMode.Store(next)
	s.toggles.Add(1)
	metrics.SetMode(next)

	s.logger.Info().Bool("mode", next).Msg("Toggled night mode")
	s.record(ctx, storage.SourceManual, current, next, s.clock.Now())
	s.saveState(ctx, true)
	return next, nil
}

// Shutdown restores the saved mode (when configured to) and stops further
// ticks. It waits for an in-flight tick and runs only once; later calls
// return the first call's result.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.stopping.Store(true)

		s.tickMu.Lock()
		defer s.tickMu.Unlock()
		s.stopped = true

		s.shutdownErr = s.restore(ctx)
	})
	return s.shutdownErr
}

func (s *Scheduler) restore(ctx context.Context) error {
	if !s.cfg.RestoreOnExit {
		s.saveState(ctx, false)
		s.logger.Info().Msg("Night mode scheduler stopped")
		return nil
	}

	want := s.restoreMode.Load()
	current, err := s.port.Mode(ctx)
	if err != nil {
		metrics.DisplayErrors.WithLabelValues("read").Inc()
		s.logger.Warn().Err(err).Msg("Failed to read display mode before restoring, writing it anyway")
	} else if current == want {
		s.saveState(ctx, false)
		s.logger.Info().Bool("mode", want).Msg("Night mode scheduler stopped, display already in restore mode")
		return nil
	}

	if werr := s.port.SetMode(ctx, want); werr != nil {
		metrics.DisplayErrors.WithLabelValues("write").Inc()
		// Leave the journal marked running so the next start still knows
		// what to restore.
		return fmt.Errorf("restore display mode: %w", werr)
	}
	metrics.SetMode(want)
	if err == nil {
		s.record(ctx, storage.SourceRestore, current, want, s.clock.Now())
	}
	s.saveState(ctx, false)

	s.logger.Info().Bool("mode", want).Msg("Night mode scheduler stopped, display restored")
	return nil
}

// Run starts the scheduler, ticks immediately and then every poll interval
// until ctx ends, then shuts down.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
			defer cancel()
			return s.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	result, err := s.Tick(ctx)
	if s.hooks.AfterTick != nil {
		s.hooks.AfterTick(result, err)
	}
}

// Status returns a snapshot of the scheduler. The mode is read from the port;
// if that fails the rest of the snapshot is still returned with the error.
func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	now := s.clock.Now()
	next := s.window.NextBoundaryAfter(now)
	status := Status{
		Window:        s.window,
		Now:           now,
		Night:         s.window.Contains(now),
		LastApplied:   s.lastApplied.Load(),
		RestoreMode:   s.restoreMode.Load(),
		NextBoundary:  next,
		UntilBoundary: next.Sub(now),
		PreviousCheck: time.Unix(0, s.checkedAt.Load()),
	}

	mode, err := s.port.Mode(ctx)
	if err != nil {
		metrics.DisplayErrors.WithLabelValues("read").Inc()
		return status, fmt.Errorf("read display mode: %w", err)
	}
	status.Mode = mode
	return status, nil
}

// record journals a transition. Journal failures never block a transition.
func (s *Scheduler) record(ctx context.Context, source storage.Source, from, to bool, at time.Time) {
	metrics.TransitionsTotal.WithLabelValues(string(source)).Inc()
	if s.store == nil {
		return
	}
	err := s.store.Transitions().Add(ctx, storage.Transition{
		Timestamp: at.UTC(),
		Source:    source,
		From:      from,
		To:        to,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("source", string(source)).Msg("Failed to journal transition")
	}
}

// saveState writes the journal state. After the clean-exit state (running
// false) is written, later writes are dropped so an in-flight toggle cannot
// make the next start report an unclean exit.
func (s *Scheduler) saveState(ctx context.Context, running bool) {
	if s.store == nil {
		return
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.stateClosed {
		return
	}
	if !running {
		s.stateClosed = true
	}
	err := s.store.State().Save(ctx, storage.State{
		RestoreMode: s.restoreMode.Load(),
		Running:     running,
		UpdatedAt:   s.clock.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to save scheduler state")
	}
}

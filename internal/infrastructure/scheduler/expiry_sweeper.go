// Package scheduler runs background ledger jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	appinv "github.com/kitchenops/backend/internal/application/inventory"
	"github.com/kitchenops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// BatchExpirer retires expired batches. Implemented by the inventory service.
type BatchExpirer interface {
	ExpireBatches(ctx context.Context) (*appinv.ExpireBatchesResult, error)
}

// SweepRecorder records sweep durations
type SweepRecorder interface {
	RecordSweepDuration(ctx context.Context, d time.Duration)
}

// SweeperConfig holds expiry sweeper configuration
type SweeperConfig struct {
	Enabled    bool
	Interval   time.Duration
	JobTimeout time.Duration
	RunOnStart bool
}

// DefaultSweeperConfig returns default sweeper configuration
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Enabled:    true,
		Interval:   time.Hour,
		JobTimeout: 5 * time.Minute,
		RunOnStart: true,
	}
}

// SweeperConfigFrom builds the sweeper configuration from the inventory settings
func SweeperConfigFrom(cfg config.InventoryConfig) SweeperConfig {
	out := DefaultSweeperConfig()
	out.Enabled = cfg.ExpirySweepEnabled
	if cfg.ExpirySweepInterval > 0 {
		out.Interval = cfg.ExpirySweepInterval
	}
	return out
}

// Validate checks the configuration
func (c SweeperConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ExpirySweeper periodically writes off batches past their expiry date.
// Only one sweep runs at a time.
type ExpirySweeper struct {
	config  SweeperConfig
	expirer BatchExpirer
	metrics SweepRecorder
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  bool
	lastRun   time.Time
}

// NewExpirySweeper creates a new sweeper
func NewExpirySweeper(cfg SweeperConfig, expirer BatchExpirer, logger *zap.Logger) (*ExpirySweeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ExpirySweeper{
		config:  cfg,
		expirer: expirer,
		logger:  logger.Named("expiry_sweeper"),
	}, nil
}

// SetMetrics sets the recorder for sweep durations
func (s *ExpirySweeper) SetMetrics(metrics SweepRecorder) {
	s.metrics = metrics
}

// Start launches the sweep loop. It is a no-op when disabled or already running.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Expiry sweeper disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Expiry sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep, bounded by ctx
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Expiry sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Expiry sweeper stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *ExpirySweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRun returns when the last sweep finished
func (s *ExpirySweeper) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *ExpirySweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.sweepAndLog(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *ExpirySweeper) sweepAndLog(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Expiry sweep failed", zap.Error(err))
	}
}

// RunOnce performs a single sweep bounded by the job timeout.
// It returns ErrSweepInProgress when another sweep is still running.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (*appinv.ExpireBatchesResult, error) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return nil, ErrSweepInProgress
	}
	s.sweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.lastRun = time.Now()
		s.mu.Unlock()
	}()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.expirer.ExpireBatches(jobCtx)
	if s.metrics != nil {
		s.metrics.RecordSweepDuration(ctx, time.Since(started))
	}
	if err != nil {
		return result, err
	}

	s.logger.Debug("Expiry sweep completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("expired", result.Expired),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(started)),
	)
	return result, nil
}

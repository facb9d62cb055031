package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finalyze/internal/log"
)

// PurgerConfig holds configuration for the outbox purger
type PurgerConfig struct {
	// Interval is how often delivered rows are purged (default: 1h)
	Interval time.Duration

	// Retention is how long delivered rows are kept (default: 168h)
	Retention time.Duration
}

// DefaultPurgerConfig returns sensible defaults
func DefaultPurgerConfig() PurgerConfig {
	return PurgerConfig{
		Interval:  1 * time.Hour,
		Retention: 168 * time.Hour,
	}
}

// Purger deletes delivered outbox rows on a ticker.
type Purger struct {
	outbox Outbox
	config PurgerConfig
	logger *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPurger creates a purger. Non-positive durations take the defaults and a
// nil logger logs through the default logger under the worker component.
func NewPurger(outbox Outbox, config PurgerConfig, logger *log.Logger) *Purger {
	defaults := DefaultPurgerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Retention <= 0 {
		config.Retention = defaults.Retention
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &Purger{outbox: outbox, config: config, logger: logger}
}

// Start begins the purge loop. Returns an error if already running.
func (p *Purger) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("outbox purger is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Outbox purger started",
		"interval", p.config.Interval,
		"retention", p.config.Retention)
	return nil
}

// Run purges on every tick until ctx is cancelled or Stop is called.
func (p *Purger) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-p.doneCh
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// Stop gracefully stops the purger and waits for completion.
func (p *Purger) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	select {
	case <-stopCh:
	default:
		close(stopCh)
	}

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Outbox purger stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Outbox purger stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the purger is currently running
func (p *Purger) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Purger) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Purge immediately on startup
	p.PurgeOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PurgeOnce(ctx)
		}
	}
}

// PurgeOnce deletes delivered rows older than the retention period.
func (p *Purger) PurgeOnce(ctx context.Context) int64 {
	n, err := p.outbox.PurgeDelivered(ctx, p.config.Retention)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to purge delivered emails",
			log.FieldOperation, log.OpPurge,
			log.FieldError, err)
		return 0
	}
	if n > 0 {
		p.logger.InfoContext(ctx, "Purged delivered emails", log.FieldOperation, log.OpPurge, "count", n)
	}
	return n
}

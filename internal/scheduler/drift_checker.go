package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarko/internal/logger"
)

// DefaultDriftInterval is used when no interval is configured.
const DefaultDriftInterval = time.Minute

// DriftSource compares the board with the store and repairs it.
type DriftSource interface {
	CheckDrift(ctx context.Context) (bool, error)
}

// DriftChecker periodically verifies that the board still mirrors the
// store. Missed or misapplied change events are repaired by a resync.
type DriftChecker struct {
	board    DriftSource
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewDriftChecker creates a new drift checker
func NewDriftChecker(board DriftSource, log logger.Logger, interval time.Duration) *DriftChecker {
	if interval <= 0 {
		interval = DefaultDriftInterval
	}

	return &DriftChecker{
		board:    board,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic check. The first check runs after one interval,
// the board is freshly loaded at startup.
func (dc *DriftChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(dc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = dc.Check(ctx)
			case <-dc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the drift checker
func (dc *DriftChecker) Stop() {
	dc.stopOnce.Do(func() { close(dc.stopCh) })
}

// Check runs a single comparison.
func (dc *DriftChecker) Check(ctx context.Context) error {
	drifted, err := dc.board.CheckDrift(ctx)
	if err != nil {
		dc.logger.Error("❌ drift check failed", logger.Error(err))
		return err
	}

	if drifted {
		dc.logger.Warn("board drifted from store, resync requested")
	} else {
		dc.logger.Debug("board in sync with store")
	}
	return nil
}

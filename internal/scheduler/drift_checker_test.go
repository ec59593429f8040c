package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookmarko/internal/boardsync"
	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
	"github.com/MrSnakeDoc/bookmarko/internal/store/memory"
)

type countingSource struct {
	calls   int
	drifted bool
	err     error
}

func (c *countingSource) CheckDrift(context.Context) (bool, error) {
	c.calls++
	return c.drifted, c.err
}

func TestDriftChecker_Check(t *testing.T) {
	tests := []struct {
		name    string
		source  *countingSource
		wantErr bool
	}{
		{name: "in sync", source: &countingSource{}},
		{name: "drifted", source: &countingSource{drifted: true}},
		{name: "store failure", source: &countingSource{err: errors.New("store down")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := NewDriftChecker(tt.source, logger.NewNop(), 0)
			err := dc.Check(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.source.calls != 1 {
				t.Errorf("CheckDrift called %d times, want 1", tt.source.calls)
			}
		})
	}
}

func TestDriftChecker_RepairsBoard(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	work, err := st.Create(ctx, store.CreateDetails{ParentID: store.BookmarkBarID, Title: "Work"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	coord := boardsync.New(st, nil, logger.NewNop(), boardsync.DefaultOptions())
	if err := coord.Resync(ctx); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	// The event loop is not running, the board misses this change
	if _, err := st.Create(ctx, store.CreateDetails{ParentID: work.ID, Title: "Docs", URL: "https://docs.example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := len(coord.Snapshot().Bookmarks); got != 0 {
		t.Fatalf("expected stale board, got %d bookmarks", got)
	}

	dc := NewDriftChecker(coord, logger.NewNop(), time.Hour)
	if err := dc.Check(ctx); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if got := len(coord.Snapshot().Bookmarks); got != 1 {
		t.Errorf("Expected 1 bookmark after drift repair, got %d", got)
	}
}

func TestDriftChecker_DefaultInterval(t *testing.T) {
	dc := NewDriftChecker(&countingSource{}, logger.NewNop(), 0)
	if dc.interval != DefaultDriftInterval {
		t.Errorf("interval = %v, want %v", dc.interval, DefaultDriftInterval)
	}
	dc.Stop()
	dc.Stop()
}

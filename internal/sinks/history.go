package sinks

import (
	"context"
	"time"

	"github.com/nerrad567/lumicore/internal/device"
)

const (
	recordTimeout = 5 * time.Second
	pruneTimeout  = 30 * time.Second
)

// HistoryRecorder stores a device document snapshot after every committed
// parameter or metadata change.
type HistoryRecorder struct {
	repo   device.HistoryRepository
	logger Logger
}

// NewHistoryRecorder creates a recorder backed by repo.
func NewHistoryRecorder(repo device.HistoryRepository, logger Logger) *HistoryRecorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &HistoryRecorder{repo: repo, logger: logger}
}

// Name implements Sink.
func (h *HistoryRecorder) Name() string { return "history" }

// DeviceChanged implements Sink. Added and removed devices are not
// recorded; startup imports call Snapshot instead.
func (h *HistoryRecorder) DeviceChanged(d *device.Device, ev device.Event) {
	switch ev {
	case device.EventParamsChanged:
		h.Snapshot(d, device.HistorySourceParams)
	case device.EventMetadataChanged:
		h.Snapshot(d, device.HistorySourceMetadata)
	}
}

// Snapshot records d's current document with the given source.
func (h *HistoryRecorder) Snapshot(d *device.Device, source string) {
	body, err := d.MarshalJSON()
	if err != nil {
		h.logger.Error("encoding history snapshot failed", "device", d.ID(), "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := h.repo.Record(ctx, d.ID(), body, source); err != nil {
		h.logger.Error("recording history failed", "device", d.ID(), "source", source, "error", err)
	}
}

// Pruner deletes history older than a cutoff.
// *device.SQLiteHistoryRepository satisfies it.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RunPruner prunes history older than retention once immediately and then
// every interval, until ctx is cancelled.
func RunPruner(ctx context.Context, p Pruner, retention, interval time.Duration, logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	prune := func() {
		pctx, cancel := context.WithTimeout(ctx, pruneTimeout)
		defer cancel()

		n, err := p.Prune(pctx, retention)
		if err != nil {
			logger.Warn("pruning history failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("history pruned", "rows", n, "retention", retention.String())
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

package extractor

import (
	"context"
	"log/slog"
	"time"

	"github.com/manifest-network/metaharvest/internal/models"
)

// Merge prepends the transactions of incoming whose hash is not in previous.
// Novel transactions keep their incoming order. A zero novelCount means
// nothing changed.
func Merge(previous, incoming models.ResultSet) (models.ResultSet, int) {
	known := previous.Hashes()
	novel := make(models.ResultSet, 0, len(incoming))
	for _, tx := range incoming {
		if _, ok := known[tx.Hash]; ok {
			continue
		}
		known[tx.Hash] = struct{}{}
		novel = append(novel, tx)
	}
	if len(novel) == 0 {
		return previous, 0
	}

	merged := make(models.ResultSet, 0, len(novel)+len(previous))
	merged = append(merged, novel...)
	merged = append(merged, previous...)
	return merged, len(novel)
}

// TickFunc receives the outcome of every live cycle.
type TickFunc func(*LiveResult) error

// Watch runs a live cycle immediately and then on every interval until ctx
// is done. Cycles never overlap: ticks that fire while a cycle is running are
// dropped by the ticker. A failed cycle is logged and polling continues; an
// error from onTick stops the loop.
func Watch(ctx context.Context, engine *Engine, criteria models.Criteria, interval time.Duration, seed models.ResultSet, onTick TickFunc) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current := seed
	for {
		result, err := engine.RunLiveTick(ctx, criteria, current)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil && isConfigurationError(err):
			return err
		case err != nil:
			slog.Error("Live cycle failed", "network", criteria.Network, "error", err)
		default:
			current = result.Merged
			if err := onTick(result); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

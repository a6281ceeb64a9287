package extractor

import (
	"context"
	"log/slog"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/metrics"
	"github.com/manifest-network/metaharvest/internal/models"
	"github.com/manifest-network/metaharvest/internal/utils"
)

// LocateOptions bounds the timestamp search.
type LocateOptions struct {
	ToleranceSeconds int64
	MaxProbes        int
}

// Locate binary-searches [low, high] for the block whose time is closest to
// target. It returns the first probe within tolerance, otherwise the closest
// probe seen. A fetch failure ends the search early; nil means nothing was probed.
func Locate(ctx context.Context, src client.Source, target, low, high int64, opts LocateOptions) *models.Block {
	var best *models.Block
	var bestDiff int64

	left, right := low, high
	for probe := 0; probe < opts.MaxProbes && left <= right; probe++ {
		mid := left + (right-left)/2

		block, err := utils.GetBlockAtHeight(ctx, src, mid)
		metrics.LocatorProbes.WithLabelValues(string(src.Network)).Inc()
		if err != nil {
			slog.Warn("Binary search failed", "height", mid, "probe", probe, "error", err)
			break
		}

		diff := absDiff(block.Time, target)
		if best == nil || diff < bestDiff {
			best, bestDiff = block, diff
		}
		if diff <= opts.ToleranceSeconds {
			slog.Debug("Located block", "target", target, "height", block.Height, "probes", probe+1)
			return block
		}

		if block.Time > target {
			right = mid - 1
		} else {
			left = mid + 1
		}
	}

	if best != nil {
		slog.Debug("Closest block outside tolerance", "target", target, "height", best.Height, "diff", bestDiff)
	}
	return best
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/metrics"
	"github.com/manifest-network/metaharvest/internal/models"
	"github.com/manifest-network/metaharvest/internal/utils"
)

// HarvestRecent follows the previous_block chain back from the tip until
// limit references are collected or genesis is reached. Any fetch error
// aborts the harvest. A limit below 1 harvests nothing.
func HarvestRecent(ctx context.Context, src client.Source, limit int) ([]models.TxRef, error) {
	if limit < 1 {
		return nil, nil
	}

	block, err := utils.GetLatestBlock(ctx, src)
	if err != nil {
		return nil, err
	}

	refs := make([]models.TxRef, 0, limit)
	for len(refs) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hashes, err := utils.GetBlockTxs(ctx, src, block.Hash)
		if err != nil {
			return nil, err
		}
		for _, hash := range hashes {
			refs = append(refs, models.TxRef{Hash: hash, BlockTime: block.Time})
		}
		slog.Debug("Walked block", "height", block.Height, "txs", len(hashes), "collected", len(refs))

		if block.IsGenesis() {
			break
		}
		if block, err = utils.GetBlock(ctx, src, *block.PreviousBlock); err != nil {
			return nil, err
		}
	}

	refs = truncate(refs, limit)
	metrics.HarvestedTransactions.WithLabelValues(string(src.Network), "recent").Add(float64(len(refs)))
	return refs, nil
}

// HarvestRange walks heights from EndHeight down to StartHeight (never below
// genesis). Blocks newer than toSec are skipped; the first block older than
// fromSec ends the walk, since time grows with height. Any fetch error aborts
// the harvest and discards what was collected.
func HarvestRange(ctx context.Context, src client.Source, hr models.HeightRange, limit int, fromSec, toSec int64) ([]models.TxRef, error) {
	if limit < 1 {
		return nil, nil
	}
	lowest := max(hr.StartHeight, models.GenesisHeight)
	slog.Info("Walking heights", "range", fmt.Sprintf("[%d, %d]", lowest, hr.EndHeight), "limit", limit)

	refs := make([]models.TxRef, 0, limit)
	for h := hr.EndHeight; h >= lowest && len(refs) < limit; h-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hashes, err := utils.GetBlockTxs(ctx, src, strconv.FormatInt(h, 10))
		if err != nil {
			return nil, fmt.Errorf("height walk aborted at %d: %w", h, err)
		}
		if len(hashes) == 0 {
			continue
		}

		block, err := utils.GetBlockAtHeight(ctx, src, h)
		if err != nil {
			return nil, fmt.Errorf("height walk aborted at %d: %w", h, err)
		}
		if block.Time > toSec {
			continue
		}
		if block.Time < fromSec {
			slog.Debug("Reached blocks older than range", "height", h, "time", block.Time)
			break
		}

		for _, hash := range hashes {
			refs = append(refs, models.TxRef{Hash: hash, BlockTime: block.Time})
		}
	}

	refs = truncate(refs, limit)
	metrics.HarvestedTransactions.WithLabelValues(string(src.Network), "range").Add(float64(len(refs)))
	return refs, nil
}

// HarvestLabel reads one newest-first page of the label index. Each entry
// yields one transaction holding exactly one record, even when its text is empty.
func HarvestLabel(ctx context.Context, src client.Source, label string, limit, page int) (models.ResultSet, error) {
	if limit < 1 {
		return nil, nil
	}
	entries, err := utils.GetLabelPage(ctx, src, label, limit, page)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(entries))
	results := make(models.ResultSet, 0, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.TxHash]; dup {
			continue
		}
		seen[entry.TxHash] = struct{}{}
		results = append(results, models.Transaction{
			Hash:     entry.TxHash,
			Metadata: []models.MetadataRecord{ExtractMetadata(label, entry.JSONMetadata)},
		})
	}

	metrics.HarvestedTransactions.WithLabelValues(string(src.Network), "label").Add(float64(len(results)))
	return results, nil
}

func truncate(refs []models.TxRef, limit int) []models.TxRef {
	if len(refs) > limit {
		return refs[:limit]
	}
	return refs
}

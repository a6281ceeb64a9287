package extractor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/models"
	"github.com/manifest-network/metaharvest/internal/utils"
)

// BlockRange is the outcome of resolving a DateRange. Start may be the
// genesis sentinel (height 0), which is a bound only and never a fetched block.
type BlockRange struct {
	Start  *models.Block
	End    *models.Block
	Latest *models.Block
}

// ResolveRange turns calendar bounds into boundary blocks. Only the latest
// block fetch can fail; bounds that cannot be located fall back to genesis
// (start) or latest (end).
func ResolveRange(ctx context.Context, src client.Source, dates models.DateRange, opts LocateOptions) (*BlockRange, error) {
	latest, err := utils.GetLatestBlock(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve date range: %w", err)
	}

	br := &BlockRange{Start: latest, End: latest, Latest: latest}

	if dates.HasTo() {
		if block := Locate(ctx, src, dates.ToSeconds(), models.GenesisHeight, latest.Height, opts); block != nil {
			br.End = block
		} else {
			slog.Warn("Could not locate end of date range, using latest block", "to", dates.To, "height", latest.Height)
		}
	}

	if dates.HasFrom() {
		if block := Locate(ctx, src, dates.FromSeconds(), models.GenesisHeight, latest.Height, opts); block != nil {
			br.Start = block
		} else {
			slog.Warn("Could not locate start of date range, walking to genesis", "from", dates.From)
			br.Start = &models.Block{Height: 0}
		}
	}

	return br, nil
}

// Heights returns the inclusive height walk for dates. Without a lower date
// bound the walk runs down to the genesis sentinel.
func (br *BlockRange) Heights(dates models.DateRange) models.HeightRange {
	hr := models.HeightRange{StartHeight: 0, EndHeight: br.End.Height}
	if dates.HasFrom() {
		hr.StartHeight = br.Start.Height
	}
	return hr
}

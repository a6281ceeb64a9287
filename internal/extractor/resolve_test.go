package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/metaharvest/internal/client/clienttest"
	"github.com/manifest-network/metaharvest/internal/models"
)

// dayChain produces one block per hour starting 2024-01-01T00:00:00Z.
func dayChain(tip int64) (*clienttest.Fake, func(int64) int64) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	timeOf := func(h int64) int64 { return base + (h-1)*3600 }
	return clienttest.NewChain(tip, timeOf, nil), timeOf
}

func mustDates(t *testing.T, from, to string) models.DateRange {
	t.Helper()
	dr, err := models.ParseDateRange(from, to)
	require.NoError(t, err)
	return dr
}

func TestResolveRangeUnbounded(t *testing.T) {
	fake, _ := dayChain(240)
	br, err := ResolveRange(context.Background(), fake.Source(), mustDates(t, "", ""), defaultLocate)
	require.NoError(t, err)
	assert.Equal(t, int64(240), br.Start.Height)
	assert.Equal(t, int64(240), br.End.Height)
	assert.Same(t, br.Start, br.End)
	assert.Equal(t, []string{"/blocks/latest"}, fake.Calls())
}

func TestResolveRangeBothBounds(t *testing.T) {
	fake, timeOf := dayChain(240)
	dates := mustDates(t, "2024-01-03", "2024-01-05")

	br, err := ResolveRange(context.Background(), fake.Source(), dates, LocateOptions{ToleranceSeconds: 1800, MaxProbes: 20})
	require.NoError(t, err)

	// 2024-01-03T00:00Z is height 49, 2024-01-05T23:59:59Z sits just before height 121.
	assert.Equal(t, int64(49), br.Start.Height)
	assert.LessOrEqual(t, absDiff(timeOf(br.End.Height), dates.ToSeconds()), int64(1800))
	assert.LessOrEqual(t, br.Start.Height, br.End.Height)

	hr := br.Heights(dates)
	assert.Equal(t, int64(49), hr.StartHeight)
	assert.Equal(t, br.End.Height, hr.EndHeight)
}

func TestResolveRangeToOnlyWalksToGenesis(t *testing.T) {
	fake, _ := dayChain(240)
	dates := mustDates(t, "", "2024-01-02")

	br, err := ResolveRange(context.Background(), fake.Source(), dates, defaultLocate)
	require.NoError(t, err)
	assert.Equal(t, int64(240), br.Start.Height)

	hr := br.Heights(dates)
	assert.Equal(t, int64(0), hr.StartHeight)
	assert.Less(t, hr.EndHeight, int64(240))
}

func TestResolveRangeFallbacks(t *testing.T) {
	fake, _ := dayChain(100)
	// The first midpoint fails, so neither bound can be located.
	fake.Fail("/blocks/50", errors.New("timeout"))

	dates := mustDates(t, "2024-01-02", "2024-01-03")
	br, err := ResolveRange(context.Background(), fake.Source(), dates, defaultLocate)
	require.NoError(t, err)
	assert.Equal(t, int64(100), br.End.Height, "end falls back to latest")
	assert.Equal(t, int64(0), br.Start.Height, "start falls back to the genesis sentinel")
	assert.Equal(t, models.HeightRange{StartHeight: 0, EndHeight: 100}, br.Heights(dates))
}

func TestResolveRangeLatestFailure(t *testing.T) {
	fake := clienttest.NewFake().Fail("/blocks/latest", errors.New("dns failure"))
	_, err := ResolveRange(context.Background(), fake.Source(), mustDates(t, "2024-01-01", ""), defaultLocate)
	assert.ErrorContains(t, err, "failed to resolve date range")
}

package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	dr, err := ParseDateRange("2024-03-01", "2024-03-02")
	require.NoError(t, err)
	assert.True(t, dr.IsBounded())
	assert.Equal(t, int64(1709251200), dr.FromSeconds())
	assert.Equal(t, int64(1709423999), dr.ToSeconds())

	open, err := ParseDateRange("", "")
	require.NoError(t, err)
	assert.False(t, open.IsBounded())
	assert.Equal(t, int64(0), open.FromSeconds())
	assert.Equal(t, int64(math.MaxInt64), open.ToSeconds())

	_, err = ParseDateRange("03/01/2024", "")
	assert.ErrorContains(t, err, "invalid from date")

	_, err = ParseDateRange("2024-01-05", "2024-01-03")
	assert.ErrorContains(t, err, "from date 2024-01-05 is after to date 2024-01-03")

	sameDay, err := ParseDateRange("2024-03-01", "2024-03-01")
	require.NoError(t, err)
	assert.Less(t, sameDay.FromSeconds(), sameDay.ToSeconds())
}

func TestCriteriaNormalize(t *testing.T) {
	cases := []struct {
		name      string
		criteria  Criteria
		wantLimit int
		wantErr   string
	}{
		{name: "default limit", criteria: Criteria{Network: "mainnet"}, wantLimit: DefaultLimit},
		{name: "clamped high", criteria: Criteria{Network: "preprod", Limit: 500}, wantLimit: MaxLimit},
		{name: "clamped low", criteria: Criteria{Network: "preview", Limit: -3}, wantLimit: 1},
		{name: "bad network", criteria: Criteria{Network: "testnet"}, wantErr: "invalid network"},
		{name: "bad date", criteria: Criteria{Network: "mainnet", DateTo: "tomorrow"}, wantErr: "invalid to date"},
		{name: "reversed dates", criteria: Criteria{Network: "mainnet", DateFrom: "2024-01-05", DateTo: "2024-01-03"}, wantErr: "is after to date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.criteria
			_, err := c.Normalize()
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLimit, c.Limit)
		})
	}
}

func TestCriteriaNormalizeTrims(t *testing.T) {
	c := Criteria{Network: " Mainnet ", Label: " 674 ", Wallet: " addr1 "}
	_, err := c.Normalize()
	require.NoError(t, err)
	assert.Equal(t, Mainnet, c.Network)
	assert.Equal(t, "674", c.Label)
	assert.Equal(t, "addr1", c.Wallet)
	assert.True(t, c.LabelMode())
}

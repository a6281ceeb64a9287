package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/metaharvest/internal/models"
)

func TestLoadClientConfigFromCLI(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("BLOCKFROST_PREPROD_KEY", "preprodKEY")
	BindEnv()
	viper.Set("max-retries", 3)
	viper.Set("timeout", "15s")
	viper.Set("blockfrost.preview.url", "http://localhost:3000/api/v0")

	cfg, err := LoadClientConfigFromCLI()
	require.NoError(t, err)
	assert.Equal(t, uint(3), cfg.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "preprodKEY", cfg.Keys[models.Preprod])
	assert.NotContains(t, cfg.Keys, models.Mainnet)
	assert.Equal(t, "http://localhost:3000/api/v0", cfg.BaseURLs[models.Preview])
}

func TestLoadClientConfigRejectsZeroTimeout(t *testing.T) {
	t.Cleanup(viper.Reset)
	_, err := LoadClientConfigFromCLI()
	assert.ErrorContains(t, err, "timeout must be positive")
}

func TestLoadHarvestConfigDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	cfg, err := LoadHarvestConfigFromCLI()
	require.NoError(t, err)
	assert.Equal(t, int64(300), cfg.ToleranceSeconds)
	assert.Equal(t, 20, cfg.MaxProbes)

	viper.Set("tolerance", "2m")
	viper.Set("max-probes", 0)
	_, err = LoadHarvestConfigFromCLI()
	assert.ErrorContains(t, err, "max probes must be positive")
}

func TestOutputConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     OutputConfig
		wantErr string
	}{
		{name: "text", cfg: OutputConfig{Kind: OutputText}},
		{name: "postgres", cfg: OutputConfig{Kind: OutputPostgres, PostgresConn: "postgres://localhost/meta"}},
		{name: "postgres without conn", cfg: OutputConfig{Kind: OutputPostgres}, wantErr: "connection string"},
		{name: "unknown", cfg: OutputConfig{Kind: "csv"}, wantErr: "unknown output"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

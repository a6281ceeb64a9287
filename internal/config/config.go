package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/manifest-network/metaharvest/internal/models"
)

// Environment variables holding the indexer project keys.
var keyEnvVars = map[models.Network]string{
	models.Mainnet: "BLOCKFROST_MAIN_KEY",
	models.Preprod: "BLOCKFROST_PREPROD_KEY",
	models.Preview: "BLOCKFROST_PREVIEW_KEY",
}

// BindEnv binds the per-network credential and URL keys to viper.
func BindEnv() {
	for network, env := range keyEnvVars {
		_ = viper.BindEnv(keyPath(network), env)
	}
	viper.SetEnvPrefix("METAHARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func keyPath(network models.Network) string { return "blockfrost." + string(network) + ".key" }
func urlPath(network models.Network) string { return "blockfrost." + string(network) + ".url" }

// ClientConfig configures the indexer HTTP client.
type ClientConfig struct {
	Keys       map[models.Network]string
	BaseURLs   map[models.Network]string
	MaxRetries uint
	Timeout    time.Duration
}

func (c ClientConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// HarvestConfig tunes the block locator and metadata collection.
type HarvestConfig struct {
	ToleranceSeconds int64
	MaxProbes        int
	ShowProgress     bool
}

// DefaultHarvestConfig returns the locator defaults: 5 minutes of tolerance, 20 probes.
func DefaultHarvestConfig() HarvestConfig {
	return HarvestConfig{ToleranceSeconds: 300, MaxProbes: 20}
}

func (c HarvestConfig) Validate() error {
	if c.ToleranceSeconds < 0 {
		return fmt.Errorf("tolerance must not be negative")
	}
	if c.MaxProbes <= 0 {
		return fmt.Errorf("max probes must be positive")
	}
	return nil
}

// LiveConfig configures the polling loop.
type LiveConfig struct {
	Interval    time.Duration
	MetricsAddr string
}

func (c LiveConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

// OutputConfig selects where results go.
type OutputConfig struct {
	Kind         string
	PostgresConn string
	Unique       bool
}

const (
	OutputText     = "text"
	OutputPostgres = "postgres"
)

func (c OutputConfig) Validate() error {
	switch c.Kind {
	case OutputText:
		return nil
	case OutputPostgres:
		if c.PostgresConn == "" {
			return fmt.Errorf("postgres output requires a connection string")
		}
		return nil
	}
	return fmt.Errorf("unknown output %q", c.Kind)
}

func LoadClientConfigFromCLI() (ClientConfig, error) {
	cfg := ClientConfig{
		Keys:       make(map[models.Network]string),
		BaseURLs:   make(map[models.Network]string),
		MaxRetries: viper.GetUint("max-retries"),
		Timeout:    viper.GetDuration("timeout"),
	}
	for _, network := range models.Networks {
		if key := viper.GetString(keyPath(network)); key != "" {
			cfg.Keys[network] = key
		}
		if url := viper.GetString(urlPath(network)); url != "" {
			cfg.BaseURLs[network] = url
		}
	}
	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, fmt.Errorf("invalid client configuration: %w", err)
	}
	return cfg, nil
}

func LoadHarvestConfigFromCLI() (HarvestConfig, error) {
	cfg := DefaultHarvestConfig()
	if viper.IsSet("tolerance") {
		cfg.ToleranceSeconds = int64(viper.GetDuration("tolerance").Seconds())
	}
	if viper.IsSet("max-probes") {
		cfg.MaxProbes = viper.GetInt("max-probes")
	}
	cfg.ShowProgress = viper.GetBool("progress")
	if err := cfg.Validate(); err != nil {
		return HarvestConfig{}, fmt.Errorf("invalid harvest configuration: %w", err)
	}
	return cfg, nil
}

func LoadLiveConfigFromCLI() (LiveConfig, error) {
	cfg := LiveConfig{
		Interval:    viper.GetDuration("interval"),
		MetricsAddr: viper.GetString("metrics-addr"),
	}
	if err := cfg.Validate(); err != nil {
		return LiveConfig{}, fmt.Errorf("invalid live configuration: %w", err)
	}
	return cfg, nil
}

func LoadOutputConfigFromCLI() (OutputConfig, error) {
	cfg := OutputConfig{
		Kind:         viper.GetString("output"),
		PostgresConn: viper.GetString("postgres-conn"),
		Unique:       viper.GetBool("unique"),
	}
	if err := cfg.Validate(); err != nil {
		return OutputConfig{}, fmt.Errorf("invalid output configuration: %w", err)
	}
	return cfg, nil
}

// LoadCriteriaFromCLI builds query criteria from the bound flags.
// Validation is left to Criteria.Normalize.
func LoadCriteriaFromCLI() models.Criteria {
	return models.Criteria{
		Network:  models.Network(viper.GetString("network")),
		Limit:    viper.GetInt("limit"),
		Label:    viper.GetString("label"),
		Regex:    viper.GetString("regex"),
		Wallet:   viper.GetString("wallet"),
		DateFrom: viper.GetString("from"),
		DateTo:   viper.GetString("to"),
	}
}

package metaharvest

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/metaharvest/internal/config"
	"github.com/manifest-network/metaharvest/internal/output"
)

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	require.NoError(t, setupLogger(&buf, "WARN"))
	slog.Info("hidden")
	slog.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.ErrorContains(t, setupLogger(&buf, "loud"), `invalid log level "loud"`)
}

func TestNewOutputHandlerText(t *testing.T) {
	h, err := newOutputHandler(context.Background(), config.OutputConfig{Kind: config.OutputText, Unique: true}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &output.TextOutputHandler{}, h)
}

func TestCommandFlags(t *testing.T) {
	cmd := newRootCmd()

	query, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)
	for _, name := range []string{"network", "limit", "label", "regex", "wallet", "from", "to", "pages", "unique", "output", "postgres-conn"} {
		assert.NotNil(t, query.Flags().Lookup(name), name)
	}

	live, _, err := cmd.Find([]string{"live"})
	require.NoError(t, err)
	assert.Equal(t, "20s", live.Flags().Lookup("interval").DefValue)
	assert.NotNil(t, live.Flags().Lookup("metrics-addr"))

	for _, name := range []string{"log-level", "max-retries", "timeout", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestQueryRejectsMissingCredential(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("BLOCKFROST_PREVIEW_KEY", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"query", "--network", "preview", "--max-retries", "0"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preview")
	assert.Empty(t, stdout.String())
}

func TestQueryRejectsBadPages(t *testing.T) {
	t.Cleanup(viper.Reset)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"query", "--pages", "0"})

	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "pages must be at least 1")
}

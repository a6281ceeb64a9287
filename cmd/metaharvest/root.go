package metaharvest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/manifest-network/metaharvest/internal/config"
	"github.com/manifest-network/metaharvest/internal/models"
	"github.com/manifest-network/metaharvest/internal/output"
	"github.com/manifest-network/metaharvest/internal/output/postgresql"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "metaharvest",
		Short:         "Harvest human-readable transaction metadata from Cardano",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			config.BindEnv()

			if cfgFile := viper.GetString("config"); cfgFile != "" {
				viper.SetConfigFile(cfgFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file: %w", err)
				}
			}

			return setupLogger(cmd.ErrOrStderr(), viper.GetString("log-level"))
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Uint("max-retries", 3, "Maximum number of retries for failed upstream requests")
	cmd.PersistentFlags().Duration("timeout", 30*time.Second, "Timeout of a single upstream request")

	cmd.AddCommand(newQueryCmd(), newLiveCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func setupLogger(w io.Writer, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// addCriteriaFlags registers the query criteria shared by every harvesting command.
func addCriteriaFlags(flags *pflag.FlagSet) {
	flags.StringP("network", "n", string(models.Mainnet), "Network to query (mainnet, preprod, preview)")
	flags.IntP("limit", "l", models.DefaultLimit, fmt.Sprintf("Maximum number of transactions to inspect (1-%d)", models.MaxLimit))
	flags.String("label", "", "Metadata label to search; disables block walking and date filters")
	flags.String("regex", "", "Case-insensitive regular expression the metadata text must match")
	flags.String("wallet", "", "Keep only transactions involving this address or payment credential")
	flags.String("from", "", "Earliest block date (YYYY-MM-DD, UTC)")
	flags.String("to", "", "Latest block date (YYYY-MM-DD, UTC, inclusive)")
	flags.Duration("tolerance", 5*time.Minute, "Accepted distance between a located block and its target time")
	flags.Int("max-probes", config.DefaultHarvestConfig().MaxProbes, "Maximum number of blocks probed to locate a date")
}

func addOutputFlags(flags *pflag.FlagSet) {
	flags.StringP("output", "o", config.OutputText, "Output type (text, postgres)")
	flags.String("postgres-conn", "", "PostgreSQL connection string, required by the postgres output")
	flags.Bool("unique", false, "Print every distinct metadata line once after the results")
}

func newOutputHandler(ctx context.Context, cfg config.OutputConfig, w io.Writer) (output.OutputHandler, error) {
	switch cfg.Kind {
	case config.OutputPostgres:
		return postgresql.NewPostgresOutputHandler(ctx, cfg.PostgresConn)
	default:
		return output.NewTextOutputHandler(w, cfg.Unique), nil
	}
}

func logWarnings(warnings []string) {
	for _, w := range warnings {
		slog.Warn(w)
	}
}

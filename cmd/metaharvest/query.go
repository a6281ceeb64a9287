package metaharvest

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/config"
	"github.com/manifest-network/metaharvest/internal/extractor"
	"github.com/manifest-network/metaharvest/internal/models"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Harvest metadata once and print or store the results",
		Long: `Harvest metadata text from the latest blocks, from a date range, or from a
metadata label, then apply the regex and wallet filters.`,
		Args: cobra.NoArgs,
		RunE: runQuery,
	}

	addCriteriaFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	cmd.Flags().Int("pages", 1, "Number of label search pages to fetch")
	cmd.Flags().Bool("progress", true, "Show a progress bar while fetching metadata")

	return cmd
}

func runQuery(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	criteria := config.LoadCriteriaFromCLI()
	clientCfg, err := config.LoadClientConfigFromCLI()
	if err != nil {
		return err
	}
	harvestCfg, err := config.LoadHarvestConfigFromCLI()
	if err != nil {
		return err
	}
	outputCfg, err := config.LoadOutputConfigFromCLI()
	if err != nil {
		return err
	}
	pages := viper.GetInt("pages")
	if pages < 1 {
		return fmt.Errorf("pages must be at least 1, got %d", pages)
	}

	handler, err := newOutputHandler(ctx, outputCfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer handler.Close()

	engine := extractor.NewEngine(client.NewClient(clientCfg), harvestCfg)
	session := &models.Session{}

	res, err := engine.RunQuery(ctx, criteria, session)
	if err != nil {
		return err
	}
	logWarnings(res.Warnings)
	normalized, results, status := res.Criteria, res.Transactions, res.Status

	if normalized.LabelMode() {
		for i := 1; i < pages; i++ {
			more, err := engine.LoadMore(ctx, normalized, session, results)
			if err != nil {
				return err
			}
			logWarnings(more.Warnings)
			results, status = more.Transactions, more.Status
		}
	} else if pages > 1 {
		slog.Warn("--pages only applies to label searches")
	}

	slog.Info(status)
	return handler.WriteResults(ctx, normalized.Network, results)
}

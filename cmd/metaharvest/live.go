package metaharvest

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/config"
	"github.com/manifest-network/metaharvest/internal/extractor"
	"github.com/manifest-network/metaharvest/internal/metrics"
	"github.com/manifest-network/metaharvest/internal/models"
)

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Poll the chain and report new transactions as they appear",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}

	addCriteriaFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	cmd.Flags().Duration("interval", 20*time.Second, "Polling interval")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :2112)")

	return cmd
}

func runLive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	criteria := config.LoadCriteriaFromCLI()
	if _, err := criteria.Normalize(); err != nil {
		return &client.ConfigurationError{Network: criteria.Network, Reason: err.Error()}
	}
	clientCfg, err := config.LoadClientConfigFromCLI()
	if err != nil {
		return err
	}
	harvestCfg, err := config.LoadHarvestConfigFromCLI()
	if err != nil {
		return err
	}
	liveCfg, err := config.LoadLiveConfigFromCLI()
	if err != nil {
		return err
	}
	outputCfg, err := config.LoadOutputConfigFromCLI()
	if err != nil {
		return err
	}

	// No progress bar between ticks.
	harvestCfg.ShowProgress = false

	handler, err := newOutputHandler(ctx, outputCfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer handler.Close()

	seed, err := handler.LoadResults(ctx, criteria.Network, models.MaxLimit)
	if err != nil {
		return fmt.Errorf("failed to load stored results: %w", err)
	}
	if len(seed) > 0 {
		slog.Info("Resuming from stored results", "count", len(seed))
	}

	engine := extractor.NewEngine(client.NewClient(clientCfg), harvestCfg)
	slog.Info("Watching for new transactions", "network", criteria.Network, "interval", liveCfg.Interval)

	g, gctx := errgroup.WithContext(ctx)

	if liveCfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, liveCfg.MetricsAddr)
		})
	}

	g.Go(func() error {
		return extractor.Watch(gctx, engine, criteria, liveCfg.Interval, seed, func(r *extractor.LiveResult) error {
			logWarnings(r.Warnings)
			slog.Info(r.Status, "total", len(r.Merged))
			if r.NovelCount == 0 {
				return nil
			}
			// Novel transactions are at the front of the merged set.
			return handler.WriteResults(gctx, criteria.Network, r.Merged[:r.NovelCount])
		})
	})

	return g.Wait()
}

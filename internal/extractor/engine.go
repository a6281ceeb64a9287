package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/config"
	"github.com/manifest-network/metaharvest/internal/metrics"
	"github.com/manifest-network/metaharvest/internal/models"
)

const labelDateWarning = "date filters are ignored in label search: the label index has no time filter; remove the label to filter by date"

// Engine runs queries against one indexer. It holds no per-query state, so
// concurrent sessions only need their own models.Session. A single session
// must not run two harvests at once.
type Engine struct {
	fetcher client.Fetcher
	cfg     config.HarvestConfig
}

// NewEngine builds an engine. A non-positive probe budget or a negative
// tolerance is replaced by the DefaultHarvestConfig value.
func NewEngine(fetcher client.Fetcher, cfg config.HarvestConfig) *Engine {
	defaults := config.DefaultHarvestConfig()
	if cfg.MaxProbes <= 0 {
		cfg.MaxProbes = defaults.MaxProbes
	}
	if cfg.ToleranceSeconds < 0 {
		cfg.ToleranceSeconds = defaults.ToleranceSeconds
	}
	return &Engine{fetcher: fetcher, cfg: cfg}
}

// QueryResult is the outcome of a one-shot query. Criteria is the normalized
// form of the criteria the query ran with.
type QueryResult struct {
	Criteria     models.Criteria
	Transactions models.ResultSet
	Status       string
	Warnings     []string
}

// LiveResult is the outcome of a live cycle.
type LiveResult struct {
	Merged     models.ResultSet
	NovelCount int
	Status     string
	Warnings   []string
}

// RunQuery harvests, extracts and filters once. In label mode the session is
// reset to the first page of criteria.Label so LoadMore can continue from it.
func (e *Engine) RunQuery(ctx context.Context, criteria models.Criteria, session *models.Session) (*QueryResult, error) {
	c, dates, warnings, err := prepare(criteria)
	if err != nil {
		return nil, err
	}

	rs, stageWarnings, err := e.harvest(ctx, c, dates, 1, e.cfg.ShowProgress)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, stageWarnings...)

	if session != nil {
		session.CurrentLabel, session.LabelPage = "", 0
		if c.LabelMode() {
			session.CurrentLabel, session.LabelPage = c.Label, 2
		}
	}

	slog.Info("Query complete", "network", c.Network, "mode", mode(c, dates), "transactions", len(rs))
	return &QueryResult{Criteria: c, Transactions: rs, Status: queryStatus(c, dates, rs), Warnings: warnings}, nil
}

// LoadMore appends the next label page to previous. Hashes already present
// are skipped.
func (e *Engine) LoadMore(ctx context.Context, criteria models.Criteria, session *models.Session, previous models.ResultSet) (*QueryResult, error) {
	if session == nil || session.CurrentLabel == "" {
		return nil, &client.ConfigurationError{Network: criteria.Network, Reason: "no label search to continue"}
	}
	criteria.Label = session.CurrentLabel
	c, dates, warnings, err := prepare(criteria)
	if err != nil {
		return nil, err
	}

	page := max(session.LabelPage, 2)
	rs, stageWarnings, err := e.harvest(ctx, c, dates, page, false)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, stageWarnings...)
	session.LabelPage = page + 1

	known := previous.Hashes()
	combined := append(models.ResultSet(nil), previous...)
	added := 0
	for _, tx := range rs {
		if _, ok := known[tx.Hash]; ok {
			continue
		}
		known[tx.Hash] = struct{}{}
		combined = append(combined, tx)
		added++
	}

	slog.Info("Loaded label page", "label", c.Label, "page", page, "added", added)
	return &QueryResult{
		Criteria:     c,
		Transactions: combined,
		Status:       fmt.Sprintf("Loaded page %d of label %s: %d new transaction(s).", page, c.Label, added),
		Warnings:     warnings,
	}, nil
}

// RunLiveTick harvests the newest transactions and merges the novel ones into
// previous. Label searches always read the first page and leave pagination alone.
func (e *Engine) RunLiveTick(ctx context.Context, criteria models.Criteria, previous models.ResultSet) (*LiveResult, error) {
	c, dates, warnings, err := prepare(criteria)
	if err != nil {
		metrics.LiveTicks.WithLabelValues(string(criteria.Network), "error").Inc()
		return nil, err
	}

	rs, stageWarnings, err := e.harvest(ctx, c, dates, 1, false)
	if err != nil {
		metrics.LiveTicks.WithLabelValues(string(c.Network), "error").Inc()
		return nil, err
	}
	warnings = append(warnings, stageWarnings...)

	merged, novel := Merge(previous, rs)
	metrics.NovelTransactions.WithLabelValues(string(c.Network)).Add(float64(novel))
	if novel == 0 {
		metrics.LiveTicks.WithLabelValues(string(c.Network), "unchanged").Inc()
		return &LiveResult{Merged: merged, Status: "No new transactions.", Warnings: warnings}, nil
	}

	metrics.LiveTicks.WithLabelValues(string(c.Network), "updated").Inc()
	slog.Info("Live cycle added transactions", "network", c.Network, "novel", novel, "total", len(merged))
	return &LiveResult{
		Merged:     merged,
		NovelCount: novel,
		Status:     fmt.Sprintf("Added %d new transaction(s).", novel),
		Warnings:   warnings,
	}, nil
}

// harvest produces the filtered result set for one page of criteria.
func (e *Engine) harvest(ctx context.Context, c models.Criteria, dates models.DateRange, page int, showProgress bool) (models.ResultSet, []string, error) {
	src := client.Source{Fetcher: e.fetcher, Network: c.Network}
	pipeline := Pipeline{Label: c.Label, Regex: c.Regex, Wallet: c.Wallet}

	var rs models.ResultSet
	if c.LabelMode() {
		slog.Info("Searching label", "label", c.Label, "page", page)
		labeled, err := HarvestLabel(ctx, src, c.Label, c.Limit, page)
		if err != nil {
			return nil, nil, fmt.Errorf("label search failed: %w", err)
		}
		rs = labeled
	} else {
		refs, err := e.harvestRefs(ctx, src, c, dates)
		if err != nil {
			return nil, nil, err
		}
		var bar *progressbar.ProgressBar
		if showProgress && len(refs) > 1 {
			bar = newProgressBar(len(refs))
		}
		rs = CollectMetadata(ctx, src, refs, c.Label, bar)
		if bar != nil {
			if err := bar.Finish(); err != nil {
				slog.Warn("Failed to finish progress bar", "error", err)
			}
		}
	}

	rs, warnings := pipeline.Apply(ctx, src, rs)
	return rs, warnings, nil
}

func (e *Engine) harvestRefs(ctx context.Context, src client.Source, c models.Criteria, dates models.DateRange) ([]models.TxRef, error) {
	if !dates.IsBounded() {
		refs, err := HarvestRecent(ctx, src, c.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch latest transactions: %w", err)
		}
		return refs, nil
	}

	slog.Info("Locating target blocks", "from", dates.From, "to", dates.To)
	opts := LocateOptions{ToleranceSeconds: e.cfg.ToleranceSeconds, MaxProbes: e.cfg.MaxProbes}
	br, err := ResolveRange(ctx, src, dates, opts)
	if err != nil {
		return nil, err
	}
	refs, err := HarvestRange(ctx, src, br.Heights(dates), c.Limit, dates.FromSeconds(), dates.ToSeconds())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions in date range: %w", err)
	}
	return refs, nil
}

// prepare validates criteria and reports the label/date conflict as a warning.
func prepare(criteria models.Criteria) (models.Criteria, models.DateRange, []string, error) {
	dates, err := criteria.Normalize()
	if err != nil {
		return criteria, models.DateRange{}, nil, &client.ConfigurationError{Network: criteria.Network, Reason: err.Error()}
	}

	var warnings []string
	if criteria.LabelMode() && dates.IsBounded() {
		warnings = append(warnings, labelDateWarning)
		slog.Warn("Ignoring date filters in label search", "label", criteria.Label)
	}
	return criteria, dates, warnings, nil
}

func mode(c models.Criteria, dates models.DateRange) string {
	switch {
	case c.LabelMode():
		return "label"
	case dates.IsBounded():
		return "range"
	default:
		return "recent"
	}
}

func queryStatus(c models.Criteria, dates models.DateRange, rs models.ResultSet) string {
	if len(rs) > 0 {
		return fmt.Sprintf("Done. %d transaction(s) with metadata text.", len(rs))
	}
	switch mode(c, dates) {
	case "label":
		return fmt.Sprintf("No transactions found for label %s.", c.Label)
	case "range":
		return "No metadata text found in the selected date range."
	default:
		return "No metadata text found in the latest transactions."
	}
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		int64(total),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("Fetching metadata..."),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func isConfigurationError(err error) bool {
	_, ok := client.IsConfiguration(err)
	return ok
}

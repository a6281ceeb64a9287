package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/models"
	"github.com/manifest-network/metaharvest/internal/utils"
)

// FilterError reports a filter criterion that cannot be applied. The stage is
// skipped and the query goes on.
type FilterError struct {
	Stage   string
	Pattern string
	Err     error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s filter %q: %v", e.Stage, e.Pattern, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// Pipeline narrows harvested transactions. Stages run in a fixed order and
// only when their criterion is set: label (during collection), regex, wallet.
type Pipeline struct {
	Label  string
	Regex  string
	Wallet string
}

// CompileRegex returns the case-insensitive matcher for the regex stage.
func (p Pipeline) CompileRegex() (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + p.Regex)
	if err != nil {
		return nil, &FilterError{Stage: "regex", Pattern: p.Regex, Err: err}
	}
	return re, nil
}

// Apply runs the regex and wallet stages. A regex that does not compile is
// returned as a warning and its stage is skipped.
func (p Pipeline) Apply(ctx context.Context, src client.Source, rs models.ResultSet) (models.ResultSet, []string) {
	var warnings []string

	if p.Regex != "" {
		re, err := p.CompileRegex()
		if err != nil {
			slog.Warn("Skipping regex filter", "error", err)
			warnings = append(warnings, err.Error())
		} else {
			rs = ApplyRegex(rs, re)
		}
	}

	if p.Wallet != "" {
		rs = ApplyWallet(ctx, src, rs, p.Wallet)
	}

	return rs, warnings
}

// CollectMetadata fetches and extracts metadata for each reference. Records
// without text are dropped; when label is set only records under that label
// are kept. Transactions left without records are dropped. A failed fetch
// skips that transaction only.
func CollectMetadata(ctx context.Context, src client.Source, refs []models.TxRef, label string, bar *progressbar.ProgressBar) models.ResultSet {
	results := make(models.ResultSet, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		if ctx.Err() != nil {
			slog.Info("Metadata collection cancelled")
			break
		}
		records, err := transactionRecords(ctx, src, ref.Hash, label)
		if bar != nil {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
		if err != nil {
			slog.Warn("Metadata fetch failed", "tx", ref.Hash, "error", err)
			continue
		}
		if len(records) == 0 {
			continue
		}
		if _, dup := seen[ref.Hash]; dup {
			continue
		}
		seen[ref.Hash] = struct{}{}
		results = append(results, models.Transaction{Hash: ref.Hash, BlockTime: ref.BlockTime, Metadata: records})
	}
	return results
}

func transactionRecords(ctx context.Context, src client.Source, txHash, label string) ([]models.MetadataRecord, error) {
	items, err := utils.GetTxMetadata(ctx, src, txHash)
	if err != nil {
		return nil, err
	}

	var records []models.MetadataRecord
	for _, item := range items {
		rec := ExtractMetadata(item.Label, item.JSONMetadata)
		if !rec.HasContent() {
			continue
		}
		if label != "" && rec.Label != label {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ApplyRegex keeps the records whose text matches re and drops transactions
// left without records.
func ApplyRegex(rs models.ResultSet, re *regexp.Regexp) models.ResultSet {
	out := make(models.ResultSet, 0, len(rs))
	for _, tx := range rs {
		var kept []models.MetadataRecord
		for _, rec := range tx.Metadata {
			if re.MatchString(rec.Text) {
				kept = append(kept, rec)
			}
		}
		if len(kept) == 0 {
			continue
		}
		tx.Metadata = kept
		out = append(out, tx)
	}
	return out
}

// ApplyWallet keeps transactions with an input or output whose address or
// payment credential contains wallet, ignoring case. Transactions whose
// details cannot be fetched are dropped.
func ApplyWallet(ctx context.Context, src client.Source, rs models.ResultSet, wallet string) models.ResultSet {
	needle := strings.ToLower(wallet)
	out := make(models.ResultSet, 0, len(rs))
	for _, tx := range rs {
		utxos, err := utils.GetTxUTXOs(ctx, src, tx.Hash)
		if err != nil {
			slog.Warn("Failed to fetch tx details", "tx", tx.Hash, "error", err)
			continue
		}
		if touchesWallet(utxos, needle) {
			out = append(out, tx)
		}
	}
	return out
}

func touchesWallet(utxos *models.TxUTXOs, needle string) bool {
	match := func(list []models.UTXO) bool {
		for _, u := range list {
			if strings.Contains(strings.ToLower(u.Address), needle) ||
				strings.Contains(strings.ToLower(u.PaymentCred), needle) {
				return true
			}
		}
		return false
	}
	return match(utxos.Inputs) || match(utxos.Outputs)
}

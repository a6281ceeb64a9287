package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/models"
)

// TextOutputHandler prints results as human-readable transaction cards,
// followed by summary statistics and, optionally, the unique-line dump.
type TextOutputHandler struct {
	w      io.Writer
	unique bool
}

func NewTextOutputHandler(w io.Writer, unique bool) *TextOutputHandler {
	return &TextOutputHandler{w: w, unique: unique}
}

func (h *TextOutputHandler) WriteResults(_ context.Context, network models.Network, results models.ResultSet) error {
	var b strings.Builder

	for _, tx := range results {
		fmt.Fprintf(&b, "%s\n", client.ExplorerURL(network, tx.Hash))
		if tx.BlockTime > 0 {
			fmt.Fprintf(&b, "  block time: %s\n", time.Unix(tx.BlockTime, 0).UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(&b, "  %d metadata item(s)\n", len(tx.Metadata))
		for _, rec := range tx.Metadata {
			fmt.Fprintf(&b, "  label %s:\n", rec.Label)
			if !rec.HasContent() {
				b.WriteString("    (no string values found in this metadata)\n")
				continue
			}
			for _, line := range strings.Split(rec.Text, "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\n", Summarize(results))

	if h.unique {
		lines := UniqueLines(results)
		if len(lines) > 0 {
			b.WriteString("\n")
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(h.w, b.String())
	return err
}

// LoadResults returns nothing: text output keeps no history.
func (h *TextOutputHandler) LoadResults(context.Context, models.Network, int) (models.ResultSet, error) {
	return nil, nil
}

func (h *TextOutputHandler) Close() error { return nil }

// Stats summarises a result set.
type Stats struct {
	Transactions    int
	MetadataItems   int
	UniqueLabels    int
	TotalCharacters int
}

func Summarize(results models.ResultSet) Stats {
	labels := make(map[string]struct{})
	s := Stats{Transactions: len(results)}
	for _, tx := range results {
		s.MetadataItems += len(tx.Metadata)
		for _, rec := range tx.Metadata {
			labels[rec.Label] = struct{}{}
			s.TotalCharacters += len([]rune(rec.Text))
		}
	}
	s.UniqueLabels = len(labels)
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("%d transaction(s), %d metadata item(s), %d unique label(s), %s characters",
		s.Transactions, s.MetadataItems, s.UniqueLabels, FormatCount(s.TotalCharacters))
}

// FormatCount abbreviates large counts: 1.5K, 2.0M.
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprint(n)
	}
}

// UniqueLines returns every trimmed, non-empty metadata line once, in the
// order first seen.
func UniqueLines(results models.ResultSet) []string {
	seen := make(map[string]struct{})
	var lines []string
	for _, tx := range results {
		for _, rec := range tx.Metadata {
			for _, line := range strings.Split(rec.Text, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if _, ok := seen[line]; ok {
					continue
				}
				seen[line] = struct{}{}
				lines = append(lines, line)
			}
		}
	}
	return lines
}

package output

import (
	"context"

	"github.com/manifest-network/metaharvest/internal/models"
)

type OutputHandler interface {
	// WriteResults writes a result set harvested from network to the output.
	WriteResults(ctx context.Context, network models.Network, results models.ResultSet) error

	// LoadResults returns up to limit previously written transactions, newest first.
	// Live mode seeds its running result set with them.
	LoadResults(ctx context.Context, network models.Network, limit int) (models.ResultSet, error)

	// Close closes the output handler.
	Close() error
}

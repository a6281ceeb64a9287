package postgresql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/manifest-network/metaharvest/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	insertTransaction = `INSERT INTO transactions (network, hash, block_time)
VALUES ($1, $2, $3)
ON CONFLICT (network, hash) DO NOTHING`

	insertRecord = `INSERT INTO metadata_records (network, hash, position, label, text)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (network, hash, position) DO NOTHING`

	selectRecent = `SELECT t.hash, t.block_time, m.label, m.text
FROM (
    SELECT hash, block_time, seq FROM transactions
    WHERE network = $1
    ORDER BY block_time DESC, seq DESC
    LIMIT $2
) t
LEFT JOIN metadata_records m ON m.network = $1 AND m.hash = t.hash
ORDER BY t.block_time DESC, t.seq DESC, m.position`
)

// OutputHandler stores harvested transactions in PostgreSQL, keyed by
// network and transaction hash. Writing the same transaction twice is a no-op.
type OutputHandler struct {
	db *sql.DB
}

func NewPostgresOutputHandler(ctx context.Context, connString string) (*OutputHandler, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newWithDB(db), nil
}

func newWithDB(db *sql.DB) *OutputHandler {
	return &OutputHandler{db: db}
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Debug("Database schema is up to date")
	return nil
}

// WriteResults stores results oldest first, so that insertion order breaks
// block time ties the same way the result set does.
func (h *OutputHandler) WriteResults(ctx context.Context, network models.Network, results models.ResultSet) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := len(results) - 1; i >= 0; i-- {
		t := results[i]
		if _, err := tx.ExecContext(ctx, insertTransaction, string(network), t.Hash, t.BlockTime); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.Hash, err)
		}
		for pos, rec := range t.Metadata {
			if _, err := tx.ExecContext(ctx, insertRecord, string(network), t.Hash, pos, rec.Label, rec.Text); err != nil {
				return fmt.Errorf("failed to insert metadata of transaction %s: %w", t.Hash, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("Stored results", "network", network, "count", len(results))
	return nil
}

func (h *OutputHandler) LoadResults(ctx context.Context, network models.Network, limit int) (models.ResultSet, error) {
	rows, err := h.db.QueryContext(ctx, selectRecent, string(network), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored transactions: %w", err)
	}
	defer rows.Close()

	var results models.ResultSet
	for rows.Next() {
		var (
			hash        string
			blockTime   int64
			label, text sql.NullString
		)
		if err := rows.Scan(&hash, &blockTime, &label, &text); err != nil {
			return nil, fmt.Errorf("failed to scan stored transaction: %w", err)
		}

		if n := len(results); n == 0 || results[n-1].Hash != hash {
			results = append(results, models.Transaction{Hash: hash, BlockTime: blockTime})
		}
		if label.Valid {
			last := &results[len(results)-1]
			last.Metadata = append(last.Metadata, models.MetadataRecord{Label: label.String, Text: text.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stored transactions: %w", err)
	}

	return results, nil
}

func (h *OutputHandler) Close() error {
	slog.Info("Closing PostgreSQL connection")
	return h.db.Close()
}

package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"grocery-deals/models"
	"grocery-deals/utils"
)

// PostgresWriter appends aggregation results to a deal-history table.
// Unlike the cache, the archive is append-only: successive runs build up
// price history per store and item.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
		Logger:      logger,
	}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS deal_history (
			id          SERIAL PRIMARY KEY,
			deal_id     TEXT          NOT NULL,
			postal_code VARCHAR(10)   NOT NULL,
			store       TEXT          NOT NULL,
			title       TEXT          NOT NULL,
			price       NUMERIC(10,2) NOT NULL,
			was_price   NUMERIC(10,2),
			unit        TEXT          NOT NULL DEFAULT 'each',
			category    VARCHAR(20)   NOT NULL,
			valid_from  DATE,
			valid_to    DATE,
			fetched_at  TIMESTAMPTZ   NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_deal_history_postal  ON deal_history(postal_code);
		CREATE INDEX IF NOT EXISTS idx_deal_history_store   ON deal_history(store);
		CREATE INDEX IF NOT EXISTS idx_deal_history_fetched ON deal_history(fetched_at);
	`)
	return err
}

// Archive batch-inserts every deal of the result.
func (pw *PostgresWriter) Archive(result *models.AggregationResult) error {
	if result == nil || len(result.Deals) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(result.Deals); i += batchSize {
		end := i + batchSize
		if end > len(result.Deals) {
			end = len(result.Deals)
		}
		if err := pw.insertBatch(result, result.Deals[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(result *models.AggregationResult, batch []*models.DealRecord) error {
	const cols = 11
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, d := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var wasPrice sql.NullFloat64
		if d.WasPrice > 0 {
			wasPrice = sql.NullFloat64{Float64: d.WasPrice, Valid: true}
		}

		valueArgs = append(valueArgs,
			d.ID, result.PostalCode, d.Store, d.Title, d.Price, wasPrice,
			d.Unit, d.Category, nullDate(d.ValidFrom), nullDate(d.ValidTo),
			result.FetchedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO deal_history (deal_id, postal_code, store, title, price, was_price, unit, category, valid_from, valid_to, fetched_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// nullDate maps an absent validity date to SQL NULL.
func nullDate(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Close releases the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

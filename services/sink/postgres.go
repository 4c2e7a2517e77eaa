package sink

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"cardealworker/internal/ad"
)

// PostgresSink persists prediction batches to PostgreSQL for offline
// analysis. It is optional; the worker runs without it.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use sink.
func NewPostgresSink(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &PostgresSink{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return s, nil
}

func (s *PostgresSink) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS predictions (
			id             SERIAL PRIMARY KEY,
			ad_id          BIGINT  NOT NULL,
			url            TEXT    NOT NULL,
			price_actual   INTEGER NOT NULL,
			price_inferred INTEGER NOT NULL,
			difference     INTEGER NOT NULL,
			is_cheap       BOOLEAN NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_predictions_ad_id    ON predictions(ad_id);
		CREATE INDEX IF NOT EXISTS idx_predictions_is_cheap ON predictions(is_cheap);
	`)
	return err
}

// Write batch-inserts one epoch's predictions. The table keeps every
// epoch so price drift over time stays queryable.
func (s *PostgresSink) Write(predictions []ad.PricePrediction) error {
	if len(predictions) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(predictions); i += batchSize {
		end := i + batchSize
		if end > len(predictions) {
			end = len(predictions)
		}
		if err := s.insertBatch(predictions[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresSink) insertBatch(batch []ad.PricePrediction) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*6)

	for idx, p := range batch {
		base := idx * 6
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
		valueArgs = append(valueArgs,
			p.AdID, p.URL, p.PriceActual, p.PriceInferred, p.Difference, p.IsCheap)
	}

	query := fmt.Sprintf(`
		INSERT INTO predictions (ad_id, url, price_actual, price_inferred, difference, is_cheap)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := s.db.Exec(query, valueArgs...)
	return err
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}

package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS trade_events (
	event_id TEXT PRIMARY KEY,
	time TIMESTAMPTZ NOT NULL,
	type TEXT NOT NULL,
	side TEXT NOT NULL,
	market_id TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	shares DOUBLE PRECISION NOT NULL,
	amount DOUBLE PRECISION NOT NULL,
	fee DOUBLE PRECISION NOT NULL,
	pnl DOUBLE PRECISION,
	reason TEXT NOT NULL,
	balance_after DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trade_events_time ON trade_events(time);
`

// PostgresJournal writes trade events to a shared Postgres instance, for
// deployments where several engines report into one place.
type PostgresJournal struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*PostgresJournal, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return &PostgresJournal{pool: pool}, nil
}

func (j *PostgresJournal) Record(e TradeEvent) error {
	_, err := j.pool.Exec(context.Background(), `
		INSERT INTO trade_events
		(event_id, time, type, side, market_id, price, shares, amount, fee, pnl, reason, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.Time, string(e.Type), string(e.Side), e.MarketID,
		e.Price, e.Shares, e.Amount, e.Fee, e.PnL, e.Reason, e.BalanceAfter,
	)
	return err
}

func (j *PostgresJournal) Close() error {
	j.pool.Close()
	return nil
}

package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Record(e TradeEvent) error {
	_, err := j.db.Exec(`
		INSERT INTO trade_events
		(event_id, time, type, side, market_id, price, shares, amount, fee, pnl, reason, balance_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time, string(e.Type), string(e.Side), e.MarketID,
		e.Price, e.Shares, e.Amount, e.Fee, nullable(e.PnL), e.Reason, e.BalanceAfter,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// journal/schema.go
package journal

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trade_events (
	event_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	type TEXT NOT NULL,
	side TEXT NOT NULL,
	market_id TEXT NOT NULL,
	price REAL NOT NULL,
	shares REAL NOT NULL,
	amount REAL NOT NULL,
	fee REAL NOT NULL,
	pnl REAL,
	reason TEXT NOT NULL,
	balance_after REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trade_events_time ON trade_events(time);
CREATE INDEX IF NOT EXISTS idx_trade_events_market ON trade_events(market_id);
`

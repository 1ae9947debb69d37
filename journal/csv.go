package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	w    *csv.Writer
	file *os.File
}

func NewCSV(path string) (*CSVJournal, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(file)
	if err := w.Write([]string{
		"event_id", "time", "type", "side", "market_id",
		"price", "shares", "amount", "fee", "pnl", "reason", "balance_after",
	}); err != nil {
		file.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return nil, err
	}

	return &CSVJournal{w: w, file: file}, nil
}

func (j *CSVJournal) Record(e TradeEvent) error {
	pnl := ""
	if e.PnL != nil {
		pnl = f(*e.PnL)
	}
	if err := j.w.Write([]string{
		e.ID,
		e.Time.Format(time.RFC3339),
		string(e.Type),
		string(e.Side),
		e.MarketID,
		f(e.Price),
		f(e.Shares),
		f(e.Amount),
		f(e.Fee),
		pnl,
		e.Reason,
		f(e.BalanceAfter),
	}); err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.file.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

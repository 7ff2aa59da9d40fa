package store

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"quantum_bot/internal/models"
	"quantum_bot/pkg/db"
)

// Pg persists trades and performance as append-only rows keyed by timestamp.
// Orders are stored as a sonic-marshalled payload next to the columns the
// reporting queries filter on.
type Pg struct {
	db db.TxManager
}

func NewPg(txm db.TxManager) *Pg {
	return &Pg{db: txm}
}

const (
	insertTradeSQL = `INSERT INTO trades (order_id, account_id, symbol, outcome, at, payload)
VALUES ($1, $2, $3, $4, $5, $6)`

	insertCycleSQL = `INSERT INTO cycles (at, payload) VALUES ($1, $2)`

	insertPerfSQL = `INSERT INTO performance (at, balance, equity) VALUES ($1, $2, $3)`

	lastTradesSQL = `SELECT payload FROM trades ORDER BY at DESC LIMIT $1`

	latestCycleSQL = `SELECT payload FROM cycles ORDER BY at DESC LIMIT 1`

	perfSeriesSQL = `SELECT at, balance, equity FROM performance WHERE at >= $1 ORDER BY at ASC`
)

func (p *Pg) AppendTrade(ctx context.Context, order models.Order) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "store.AppendTrade")
		}
	}()

	payload, err := sonic.Marshal(order)
	if err != nil {
		return err
	}
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertTradeSQL,
			order.ID, order.AccountID, order.Signal.Symbol,
			string(order.Outcome), order.SubmittedAt, payload,
		)
		return err
	})
}

func (p *Pg) AppendCycle(ctx context.Context, result models.CycleResult) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "store.AppendCycle")
		}
	}()

	payload, err := sonic.Marshal(result)
	if err != nil {
		return err
	}
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertCycleSQL, result.At, payload)
		return err
	})
}

func (p *Pg) AppendPerformance(ctx context.Context, point models.PerformancePoint) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "store.AppendPerformance")
		}
	}()

	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertPerfSQL, point.At, point.Balance, point.Equity)
		return err
	})
}

func (p *Pg) LastTrades(ctx context.Context, n int) (out []models.Order, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "store.LastTrades")
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, lastTradesSQL, n)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var payload []byte
			if err := rows.Scan(&payload); err != nil {
				return err
			}
			var o models.Order
			if err := sonic.Unmarshal(payload, &o); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	return out, err
}

func (p *Pg) LatestCycle(ctx context.Context) (result models.CycleResult, ok bool, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "store.LatestCycle")
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var payload []byte
		scanErr := tx.QueryRow(ctxTx, latestCycleSQL).Scan(&payload)
		if scanErr == pgx.ErrNoRows {
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		if err := sonic.Unmarshal(payload, &result); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return result, ok, err
}

func (p *Pg) PerformanceSeries(ctx context.Context, from time.Time) (out []models.PerformancePoint, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "store.PerformanceSeries")
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, perfSeriesSQL, from)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var pt models.PerformancePoint
			if err := rows.Scan(&pt.At, &pt.Balance, &pt.Equity); err != nil {
				return err
			}
			out = append(out, pt)
		}
		return rows.Err()
	})
	return out, err
}

package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"options_bot/internal/models"
	"options_bot/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS trade_journal (
    id           BIGSERIAL PRIMARY KEY,
    instrument   TEXT NOT NULL,
    pattern      TEXT NOT NULL DEFAULT '',
    breakout     TEXT NOT NULL,
    trend        TEXT NOT NULL,
    volume_ratio DOUBLE PRECISION NOT NULL,
    payout       DOUBLE PRECISION NOT NULL,
    direction    TEXT NOT NULL,
    stake        DOUBLE PRECISION NOT NULL,
    win          BOOLEAN NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS trade_journal_created_at_idx ON trade_journal (created_at);
`

// Pg — журнал сделок в Postgres поверх общего tx-менеджера.
type Pg struct {
	txm *db.PgTxManager
}

func NewPg(ctx context.Context, txm *db.PgTxManager) (*Pg, error) {
	p := &Pg{txm: txm}
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pg) ensureSchema(ctx context.Context) error {
	return p.txm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, schema); err != nil {
			return errors.Wrap(err, "ensure trade_journal schema")
		}
		return nil
	})
}

func (p *Pg) Insert(ctx context.Context, row Row) error {
	_, err := p.txm.Conn().Exec(ctx, `
		INSERT INTO trade_journal
			(instrument, pattern, breakout, trend, volume_ratio, payout, direction, stake, win, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.Instrument, row.Pattern, string(row.Breakout), string(row.Trend),
		row.VolumeRatio, row.Payout, string(row.Direction), row.Stake, row.Win, row.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert trade_journal row")
	}
	return nil
}

func (p *Pg) Since(ctx context.Context, from time.Time) ([]Row, error) {
	rows, err := p.txm.Conn().Query(ctx, `
		SELECT instrument, pattern, breakout, trend, volume_ratio, payout, direction, stake, win, created_at
		FROM trade_journal
		WHERE created_at >= $1
		ORDER BY created_at`,
		from,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select trade_journal rows")
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r         Row
			breakout  string
			trend     string
			direction string
		)
		if err := rows.Scan(&r.Instrument, &r.Pattern, &breakout, &trend,
			&r.VolumeRatio, &r.Payout, &direction, &r.Stake, &r.Win, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan trade_journal row")
		}
		r.Breakout = models.Breakout(breakout)
		r.Trend = models.Trend(trend)
		r.Direction = models.Direction(direction)
		out = append(out, r)
	}
	return out, rows.Err()
}

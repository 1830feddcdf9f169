package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/swap/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS swap_records (
	id              UUID PRIMARY KEY,
	quote_id        UUID NOT NULL,
	owner           TEXT NOT NULL,
	from_token      TEXT NOT NULL,
	to_token        TEXT NOT NULL,
	from_amount     TEXT NOT NULL,
	to_amount       TEXT NOT NULL,
	value           NUMERIC(78, 0),
	value_corrected BOOLEAN NOT NULL DEFAULT FALSE,
	spender         TEXT NOT NULL,
	approval_tx     TEXT,
	approval_status TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS swap_records_approval_status_idx ON swap_records (approval_status);
`

const selectColumns = `id, quote_id, owner, from_token, to_token, from_amount, to_amount,
	value, value_corrected, spender, approval_tx, approval_status, created_at, updated_at`

type PostgresSwapRepo struct {
	db  *sql.DB
	log *logger.Logger
}

var _ domain.SwapRepository = (*PostgresSwapRepo)(nil)

func NewPostgresSwapRepo(db *sql.DB, log *logger.Logger) *PostgresSwapRepo {
	return &PostgresSwapRepo{db: db, log: log}
}

// Migrate creates the journal table when missing.
func (r *PostgresSwapRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate swap_records: %w", err)
	}
	return nil
}

// Save inserts the record, or overwrites it when the id already exists.
func (r *PostgresSwapRepo) Save(ctx context.Context, s *domain.SwapRecord) error {
	query := `
	INSERT INTO swap_records (
		id, quote_id, owner, from_token, to_token, from_amount, to_amount,
		value, value_corrected, spender, approval_tx, approval_status, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (id) DO UPDATE SET
		value = EXCLUDED.value,
		value_corrected = EXCLUDED.value_corrected,
		approval_tx = EXCLUDED.approval_tx,
		approval_status = EXCLUDED.approval_status,
		updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.QuoteID,
		s.Owner.Hex(),
		s.FromToken.Hex(),
		s.ToToken.Hex(),
		s.FromAmount,
		s.ToAmount,
		nullBig(s.Value),
		s.ValueCorrected,
		s.Spender.Hex(),
		nullHash(s.ApprovalTx),
		string(s.ApprovalStatus),
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		r.log.Errorf("failed to save swap record: %v", err)
	}
	return err
}

func (r *PostgresSwapRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SwapRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM swap_records WHERE id=$1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: swap record %s", domain.ErrRecordNotFound, id)
		}
		r.log.Errorf("failed to get swap record by id: %v", err)
		return nil, err
	}
	return rec, nil
}

func (r *PostgresSwapRepo) UpdateApproval(ctx context.Context, id uuid.UUID, tx *common.Hash, status domain.AllowanceStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE swap_records SET approval_tx=COALESCE($2, approval_tx), approval_status=$3, updated_at=now() WHERE id=$1`,
		id, nullHash(tx), string(status))
	if err != nil {
		r.log.Errorf("failed to update approval: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: swap record %s", domain.ErrRecordNotFound, id)
	}
	return nil
}

func (r *PostgresSwapRepo) ListByApprovalStatus(ctx context.Context, statuses ...domain.AllowanceStatus) ([]*domain.SwapRecord, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	query := `SELECT ` + selectColumns + ` FROM swap_records WHERE approval_status = ANY($1) ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		r.log.Errorf("failed to list swap records: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SwapRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			r.log.Errorf("failed to scan swap record row: %v", err)
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		r.log.Errorf("rows iteration error: %v", err)
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*domain.SwapRecord, error) {
	var s domain.SwapRecord
	var owner, fromToken, toToken, spender, status string
	var value, approvalTx sql.NullString
	err := row.Scan(
		&s.ID,
		&s.QuoteID,
		&owner,
		&fromToken,
		&toToken,
		&s.FromAmount,
		&s.ToAmount,
		&value,
		&s.ValueCorrected,
		&spender,
		&approvalTx,
		&status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Owner = common.HexToAddress(owner)
	s.FromToken = common.HexToAddress(fromToken)
	s.ToToken = common.HexToAddress(toToken)
	s.Spender = common.HexToAddress(spender)
	s.ApprovalStatus = domain.AllowanceStatus(status)
	if value.Valid {
		v, ok := new(big.Int).SetString(value.String, 10)
		if !ok {
			return nil, fmt.Errorf("invalid stored value %q", value.String)
		}
		s.Value = v
	}
	if approvalTx.Valid {
		h := common.HexToHash(approvalTx.String)
		s.ApprovalTx = &h
	}
	return &s, nil
}

func nullBig(v *big.Int) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

func nullHash(h *common.Hash) sql.NullString {
	if h == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: h.Hex(), Valid: true}
}

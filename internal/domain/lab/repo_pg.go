package lab

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mila-health/mila/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, patient_id, type_id, occurred_at, value, unit, ref_low, ref_high, created_at`

func (r *repoPG) scan(row pgx.Row) (*Value, error) {
	var v Value
	err := row.Scan(&v.ID, &v.PatientID, &v.TypeID, &v.OccurredAt,
		&v.Value, &v.Unit, &v.RefLow, &v.RefHigh, &v.CreatedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *Value) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_value (id, patient_id, type_id, occurred_at, value, unit, ref_low, ref_high)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.PatientID, v.TypeID, v.OccurredAt, v.Value, v.Unit, v.RefLow, v.RefHigh)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Value, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM lab_value WHERE id = $1`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Value, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_value WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM lab_value WHERE patient_id = $1 ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Value
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListAllByPatient(ctx context.Context, patientID uuid.UUID) ([]*Value, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM lab_value WHERE patient_id = $1 ORDER BY occurred_at ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Value
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// LatestByType returns (nil, nil) when the patient has no value of the type;
// a missing lab is not an I/O failure.
func (r *repoPG) LatestByType(ctx context.Context, patientID uuid.UUID, typeID string) (*Value, error) {
	v, err := r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM lab_value WHERE patient_id = $1 AND type_id = $2 ORDER BY occurred_at DESC LIMIT 1`,
		patientID, typeID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_value WHERE id = $1`, id)
	return err
}

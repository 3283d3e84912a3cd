package transfusion

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

const cols = `id, patient_id, occurred_at, product, volume_ml, donor_id,
	emergency, consent_obtained, consent_at, justification, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Transfusion, error) {
	var t Transfusion
	err := row.Scan(&t.ID, &t.PatientID, &t.OccurredAt, &t.Product, &t.VolumeML,
		&t.DonorID, &t.Emergency, &t.ConsentObtained, &t.ConsentAt,
		&t.Justification, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Transfusion) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO transfusion (id, patient_id, occurred_at, product, volume_ml,
			donor_id, emergency, consent_obtained, consent_at, justification)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.PatientID, t.OccurredAt, t.Product, t.VolumeML,
		t.DonorID, t.Emergency, t.ConsentObtained, t.ConsentAt, t.Justification)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Transfusion, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM transfusion WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *Transfusion) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE transfusion SET occurred_at=$2, product=$3, volume_ml=$4, donor_id=$5,
			emergency=$6, consent_obtained=$7, consent_at=$8, justification=$9,
			updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.OccurredAt, t.Product, t.VolumeML, t.DonorID,
		t.Emergency, t.ConsentObtained, t.ConsentAt, t.Justification)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM transfusion WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transfusion, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM transfusion WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM transfusion WHERE patient_id = $1 ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Transfusion
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListAllByPatient(ctx context.Context, patientID uuid.UUID) ([]*Transfusion, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM transfusion WHERE patient_id = $1 ORDER BY occurred_at ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Transfusion
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Stats aggregates in SQL so the history never has to be loaded just to
// render the exposure panel.
func (r *repoPG) Stats(ctx context.Context, patientID uuid.UUID) (*Stats, error) {
	s := &Stats{
		VolumeByType: map[ProductType]float64{},
		CountByType:  map[ProductType]int{},
	}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(volume_ml), 0), COUNT(DISTINCT donor_id)
		FROM transfusion WHERE patient_id = $1`, patientID).
		Scan(&s.TotalCount, &s.TotalVolume, &s.UniqueDonors)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT product, COUNT(*), COALESCE(SUM(volume_ml), 0)
		FROM transfusion WHERE patient_id = $1 GROUP BY product`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p ProductType
		var count int
		var volume float64
		if err := rows.Scan(&p, &count, &volume); err != nil {
			return nil, err
		}
		s.CountByType[p] = count
		s.VolumeByType[p] = volume
	}
	return s, rows.Err()
}

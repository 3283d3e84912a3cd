package treatmentplan

import (
	"context"
	"errors"

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

const planCols = `id, patient_id, category, title_en, title_es, note_en, note_es,
	outcome_en, outcome_es, status, is_on_hold, hold_reason_en, hold_reason_es,
	created_by, closed_at, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.PatientID, &p.Category,
		&p.Title.EN, &p.Title.ES, &p.Note.EN, &p.Note.ES,
		&p.Outcome.EN, &p.Outcome.ES, &p.Status, &p.IsOnHold,
		&p.HoldReason.EN, &p.HoldReason.ES,
		&p.CreatedBy, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Plan) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO treatment_plan (id, patient_id, category, title_en, title_es,
				note_en, note_es, status, is_on_hold, created_by)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			p.ID, p.PatientID, p.Category, p.Title.EN, p.Title.ES,
			p.Note.EN, p.Note.ES, p.Status, p.IsOnHold, p.CreatedBy)
		if err != nil {
			return err
		}
		for _, a := range p.Actions {
			if err := upsertAction(ctx, r.conn(ctx), a); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertAction(ctx context.Context, q queryable, a *Action) error {
	_, err := q.Exec(ctx, `
		INSERT INTO plan_action (id, plan_id, title_en, title_es, detail_en, detail_es,
			dosage, is_removed, completed_at, completed_by, added_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			dosage = EXCLUDED.dosage,
			is_removed = EXCLUDED.is_removed,
			completed_at = EXCLUDED.completed_at,
			completed_by = EXCLUDED.completed_by`,
		a.ID, a.PlanID, a.Title.EN, a.Title.ES, a.Detail.EN, a.Detail.ES,
		a.Dosage, a.IsRemoved, a.CompletedAt, a.CompletedBy, a.AddedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	p, err := scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM treatment_plan WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if p.Actions, err = r.listActions(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Amendments, err = r.ListAmendments(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) listActions(ctx context.Context, planID uuid.UUID) ([]*Action, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, plan_id, title_en, title_es, detail_en, detail_es, dosage,
			is_removed, completed_at, completed_by, added_at
		FROM plan_action WHERE plan_id = $1 ORDER BY added_at ASC`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var actions []*Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.PlanID, &a.Title.EN, &a.Title.ES,
			&a.Detail.EN, &a.Detail.ES, &a.Dosage,
			&a.IsRemoved, &a.CompletedAt, &a.CompletedBy, &a.AddedAt); err != nil {
			return nil, err
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}

func (r *repoPG) ListAmendments(ctx context.Context, planID uuid.UUID) ([]*Amendment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, plan_id, action_id, type, actor, note_en, note_es,
			reason_en, reason_es, created_at
		FROM plan_amendment WHERE plan_id = $1 ORDER BY created_at ASC, id ASC`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ams []*Amendment
	for rows.Next() {
		var a Amendment
		if err := rows.Scan(&a.ID, &a.PlanID, &a.ActionID, &a.Type, &a.Actor,
			&a.Note.EN, &a.Note.ES, &a.Reason.EN, &a.Reason.ES, &a.CreatedAt); err != nil {
			return nil, err
		}
		ams = append(ams, &a)
	}
	return ams, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM treatment_plan WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+planCols+` FROM treatment_plan WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var plans []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, p := range plans {
		if p.Actions, err = r.listActions(ctx, p.ID); err != nil {
			return nil, 0, err
		}
	}
	return plans, total, nil
}

// Save writes the plan row, upserts its actions, and appends the new
// amendments in one transaction. Amendment rows are insert-only.
func (r *repoPG) Save(ctx context.Context, p *Plan, amendments ...*Amendment) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE treatment_plan SET status=$2, is_on_hold=$3,
				note_en=$4, note_es=$5, outcome_en=$6, outcome_es=$7,
				hold_reason_en=$8, hold_reason_es=$9,
				closed_at=$10, updated_at=NOW()
			WHERE id = $1`,
			p.ID, p.Status, p.IsOnHold, p.Note.EN, p.Note.ES,
			p.Outcome.EN, p.Outcome.ES, p.HoldReason.EN, p.HoldReason.ES, p.ClosedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrPlanNotFound
		}
		for _, a := range p.Actions {
			if err := upsertAction(ctx, r.conn(ctx), a); err != nil {
				return err
			}
		}
		for _, am := range amendments {
			_, err := r.conn(ctx).Exec(ctx, `
				INSERT INTO plan_amendment (id, plan_id, action_id, type, actor,
					note_en, note_es, reason_en, reason_es, created_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
				am.ID, am.PlanID, am.ActionID, am.Type, am.Actor,
				am.Note.EN, am.Note.ES, am.Reason.EN, am.Reason.ES, am.CreatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatment_plan WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

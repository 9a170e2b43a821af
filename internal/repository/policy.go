package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/trustgate/platform/internal/domain"
)

type policyRepo struct{}

// NewPolicyRepository returns a pgx-backed PolicyRepository.
func NewPolicyRepository() PolicyRepository {
	return &policyRepo{}
}

const policyColumns = `id, version, name, status, config, created_by, created_at, updated_at`

func (r *policyRepo) FindActive(ctx context.Context, db DBTX) (*domain.Policy, error) {
	// Most recently created active policy wins; multiple actives are a
	// defined tie-break, not an error.
	row := db.QueryRow(ctx, `
		SELECT `+policyColumns+`
		FROM policies WHERE status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`)
	return scanPolicy(row)
}

func (r *policyRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Policy, error) {
	row := db.QueryRow(ctx, `
		SELECT `+policyColumns+`
		FROM policies WHERE id = $1`, id)
	return scanPolicy(row)
}

func (r *policyRepo) List(ctx context.Context, db DBTX) ([]domain.Policy, error) {
	rows, err := db.Query(ctx, `
		SELECT `+policyColumns+`
		FROM policies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var policies []domain.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

func (r *policyRepo) Insert(ctx context.Context, db DBTX, p *domain.Policy) error {
	cfg, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("marshal policy config: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO policies (id, version, name, status, config, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Version, p.Name, string(p.Status), cfg, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

func (r *policyRepo) SetStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.PolicyStatus) error {
	tag, err := db.Exec(ctx, `
		UPDATE policies SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("set policy status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *policyRepo) NextVersion(ctx context.Context, db DBTX) (int, error) {
	var next int
	err := db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM policies`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next policy version: %w", err)
	}
	return next, nil
}

func (r *policyRepo) ArchiveActive(ctx context.Context, db DBTX) error {
	_, err := db.Exec(ctx, `
		UPDATE policies SET status = 'archived', updated_at = now() WHERE status = 'active'`)
	if err != nil {
		return fmt.Errorf("archive active policies: %w", err)
	}
	return nil
}

func scanPolicy(row pgx.Row) (*domain.Policy, error) {
	var p domain.Policy
	var status string
	var cfg []byte
	err := row.Scan(&p.ID, &p.Version, &p.Name, &status, &cfg, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan policy: %w", err)
	}
	p.Status = domain.PolicyStatus(status)
	if err := json.Unmarshal(cfg, &p.Config); err != nil {
		return nil, fmt.Errorf("unmarshal policy config: %w", err)
	}
	return &p, nil
}

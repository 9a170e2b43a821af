package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/trustgate/platform/internal/domain"
)

type resourceRepo struct{}

// NewResourceRepository returns a pgx-backed ResourceRepository.
func NewResourceRepository() ResourceRepository {
	return &resourceRepo{}
}

const resourceColumns = `id, name, description, sensitivity, mfa_required, allowed_roles, created_at`

func (r *resourceRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Resource, error) {
	row := db.QueryRow(ctx, `
		SELECT `+resourceColumns+`
		FROM resources WHERE id = $1`, id)
	return scanResource(row)
}

func (r *resourceRepo) List(ctx context.Context, db DBTX) ([]domain.Resource, error) {
	rows, err := db.Query(ctx, `
		SELECT `+resourceColumns+`
		FROM resources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	return resources, rows.Err()
}

func (r *resourceRepo) Insert(ctx context.Context, db DBTX, res *domain.Resource) error {
	_, err := db.Exec(ctx, `
		INSERT INTO resources (id, name, description, sensitivity, mfa_required, allowed_roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.Name, res.Description, string(res.Sensitivity),
		res.MFARequired, res.AllowedRoles, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func scanResource(row pgx.Row) (*domain.Resource, error) {
	var res domain.Resource
	var sensitivity string
	err := row.Scan(&res.ID, &res.Name, &res.Description, &sensitivity,
		&res.MFARequired, &res.AllowedRoles, &res.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan resource: %w", err)
	}
	res.Sensitivity = domain.Sensitivity(sensitivity)
	return &res, nil
}

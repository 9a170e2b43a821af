package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/trustgate/platform/internal/domain"
)

type scanRepo struct{}

// NewScanRepository returns a pgx-backed ScanRepository.
func NewScanRepository() ScanRepository {
	return &scanRepo{}
}

const scanColumns = `scan_id, user_id, device_id, resource_id, trust_score, decision,
	       decision_reason, factors, mfa_required, mfa_verified, mfa_attempts,
	       access_granted, created_at, completed_at`

func (r *scanRepo) Insert(ctx context.Context, db DBTX, s *domain.ScanResult) error {
	factors, err := json.Marshal(s.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO scans
		  (scan_id, user_id, device_id, resource_id, trust_score, decision,
		   decision_reason, factors, mfa_required, mfa_verified, mfa_attempts,
		   access_granted, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ScanID, s.UserID, s.DeviceID, s.ResourceID, s.TrustScore, string(s.Decision),
		s.DecisionReason, factors, s.MFARequired, s.MFAVerified, s.MFAAttempts,
		s.AccessGranted, s.CreatedAt, s.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

func (r *scanRepo) FindByID(ctx context.Context, db DBTX, scanID string) (*domain.ScanResult, error) {
	row := db.QueryRow(ctx, `
		SELECT `+scanColumns+`
		FROM scans WHERE scan_id = $1`, scanID)
	return scanScan(row)
}

func (r *scanRepo) LockByID(ctx context.Context, tx pgx.Tx, scanID string) (*domain.ScanResult, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+scanColumns+`
		FROM scans WHERE scan_id = $1 FOR UPDATE`, scanID)
	return scanScan(row)
}

func (r *scanRepo) RecordMFAFailure(ctx context.Context, db DBTX, scanID string) (int, error) {
	var attempts int
	err := db.QueryRow(ctx, `
		UPDATE scans SET mfa_attempts = mfa_attempts + 1
		WHERE scan_id = $1
		RETURNING mfa_attempts`, scanID).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("record mfa failure: %w", err)
	}
	return attempts, nil
}

func (r *scanRepo) MarkVerified(ctx context.Context, db DBTX, scanID string, completedAt time.Time) error {
	tag, err := db.Exec(ctx, `
		UPDATE scans
		SET mfa_verified = true, access_granted = true, completed_at = $1
		WHERE scan_id = $2`, completedAt, scanID)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *scanRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.ScanResult, error) {
	rows, err := db.Query(ctx, `
		SELECT `+scanColumns+`
		FROM scans WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var scans []domain.ScanResult
	for rows.Next() {
		s, err := scanScan(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *s)
	}
	return scans, rows.Err()
}

func scanScan(row pgx.Row) (*domain.ScanResult, error) {
	var s domain.ScanResult
	var decision string
	var factors []byte
	err := row.Scan(&s.ScanID, &s.UserID, &s.DeviceID, &s.ResourceID, &s.TrustScore, &decision,
		&s.DecisionReason, &factors, &s.MFARequired, &s.MFAVerified, &s.MFAAttempts,
		&s.AccessGranted, &s.CreatedAt, &s.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan scan row: %w", err)
	}
	s.Decision = domain.Decision(decision)
	if err := json.Unmarshal(factors, &s.Factors); err != nil {
		return nil, fmt.Errorf("unmarshal factors: %w", err)
	}
	return &s, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/trustgate/platform/internal/domain"
)

type auditRepo struct{}

// NewAuditRepository returns a pgx-backed AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepo{}
}

func (r *auditRepo) Insert(ctx context.Context, db DBTX, e domain.AuditEvent) error {
	// ON CONFLICT DO NOTHING keeps the consumer idempotent across redelivery.
	_, err := db.Exec(ctx, `
		INSERT INTO audit_events
		  (event_id, event_type, user_id, scan_id, resource_id, decision, trust_score, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, string(e.Type), e.UserID, nullIfEmpty(e.ScanID), e.ResourceID,
		nullIfEmpty(string(e.Decision)), e.TrustScore, e.Detail, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, db DBTX, limit int) ([]domain.AuditEvent, error) {
	rows, err := db.Query(ctx, `
		SELECT event_id, event_type, user_id, COALESCE(scan_id, ''), resource_id,
		       COALESCE(decision, ''), trust_score, detail, occurred_at
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var eventType, decision string
		err := rows.Scan(&e.EventID, &eventType, &e.UserID, &e.ScanID, &e.ResourceID,
			&decision, &e.TrustScore, &e.Detail, &e.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.Type = domain.EventType(eventType)
		e.Decision = domain.Decision(decision)
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

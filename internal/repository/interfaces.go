package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/trustgate/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PolicyRepository provides access to scoring policies.
type PolicyRepository interface {
	// FindActive returns the active policy. When multiple policies are
	// active, the most recently created wins. Returns nil when none is.
	FindActive(ctx context.Context, db DBTX) (*domain.Policy, error)

	// FindByID returns a policy by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Policy, error)

	// List returns all policies, newest first.
	List(ctx context.Context, db DBTX) ([]domain.Policy, error)

	// Insert creates a new policy.
	Insert(ctx context.Context, db DBTX, p *domain.Policy) error

	// SetStatus updates a policy's lifecycle status.
	SetStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.PolicyStatus) error

	// NextVersion returns the next policy version number.
	NextVersion(ctx context.Context, db DBTX) (int, error)

	// ArchiveActive archives every currently active policy.
	ArchiveActive(ctx context.Context, db DBTX) error
}

// DeviceDefaults carries classifier output used when registering a device.
type DeviceDefaults struct {
	DeviceType domain.DeviceType
	IsManaged  bool
	Platform   string
	Browser    string
	IPAddress  string
}

// DeviceRepository is the device registry.
type DeviceRepository interface {
	// FindOrCreate atomically resolves the device for (user, fingerprint),
	// creating it with the given defaults when unseen and refreshing
	// last_seen_at and ip_address otherwise. Backed by the unique constraint
	// on (user_id, fingerprint) so concurrent identical requests cannot
	// create duplicates.
	FindOrCreate(ctx context.Context, db DBTX, userID uuid.UUID, fingerprint string, defaults DeviceDefaults) (*domain.Device, error)

	// FindByID returns a device by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Device, error)

	// ListByUser returns a user's devices, most recently seen first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Device, error)

	// SetTrustLevel updates a device's standing trust level (admin action).
	SetTrustLevel(ctx context.Context, db DBTX, id uuid.UUID, level domain.TrustLevel) error
}

// ResourceRepository is the resource directory.
type ResourceRepository interface {
	// FindByID returns a resource by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Resource, error)

	// List returns all resources.
	List(ctx context.Context, db DBTX) ([]domain.Resource, error)

	// Insert creates a new resource.
	Insert(ctx context.Context, db DBTX, r *domain.Resource) error
}

// ScanRepository provides access to scan results.
type ScanRepository interface {
	// Insert persists a freshly evaluated scan.
	Insert(ctx context.Context, db DBTX, s *domain.ScanResult) error

	// FindByID returns a scan by its opaque id.
	FindByID(ctx context.Context, db DBTX, scanID string) (*domain.ScanResult, error)

	// LockByID returns a scan under a row-level lock (SELECT FOR UPDATE) so
	// concurrent MFA verifications against the same scan serialize.
	LockByID(ctx context.Context, tx pgx.Tx, scanID string) (*domain.ScanResult, error)

	// RecordMFAFailure increments the attempt counter and returns the new count.
	RecordMFAFailure(ctx context.Context, db DBTX, scanID string) (int, error)

	// MarkVerified completes the MFA transition: verified, access granted,
	// completed at the given time.
	MarkVerified(ctx context.Context, db DBTX, scanID string, completedAt time.Time) error

	// ListByUser returns a user's scans, newest first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.ScanResult, error)
}

// AuthUserRepository provides access to auth users.
type AuthUserRepository interface {
	// FindByEmail returns an auth user by email.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error)

	// FindByID returns an auth user by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.AuthUser, error)

	// Create inserts a new auth user.
	Create(ctx context.Context, db DBTX, user *domain.AuthUser) error
}

// AuditRepository stores drained audit events (consumer side).
type AuditRepository interface {
	// Insert stores one audit event.
	Insert(ctx context.Context, db DBTX, e domain.AuditEvent) error

	// List returns recent audit events, newest first.
	List(ctx context.Context, db DBTX, limit int) ([]domain.AuditEvent, error)
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/trustgate/platform/internal/domain"
)

type deviceRepo struct{}

// NewDeviceRepository returns a pgx-backed DeviceRepository.
func NewDeviceRepository() DeviceRepository {
	return &deviceRepo{}
}

const deviceColumns = `id, user_id, fingerprint, device_type, trust_level, is_managed,
	       platform, browser, ip_address, first_seen_at, last_seen_at`

// FindOrCreate is a single atomic upsert keyed on (user_id, fingerprint).
// The trust level is only set on creation: trusted for managed devices,
// unverified otherwise. Existing rows keep their trust level and first_seen_at
// and get last_seen_at and ip_address refreshed.
func (r *deviceRepo) FindOrCreate(ctx context.Context, db DBTX, userID uuid.UUID, fingerprint string, defaults DeviceDefaults) (*domain.Device, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO devices
		  (id, user_id, fingerprint, device_type, trust_level, is_managed,
		   platform, browser, ip_address, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (user_id, fingerprint) DO UPDATE
		  SET last_seen_at = now(), ip_address = EXCLUDED.ip_address
		RETURNING `+deviceColumns,
		uuid.New(), userID, fingerprint,
		string(defaults.DeviceType),
		string(domain.DefaultTrustLevel(defaults.IsManaged)),
		defaults.IsManaged,
		defaults.Platform, defaults.Browser, defaults.IPAddress)
	return scanDevice(row)
}

func (r *deviceRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Device, error) {
	row := db.QueryRow(ctx, `
		SELECT `+deviceColumns+`
		FROM devices WHERE id = $1`, id)
	return scanDevice(row)
}

func (r *deviceRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Device, error) {
	rows, err := db.Query(ctx, `
		SELECT `+deviceColumns+`
		FROM devices WHERE user_id = $1
		ORDER BY last_seen_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

func (r *deviceRepo) SetTrustLevel(ctx context.Context, db DBTX, id uuid.UUID, level domain.TrustLevel) error {
	tag, err := db.Exec(ctx, `
		UPDATE devices SET trust_level = $1 WHERE id = $2`, string(level), id)
	if err != nil {
		return fmt.Errorf("set trust level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanDevice(row pgx.Row) (*domain.Device, error) {
	var d domain.Device
	var deviceType, trustLevel string
	err := row.Scan(&d.ID, &d.UserID, &d.Fingerprint, &deviceType, &trustLevel, &d.IsManaged,
		&d.Platform, &d.Browser, &d.IPAddress, &d.FirstSeenAt, &d.LastSeenAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan device: %w", err)
	}
	d.DeviceType = domain.DeviceType(deviceType)
	d.TrustLevel = domain.TrustLevel(trustLevel)
	return &d, nil
}

package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/trustgate/platform/internal/domain"
	"github.com/trustgate/platform/internal/repository"
)

// In-memory doubles for the database and repositories. Repository fakes
// ignore the DBTX handle they are given; transactional behavior is exercised
// against the real pool in integration environments.

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	lastTx *fakeTx
}

func (d *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, nil
}

func (d *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	d.lastTx = &fakeTx{}
	return d.lastTx, nil
}

type fakeScanRepo struct {
	scans map[string]*domain.ScanResult
}

func newFakeScanRepo() *fakeScanRepo {
	return &fakeScanRepo{scans: make(map[string]*domain.ScanResult)}
}

func (r *fakeScanRepo) Insert(_ context.Context, _ repository.DBTX, s *domain.ScanResult) error {
	c := *s
	r.scans[s.ScanID] = &c
	return nil
}

func (r *fakeScanRepo) FindByID(_ context.Context, _ repository.DBTX, scanID string) (*domain.ScanResult, error) {
	s, ok := r.scans[scanID]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *fakeScanRepo) LockByID(ctx context.Context, _ pgx.Tx, scanID string) (*domain.ScanResult, error) {
	return r.FindByID(ctx, nil, scanID)
}

func (r *fakeScanRepo) RecordMFAFailure(_ context.Context, _ repository.DBTX, scanID string) (int, error) {
	s := r.scans[scanID]
	s.MFAAttempts++
	return s.MFAAttempts, nil
}

func (r *fakeScanRepo) MarkVerified(_ context.Context, _ repository.DBTX, scanID string, completedAt time.Time) error {
	s := r.scans[scanID]
	s.MFAVerified = true
	s.AccessGranted = true
	s.CompletedAt = &completedAt
	return nil
}

func (r *fakeScanRepo) ListByUser(_ context.Context, _ repository.DBTX, userID uuid.UUID, limit int) ([]domain.ScanResult, error) {
	var out []domain.ScanResult
	for _, s := range r.scans {
		if s.UserID == userID && len(out) < limit {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeDeviceRepo struct {
	devices map[string]*domain.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[string]*domain.Device)}
}

func deviceKey(userID uuid.UUID, fingerprint string) string {
	return userID.String() + "|" + fingerprint
}

func (r *fakeDeviceRepo) seed(d *domain.Device) {
	r.devices[deviceKey(d.UserID, d.Fingerprint)] = d
}

func (r *fakeDeviceRepo) FindOrCreate(_ context.Context, _ repository.DBTX, userID uuid.UUID, fingerprint string, defaults repository.DeviceDefaults) (*domain.Device, error) {
	if d, ok := r.devices[deviceKey(userID, fingerprint)]; ok {
		d.LastSeenAt = time.Now()
		d.IPAddress = defaults.IPAddress
		c := *d
		return &c, nil
	}

	now := time.Now()
	d := &domain.Device{
		ID:          uuid.New(),
		UserID:      userID,
		Fingerprint: fingerprint,
		DeviceType:  defaults.DeviceType,
		TrustLevel:  domain.DefaultTrustLevel(defaults.IsManaged),
		IsManaged:   defaults.IsManaged,
		Platform:    defaults.Platform,
		Browser:     defaults.Browser,
		IPAddress:   defaults.IPAddress,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	r.devices[deviceKey(userID, fingerprint)] = d
	c := *d
	return &c, nil
}

func (r *fakeDeviceRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Device, error) {
	for _, d := range r.devices {
		if d.ID == id {
			c := *d
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeDeviceRepo) ListByUser(_ context.Context, _ repository.DBTX, userID uuid.UUID) ([]domain.Device, error) {
	var out []domain.Device
	for _, d := range r.devices {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDeviceRepo) SetTrustLevel(_ context.Context, _ repository.DBTX, id uuid.UUID, level domain.TrustLevel) error {
	for _, d := range r.devices {
		if d.ID == id {
			d.TrustLevel = level
		}
	}
	return nil
}

type fakeResourceRepo struct {
	resources map[uuid.UUID]*domain.Resource
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: make(map[uuid.UUID]*domain.Resource)}
}

func (r *fakeResourceRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Resource, error) {
	res, ok := r.resources[id]
	if !ok {
		return nil, nil
	}
	c := *res
	return &c, nil
}

func (r *fakeResourceRepo) List(_ context.Context, _ repository.DBTX) ([]domain.Resource, error) {
	var out []domain.Resource
	for _, res := range r.resources {
		out = append(out, *res)
	}
	return out, nil
}

func (r *fakeResourceRepo) Insert(_ context.Context, _ repository.DBTX, res *domain.Resource) error {
	c := *res
	r.resources[res.ID] = &c
	return nil
}

type fakePolicyRepo struct {
	policies []*domain.Policy
}

func (r *fakePolicyRepo) FindActive(_ context.Context, _ repository.DBTX) (*domain.Policy, error) {
	var active *domain.Policy
	for _, p := range r.policies {
		if p.Status != domain.PolicyActive {
			continue
		}
		if active == nil || p.CreatedAt.After(active.CreatedAt) {
			active = p
		}
	}
	if active == nil {
		return nil, nil
	}
	c := *active
	return &c, nil
}

func (r *fakePolicyRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Policy, error) {
	for _, p := range r.policies {
		if p.ID == id {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakePolicyRepo) List(_ context.Context, _ repository.DBTX) ([]domain.Policy, error) {
	var out []domain.Policy
	for _, p := range r.policies {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePolicyRepo) Insert(_ context.Context, _ repository.DBTX, p *domain.Policy) error {
	c := *p
	r.policies = append(r.policies, &c)
	return nil
}

func (r *fakePolicyRepo) SetStatus(_ context.Context, _ repository.DBTX, id uuid.UUID, status domain.PolicyStatus) error {
	for _, p := range r.policies {
		if p.ID == id {
			p.Status = status
		}
	}
	return nil
}

func (r *fakePolicyRepo) NextVersion(_ context.Context, _ repository.DBTX) (int, error) {
	return len(r.policies) + 1, nil
}

func (r *fakePolicyRepo) ArchiveActive(_ context.Context, _ repository.DBTX) error {
	for _, p := range r.policies {
		if p.Status == domain.PolicyActive {
			p.Status = domain.PolicyArchived
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.AuthUser
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.AuthUser)}
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, _ repository.DBTX, email string) (*domain.AuthUser, error) {
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.AuthUser, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) Create(_ context.Context, _ repository.DBTX, user *domain.AuthUser) error {
	c := *user
	r.users[user.ID] = &c
	return nil
}

type fakeVerifier struct {
	valid string
}

func (v fakeVerifier) Verify(_, code string) bool {
	return code == v.valid
}

type memorySink struct {
	events []domain.AuditEvent
}

func (s *memorySink) Record(_ context.Context, event domain.AuditEvent) {
	s.events = append(s.events, event)
}

func (s *memorySink) lastType() domain.EventType {
	if len(s.events) == 0 {
		return ""
	}
	return s.events[len(s.events)-1].Type
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

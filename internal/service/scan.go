package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/trustgate/platform/internal/audit"
	"github.com/trustgate/platform/internal/classify"
	"github.com/trustgate/platform/internal/domain"
	"github.com/trustgate/platform/internal/guard"
	"github.com/trustgate/platform/internal/mfa"
	"github.com/trustgate/platform/internal/repository"
	"github.com/trustgate/platform/internal/trust"
)

// DB abstracts pgxpool.Pool: direct queries plus transaction control.
type DB interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ScanService drives the access-attempt lifecycle: initiation with a computed
// decision, optional MFA step-up, and status reads.
type ScanService struct {
	db         DB
	scans      repository.ScanRepository
	devices    repository.DeviceRepository
	resources  repository.ResourceRepository
	policies   repository.PolicyRepository
	users      repository.AuthUserRepository
	engine     *trust.Engine
	classifier classify.Classifier
	verifier   mfa.Verifier
	locks      *guard.KeyedMutex
	sink       audit.Sink
	logger     *slog.Logger
	now        func() time.Time
}

// NewScanService creates a ScanService.
func NewScanService(
	db DB,
	scans repository.ScanRepository,
	devices repository.DeviceRepository,
	resources repository.ResourceRepository,
	policies repository.PolicyRepository,
	users repository.AuthUserRepository,
	engine *trust.Engine,
	classifier classify.Classifier,
	verifier mfa.Verifier,
	sink audit.Sink,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		db:         db,
		scans:      scans,
		devices:    devices,
		resources:  resources,
		policies:   policies,
		users:      users,
		engine:     engine,
		classifier: classifier,
		verifier:   verifier,
		locks:      guard.NewKeyedMutex(),
		sink:       sink,
		logger:     logger,
		now:        time.Now,
	}
}

// Initiate runs one access attempt end to end: classify the request, upsert
// the device, resolve the resource, check role membership, evaluate trust and
// persist the scan. Device upsert and scan insert commit as one unit, so a
// failed initiation leaves no partial state. Each call creates a distinct
// scan; there is no idempotency key.
func (s *ScanService) Initiate(ctx context.Context, userID uuid.UUID, role string, resourceID uuid.UUID, req classify.Request) (*domain.ScanResult, error) {
	cctx := s.classifier.Classify(req)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	device, err := s.devices.FindOrCreate(ctx, tx, userID, cctx.Fingerprint, repository.DeviceDefaults{
		DeviceType: cctx.DeviceType,
		IsManaged:  cctx.DeviceType == domain.DeviceManaged,
		Platform:   cctx.DeviceInfo.Platform,
		Browser:    cctx.DeviceInfo.Browser,
		IPAddress:  cctx.IPAddress,
	})
	if err != nil {
		return nil, domain.ErrInternal("resolve device", err)
	}

	resource, err := s.resources.FindByID(ctx, tx, resourceID)
	if err != nil {
		return nil, domain.ErrInternal("find resource", err)
	}
	if resource == nil {
		return nil, domain.ErrNotFound("resource", resourceID.String())
	}
	if !resource.RoleAllowed(role) {
		return nil, domain.ErrForbidden("role not permitted for this resource")
	}

	policy, err := s.policies.FindActive(ctx, tx)
	if err != nil {
		return nil, domain.ErrInternal("find active policy", err)
	}
	if policy == nil {
		return nil, domain.ErrPolicyMisconfigured("no active scoring policy")
	}

	eval := s.engine.Evaluate(policy, device, resource, cctx)

	now := s.now().UTC()
	scan := &domain.ScanResult{
		ScanID:         uuid.New().String(),
		UserID:         userID,
		DeviceID:       device.ID,
		ResourceID:     resourceID,
		TrustScore:     eval.TrustScore,
		Decision:       eval.Decision,
		DecisionReason: eval.DecisionReason,
		Factors:        eval.Factors,
		MFARequired:    eval.MFARequired,
		AccessGranted:  eval.Decision == domain.DecisionAllow,
		CreatedAt:      now,
	}
	// Allow and blocked are terminal at initiation; mfa_required completes
	// only after verification.
	if eval.Decision != domain.DecisionMFARequired {
		scan.CompletedAt = &now
	}

	if err := s.scans.Insert(ctx, tx, scan); err != nil {
		return nil, domain.ErrInternal("insert scan", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.recordDecision(ctx, scan)
	return scan, nil
}

// VerifyMFA completes the step-up transition for a pending scan. Updates are
// serialized per scan id (keyed mutex plus a row lock) so concurrent
// verifications cannot double-grant or lose an attempt count. An invalid code
// increments the attempt counter and fails Unauthorized; there is no
// maximum-attempts cutoff.
func (s *ScanService) VerifyMFA(ctx context.Context, userID uuid.UUID, scanID, code string) (*domain.ScanResult, error) {
	s.locks.Lock(scanID)
	defer s.locks.Unlock(scanID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	scan, err := s.scans.LockByID(ctx, tx, scanID)
	if err != nil {
		return nil, domain.ErrInternal("lock scan", err)
	}
	if scan == nil {
		return nil, domain.ErrNotFound("scan", scanID)
	}
	if !scan.OwnedBy(userID) {
		return nil, domain.ErrForbidden("scan belongs to another user")
	}
	if !scan.AwaitingMFA() {
		return nil, domain.ErrInvalidState("scan does not accept MFA verification")
	}

	user, err := s.users.FindByID(ctx, tx, userID)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", userID.String())
	}

	if !s.verifier.Verify(user.MFASecret, code) {
		attempts, err := s.scans.RecordMFAFailure(ctx, tx, scanID)
		if err != nil {
			return nil, domain.ErrInternal("record mfa failure", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, domain.ErrInternal("commit tx", err)
		}

		event := domain.NewAuditEvent(domain.EventMFAFailed, userID)
		event.ScanID = scanID
		event.ResourceID = scan.ResourceID
		s.sink.Record(ctx, event)

		s.logger.Info("mfa verification failed", "scan_id", scanID, "attempts", attempts)
		return nil, domain.ErrUnauthorized("invalid MFA code")
	}

	completedAt := s.now().UTC()
	if err := s.scans.MarkVerified(ctx, tx, scanID, completedAt); err != nil {
		return nil, domain.ErrInternal("mark verified", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	scan.MFAVerified = true
	scan.AccessGranted = true
	scan.CompletedAt = &completedAt

	event := domain.NewAuditEvent(domain.EventMFAVerified, userID)
	event.ScanID = scanID
	event.ResourceID = scan.ResourceID
	event.Decision = scan.Decision
	event.TrustScore = scan.TrustScore
	s.sink.Record(ctx, event)

	return scan, nil
}

// GetStatus returns the current scan state without recomputing anything.
// The requester must own the scan.
func (s *ScanService) GetStatus(ctx context.Context, userID uuid.UUID, scanID string) (*domain.ScanResult, error) {
	scan, err := s.scans.FindByID(ctx, s.db, scanID)
	if err != nil {
		return nil, domain.ErrInternal("find scan", err)
	}
	if scan == nil {
		return nil, domain.ErrNotFound("scan", scanID)
	}
	if !scan.OwnedBy(userID) {
		return nil, domain.ErrForbidden("scan belongs to another user")
	}
	return scan, nil
}

// ListMine returns the requester's recent scans.
func (s *ScanService) ListMine(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ScanResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	scans, err := s.scans.ListByUser(ctx, s.db, userID, limit)
	if err != nil {
		return nil, domain.ErrInternal("list scans", err)
	}
	return scans, nil
}

func (s *ScanService) recordDecision(ctx context.Context, scan *domain.ScanResult) {
	var t domain.EventType
	switch scan.Decision {
	case domain.DecisionAllow:
		t = domain.EventScanAllowed
	case domain.DecisionMFARequired:
		t = domain.EventMFARequired
	default:
		t = domain.EventScanBlocked
	}

	event := domain.NewAuditEvent(t, scan.UserID)
	event.ScanID = scan.ScanID
	event.ResourceID = scan.ResourceID
	event.Decision = scan.Decision
	event.TrustScore = scan.TrustScore
	s.sink.Record(ctx, event)
}

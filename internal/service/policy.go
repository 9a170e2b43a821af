package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trustgate/platform/internal/audit"
	"github.com/trustgate/platform/internal/domain"
	"github.com/trustgate/platform/internal/repository"
)

// PolicyService manages the scoring policy lifecycle: draft creation,
// activation with archival of the previous active policy, and reads.
type PolicyService struct {
	db       DB
	policies repository.PolicyRepository
	sink     audit.Sink
	logger   *slog.Logger
}

// NewPolicyService creates a PolicyService.
func NewPolicyService(db DB, policies repository.PolicyRepository, sink audit.Sink, logger *slog.Logger) *PolicyService {
	return &PolicyService{db: db, policies: policies, sink: sink, logger: logger}
}

// CreateInput holds the fields for a new draft policy.
type CreateInput struct {
	Name      string              `json:"name"`
	Config    domain.PolicyConfig `json:"config"`
	CreatedBy string              `json:"-"`
}

// Create saves a new policy in draft status with the next version number.
func (s *PolicyService) Create(ctx context.Context, input CreateInput) (*domain.Policy, error) {
	if input.Name == "" {
		return nil, domain.ErrValidation("policy name is required")
	}
	if err := domain.ValidatePolicyConfig(input.Config); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	version, err := s.policies.NextVersion(ctx, tx)
	if err != nil {
		return nil, domain.ErrInternal("next version", err)
	}

	now := time.Now().UTC()
	policy := &domain.Policy{
		ID:        uuid.New(),
		Version:   version,
		Name:      input.Name,
		Status:    domain.PolicyDraft,
		Config:    input.Config,
		CreatedBy: input.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.policies.Insert(ctx, tx, policy); err != nil {
		return nil, domain.ErrInternal("insert policy", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	return policy, nil
}

// Activate makes the given policy the single active one, archiving any
// previously active policies in the same transaction.
func (s *PolicyService) Activate(ctx context.Context, id uuid.UUID, actor string) (*domain.Policy, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	policy, err := s.policies.FindByID(ctx, tx, id)
	if err != nil {
		return nil, domain.ErrInternal("find policy", err)
	}
	if policy == nil {
		return nil, domain.ErrNotFound("policy", id.String())
	}
	if policy.Status == domain.PolicyActive {
		return nil, domain.ErrInvalidState("policy is already active")
	}
	if err := domain.ValidatePolicyConfig(policy.Config); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	if err := s.policies.ArchiveActive(ctx, tx); err != nil {
		return nil, domain.ErrInternal("archive active", err)
	}
	if err := s.policies.SetStatus(ctx, tx, id, domain.PolicyActive); err != nil {
		return nil, domain.ErrInternal("set status", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	policy.Status = domain.PolicyActive

	actorID, _ := uuid.Parse(actor)
	event := domain.NewAuditEvent(domain.EventPolicyActivated, actorID)
	s.sink.Record(ctx, event)
	s.logger.Info("policy activated", "policy_id", id, "version", policy.Version)

	return policy, nil
}

// Get returns a policy by id.
func (s *PolicyService) Get(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	policy, err := s.policies.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, domain.ErrInternal("find policy", err)
	}
	if policy == nil {
		return nil, domain.ErrNotFound("policy", id.String())
	}
	return policy, nil
}

// List returns all policies, newest first.
func (s *PolicyService) List(ctx context.Context) ([]domain.Policy, error) {
	policies, err := s.policies.List(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list policies", err)
	}
	return policies, nil
}

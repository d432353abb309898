package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"orgmind/internal/domain"
	"orgmind/internal/infra/config"
	"orgmind/internal/infra/tracer"
)

// Seeder idempotently materializes and repairs the built-in specialist
// agents for an organization. It runs before routing or relevance can use
// them, under a per-organization lock so concurrent first requests for one
// org never race while unrelated orgs proceed in parallel.
type Seeder struct {
	store  domain.AgentStore
	cfg    config.SeedingConfig
	locker *OrgLocker
	logger *slog.Logger
}

// NewSeeder creates a seeder.
func NewSeeder(store domain.AgentStore, cfg config.SeedingConfig, logger *slog.Logger) *Seeder {
	return &Seeder{
		store:  store,
		cfg:    cfg,
		locker: NewOrgLocker(),
		logger: logger,
	}
}

// Seed ensures exactly one agent per catalog definition exists for orgID:
// create when absent, restore when soft-deleted, re-apply canonical
// prompt/scopes/flags when an active agent's name matches a definition.
// A duplicate-key error on create means another request seeded concurrently
// and is swallowed.
func (s *Seeder) Seed(ctx context.Context, orgID string) error {
	ctx, span := tracer.StartSpan(ctx, "seeder.seed",
		trace.WithAttributes(tracer.StringAttr("org.id", orgID)),
	)
	defer span.End()

	unlock, err := s.locker.Lock(ctx, orgID)
	if err != nil {
		tracer.RecordError(span, err)
		return err
	}
	defer unlock()

	for i := range specialistCatalog {
		if err := s.seedOne(ctx, orgID, &specialistCatalog[i]); err != nil {
			tracer.RecordError(span, err)
			return fmt.Errorf("seed %q for org %s: %w", specialistCatalog[i].Key, orgID, err)
		}
	}

	tracer.SetOK(span)
	return nil
}

func (s *Seeder) seedOne(ctx context.Context, orgID string, def *domain.SpecialistDefinition) error {
	existing, err := s.store.GetByKey(ctx, orgID, def.Key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if existing == nil {
		// No key match; a plain agent may already hold the canonical name.
		existing, err = s.store.GetByName(ctx, orgID, def.Name)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}

	if existing == nil {
		return s.create(ctx, orgID, def)
	}

	if existing.DeletedAt != nil {
		s.logger.Info("restoring soft-deleted specialist",
			"org_id", orgID, "specialist", def.Key, "agent_id", existing.ID)
		if err := s.store.Restore(ctx, existing.ID); err != nil {
			return err
		}
		existing.DeletedAt = nil
		existing.Active = true
	}

	if !existing.Active {
		return nil // deactivated on purpose; leave it alone
	}

	// Self-heal: re-apply the canonical definition over partial edits.
	existing.SpecialistKey = def.Key
	existing.Role = def.Role
	existing.SystemPrompt = def.BasePrompt
	existing.ContextScopes = append([]string(nil), def.ContextScopes...)
	existing.Personality = def.Personality
	return s.store.Update(ctx, existing)
}

func (s *Seeder) create(ctx context.Context, orgID string, def *domain.SpecialistDefinition) error {
	profile := &domain.AgentProfile{
		ID:            ulid.Make().String(),
		OrgID:         orgID,
		Name:          def.Name,
		Role:          def.Role,
		SpecialistKey: def.Key,
		Provider:      domain.Provider(s.cfg.Provider),
		Model:         s.cfg.Model,
		Temperature:   0.7,
		MaxTokens:     2048,
		SystemPrompt:  def.BasePrompt,
		ContextScopes: append([]string(nil), def.ContextScopes...),
		Personality:   def.Personality,
		Active:        true,
	}

	err := s.store.Create(ctx, profile)
	if errors.Is(err, domain.ErrDuplicate) {
		// Another request seeded this org between our lookup and create.
		s.logger.Debug("concurrent seed detected", "org_id", orgID, "specialist", def.Key)
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("seeded built-in specialist",
		"org_id", orgID, "specialist", def.Key, "agent_id", profile.ID)
	return nil
}

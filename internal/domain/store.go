package domain

import "context"

// AgentStore is the persistence collaborator for agent profiles. The
// relational layer behind it is outside this core; the store contract is
// what seeding and routing depend on.
//
// GetByKey and GetByName also return soft-deleted profiles so that seeding
// can restore them instead of colliding with the unique name constraint.
type AgentStore interface {
	Create(ctx context.Context, profile *AgentProfile) error
	Update(ctx context.Context, profile *AgentProfile) error
	GetByKey(ctx context.Context, orgID, specialistKey string) (*AgentProfile, error)
	GetByName(ctx context.Context, orgID, name string) (*AgentProfile, error)
	ListActive(ctx context.Context, orgID string) ([]AgentProfile, error)
	ListActiveByKeys(ctx context.Context, orgID string, keys []string) ([]AgentProfile, error)
	Restore(ctx context.Context, id string) error
}

// ContextSource supplies the organization context string for a set of
// context scopes (e.g. "people", "goals"). Implemented outside this core by
// the persistence layer; a failing source degrades to an empty context.
type ContextSource interface {
	BuildContext(ctx context.Context, orgID string, scopes []string) (string, error)
}

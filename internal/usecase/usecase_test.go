package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"orgmind/internal/domain"
)

// Shared test doubles for the usecase package.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGateway records every Send and answers from a reply function.
type fakeGateway struct {
	mu    sync.Mutex
	calls []gatewayCall
	reply func(call gatewayCall) (*domain.ChatResponse, error)
}

type gatewayCall struct {
	Profile      domain.AgentProfile
	SystemPrompt string
	History      []domain.Message
	Opts         domain.SendOptions
}

func (g *fakeGateway) Send(_ context.Context, profile domain.AgentProfile, systemPrompt string, history []domain.Message, opts domain.SendOptions) (*domain.ChatResponse, error) {
	call := gatewayCall{Profile: profile, SystemPrompt: systemPrompt, History: history, Opts: opts}
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()
	return g.reply(call)
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func textResponse(text string, tokens int) *domain.ChatResponse {
	return &domain.ChatResponse{
		Message: domain.Message{Role: domain.RoleAssistant, Content: text},
		Usage:   domain.Usage{TotalTokens: tokens},
	}
}

// memStore is an in-memory domain.AgentStore.
type memStore struct {
	mu       sync.Mutex
	profiles map[string]*domain.AgentProfile // keyed by ID

	createErr error
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[string]*domain.AgentProfile)}
}

func (m *memStore) Create(_ context.Context, p *domain.AgentProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.profiles {
		if existing.OrgID == p.OrgID && existing.Name == p.Name {
			return domain.NewDomainError("memStore.Create", domain.ErrDuplicate, p.Name)
		}
	}
	clone := *p
	m.profiles[p.ID] = &clone
	return nil
}

func (m *memStore) Update(_ context.Context, p *domain.AgentProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return domain.NewDomainError("memStore.Update", domain.ErrNotFound, p.ID)
	}
	clone := *p
	m.profiles[p.ID] = &clone
	return nil
}

func (m *memStore) GetByKey(_ context.Context, orgID, key string) (*domain.AgentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.OrgID == orgID && p.SpecialistKey == key {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.NewDomainError("memStore.GetByKey", domain.ErrNotFound, key)
}

func (m *memStore) GetByName(_ context.Context, orgID, name string) (*domain.AgentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.OrgID == orgID && p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.NewDomainError("memStore.GetByName", domain.ErrNotFound, name)
}

func (m *memStore) ListActive(_ context.Context, orgID string) ([]domain.AgentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AgentProfile
	for _, p := range m.profiles {
		if p.OrgID == orgID && p.Active && p.DeletedAt == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveByKeys(_ context.Context, orgID string, keys []string) ([]domain.AgentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	// Catalog order keeps fan-out deterministic in tests.
	var out []domain.AgentProfile
	for _, def := range specialistCatalog {
		if !want[def.Key] {
			continue
		}
		for _, p := range m.profiles {
			if p.OrgID == orgID && p.Active && p.DeletedAt == nil && p.SpecialistKey == def.Key {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (m *memStore) Restore(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return domain.NewDomainError("memStore.Restore", domain.ErrNotFound, id)
	}
	p.DeletedAt = nil
	p.Active = true
	return nil
}

func (m *memStore) count(orgID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.profiles {
		if p.OrgID == orgID {
			n++
		}
	}
	return n
}

// fakeContextSource returns a canned context string per scope set.
type fakeContextSource struct {
	text string
	err  error
}

func (f *fakeContextSource) BuildContext(_ context.Context, _ string, scopes []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	return "scopes: " + strings.Join(scopes, ","), nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"orgmind/internal/domain"
	"orgmind/internal/infra/tracer"
)

// Contribution is one specialist's answer within an orchestration round.
// A failed consultation carries the placeholder text and the error; it never
// fails the round.
type Contribution struct {
	AgentName     string
	SpecialistKey string
	Text          string
	TokensUsed    int
	Err           error
}

// OrchestrateResult is the combined outcome of a multi-specialist round.
type OrchestrateResult struct {
	Text            string
	AgentsConsulted []string
	Contributions   []Contribution
}

// ConsultResult is the outcome of a single-specialist consultation.
type ConsultResult struct {
	Text              string
	ContextScopesUsed []string
	TokensUsed        int
}

// Orchestrator routes a query to specialist agents by keyword, consults them
// concurrently, and assembles a combined answer.
type Orchestrator struct {
	gateway domain.Gateway
	store   domain.AgentStore
	source  domain.ContextSource
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator. source may be nil; consultations
// then run without scoped organization context.
func NewOrchestrator(gateway domain.Gateway, store domain.AgentStore, source domain.ContextSource, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		store:   store,
		source:  source,
		logger:  logger,
	}
}

// Orchestrate fans the query out to every matched active specialist and
// joins when all have answered. One specialist failing never fails the
// round; its contribution becomes a placeholder.
func (o *Orchestrator) Orchestrate(ctx context.Context, orgID, query string) (*OrchestrateResult, error) {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.round",
		trace.WithAttributes(tracer.StringAttr("org.id", orgID)),
	)
	defer span.End()

	keys := matchSpecialistKeys(query)
	span.AddEvent("specialists_matched", trace.WithAttributes(tracer.IntAttr("count", len(keys))))

	profiles, err := o.store.ListActiveByKeys(ctx, orgID, keys)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("load specialists: %w", err)
	}
	if len(profiles) == 0 {
		err := domain.NewDomainError("Orchestrator.Orchestrate", domain.ErrNoActiveSpecialists, orgID)
		tracer.RecordError(span, err)
		return nil, err
	}

	contributions := make([]Contribution, len(profiles))
	var wg sync.WaitGroup
	for i := range profiles {
		wg.Add(1)
		go func(idx int, profile domain.AgentProfile) {
			defer wg.Done()
			contributions[idx] = o.consult(ctx, profile, query)
		}(i, profiles[i])
	}
	wg.Wait()

	result := &OrchestrateResult{
		Contributions: contributions,
		Text:          synthesize(contributions),
	}
	for _, c := range contributions {
		result.AgentsConsulted = append(result.AgentsConsulted, c.AgentName)
		if c.Err != nil {
			o.logger.Warn("specialist consultation failed",
				"agent", c.AgentName, "specialist", c.SpecialistKey, "error", c.Err)
		}
	}

	tracer.SetOK(span)
	return result, nil
}

// ConsultSpecialist is the single-specialist path. Unlike Orchestrate, a
// failing gateway call here is the caller's error.
func (o *Orchestrator) ConsultSpecialist(ctx context.Context, orgID, specialistKey, query string) (*ConsultResult, error) {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.consult",
		trace.WithAttributes(
			tracer.StringAttr("org.id", orgID),
			tracer.StringAttr("specialist.key", specialistKey),
		),
	)
	defer span.End()

	profiles, err := o.store.ListActiveByKeys(ctx, orgID, []string{specialistKey})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("load specialist: %w", err)
	}
	if len(profiles) == 0 {
		err := domain.NewDomainError("Orchestrator.ConsultSpecialist", domain.ErrNoActiveSpecialists, specialistKey)
		tracer.RecordError(span, err)
		return nil, err
	}
	profile := profiles[0]

	prompt, scopes := o.effectivePrompt(ctx, profile)
	resp, err := o.gateway.Send(ctx, profile, prompt,
		[]domain.Message{{Role: domain.RoleUser, Content: query}}, domain.SendOptions{})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	tracer.SetOK(span)
	return &ConsultResult{
		Text:              resp.Message.Content,
		ContextScopesUsed: scopes,
		TokensUsed:        resp.Usage.TotalTokens,
	}, nil
}

// consult runs one specialist's consultation and captures its contribution.
func (o *Orchestrator) consult(ctx context.Context, profile domain.AgentProfile, query string) Contribution {
	c := Contribution{
		AgentName:     profile.Name,
		SpecialistKey: profile.SpecialistKey,
	}

	prompt, _ := o.effectivePrompt(ctx, profile)
	resp, err := o.gateway.Send(ctx, profile, prompt,
		[]domain.Message{{Role: domain.RoleUser, Content: query}}, domain.SendOptions{})
	if err != nil {
		c.Text = fmt.Sprintf("[Unable to consult %s]", profile.Name)
		c.Err = err
		return c
	}

	c.Text = resp.Message.Content
	c.TokensUsed = resp.Usage.TotalTokens
	return c
}

// effectivePrompt assembles base prompt + org custom instructions + scoped
// organization context. A failing context source degrades to no context.
func (o *Orchestrator) effectivePrompt(ctx context.Context, profile domain.AgentProfile) (string, []string) {
	var b strings.Builder
	b.WriteString(profile.SystemPrompt)

	if profile.CustomInstructions != "" {
		b.WriteString("\n\n")
		b.WriteString(profile.CustomInstructions)
	}

	if o.source != nil && len(profile.ContextScopes) > 0 {
		orgCtx, err := o.source.BuildContext(ctx, profile.OrgID, profile.ContextScopes)
		if err != nil {
			o.logger.Warn("context source failed, consulting without org context",
				"agent", profile.Name, "error", err)
		} else if orgCtx != "" {
			b.WriteString("\n\nOrganization context:\n")
			b.WriteString(orgCtx)
		}
	}

	return b.String(), profile.ContextScopes
}

// synthesize combines contributions: one is returned verbatim, several are
// concatenated under markdown headers in consultation order.
func synthesize(contributions []Contribution) string {
	if len(contributions) == 1 {
		return contributions[0].Text
	}

	var b strings.Builder
	for i, c := range contributions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", c.AgentName, c.Text)
	}
	return b.String()
}

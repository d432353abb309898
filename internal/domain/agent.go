package domain

import "time"

// CommunicationStyle describes how an agent phrases its responses.
type CommunicationStyle string

const (
	StyleDirect     CommunicationStyle = "direct"
	StyleDiplomatic CommunicationStyle = "diplomatic"
	StyleAnalytical CommunicationStyle = "analytical"
	StyleCasual     CommunicationStyle = "casual"
)

// ReactionTendency describes how an agent tends to react to other agents'
// contributions in a discussion round.
type ReactionTendency string

const (
	TendencyDevilsAdvocate   ReactionTendency = "devils_advocate"
	TendencyCritical         ReactionTendency = "critical"
	TendencyConsensusBuilder ReactionTendency = "consensus_builder"
	TendencySupportive       ReactionTendency = "supportive"
	TendencyNeutral          ReactionTendency = "neutral"
)

// Personality holds the attributes that drive relevance scoring and
// response-style decisions for a simulated persona.
type Personality struct {
	Assertiveness        int                `json:"assertiveness"` // 0-100
	CommunicationStyle   CommunicationStyle `json:"communication_style"`
	ReactionTendency     ReactionTendency   `json:"reaction_tendency"`
	Seniority            int                `json:"seniority"` // 1-5
	ExpertiseAreas       []string           `json:"expertise_areas,omitempty"`
	AsksQuestions        bool               `json:"asks_questions"`
	BriefAcknowledgments bool               `json:"brief_acknowledgments"`
}

// AgentProfile is an organization-owned agent: identity is immutable,
// configuration is mutable. Specialist agents additionally carry the
// SpecialistKey that ties them to their catalog definition.
type AgentProfile struct {
	ID                 string      `json:"id"`
	OrgID              string      `json:"org_id"`
	Name               string      `json:"name"`
	Role               string      `json:"role"`
	SpecialistKey      string      `json:"specialist_key,omitempty"`
	Provider           Provider    `json:"provider"`
	Model              string      `json:"model"`
	Temperature        float64     `json:"temperature"`
	MaxTokens          int         `json:"max_tokens"`
	SystemPrompt       string      `json:"system_prompt"`
	CustomInstructions string      `json:"custom_instructions,omitempty"`
	ContextScopes      []string    `json:"context_scopes,omitempty"`
	Personality        Personality `json:"personality"`
	Active             bool        `json:"active"`
	DeletedAt          *time.Time  `json:"deleted_at,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// IsBuiltIn reports whether the profile was seeded from the specialist
// catalog rather than created by the organization.
func (p *AgentProfile) IsBuiltIn() bool { return p.SpecialistKey != "" }

// SpecialistDefinition is a static catalog entry used to seed and repair
// built-in specialist agents. It is never persisted as conversation state.
type SpecialistDefinition struct {
	Key           string
	Name          string
	Role          string
	BasePrompt    string
	Keywords      []string
	ContextScopes []string
	Personality   Personality
}

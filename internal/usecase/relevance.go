package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"orgmind/internal/domain"
	"orgmind/internal/infra/config"
	"orgmind/internal/infra/tracer"
)

// expertiseCap bounds the heuristic expertise contribution no matter how
// many keywords match.
const expertiseCap = 30

// recentTurnWindow is how many trailing conversation turns feed the
// expertise keyword matching.
const recentTurnWindow = 5

// domainBonuses awards a fixed boost when an agent's role title suggests a
// domain and the recent conversation carries that domain's vocabulary.
var domainBonuses = []struct {
	roleHints []string
	vocab     []string
	bonus     int
}{
	{[]string{"cfo", "finance", "financial"}, []string{"budget", "cost", "revenue", "runway", "cash", "forecast", "margin"}, 20},
	{[]string{"cto", "engineer", "technical", "technology"}, []string{"architecture", "technical", "infrastructure", "code", "system", "platform"}, 20},
	{[]string{"people", "hr", "talent", "chief people"}, []string{"hiring", "team", "culture", "onboarding", "morale", "headcount"}, 20},
	{[]string{"ceo", "strategy", "strategist"}, []string{"strategy", "vision", "market", "roadmap", "growth", "positioning"}, 20},
	{[]string{"coo", "operations", "process"}, []string{"process", "workflow", "operations", "efficiency", "delivery", "bottleneck"}, 20},
}

// RelevanceEvaluation is one evaluation request.
type RelevanceEvaluation struct {
	Agents  []domain.AgentProfile
	History []domain.Message
	// PreviousRound carries the responses already given this round; non-empty
	// marks this as a reaction round.
	PreviousRound string
}

// RelevanceEngine scores how relevant each roster agent is to the current
// conversation, blending deterministic heuristics with one LLM scoring pass.
type RelevanceEngine struct {
	gateway domain.Gateway
	cfg     config.RelevanceConfig
	logger  *slog.Logger
}

// NewRelevanceEngine creates a relevance engine.
func NewRelevanceEngine(gateway domain.Gateway, cfg config.RelevanceConfig, logger *slog.Logger) *RelevanceEngine {
	return &RelevanceEngine{gateway: gateway, cfg: cfg, logger: logger}
}

// Evaluate scores every roster agent. The output always contains exactly one
// result per input agent, sorted by score descending (ties broken by
// assertiveness descending). LLM failure degrades to heuristic-only scores.
func (e *RelevanceEngine) Evaluate(ctx context.Context, eval RelevanceEvaluation) ([]domain.RelevanceResult, error) {
	ctx, span := tracer.StartSpan(ctx, "relevance.evaluate",
		trace.WithAttributes(tracer.IntAttr("roster.size", len(eval.Agents))),
	)
	defer span.End()

	if len(eval.Agents) == 0 {
		tracer.SetOK(span)
		return nil, nil
	}

	text := recentText(eval.History)
	reactionRound := eval.PreviousRound != ""

	expertise := make([]int, len(eval.Agents))
	personality := make([]int, len(eval.Agents))
	for i := range eval.Agents {
		expertise[i] = expertiseBoost(&eval.Agents[i], text)
		personality[i] = personalityModifier(&eval.Agents[i].Personality, reactionRound)
	}

	llm, err := e.llmScores(ctx, eval)
	if err != nil {
		e.logger.Warn("relevance scoring call failed, using heuristic fallback", "error", err)
		span.AddEvent("heuristic_fallback")
		results := e.fallbackResults(eval, expertise, personality, reactionRound)
		tracer.SetOK(span)
		return results, nil
	}

	results := make([]domain.RelevanceResult, len(eval.Agents))
	for i := range eval.Agents {
		agent := &eval.Agents[i]

		score, reasoning, stance, buildOn := 50, "no model score returned; neutral default", domain.StanceNeutral, ""
		if s, ok := llm[i]; ok {
			score = domain.ClampScore(s.Score)
			reasoning = s.Reasoning
			stance = parseStance(s.Stance)
			buildOn = s.BuildOn
		}

		final := domain.ClampScore(score + expertise[i] + personality[i])
		results[i] = domain.RelevanceResult{
			AgentID:       agent.ID,
			Score:         final,
			Reasoning:     reasoning,
			ShouldRespond: final >= e.cfg.Threshold,
			ResponseType:  responseTypeFor(final, &agent.Personality, reactionRound),
			Stance:        stance,
			BuildOnAgent:  buildOn,
		}
	}

	sortResults(results, eval.Agents)
	tracer.SetOK(span)
	return results, nil
}

// EvaluateSingleAgent is the fast path for one agent, used for incremental
// "should this agent add a follow-up" checks in a reaction round.
func (e *RelevanceEngine) EvaluateSingleAgent(ctx context.Context, agent domain.AgentProfile, history []domain.Message, previousRound string) (*domain.RelevanceResult, error) {
	results, err := e.Evaluate(ctx, RelevanceEvaluation{
		Agents:        []domain.AgentProfile{agent},
		History:       history,
		PreviousRound: previousRound,
	})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("single-agent evaluation returned %d results", len(results))
	}
	return &results[0], nil
}

// fallbackResults scores every agent heuristically when the LLM pass fails.
func (e *RelevanceEngine) fallbackResults(eval RelevanceEvaluation, expertise, personality []int, reactionRound bool) []domain.RelevanceResult {
	results := make([]domain.RelevanceResult, len(eval.Agents))
	for i := range eval.Agents {
		agent := &eval.Agents[i]
		final := domain.ClampScore(50 + expertise[i] + personality[i])

		reasoning := "heuristic fallback: no expertise keyword match"
		if expertise[i] > 0 {
			reasoning = fmt.Sprintf("heuristic fallback: expertise match contributed %d", expertise[i])
		}

		results[i] = domain.RelevanceResult{
			AgentID:       agent.ID,
			Score:         final,
			Reasoning:     reasoning,
			ShouldRespond: final >= e.cfg.Threshold,
			ResponseType:  responseTypeFor(final, &agent.Personality, reactionRound),
			Stance:        domain.StanceNeutral,
		}
	}
	sortResults(results, eval.Agents)
	return results
}

// llmScoreEntry is one element of the scoring model's JSON array.
type llmScoreEntry struct {
	AgentIndex   int    `json:"agentIndex"` // 1-based
	Score        int    `json:"score"`
	Reasoning    string `json:"reasoning"`
	Stance       string `json:"stance"`
	ResponseType string `json:"responseType"`
	BuildOn      string `json:"buildOn"`
}

// llmScores runs the social-dynamics scoring pass and maps the 1-based
// agentIndex entries back onto roster positions. Out-of-range indexes are
// dropped; missing agents are the caller's backfill problem.
func (e *RelevanceEngine) llmScores(ctx context.Context, eval RelevanceEvaluation) (map[int]llmScoreEntry, error) {
	profile := domain.AgentProfile{
		ID:        "relevance-scorer",
		Provider:  domain.Provider(e.cfg.ScoringProvider),
		Model:     e.cfg.ScoringModel,
		MaxTokens: 1024,
	}

	prompt := buildScoringPrompt(eval)
	resp, err := e.gateway.Send(ctx, profile,
		"You judge which participants of a discussion should speak next. Respond with only a JSON array.",
		[]domain.Message{{Role: domain.RoleUser, Content: prompt}}, domain.SendOptions{})
	if err != nil {
		return nil, err
	}

	var entries []llmScoreEntry
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Message.Content)), &entries); err != nil {
		return nil, fmt.Errorf("parse scoring response: %w", err)
	}

	scores := make(map[int]llmScoreEntry, len(entries))
	for _, entry := range entries {
		idx := entry.AgentIndex - 1
		if idx < 0 || idx >= len(eval.Agents) {
			continue
		}
		scores[idx] = entry
	}
	return scores, nil
}

// buildScoringPrompt renders the roster, the recent conversation, and the
// optional previous-round block into the scoring request.
func buildScoringPrompt(eval RelevanceEvaluation) string {
	var b strings.Builder

	b.WriteString("Participants:\n")
	for i := range eval.Agents {
		agent := &eval.Agents[i]
		fmt.Fprintf(&b, "%d. %s (%s) — expertise: %s; assertiveness %d/100; seniority %d/5\n",
			i+1, agent.Name, agent.Role,
			strings.Join(agent.Personality.ExpertiseAreas, ", "),
			agent.Personality.Assertiveness, agent.Personality.Seniority)
	}

	b.WriteString("\nConversation:\n")
	start := len(eval.History) - recentTurnWindow
	if start < 0 {
		start = 0
	}
	for _, m := range eval.History[start:] {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	if eval.PreviousRound != "" {
		b.WriteString("\nResponses so far this round:\n")
		b.WriteString(eval.PreviousRound)
		b.WriteString("\n")
	}

	b.WriteString("\nFor each participant, return a JSON array of objects " +
		`{"agentIndex": <1-based>, "score": <0-100>, "reasoning": "...", ` +
		`"stance": "agree|disagree|neutral|question|build_on", ` +
		`"responseType": "full|brief|question|acknowledgment", "buildOn": "<name or empty>"}.`)

	return b.String()
}

// recentText concatenates the last turns, lower-cased, for keyword matching.
func recentText(history []domain.Message) string {
	start := len(history) - recentTurnWindow
	if start < 0 {
		start = 0
	}
	var parts []string
	for _, m := range history[start:] {
		parts = append(parts, m.Content)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// expertiseBoost computes the capped heuristic expertise contribution:
// +15 per expertise-keyword match, +10 per role-title word (>3 chars) found
// in the recent text, plus the domain bonus table.
func expertiseBoost(agent *domain.AgentProfile, text string) int {
	score := 0

	for _, area := range agent.Personality.ExpertiseAreas {
		if area != "" && strings.Contains(text, strings.ToLower(area)) {
			score += 15
		}
	}

	for _, word := range strings.Fields(strings.ToLower(agent.Role)) {
		if len(word) > 3 && strings.Contains(text, word) {
			score += 10
		}
	}

	role := strings.ToLower(agent.Role)
	for _, db := range domainBonuses {
		if !containsAny(role, db.roleHints) {
			continue
		}
		if containsAny(text, db.vocab) {
			score += db.bonus
		}
	}

	if score > expertiseCap {
		score = expertiseCap
	}
	return score
}

// personalityModifier folds assertiveness and seniority into a small
// adjustment; reaction rounds add a tendency-specific bonus.
func personalityModifier(p *domain.Personality, reactionRound bool) int {
	mod := (p.Assertiveness-50)/5 + (p.Seniority-3)*3

	if reactionRound {
		switch p.ReactionTendency {
		case domain.TendencyDevilsAdvocate:
			mod += 10
		case domain.TendencyCritical:
			mod += 8
		case domain.TendencyConsensusBuilder:
			mod += 5
		case domain.TendencySupportive:
			mod += 3
		}
	}
	return mod
}

// responseTypeFor picks the response style from the final score and the
// agent's flags, independent of whatever the scoring model suggested.
// The branch order is load-bearing: the mid-band checks run first.
func responseTypeFor(score int, p *domain.Personality, reactionRound bool) domain.ResponseType {
	if score >= 40 && score < 60 {
		if p.BriefAcknowledgments && reactionRound {
			return domain.ResponseAcknowledgment
		}
		if p.AsksQuestions {
			return domain.ResponseQuestion
		}
		return domain.ResponseBrief
	}
	if score >= 50 && score < 70 && p.AsksQuestions {
		return domain.ResponseQuestion
	}
	if score >= 60 {
		return domain.ResponseFull
	}
	return domain.ResponseBrief
}

func parseStance(s string) domain.Stance {
	switch domain.Stance(strings.ToLower(strings.TrimSpace(s))) {
	case domain.StanceAgree:
		return domain.StanceAgree
	case domain.StanceDisagree:
		return domain.StanceDisagree
	case domain.StanceQuestion:
		return domain.StanceQuestion
	case domain.StanceBuildOn:
		return domain.StanceBuildOn
	default:
		return domain.StanceNeutral
	}
}

// sortResults orders by score descending, ties by assertiveness descending.
func sortResults(results []domain.RelevanceResult, agents []domain.AgentProfile) {
	assertiveness := make(map[string]int, len(agents))
	for i := range agents {
		assertiveness[agents[i].ID] = agents[i].Personality.Assertiveness
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return assertiveness[results[i].AgentID] > assertiveness[results[j].AgentID]
	})
}

// stripCodeFences removes a ```json ... ``` wrapper if the model added one.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

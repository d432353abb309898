package domain

// ResponseType suggests how an agent should respond when it does respond.
type ResponseType string

const (
	ResponseFull           ResponseType = "full"
	ResponseBrief          ResponseType = "brief"
	ResponseQuestion       ResponseType = "question"
	ResponseAcknowledgment ResponseType = "acknowledgment"
)

// Stance is the position an agent takes relative to the conversation.
type Stance string

const (
	StanceAgree    Stance = "agree"
	StanceDisagree Stance = "disagree"
	StanceNeutral  Stance = "neutral"
	StanceQuestion Stance = "question"
	StanceBuildOn  Stance = "build_on"
)

// RelevanceResult is the per-agent outcome of one relevance evaluation.
// Results are computed fresh per call and never persisted.
type RelevanceResult struct {
	AgentID       string       `json:"agent_id"`
	Score         int          `json:"score"` // always in [0,100]
	Reasoning     string       `json:"reasoning"`
	ShouldRespond bool         `json:"should_respond"`
	ResponseType  ResponseType `json:"response_type"`
	Stance        Stance       `json:"stance"`
	BuildOnAgent  string       `json:"build_on_agent,omitempty"`
}

// ClampScore bounds a relevance score to [0,100]. Applied after every
// additive adjustment so intermediate sums can never leak out of range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

package types

// LLMDecision is the structured shape an LLM router response must match.
// Outcome must case-exactly equal one of the agent's declared outcome
// names; anything else is rejected by the router.
type LLMDecision struct {
	Outcome   string `json:"outcome"`
	Reasoning string `json:"reasoning"`
	NextStep  string `json:"next_step,omitempty"`
}

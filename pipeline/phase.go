package pipeline

// Phase names the stages of one agent invocation. Phases appear as log
// fields; they carry no behavior of their own.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseValidatingInput  Phase = "validating_input"
	PhaseRunning          Phase = "running"
	PhaseValidatingOutput Phase = "validating_output"
	PhaseLLMRouting       Phase = "llm_routing"
	PhaseRouting          Phase = "routing"
)

package types

// DataMap is the associative payload that flows through a pipeline.
// Keys beginning with an underscore are reserved for the engine; callers
// may pre-populate them only to continue an existing pipeline.
type DataMap map[string]any

// Engine-reserved keys inside a DataMap.
const (
	// KeyPipelineID holds the process-unique monotonic pipeline ID.
	// Assigned once at the top-level Process call and never changed.
	KeyPipelineID = "_pipeline_id"

	// KeyRetryAttempt holds the retry counter for the current agent.
	// Incremented only by a Retry routing rule, reset to zero when the
	// pipeline is forwarded to another agent.
	KeyRetryAttempt = "_retry_attempt"

	// KeyLLMReasoning is written by the LLM router on a successful
	// routing decision.
	KeyLLMReasoning = "llm_reasoning"
)

// Clone returns a shallow copy of the map. Nested values are shared.
func (d DataMap) Clone() DataMap {
	out := make(DataMap, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// PipelineID returns the pipeline ID carried in the map, coercing the
// numeric forms a JSON round-trip may produce. ok is false when the key
// is absent or not numeric.
func (d DataMap) PipelineID() (int64, bool) {
	return toInt64(d[KeyPipelineID])
}

// SetPipelineID writes the pipeline ID into the map.
func (d DataMap) SetPipelineID(id int64) {
	d[KeyPipelineID] = id
}

// RetryAttempt returns the retry counter, defaulting to zero when absent.
func (d DataMap) RetryAttempt() int {
	v, ok := toInt64(d[KeyRetryAttempt])
	if !ok {
		return 0
	}
	return int(v)
}

// SetRetryAttempt writes the retry counter into the map.
func (d DataMap) SetRetryAttempt(attempt int) {
	d[KeyRetryAttempt] = attempt
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		// JSON decoding yields float64 for all numbers.
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case float32:
		if float64(n) == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

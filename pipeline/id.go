package pipeline

import "sync/atomic"

// pipelineSeq is the process-wide pipeline ID source. It is the engine's
// single piece of shared mutable state; allocation must stay race-free
// under concurrent Process calls.
var pipelineSeq atomic.Int64

// nextPipelineID returns a fresh monotonic positive pipeline ID.
func nextPipelineID() int64 {
	return pipelineSeq.Add(1)
}

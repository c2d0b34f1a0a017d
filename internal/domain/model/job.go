package model

import "context"

// Job is one prediction scheduled on the batch worker pool.
type Job struct {
	ID    string
	Index int
	Input PredictionInput
	// Ctx is the submitting request's context; workers honor its cancellation.
	Ctx   context.Context //nolint:containedctx // jobs outlive the enqueue call
	Reply chan<- JobResult
}

// JobResult is the outcome delivered on a Job's reply channel.
type JobResult struct {
	ID     string                  `json:"id"`
	Index  int                     `json:"index"`
	Result UnifiedPredictionResult `json:"result"`
}

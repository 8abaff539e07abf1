package domain

import "time"

// StepStatus is the lifecycle state of one pipeline step.
type StepStatus string

const (
	// StepPending means the step has not started.
	StepPending StepStatus = "pending"
	// StepRunning means the step is in progress.
	StepRunning StepStatus = "running"
	// StepCompleted means the step finished successfully.
	StepCompleted StepStatus = "completed"
	// StepFailed means the step failed; remaining steps are skipped.
	StepFailed StepStatus = "failed"
	// StepSkipped means an earlier step failed before this one ran.
	StepSkipped StepStatus = "skipped"
)

// RunStatus is the overall state of one unit of work.
type RunStatus string

const (
	// RunRunning means the unit is in progress.
	RunRunning RunStatus = "running"
	// RunCompleted means every step finished.
	RunCompleted RunStatus = "completed"
	// RunFailed means a step failed. Partial outputs from completed
	// steps are retained for debugging.
	RunFailed RunStatus = "failed"
)

// StepResult records the outcome of one pipeline step. Persisted
// incrementally so long indexing jobs are inspectable mid-flight.
type StepResult struct {
	// Name identifies the step (e.g. "chunk", "embed").
	Name string

	// Status is the step's lifecycle state.
	Status StepStatus

	// Duration is wall time spent in the step.
	Duration time.Duration

	// Stats holds small summary numbers (counts, sizes).
	Stats map[string]int

	// Sample is a short excerpt of the step's output for inspection.
	Sample string

	// Error carries structured failure detail when Status is failed.
	Error *StepError
}

// Indexing pipeline step names, in execution order.
const (
	StepPartition = "partition"
	StepMetadata  = "metadata"
	StepEnrich    = "enrich"
	StepChunk     = "chunk"
	StepEmbed     = "embed"
	StepStore     = "store"
)

// Query pipeline step names, in execution order.
const (
	StepProcess  = "process"
	StepRetrieve = "retrieve"
	StepGenerate = "generate"
)

// IndexingRun is one versioned execution of the indexing pipeline for
// a document. Chunks belong to exactly one run; re-indexing creates a
// new run rather than mutating an old one.
type IndexingRun struct {
	// ID is the run identifier retrieval scopes to.
	ID string

	// DocumentID is the document being indexed.
	DocumentID string

	// Status is the overall unit state.
	Status RunStatus

	// EmbeddingModel records the model/version used to embed this
	// run's chunks. Queries must embed with the same model.
	EmbeddingModel string

	// Steps holds per-step results in execution order.
	Steps []StepResult

	// Stats summarises the finalised chunk list, once chunking ran.
	Stats ChunkStats

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

package domain

import "time"

// DefaultRefreshInterval is used for providers whose config does not carry a
// schedule of its own.
const DefaultRefreshInterval = 30 * time.Minute

// ScheduledTask represents a recurring background task, one per provider
// refresh.
type ScheduledTask struct {
	// ID is the unique identifier for the task ("<providerName>:refresh").
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// ID uniquely identifies this execution.
	ID string

	// TaskID identifies which task was run.
	TaskID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is a count of items handled (records committed).
	ItemsProcessed int
}

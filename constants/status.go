package constants

// OutputStatus is the canonical regeneration status for rows in job_items.
type OutputStatus string

// Stable values (store these exact strings in DB).
const (
	OutputStatusPending    OutputStatus = "pending"    // created, never regenerated
	OutputStatusGenerating OutputStatus = "generating" // regeneration in progress
	OutputStatusGenerated  OutputStatus = "generated"  // last run completed
	OutputStatusError      OutputStatus = "error"      // last run failed outside the per-file loop
)

// JobStatus is the lifecycle status for rows in jobs.
type JobStatus string

const (
	JobStatusOpen     JobStatus = "open"
	JobStatusReleased JobStatus = "released"
	JobStatusClosed   JobStatus = "closed"
)

package constants

// JobStatus is the canonical status for rows in parse_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // optional: queued for processing
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusTextOK  JobStatus = "TEXT_OK" // stage 1 completed (page text extracted)
	JobStatusParsed  JobStatus = "PARSED"  // stage 2 completed (records extracted)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

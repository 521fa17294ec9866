package domain

// Run status values.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
)

// Run describes one batch execution over an input catalog.
type Run struct {
	RunID      string
	InputPath  string
	OutputPath string
	Status     string

	RowsRead    int // data rows in the input
	FilteredOut int // rows excluded by the NEO/PHA filter or expression
	Processed   int // rows with a VelocityResult
	Skipped     int // rows rejected by parse, domain or convergence errors

	StartedAt  int64 // Unix ms
	FinishedAt int64 // Unix ms, 0 while running
}

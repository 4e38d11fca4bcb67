// Package smoke drives every route of a running API instance and checks the
// exact responses.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Rounds  int           // How many times each case is sent
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every request
	LogFile string        // Optional log file
}

// Case is one request and its expected response.
type Case struct {
	Name       string
	Method     string
	Path       string
	Body       string
	WantStatus int
	// WantBody is compared exactly when non-empty.
	WantBody string
}

// Result is the outcome of sending one Case.
type Result struct {
	Case      Case
	RequestID string
	Status    int
	Body      string
	Err       error
}

// Passed reports whether the response matched.
func (r Result) Passed() bool {
	if r.Err != nil || r.Status != r.Case.WantStatus {
		return false
	}
	return r.Case.WantBody == "" || r.Body == r.Case.WantBody
}

// Stats holds run statistics.
type Stats struct {
	Sent      int
	Passed    int
	Failed    int
	Errors    int
	Failures  []Result
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

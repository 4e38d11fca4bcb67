package smoke

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	maxRecordedFailures     = 20
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	progressInterval     = time.Second
)

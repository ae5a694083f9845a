package seedgames

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Drain polling constants. The settle delay covers jobs that have left
// the queue but are still folding when the counters read zero.
const (
	DrainPollInterval = 500 * time.Millisecond
	DrainSettleDelay  = 2 * time.Second
	DrainMaxWait      = 2 * time.Minute
)

// Verification constants.
const (
	ResubmitSampleSize   = 100
	ReverifyDelay        = 2 * time.Second
	MinQualifyingAB      = 10
	PercentageMultiplier = 100
)

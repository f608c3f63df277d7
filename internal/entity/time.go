package entity

import "time"

// AnalysisTimeLayout keeps a fixed-width fractional second so persisted
// timestamps stay lexicographically ordered. RFC3339Nano trims trailing
// zeros, which breaks string comparison across precision boundaries.
const AnalysisTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

func NowAnalysisTime() string {
	return time.Now().UTC().Format(AnalysisTimeLayout)
}

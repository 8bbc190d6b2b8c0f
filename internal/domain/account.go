package domain

// SuspiciousAccount aggregates every ring an account was found in.
type SuspiciousAccount struct {
	AccountID        string
	SuspicionScore   int
	DetectedPatterns []PatternType
	RingIDs          []string
	TotalInflow      float64
	TotalOutflow     float64
	NetBalance       float64
}

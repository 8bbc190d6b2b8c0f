package domain

import "time"

// AnalysisSummary holds the headline counters of a run.
type AnalysisSummary struct {
	AccountsAnalyzed     int
	AccountsFlagged      int
	RingsDetected        int
	TransactionsAnalyzed int
	ProcessingTime       time.Duration
}

// AnalysisResult is the full output of one analysis run.
type AnalysisResult struct {
	RunID    string
	Rings    []ScoredRing
	Accounts []SuspiciousAccount
	Summary  AnalysisSummary
}

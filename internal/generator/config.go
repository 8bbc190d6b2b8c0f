package generator

import "time"

// Config drives the synthetic transaction generator.
type Config struct {
	NumAccounts     int // background accounts
	NumTransactions int // background transfers
	Cycles          int
	FanInRings      int
	FanOutRings     int
	ShellChains     int
	Start           time.Time
	Span            time.Duration
	Seed            int64
}

// DefaultConfig returns a dataset that exercises every detector.
func DefaultConfig() Config {
	return Config{
		NumAccounts:     1000,
		NumTransactions: 10000,
		Cycles:          5,
		FanInRings:      3,
		FanOutRings:     3,
		ShellChains:     4,
		Span:            30 * 24 * time.Hour,
		Seed:            42,
	}
}

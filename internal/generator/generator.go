// Package generator synthesises transaction batches with known fraud rings
// planted inside random background traffic.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/vanshika/muletrace/internal/domain"
)

const (
	minSmurfs     = 10
	maxSmurfs     = 15
	smurfSpread   = 48 * time.Hour
	shellHops     = 3
	minCycleLen   = 3
	maxCycleLen   = 5
	minBackground = 100.0
	maxBackground = 5000.0
)

// PlantedRing records a ring the generator inserted on purpose.
type PlantedRing struct {
	Pattern domain.PatternType `json:"pattern_type"`
	Members []string           `json:"member_accounts"`
}

// Dataset is a generated batch sorted by timestamp.
type Dataset struct {
	Transactions []domain.Transaction
	Planted      []PlantedRing
}

// Generator produces reproducible synthetic datasets.
type Generator struct {
	cfg  Config
	rand *rand.Rand
	txs  []domain.Transaction
}

// New returns a configured Generator instance. Zero counts keep their zero
// value; only the background size, span and start fall back to defaults.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumAccounts <= 1 {
		cfg.NumAccounts = def.NumAccounts
	}
	if cfg.NumTransactions < 0 {
		cfg.NumTransactions = def.NumTransactions
	}
	if cfg.Span <= 0 {
		cfg.Span = def.Span
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now().UTC().Truncate(24 * time.Hour).Add(-cfg.Span)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesises the dataset. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	g.txs = g.txs[:0]
	var planted []PlantedRing

	for i := 0; i < g.cfg.NumTransactions; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Dataset{}, err
			}
		}
		sender := g.rand.Intn(g.cfg.NumAccounts)
		receiver := g.rand.Intn(g.cfg.NumAccounts - 1)
		if receiver >= sender {
			receiver++
		}
		g.emit(backgroundAccount(sender), backgroundAccount(receiver), g.amount(minBackground, maxBackground), g.randomTime(g.cfg.Span))
	}

	for i := 0; i < g.cfg.Cycles; i++ {
		planted = append(planted, g.plantCycle(i))
	}
	for i := 0; i < g.cfg.FanInRings; i++ {
		planted = append(planted, g.plantSmurfs(i, domain.PatternFanIn))
	}
	for i := 0; i < g.cfg.FanOutRings; i++ {
		planted = append(planted, g.plantSmurfs(i, domain.PatternFanOut))
	}
	for i := 0; i < g.cfg.ShellChains; i++ {
		planted = append(planted, g.plantShellChain(i))
	}
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}

	txs := append([]domain.Transaction(nil), g.txs...)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.Before(txs[j].Timestamp) })
	for i := range txs {
		txs[i].ID = fmt.Sprintf("TX-%07d", i+1)
	}
	return Dataset{Transactions: txs, Planted: planted}, nil
}

// plantCycle routes one amount around a closed loop of fresh accounts,
// skimming a little at each hop.
func (g *Generator) plantCycle(n int) PlantedRing {
	length := minCycleLen + g.rand.Intn(maxCycleLen-minCycleLen+1)
	members := make([]string, length)
	for i := range members {
		members[i] = fmt.Sprintf("CYC-%03d-%d", n+1, i+1)
	}

	amount := g.amount(5000, 20000)
	at := g.randomTime(g.cfg.Span - time.Duration(length)*time.Hour)
	for i := range members {
		g.emit(members[i], members[(i+1)%length], amount, at)
		amount *= 0.97
		at = at.Add(time.Duration(1+g.rand.Intn(6)) * time.Hour)
	}
	return PlantedRing{Pattern: domain.PatternCycle, Members: members}
}

// plantSmurfs creates a hub exchanging just-below-threshold amounts with
// many fresh counterparties inside two days.
func (g *Generator) plantSmurfs(n int, pattern domain.PatternType) PlantedRing {
	prefix := "MULE"
	if pattern == domain.PatternFanOut {
		prefix = "DIST"
	}
	hub := fmt.Sprintf("%s-%03d", prefix, n+1)
	count := minSmurfs + g.rand.Intn(maxSmurfs-minSmurfs+1)
	members := []string{hub}

	start := g.randomTime(g.cfg.Span - smurfSpread)
	for i := 0; i < count; i++ {
		smurf := fmt.Sprintf("%s-%03d-S%02d", prefix, n+1, i+1)
		members = append(members, smurf)
		at := start.Add(time.Duration(g.rand.Int63n(int64(smurfSpread))))
		amount := g.amount(8000, 9900)
		if pattern == domain.PatternFanIn {
			g.emit(smurf, hub, amount, at)
		} else {
			g.emit(hub, smurf, amount, at)
		}
	}
	return PlantedRing{Pattern: pattern, Members: members}
}

// plantShellChain layers funds from one busy account to another through
// pass-through accounts that see no other traffic.
func (g *Generator) plantShellChain(n int) PlantedRing {
	shells := make([]string, shellHops)
	for i := range shells {
		shells[i] = fmt.Sprintf("SHELL-%03d-%d", n+1, i+1)
	}
	path := append([]string{backgroundAccount(g.rand.Intn(g.cfg.NumAccounts))}, shells...)
	path = append(path, backgroundAccount(g.rand.Intn(g.cfg.NumAccounts)))

	amount := g.amount(10000, 50000)
	at := g.randomTime(g.cfg.Span - time.Duration(len(path))*12*time.Hour)
	for i := 0; i+1 < len(path); i++ {
		g.emit(path[i], path[i+1], amount, at)
		amount *= 0.99
		at = at.Add(time.Duration(1+g.rand.Intn(12)) * time.Hour)
	}
	return PlantedRing{Pattern: domain.PatternLayeredShell, Members: shells}
}

func (g *Generator) emit(from, to string, amount float64, at time.Time) {
	g.txs = append(g.txs, domain.Transaction{
		SenderID:   from,
		ReceiverID: to,
		Amount:     amount,
		Timestamp:  at,
	})
}

func (g *Generator) amount(lo, hi float64) float64 {
	cents := int64((lo + g.rand.Float64()*(hi-lo)) * 100)
	return float64(cents) / 100
}

func (g *Generator) randomTime(span time.Duration) time.Time {
	if span <= 0 {
		return g.cfg.Start
	}
	return g.cfg.Start.Add(time.Duration(g.rand.Int63n(int64(span/time.Second))) * time.Second)
}

func backgroundAccount(i int) string {
	return fmt.Sprintf("ACC-%05d", i+1)
}

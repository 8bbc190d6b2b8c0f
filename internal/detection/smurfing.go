package detection

import (
	"context"
	"sort"
	"time"

	"github.com/vanshika/muletrace/internal/domain"
)

const (
	DefaultSmurfWindow    = 72 * time.Hour
	DefaultSmurfThreshold = 10
)

// SmurfingDetector flags accounts that receive from (fan-in) or send to
// (fan-out) at least Threshold distinct counterparties inside a rolling
// window. Consecutive qualifying windows of one account form a single burst
// and produce one ring covering every counterparty seen during the burst.
type SmurfingDetector struct {
	Window    time.Duration
	Threshold int
}

// NewSmurfingDetector returns a detector, substituting defaults for
// non-positive arguments.
func NewSmurfingDetector(window time.Duration, threshold int) *SmurfingDetector {
	if window <= 0 {
		window = DefaultSmurfWindow
	}
	if threshold <= 0 {
		threshold = DefaultSmurfThreshold
	}
	return &SmurfingDetector{Window: window, Threshold: threshold}
}

func (d *SmurfingDetector) Name() string { return "smurfing" }

type transfer struct {
	at           time.Time
	counterparty string
}

// flowIndex groups transfers by account, keeping accounts in first-seen order.
type flowIndex struct {
	order []string
	byKey map[string][]transfer
}

func (f *flowIndex) add(account string, t transfer) {
	if _, ok := f.byKey[account]; !ok {
		f.order = append(f.order, account)
	}
	f.byKey[account] = append(f.byKey[account], t)
}

func (d *SmurfingDetector) Detect(ctx context.Context, in Input) ([]domain.Ring, error) {
	inbound := &flowIndex{byKey: make(map[string][]transfer)}
	outbound := &flowIndex{byKey: make(map[string][]transfer)}
	for _, tx := range in.Transactions {
		if tx.SenderID == tx.ReceiverID {
			continue
		}
		inbound.add(tx.ReceiverID, transfer{at: tx.Timestamp, counterparty: tx.SenderID})
		outbound.add(tx.SenderID, transfer{at: tx.Timestamp, counterparty: tx.ReceiverID})
	}

	var rings []domain.Ring
	seen := make(map[string]struct{})
	emit := func(r domain.Ring) {
		key := membershipKey(r.Pattern, r.Members)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		rings = append(rings, r)
	}

	for _, pass := range []struct {
		flows   *flowIndex
		pattern domain.PatternType
	}{
		{inbound, domain.PatternFanIn},
		{outbound, domain.PatternFanOut},
	} {
		for _, account := range pass.flows.order {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, r := range d.bursts(account, pass.pattern, pass.flows.byKey[account]) {
				emit(r)
			}
		}
	}
	return rings, nil
}

type burst struct {
	start   time.Time
	end     time.Time
	members map[string]struct{}
}

// bursts slides the window over one account's transfers and returns a ring
// per maximal run of qualifying windows.
func (d *SmurfingDetector) bursts(account string, pattern domain.PatternType, transfers []transfer) []domain.Ring {
	if len(transfers) < d.Threshold {
		return nil
	}
	events := append([]transfer(nil), transfers...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })

	var (
		rings   []domain.Ring
		counts  = make(map[string]int)
		left    int
		current *burst
	)
	flush := func() {
		if current == nil {
			return
		}
		rings = append(rings, burstRing(account, pattern, current))
		current = nil
	}

	for right := range events {
		counts[events[right].counterparty]++
		for events[right].at.Sub(events[left].at) > d.Window {
			cp := events[left].counterparty
			if counts[cp]--; counts[cp] == 0 {
				delete(counts, cp)
			}
			left++
		}

		if len(counts) < d.Threshold {
			flush()
			continue
		}
		if current == nil {
			current = &burst{start: events[left].at, members: make(map[string]struct{})}
		}
		for cp := range counts {
			current.members[cp] = struct{}{}
		}
		current.end = events[right].at
	}
	flush()
	return rings
}

func burstRing(account string, pattern domain.PatternType, b *burst) domain.Ring {
	counterparties := make([]string, 0, len(b.members))
	for cp := range b.members {
		counterparties = append(counterparties, cp)
	}
	sort.Strings(counterparties)

	start, end := b.start, b.end
	return domain.Ring{
		Pattern: pattern,
		Members: append([]string{account}, counterparties...),
		Detail: domain.RingDetail{
			WindowStart:    &start,
			WindowEnd:      &end,
			Counterparties: len(counterparties),
		},
	}
}

package detection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/muletrace/internal/domain"
)

func fanIn(hub string, senders int, spacing, offset time.Duration) []edgeSpec {
	edges := make([]edgeSpec, 0, senders)
	for i := 0; i < senders; i++ {
		edges = append(edges, edgeSpec{
			from:   fmt.Sprintf("SND-%02d", i),
			to:     hub,
			offset: offset + time.Duration(i)*spacing,
		})
	}
	return edges
}

func TestSmurfingDetector_ThresholdBoundary(t *testing.T) {
	d := NewSmurfingDetector(72*time.Hour, 10)

	below := runDetector(t, d, buildInput(fanIn("HUB", 9, time.Hour, 0)...))
	assert.Empty(t, ringsOf(below, domain.PatternFanIn))

	at := runDetector(t, d, buildInput(fanIn("HUB", 10, time.Hour, 0)...))
	require.Len(t, ringsOf(at, domain.PatternFanIn), 1)

	ring := ringsOf(at, domain.PatternFanIn)[0]
	assert.Equal(t, "HUB", ring.Members[0])
	assert.Len(t, ring.Members, 11)
	assert.Equal(t, 10, ring.Detail.Counterparties)
	require.NotNil(t, ring.Detail.WindowStart)
	require.NotNil(t, ring.Detail.WindowEnd)
	assert.Equal(t, baseTime, *ring.Detail.WindowStart)
	assert.Equal(t, baseTime.Add(9*time.Hour), *ring.Detail.WindowEnd)
}

func TestSmurfingDetector_OutsideWindow(t *testing.T) {
	d := NewSmurfingDetector(72*time.Hour, 10)
	rings := runDetector(t, d, buildInput(fanIn("HUB", 10, 10*time.Hour, 0)...))
	assert.Empty(t, rings)
}

func TestSmurfingDetector_WindowEndInclusive(t *testing.T) {
	d := NewSmurfingDetector(9*time.Hour, 10)
	rings := runDetector(t, d, buildInput(fanIn("HUB", 10, time.Hour, 0)...))
	assert.Len(t, ringsOf(rings, domain.PatternFanIn), 1)
}

func TestSmurfingDetector_DistinctCounterparties(t *testing.T) {
	var edges []edgeSpec
	for i := 0; i < 20; i++ {
		edges = append(edges, edgeSpec{from: fmt.Sprintf("SND-%02d", i%5), to: "HUB", offset: time.Duration(i) * time.Minute})
	}
	rings := runDetector(t, NewSmurfingDetector(72*time.Hour, 10), buildInput(edges...))
	assert.Empty(t, rings)
}

func TestSmurfingDetector_FanOut(t *testing.T) {
	var edges []edgeSpec
	for i := 0; i < 12; i++ {
		edges = append(edges, edgeSpec{from: "SRC", to: fmt.Sprintf("RCV-%02d", i), offset: time.Duration(i) * time.Minute})
	}
	rings := runDetector(t, NewSmurfingDetector(72*time.Hour, 10), buildInput(edges...))

	require.Len(t, rings, 1)
	assert.Equal(t, domain.PatternFanOut, rings[0].Pattern)
	assert.Equal(t, "SRC", rings[0].Members[0])
	assert.Equal(t, 12, rings[0].Detail.Counterparties)
}

func TestSmurfingDetector_RepeatedBurstsCollapse(t *testing.T) {
	edges := fanIn("HUB", 10, time.Minute, 0)
	edges = append(edges, fanIn("HUB", 10, time.Minute, 30*24*time.Hour)...)

	rings := runDetector(t, NewSmurfingDetector(72*time.Hour, 10), buildInput(edges...))
	assert.Len(t, ringsOf(rings, domain.PatternFanIn), 1, "identical membership is reported once")
}

func TestSmurfingDetector_SlidingBurstIsOneRing(t *testing.T) {
	// 15 senders one hour apart with a 10 hour window: every window from the
	// tenth transfer onwards qualifies, so the burst is a single ring.
	rings := runDetector(t, NewSmurfingDetector(10*time.Hour, 10), buildInput(fanIn("HUB", 15, time.Hour, 0)...))

	fanIns := ringsOf(rings, domain.PatternFanIn)
	require.Len(t, fanIns, 1)
	assert.Equal(t, 15, fanIns[0].Detail.Counterparties)
}

func TestSmurfingDetector_SelfTransfersIgnored(t *testing.T) {
	var edges []edgeSpec
	for i := 0; i < 15; i++ {
		edges = append(edges, edgeSpec{from: "SELF", to: "SELF", offset: time.Duration(i) * time.Minute})
	}
	assert.Empty(t, runDetector(t, NewSmurfingDetector(72*time.Hour, 10), buildInput(edges...)))
}

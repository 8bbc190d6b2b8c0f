package server

import (
	"encoding/json"
	"io"
	"math"
	"strings"
	"time"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/service"
	"github.com/vanshika/muletrace/internal/txgraph"
)

const (
	colorHighRisk = "#ef4444"
	colorFlagged  = "#f97316"
	colorClean    = "#cccccc"
)

type analysisResponse struct {
	RunID              string                      `json:"run_id"`
	SuspiciousAccounts []suspiciousAccountResponse `json:"suspicious_accounts"`
	FraudRings         []fraudRingResponse         `json:"fraud_rings"`
	Summary            summaryResponse             `json:"summary"`
	GraphData          graphDataResponse           `json:"graph_data"`
}

type suspiciousAccountResponse struct {
	AccountID        string   `json:"account_id"`
	SuspicionScore   int      `json:"suspicion_score"`
	DetectedPatterns []string `json:"detected_patterns"`
	RingID           string   `json:"ring_id"`
	RingIDs          []string `json:"ring_ids"`
	TotalInflow      float64  `json:"total_inflow"`
	TotalOutflow     float64  `json:"total_outflow"`
	NetBalance       float64  `json:"net_balance"`
}

type fraudRingResponse struct {
	RingID         string              `json:"ring_id"`
	MemberAccounts []string            `json:"member_accounts"`
	PatternType    string              `json:"pattern_type"`
	RiskScore      int                 `json:"risk_score"`
	TotalValue     float64             `json:"total_value"`
	Details        ringDetailsResponse `json:"details"`
}

type ringDetailsResponse struct {
	PathLength     int    `json:"path_length,omitempty"`
	ClusterSize    int    `json:"cluster_size,omitempty"`
	WindowStart    string `json:"window_start,omitempty"`
	WindowEnd      string `json:"window_end,omitempty"`
	Counterparties int    `json:"counterparties,omitempty"`
}

type summaryResponse struct {
	TotalAccountsAnalyzed     int     `json:"total_accounts_analyzed"`
	SuspiciousAccountsFlagged int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected        int     `json:"fraud_rings_detected"`
	TransactionsAnalyzed      int     `json:"transactions_analyzed"`
	ProcessingTimeSeconds     float64 `json:"processing_time_seconds"`
}

type graphDataResponse struct {
	Nodes []graphNodeResponse `json:"nodes"`
	Links []graphLinkResponse `json:"links"`
}

type graphNodeResponse struct {
	ID             string   `json:"id"`
	Val            float64  `json:"val"`
	Color          string   `json:"color"`
	SuspicionScore int      `json:"suspicion_score"`
	Patterns       []string `json:"patterns"`
	Ring           string   `json:"ring"`
}

type graphLinkResponse struct {
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
}

// EncodeReport writes report in the same JSON shape the API returns.
func EncodeReport(w io.Writer, report service.Report, indent bool) error {
	encoder := json.NewEncoder(w)
	if indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(newAnalysisResponse(report))
}

func newAnalysisResponse(report service.Report) analysisResponse {
	result := report.Result
	resp := analysisResponse{
		RunID:              result.RunID,
		SuspiciousAccounts: make([]suspiciousAccountResponse, 0, len(result.Accounts)),
		FraudRings:         make([]fraudRingResponse, 0, len(result.Rings)),
		Summary: summaryResponse{
			TotalAccountsAnalyzed:     result.Summary.AccountsAnalyzed,
			SuspiciousAccountsFlagged: result.Summary.AccountsFlagged,
			FraudRingsDetected:        result.Summary.RingsDetected,
			TransactionsAnalyzed:      result.Summary.TransactionsAnalyzed,
			ProcessingTimeSeconds:     math.Round(result.Summary.ProcessingTime.Seconds()*100) / 100,
		},
	}

	byAccount := make(map[string]suspiciousAccountResponse, len(result.Accounts))
	for _, acc := range result.Accounts {
		item := suspiciousAccountResponse{
			AccountID:        acc.AccountID,
			SuspicionScore:   acc.SuspicionScore,
			DetectedPatterns: patternNames(acc.DetectedPatterns),
			RingID:           strings.Join(acc.RingIDs, ","),
			RingIDs:          acc.RingIDs,
			TotalInflow:      acc.TotalInflow,
			TotalOutflow:     acc.TotalOutflow,
			NetBalance:       acc.NetBalance,
		}
		byAccount[acc.AccountID] = item
		resp.SuspiciousAccounts = append(resp.SuspiciousAccounts, item)
	}

	for _, ring := range result.Rings {
		resp.FraudRings = append(resp.FraudRings, fraudRingResponse{
			RingID:         ring.RingID,
			MemberAccounts: ring.Members,
			PatternType:    string(ring.Pattern),
			RiskScore:      ring.RiskScore,
			TotalValue:     ring.TotalValue,
			Details: ringDetailsResponse{
				PathLength:     ring.Detail.PathLength,
				ClusterSize:    ring.Detail.ClusterSize,
				WindowStart:    formatTimePtr(ring.Detail.WindowStart),
				WindowEnd:      formatTimePtr(ring.Detail.WindowEnd),
				Counterparties: ring.Detail.Counterparties,
			},
		})
	}

	resp.GraphData = newGraphData(report.Transactions, byAccount)
	return resp
}

// newGraphData lists every account in first-seen order and one link per
// transaction.
func newGraphData(txs []domain.Transaction, flagged map[string]suspiciousAccountResponse) graphDataResponse {
	keys := txgraph.Build(txs).Keys()
	data := graphDataResponse{
		Nodes: make([]graphNodeResponse, 0, len(keys)),
		Links: make([]graphLinkResponse, 0, len(txs)),
	}
	for _, key := range keys {
		node := graphNodeResponse{ID: key, Val: 1, Color: colorClean, Patterns: []string{}}
		if acc, ok := flagged[key]; ok {
			node.SuspicionScore = acc.SuspicionScore
			node.Val = 1 + float64(acc.SuspicionScore)/20
			node.Color = nodeColor(acc.SuspicionScore)
			node.Patterns = acc.DetectedPatterns
			node.Ring = acc.RingID
		}
		data.Nodes = append(data.Nodes, node)
	}
	for _, tx := range txs {
		data.Links = append(data.Links, graphLinkResponse{
			Source:        tx.SenderID,
			Target:        tx.ReceiverID,
			TransactionID: tx.ID,
			Amount:        tx.Amount,
		})
	}
	return data
}

func nodeColor(score int) string {
	switch {
	case score > 50:
		return colorHighRisk
	case score > 0:
		return colorFlagged
	default:
		return colorClean
	}
}

func patternNames(patterns []domain.PatternType) []string {
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		names = append(names, string(p))
	}
	return names
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

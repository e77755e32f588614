// Package logs composes read-side views over the agent log store and
// owns the append path for new log entries.
package logs

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/bitgenius/backend/internal/logstore"
	"github.com/bitgenius/backend/internal/traces"
)

// ErrInvalidRange is returned when a range query has start after end.
var ErrInvalidRange = errors.New("logs: invalid range: start must not be after end")

const (
	// Fan-in across partitions is bounded: at most this many agents are
	// consulted, and each contributes overallLimit/fanInDivisor entries.
	maxFanInPartitions = 20
	fanInDivisor       = 10

	// Transactions are a filtered projection, so the fetch window is
	// wider than any caller-facing limit. Truncating before filtering
	// would under-count.
	txFetchWindow = 100

	exportFetchLimit = 1000
)

// Transaction is the transaction-bearing projection of a log entry.
// Amount and fee default to zero when the underlying entry omits them.
type Transaction struct {
	TxID      string `json:"tx_id"`
	Timestamp int64  `json:"timestamp"`
	Amount    int64  `json:"amount"`
	Fee       int64  `json:"fee"`
	Status    string `json:"status"`
	Details   string `json:"details"`
}

// Aggregator merges, sorts, and serializes log records from the store.
// It never retries store failures; log reads are idempotent, so retry
// policy belongs to the transport layer.
type Aggregator struct {
	store logstore.Store
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store logstore.Store) *Aggregator {
	return &Aggregator{store: store}
}

// AgentLogs returns the most recent entries for one agent, newest first.
// Limit bounds are the caller's responsibility.
func (a *Aggregator) AgentLogs(ctx context.Context, agentID int64, limit int) ([]logstore.Entry, error) {
	return a.store.RecentN(ctx, agentID, limit)
}

// LogsByRange returns entries with start <= timestamp <= end, newest
// first. Both bounds are inclusive.
func (a *Aggregator) LogsByRange(ctx context.Context, agentID int64, start, end time.Time) ([]logstore.Entry, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	return a.store.Range(ctx, agentID, start, end)
}

// AllLogs fans in across agent partitions: each of up to
// maxFanInPartitions agents contributes overallLimit/fanInDivisor
// entries, fetched concurrently, then the union is re-sorted globally
// and truncated. The global re-sort is required because the store only
// orders within a partition.
//
// The per-partition quota is integer division, so limits below the
// divisor yield a zero quota and an empty result.
func (a *Aggregator) AllLogs(ctx context.Context, overallLimit int) ([]logstore.Entry, error) {
	if overallLimit <= 0 {
		return []logstore.Entry{}, nil
	}
	perPartition := overallLimit / fanInDivisor
	if perPartition == 0 {
		return []logstore.Entry{}, nil
	}

	ctx, span := traces.StartSpan(ctx, "logs.AllLogs")
	defer span.End()

	partitions, err := a.store.ListPartitions(ctx)
	if err != nil {
		return nil, err
	}
	if len(partitions) > maxFanInPartitions {
		partitions = partitions[:maxFanInPartitions]
	}
	if len(partitions) == 0 {
		return []logstore.Entry{}, nil
	}

	type result struct {
		entries []logstore.Entry
		err     error
	}
	results := make(chan result, len(partitions))
	for _, id := range partitions {
		go func(id int64) {
			entries, err := a.store.RecentN(ctx, id, perPartition)
			results <- result{entries, err}
		}(id)
	}

	// Barrier: every partition fetch must finish before the merge.
	var merged []logstore.Entry
	for range partitions {
		r := <-results
		if err == nil && r.err != nil {
			err = r.err
		}
		merged = append(merged, r.entries...)
	}

	// A caller that went away mid-fan-in gets nothing, not a partial merge.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}

	sortGlobal(merged)
	if len(merged) > overallLimit {
		merged = merged[:overallLimit]
	}
	if merged == nil {
		merged = []logstore.Entry{}
	}
	return merged, nil
}

// Transactions projects the transaction-bearing subset of an agent's
// recent logs. The full fetch window is filtered first and truncated
// after, preserving store order.
func (a *Aggregator) Transactions(ctx context.Context, agentID int64, limit int) ([]Transaction, error) {
	entries, err := a.store.RecentN(ctx, agentID, txFetchWindow)
	if err != nil {
		return nil, err
	}

	txs := []Transaction{}
	for _, e := range entries {
		if !e.HasTransaction() {
			continue
		}
		if len(txs) == limit {
			break
		}
		tx := Transaction{
			TxID:      *e.TransactionID,
			Timestamp: e.Timestamp.Unix(),
			Status:    e.Status,
			Details:   e.Details,
		}
		if e.Amount != nil {
			tx.Amount = *e.Amount
		}
		if e.Fee != nil {
			tx.Fee = *e.Fee
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// exportFetch picks the source query for an export: a range query when
// both bounds are given, the capped recent window otherwise.
func (a *Aggregator) exportFetch(ctx context.Context, agentID int64, start, end *time.Time) ([]logstore.Entry, error) {
	if start != nil && end != nil {
		return a.LogsByRange(ctx, agentID, *start, *end)
	}
	return a.store.RecentN(ctx, agentID, exportFetchLimit)
}

// ExportJSON returns the agent's entries unmodified for JSON export.
func (a *Aggregator) ExportJSON(ctx context.Context, agentID int64, start, end *time.Time) ([]logstore.Entry, error) {
	return a.exportFetch(ctx, agentID, start, end)
}

// ExportCSV renders the agent's entries as CSV with a fixed 7-column
// header. Absent optional fields become empty cells, never "null" or 0.
func (a *Aggregator) ExportCSV(ctx context.Context, agentID int64, start, end *time.Time) ([]byte, error) {
	entries, err := a.exportFetch(ctx, agentID, start, end)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"timestamp", "action", "status", "transaction_id", "amount", "fee", "details"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.Timestamp.Unix(), 10),
			e.Action,
			e.Status,
			"",
			"",
			"",
			e.Details,
		}
		if e.TransactionID != nil {
			row[3] = *e.TransactionID
		}
		if e.Amount != nil {
			row[4] = strconv.FormatInt(*e.Amount, 10)
		}
		if e.Fee != nil {
			row[5] = strconv.FormatInt(*e.Fee, 10)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SuccessRate is the percentage of entries whose outcome is "success".
// An empty input yields 0.0 by policy, not by accident.
func SuccessRate(entries []logstore.Entry) float64 {
	if len(entries) == 0 {
		return 0.0
	}
	var wins int
	for _, e := range entries {
		if e.Status == logstore.StatusSuccess {
			wins++
		}
	}
	return float64(wins) / float64(len(entries)) * 100.0
}

// FilterByAction keeps entries whose action matches exactly.
func FilterByAction(entries []logstore.Entry, action string) []logstore.Entry {
	out := []logstore.Entry{}
	for _, e := range entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// FilterByStatus keeps entries whose outcome status matches exactly.
func FilterByStatus(entries []logstore.Entry, status string) []logstore.Entry {
	out := []logstore.Entry{}
	for _, e := range entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// sortGlobal orders newest first; equal timestamps fall back to
// ascending agent id so fan-in output is deterministic.
func sortGlobal(entries []logstore.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].AgentID < entries[j].AgentID
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

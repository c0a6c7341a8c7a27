// Package journal writes one JSON file per resolved batch so warm runs can be
// audited after the fact.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"smartmoney/pkg/market"
)

// TickerOutcome is the per-ticker line of a BatchRecord.
type TickerOutcome struct {
	Ticker    string  `json:"ticker"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
	Attempts  int     `json:"attempts"`
	Rows      int     `json:"rows"`
	LastClose float64 `json:"last_close,omitempty"`
}

// BatchRecord captures one resolution of a cache key.
type BatchRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Sequence  int             `json:"sequence"`
	Key       string          `json:"key"`
	BatchID   string          `json:"batch_id,omitempty"`
	Cached    bool            `json:"cached"`
	Failed    int             `json:"failed"`
	Tickers   []TickerOutcome `json:"tickers"`
}

// NewBatchRecord summarises records in ticker order.
func NewBatchRecord(key, batchID string, cached bool, records map[string]market.AssetRecord) *BatchRecord {
	rec := &BatchRecord{Key: key, BatchID: batchID, Cached: cached}
	for _, r := range records {
		out := TickerOutcome{
			Ticker:   r.Ticker,
			Status:   r.Status.Code.String(),
			Reason:   r.Status.Reason,
			Attempts: r.Attempts,
			Rows:     len(r.Prices),
		}
		if !r.Status.IsOK() {
			rec.Failed++
		} else if last, ok := r.LastClose(); ok {
			out.LastClose = last
		}
		rec.Tickers = append(rec.Tickers, out)
	}
	sort.Slice(rec.Tickers, func(i, j int) bool { return rec.Tickers[i].Ticker < rec.Tickers[j].Ticker })
	return rec
}

// Writer persists batch records to a directory as JSON files.
type Writer struct {
	dir   string
	mu    sync.Mutex
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer rooted at dir.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "journal"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", dir, err)
	}
	return &Writer{dir: dir, nowFn: time.Now}, nil
}

// WriteBatch writes rec to a timestamped file and returns its path.
func (w *Writer) WriteBatch(rec *BatchRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.Sequence = w.seq
	name := fmt.Sprintf("batch_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("journal: write %s: %w", path, err)
	}
	return path, nil
}

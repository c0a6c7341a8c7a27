package main

import (
	"context"
	"log"
	"time"

	"smartmoney/internal/cli"
	"smartmoney/internal/svc"
	"smartmoney/pkg/journal"
	"smartmoney/pkg/market"
)

// warmer keeps one batch resident in the asset cache by resolving it on a
// schedule. Hits are cheap, so the interval only needs to undercut the TTL.
type warmer struct {
	svcCtx     *svc.ServiceContext
	tickers    []string
	period     market.Period
	interval   market.Interval
	every      time.Duration
	forceFresh bool
	journal    *journal.Writer
}

// run blocks until ctx is cancelled.
func (w *warmer) run(ctx context.Context) {
	every := w.every
	if every <= 0 {
		every = time.Hour
	}
	w.warm(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[warm] Stopping warmer")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

// warm resolves the batch once and logs one line per ticker. It returns the
// number of placeholder records.
func (w *warmer) warm(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	start := time.Now()
	res := w.svcCtx.Assets.Resolve(ctx, w.tickers, w.period, w.interval, w.forceFresh)
	elapsed := time.Since(start)

	source := "fetched"
	if res.Cached {
		source = "cached"
	}
	failed := cli.FailedCount(res.Records)
	log.Printf("[warm] key=%s batch=%s %s failed=%d/%d took %dms",
		res.Key, res.BatchID, source, failed, len(res.Records), elapsed.Milliseconds())
	for _, line := range cli.RecordSummaryLines(res.Records) {
		log.Printf("  - %s", line)
	}
	if w.journal != nil {
		rec := journal.NewBatchRecord(res.Key.String(), res.BatchID, res.Cached, res.Records)
		if path, err := w.journal.WriteBatch(rec); err != nil {
			log.Printf("[warm] [WARN] journal: %v", err)
		} else {
			log.Printf("[warm] journal written to %s", path)
		}
	}
	return failed
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"smartmoney/internal/cli"
	"smartmoney/internal/config"
	"smartmoney/internal/svc"
	"smartmoney/pkg/journal"
	"smartmoney/pkg/market"
)

const shutdownTimeout = 10 * time.Second

var (
	configFile = flag.String("f", "etc/smartmoney.yaml", "the config file")
	tickerList = flag.String("tickers", "", "comma separated tickers; overrides Watch.Tickers")
	once       = flag.Bool("once", false, "resolve one batch, print it and exit")
	fresh      = flag.Bool("fresh", false, "use the short TTL when resolving")
	journalDir = flag.String("journal", "", "directory for per-batch JSON journal files")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	logx.DisableStat()

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] load config: %v", err)
	}
	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	tickers := appCfg.Watch.Tickers
	if strings.TrimSpace(*tickerList) != "" {
		tickers = strings.Split(*tickerList, ",")
	}
	if len(tickers) == 0 {
		log.Fatalf("[main] no tickers: set Watch.Tickers or -tickers")
	}
	period, err := market.ParsePeriod(appCfg.Watch.Period)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	interval, err := market.ParseInterval(appCfg.Watch.Interval)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	svcCtx := svc.NewServiceContext(*appCfg)
	w := &warmer{
		svcCtx:     svcCtx,
		tickers:    tickers,
		period:     period,
		interval:   interval,
		every:      appCfg.Watch.Every,
		forceFresh: appCfg.Watch.ForceFresh || *fresh,
	}
	if *journalDir != "" {
		if w.journal, err = journal.NewWriter(*journalDir); err != nil {
			log.Fatalf("[main] %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if failed := w.warm(ctx); failed > 0 {
			os.Exit(1)
		}
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run(ctx)
	}()
	log.Printf("[main] Warmer started for %d tickers every %s. Press Ctrl+C to stop.", len(tickers), w.every)

	<-ctx.Done()
	log.Println("[main] Shutdown signal received, waiting for the current batch...")
	select {
	case <-done:
		log.Println("[main] Warmer stopped cleanly")
	case <-time.After(shutdownTimeout):
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}
}

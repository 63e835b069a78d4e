// Command backfill seeds a broker's candle history into storage ahead of a
// first run, adapted from tools/backfill_bridge.go: that tool fetched the
// bridge's /candles and wrote a CSV for the backtester; this one fetches
// through the same HTTPAdapter the live service uses and upserts straight
// into the candles table via storage's idempotent OHLCV upsert
// (Store.UpsertCandles), so a
// freshly deployed broker doesn't start its first analysis cycle cold.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/chidi150c/divergence-trader/internal/broker"
	"github.com/chidi150c/divergence-trader/internal/config"
	"github.com/chidi150c/divergence-trader/internal/storage"
	"github.com/chidi150c/divergence-trader/internal/types"
)

func main() {
	var (
		brokerID = flag.String("broker", "", "Broker id from Brokers config (default: DEFAULT_BROKER_ID)")
		symbol   = flag.String("symbol", "BTC-USD", "Symbol to backfill")
		tf       = flag.String("timeframe", "1h", "Timeframe to backfill")
		limit    = flag.Int("limit", 300, "Candles to fetch")
	)
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.FromEnv()
	if *brokerID == "" {
		*brokerID = cfg.DefaultBrokerID
	}
	bc, ok := cfg.Brokers[*brokerID]
	if !ok {
		log.Fatalf("backfill: unknown broker %q", *brokerID)
	}

	sourceURL := bc.BridgeURL
	if sourceURL == "" {
		sourceURL = bc.BaseURL
	}
	if sourceURL == "" {
		log.Fatalf("backfill: broker %q has no BridgeURL or BaseURL to fetch from", *brokerID)
	}

	store, err := storage.New(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}
	defer store.Close()

	limiter := broker.NewRateLimiter(time.Second, map[string]int{"historical": 2})
	adapter := broker.NewHTTPAdapter(*brokerID, sourceURL, limiter, nil)
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	candles, err := adapter.FetchOHLCV(ctx, *symbol, types.Timeframe(*tf), *limit)
	if err != nil {
		log.Fatalf("fetch ohlcv %s/%s: %v", *symbol, *tf, err)
	}
	if len(candles) == 0 {
		log.Fatalf("backfill: no candles returned for %s/%s", *symbol, *tf)
	}

	if err := store.UpsertCandles(*symbol, types.Timeframe(*tf), candles); err != nil {
		log.Fatalf("upsert candles: %v", err)
	}
	fmt.Printf("backfilled %d candles for %s %s/%s\n", len(candles), *brokerID, *symbol, *tf)
}

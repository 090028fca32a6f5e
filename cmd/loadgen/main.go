// cmd/loadgen/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"reservio/internal/clients"
	"reservio/internal/inventory"
	"reservio/internal/reservation"
)

// loadgen storms a running reservio instance with concurrent reserve
// calls against a single resource and verifies that exactly one caller
// wins. It exercises the same race the engine guards against, but over
// the real HTTP surface.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	baseURL := getEnv("RESERVIO_URL", "http://localhost:8080") + "/api/v1"
	callers, err := strconv.Atoi(getEnv("LOADGEN_CALLERS", "50"))
	if err != nil || callers < 2 {
		logger.Fatal("invalid LOADGEN_CALLERS")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	inv := clients.NewInventoryClient(baseURL)
	rsv := clients.NewReservationClient(baseURL)

	pool := fmt.Sprintf("loadgen-%d", time.Now().UnixNano())
	if err := inv.AddPool(ctx, inventory.PoolSpec{ID: pool}); err != nil {
		logger.Fatal("failed to create pool", zap.Error(err))
	}
	res, err := inv.AddResource(ctx, pool, "loadgen", 1000, 1)
	if err != nil {
		logger.Fatal("failed to create resource", zap.Error(err))
	}
	logger.Info("target ready",
		zap.String("pool", pool),
		zap.String("resource_id", res.ID.String()),
		zap.Int("callers", callers),
	)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []*reservation.Reservation
	losers := 0

	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			out, err := rsv.Reserve(ctx, inventory.Criteria{Pool: pool}, fmt.Sprintf("loadgen-holder-%d", n), "cash")
			mu.Lock()
			defer mu.Unlock()
			if err == nil && out.Status == reservation.StatusConfirmed {
				winners = append(winners, out)
			} else {
				losers++
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	logger.Info("storm complete",
		zap.Int("winners", len(winners)),
		zap.Int("losers", losers),
		zap.Duration("elapsed", elapsed),
	)

	if len(winners) != 1 {
		logger.Fatal("double booking detected", zap.Int("winners", len(winners)))
	}

	// Release the resource and confirm it comes back on the market.
	if err := rsv.Cancel(ctx, winners[0].ID, "loadgen"); err != nil {
		logger.Fatal("failed to cancel winning reservation", zap.Error(err))
	}
	remaining, err := inv.Find(ctx, inventory.Criteria{Pool: pool})
	if err != nil {
		logger.Fatal("failed to re-query pool", zap.Error(err))
	}
	if len(remaining) != 1 {
		logger.Fatal("resource not released after cancel", zap.Int("candidates", len(remaining)))
	}

	logger.Info("invariant held: exactly one winner, resource released after cancel")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

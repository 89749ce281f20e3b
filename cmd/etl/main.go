// etl runs the orders pipeline once, on a schedule, or prepares its database.
//
// Usage:
//
//	go run ./cmd/etl run            # full run: extract, transform, load, summarize
//	go run ./cmd/etl incremental    # refresh sales_summary only
//	go run ./cmd/etl schedule       # daily full run + hourly incremental, ops HTTP on OPS_ADDR
//	go run ./cmd/etl migrate
//	go run ./cmd/etl generate --out data/raw
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package signal standardizes payloads shared between data ingestion and the strategy engine.
package signal

import "time"

// Tick is one price observation for the monitored instrument.
type Tick struct {
	Symbol string
	Price  float64
	Ts     time.Time
}

package routing

import (
	"crypto/rand"
	"time"
)

// Metadata travels with a trip through admission, the queue and the result
// store. ReceiptHandle is set only after a queue poll and is used exclusively
// to acknowledge the queue message.
type Metadata struct {
	ID            string    `json:"id"`
	Region        string    `json:"region"`
	AccountID     string    `json:"accountid"`
	ReceiptHandle string    `json:"receipthandle,omitempty"`
	CreatedAt     time.Time `json:"createdat"`
}

// Promise is the async handoff returned to the client after enqueue.
type Promise struct {
	ID          string    `json:"id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	ExpectedAt  time.Time `json:"expected_at"`
}

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// SyncTripID mints an id for a synchronous trip. The "s_" prefix keeps the
// space disjoint from queue-assigned ids.
func SyncTripID() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	out := make([]byte, 0, 18)
	out = append(out, 's', '_')
	for _, b := range buf {
		out = append(out, idAlphabet[int(b)%len(idAlphabet)])
	}
	return string(out)
}

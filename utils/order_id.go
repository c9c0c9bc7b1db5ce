package utils

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	orderMu    sync.Mutex
	seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenerateOrderID returns an id like ORD1756351200123483920. The millisecond
// prefix keeps ids roughly sortable; the random suffix disambiguates bursts
// within the same millisecond.
func GenerateOrderID() string {
	orderMu.Lock()
	defer orderMu.Unlock()
	return fmt.Sprintf("ORD%d%06d", time.Now().UnixMilli(), seededRand.Intn(1000000))
}

// GenerateInternalID is used for wallet entries that have no gateway order
// behind them (check-ins, payouts, commissions).
func GenerateInternalID(prefix string, userID uint) string {
	orderMu.Lock()
	defer orderMu.Unlock()
	return fmt.Sprintf("%s%d%03d%d", prefix, time.Now().UnixMilli(), seededRand.Intn(1000), userID)
}

package models

import (
	"sync/atomic"
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/reasonableperson/etrial-manager/batch"
)

var batchRegistry atomic.Pointer[ttlworker.Cache[string, *batch.Batch]]

func init() {
	InitBatchRegistry(60 * time.Minute)
}

// InitBatchRegistry replaces the registry with one keeping batches for ttl.
func InitBatchRegistry(ttl time.Duration) {
	batchRegistry.Store(ttlworker.NewCache[string, *batch.Batch](ttl))
}

// RegisterBatch makes a batch reachable by id for status and cancel requests.
func RegisterBatch(b *batch.Batch) {
	batchRegistry.Load().Set(b.ID(), b)
}

// LookupBatch returns a live or recently completed batch.
func LookupBatch(id string) (*batch.Batch, bool) {
	b := batchRegistry.Load().Get(id)
	return b, b != nil
}

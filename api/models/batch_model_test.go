package models

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/reasonableperson/etrial-manager/batch"
)

func TestBatchRegistry(t *testing.T) {
	InitBatchRegistry(time.Minute)
	coordinator := batch.NewCoordinator(nil, batch.Config{})

	var wg sync.WaitGroup
	ids := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := coordinator.StartBatch(context.Background(), nil)
			RegisterBatch(b)
			ids <- b.ID()
		}()
	}
	wg.Wait()
	close(ids)

	var last string
	for id := range ids {
		b, ok := LookupBatch(id)
		if !ok || b.ID() != id {
			t.Fatalf("batch %s not found", id)
		}
		last = id
	}
	if _, ok := LookupBatch("missing"); ok {
		t.Error("unknown id should not be found")
	}

	InitBatchRegistry(time.Minute)
	if _, ok := LookupBatch(last); ok {
		t.Error("a fresh registry should be empty")
	}
}

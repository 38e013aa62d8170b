package kafka

import (
	"sync"
	"testing"
)

func TestGetPartitionLockConcurrent(t *testing.T) {
	c := &Consumer{partLocks: make(map[string]map[int]*sync.Mutex)}

	// A worker pool resolves locks for overlapping (topic, partition)
	// pairs at the same time; the lock maps must stay consistent and the
	// returned mutexes must actually serialize.
	var hits [4]int
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p := i % 4
				pl := c.getPartitionLock("snapshots", p)
				pl.Lock()
				hits[p]++
				pl.Unlock()
				c.getPartitionLock("historic", g)
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, n := range hits {
		total += n
	}
	if total != 8*200 {
		t.Fatalf("expected %d guarded increments, got %d", 8*200, total)
	}
	if got, again := c.getPartitionLock("snapshots", 0), c.getPartitionLock("snapshots", 0); got != again {
		t.Fatalf("same pair resolved to different mutexes")
	}
	if len(c.partLocks["snapshots"]) != 4 {
		t.Fatalf("expected 4 partition locks, got %d", len(c.partLocks["snapshots"]))
	}
}

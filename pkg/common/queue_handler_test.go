package common

import (
	"sync"
	"testing"
	"time"
)

func TestQueueHandlerBatches(t *testing.T) {
	var mu sync.Mutex
	batches := [][]int{}
	q := NewQueueHandler(func(items []int) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, append([]int{}, items...))
	}, 2, time.Hour)
	q.Add(1, 2, 3)
	q.Add(4, 5)
	if q.Len() != 5 {
		t.Errorf("Expected 5 queued items, got %d", q.Len())
	}
	q.Close()
	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 3 || len(batches[0]) != 2 || batches[2][0] != 5 {
		t.Errorf("Expected batches of two, got %v", batches)
	}
	q.Close()
}

func TestQueueHandlerTicks(t *testing.T) {
	processed := make(chan []string, 1)
	q := NewQueueHandler(func(items []string) {
		processed <- items
	}, 10, 10*time.Millisecond)
	defer q.Close()
	q.Add("a")
	select {
	case items := <-processed:
		if len(items) != 1 || items[0] != "a" {
			t.Errorf("Expected [a], got %v", items)
		}
	case <-time.After(time.Second):
		t.Error("Expected queue to be processed on tick")
	}
}

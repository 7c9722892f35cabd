package broadcast

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferKeepsNewest(t *testing.T) {
	buf := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		buf.Push(i)
	}
	assert.Equal(t, []int{5, 4, 3}, buf.Newest())
	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, int64(2), buf.Dropped())
}

func TestAppendCapsAtFifty(t *testing.T) {
	b := New()
	for i := range 60 {
		b.Append("Task", StatusSuccess, fmt.Sprintf("entry %d", i))
	}

	snap := b.Snapshot()
	require.Len(t, snap, DefaultCapacity)
	assert.Equal(t, "entry 59", snap[0].Message)
	assert.Equal(t, "entry 10", snap[len(snap)-1].Message)
	for i := 1; i < len(snap); i++ {
		assert.False(t, snap[i].Timestamp.After(snap[i-1].Timestamp))
	}
}

func TestSubscribeReceivesSnapshotImmediately(t *testing.T) {
	b := New()
	b.Append("System", StatusRunning, "Starting full system scan...")

	var got [][]Entry
	unsub := b.Subscribe(func(s []Entry) { got = append(got, s) })
	defer unsub()

	require.Len(t, got, 1)
	require.Len(t, got[0], 1)
	assert.Equal(t, "System", got[0][0].Task)
}

func TestFanOutAndUnsubscribe(t *testing.T) {
	b := New()

	var mu sync.Mutex
	counts := map[string]int{}
	record := func(name string) Subscriber {
		return func([]Entry) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		}
	}

	unsubA := b.Subscribe(record("a"))
	unsubB := b.Subscribe(record("b"))
	defer unsubB()

	b.Append("Image Scan", StatusWarning, "one")
	unsubA()
	unsubA()
	b.Append("Image Scan", StatusWarning, "two")

	mu.Lock()
	defer mu.Unlock()
	// initial snapshot + deliveries
	assert.Equal(t, 2, counts["a"])
	assert.Equal(t, 3, counts["b"])
}

func TestSubscribersGetIndependentSlices(t *testing.T) {
	b := New()

	var seen []Entry
	unsubA := b.Subscribe(func(s []Entry) {
		if len(s) > 0 {
			s[0].Message = "tampered"
		}
	})
	defer unsubA()
	unsubB := b.Subscribe(func(s []Entry) { seen = s })
	defer unsubB()

	b.Append("Backup", StatusSuccess, "backup complete")

	require.Len(t, seen, 1)
	assert.Equal(t, "backup complete", seen[0].Message)
	assert.Equal(t, "backup complete", b.Snapshot()[0].Message)
}

func TestConcurrentAppend(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 10 {
				b.Append("Task", StatusSuccess, fmt.Sprintf("%d-%d", i, j))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, b.Snapshot(), DefaultCapacity)
	assert.Equal(t, int64(150), b.buf.Dropped())
}

func TestSizeGrowsWithEntries(t *testing.T) {
	b := New()
	empty := b.Size()
	b.Append("Storage", StatusSuccess, "Storage usage is healthy (1%).")
	assert.Greater(t, b.Size(), empty)
}

// Package broadcast keeps the operator-facing automation log: a capped,
// newest-first list of entries with subscriber fan-out.
package broadcast

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultCapacity = 50

type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

type Entry struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber receives the full snapshot, newest first. It is called with
// the broadcast's delivery lock held and must not call Append.
type Subscriber func([]Entry)

type Broadcast struct {
	buf *RingBuffer[Entry]
	now func() time.Time

	// deliver serializes append+notify so subscribers observe snapshots
	// in append order.
	deliver sync.Mutex
	mu      sync.Mutex
	nextID  uint64
	subs    map[uint64]Subscriber
}

type Option func(*Broadcast)

func WithCapacity(n int) Option {
	return func(b *Broadcast) { b.buf = NewRingBuffer[Entry](n) }
}

func WithClock(now func() time.Time) Option {
	return func(b *Broadcast) { b.now = now }
}

func New(opts ...Option) *Broadcast {
	b := &Broadcast{
		buf:  NewRingBuffer[Entry](DefaultCapacity),
		now:  time.Now,
		subs: make(map[uint64]Subscriber),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append records an entry and notifies every subscriber.
func (b *Broadcast) Append(task string, status Status, message string) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		Task:      task,
		Status:    status,
		Message:   message,
		Timestamp: b.now().UTC(),
	}

	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.buf.Push(e)
	snap := b.buf.Newest()
	for _, fn := range b.subscribers() {
		fn(slices.Clone(snap))
	}
	return e
}

// Snapshot returns the current entries, newest first.
func (b *Broadcast) Snapshot() []Entry { return b.buf.Newest() }

// Size is the serialized JSON size of the buffered entries.
func (b *Broadcast) Size() int {
	raw, err := json.Marshal(b.buf.Newest())
	if err != nil {
		return 0
	}
	return len(raw)
}

// Subscribe registers fn, calls it once with the current snapshot, and
// returns a func that removes the subscription. The returned func is safe
// to call more than once.
func (b *Broadcast) Subscribe(fn Subscriber) (unsubscribe func()) {
	b.deliver.Lock()
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	fn(b.buf.Newest())
	b.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Broadcast) subscribers() []Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Subscriber, 0, len(b.subs))
	for _, fn := range b.subs {
		out = append(out, fn)
	}
	return out
}

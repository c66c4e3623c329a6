package dispatch

import (
	"sync/atomic"

	"github.com/1135975331/furnace/emu/log"
)

// QueueCapacity is the number of writes a WriteQueue holds.
const QueueCapacity = 512

// RegWrite is a single register write.
type RegWrite struct {
	Addr uint16
	Val  uint8
}

// WriteQueue is a bounded FIFO of register writes, safe for one producer
// (Dispatch, Tick, Poke) and one consumer (Acquire) running concurrently.
// When full, the newest write is dropped.
type WriteQueue struct {
	buf  [QueueCapacity]RegWrite
	head atomic.Uint32 // next slot to pop, owned by the consumer
	tail atomic.Uint32 // next slot to push, owned by the producer

	dropped     atomic.Uint64
	overflowing atomic.Bool
}

// Push appends w. It returns false if the queue is full and w was dropped.
func (q *WriteQueue) Push(w RegWrite) bool {
	t := q.tail.Load()
	if t-q.head.Load() >= QueueCapacity {
		q.dropped.Add(1)
		if !q.overflowing.Swap(true) {
			log.ModDispatch.WarnZ("register write queue full, dropping writes").
				Hex16("addr", w.Addr).
				Uint8("val", w.Val).
				End()
		}
		return false
	}
	q.buf[t%QueueCapacity] = w
	q.tail.Store(t + 1)
	return true
}

// Pop removes and returns the oldest write.
func (q *WriteQueue) Pop() (RegWrite, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return RegWrite{}, false
	}
	w := q.buf[h%QueueCapacity]
	q.head.Store(h + 1)
	q.overflowing.Store(false)
	return w, true
}

// Len returns the number of queued writes.
func (q *WriteQueue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Dropped returns the number of writes dropped since the queue was created.
func (q *WriteQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Clear empties the queue. Neither side may be running.
func (q *WriteQueue) Clear() {
	q.head.Store(q.tail.Load())
	q.overflowing.Store(false)
}

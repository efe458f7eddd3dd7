package engine

import (
	"hash/fnv"
	"strconv"
	"sync"
)

// stripedMutex provides keyed locking with a fixed number of stripes. Two
// different keys may share a stripe; that only over-serializes, never
// under-serializes. The engine uses one set for position keys and a second
// for instrument keys, acquired strictly in position-then-instrument order,
// so cross-set nesting cannot deadlock.
type stripedMutex struct {
	stripes [64]sync.Mutex
}

func newStripedMutex() *stripedMutex {
	return &stripedMutex{}
}

func (s *stripedMutex) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &s.stripes[h.Sum32()%uint32(len(s.stripes))]
	m.Lock()
	return m.Unlock
}

func positionKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

package storage

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"textot/pkg/clock"
	"textot/pkg/server"
)

const (
	defaultShards         = 64
	defaultScaleThreshold = 1024
)

// Entry is one document with the lock that serialises its edits.
type Entry[S any] struct {
	mu          sync.Mutex
	doc         *server.Document[S]
	lastUpdated clock.Timestamp
}

type shard[S any] struct {
	mu   sync.RWMutex
	data map[string]*Entry[S]
}

func newShard[S any]() *shard[S] {
	return &shard[S]{data: make(map[string]*Entry[S], 16)}
}

// Engine maps document ids to entries across a power-of-two number of
// shards. Shards are allocated on first use and the array doubles once the
// average shard holds more than the scale threshold.
type Engine[S any] struct {
	shards         atomic.Pointer[[]atomic.Pointer[shard[S]]]
	numShards      atomic.Uint32
	growthLock     sync.Mutex
	scaleThreshold int64
	newDoc         func() *server.Document[S]
	log            *slog.Logger

	countDocs atomic.Int64
}

func NewEngine[S any](initialShards, scaleThreshold int, newDoc func() *server.Document[S], logger *slog.Logger) *Engine[S] {
	if initialShards <= 0 || initialShards&(initialShards-1) != 0 {
		initialShards = defaultShards
	}
	if scaleThreshold <= 0 {
		scaleThreshold = defaultScaleThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine[S]{scaleThreshold: int64(scaleThreshold), newDoc: newDoc, log: logger}
	shards := make([]atomic.Pointer[shard[S]], initialShards)
	e.shards.Store(&shards)
	e.numShards.Store(uint32(initialShards))
	return e
}

func (e *Engine[S]) Get(docID string) (*Entry[S], bool) {
	s, _ := e.shardFor(docID)
	s.mu.RLock()
	entry, ok := s.data[docID]
	s.mu.RUnlock()
	return entry, ok
}

// GetOrCreate returns the entry for docID, creating an empty document on
// first access. created reports whether this call created it.
func (e *Engine[S]) GetOrCreate(docID string) (entry *Entry[S], created bool) {
	if entry, ok := e.Get(docID); ok {
		return entry, false
	}

	s := e.lockShardFor(docID)
	if entry, ok := s.data[docID]; ok {
		s.mu.Unlock()
		return entry, false
	}
	entry = &Entry[S]{doc: e.newDoc()}
	s.data[docID] = entry
	s.mu.Unlock()

	total := e.countDocs.Add(1)
	e.log.Info("created document", "doc", docID, "documents", total)
	e.maybeScale(total)
	return entry, true
}

func (e *Engine[S]) Delete(docID string) bool {
	s := e.lockShardFor(docID)
	defer s.mu.Unlock()

	if _, ok := s.data[docID]; !ok {
		return false
	}
	delete(s.data, docID)
	e.countDocs.Add(-1)
	return true
}

func (e *Engine[S]) Len() int       { return int(e.countDocs.Load()) }
func (e *Engine[S]) NumShards() int { return int(e.numShards.Load()) }

// shardFor returns the shard docID lives in and the array it was read from.
func (e *Engine[S]) shardFor(docID string) (*shard[S], *[]atomic.Pointer[shard[S]]) {
	arr := e.shards.Load()
	slot := &(*arr)[hashKey(docID)&uint32(len(*arr)-1)]
	if s := slot.Load(); s != nil {
		return s, arr
	}
	slot.CompareAndSwap(nil, newShard[S]())
	return slot.Load(), arr
}

// lockShardFor write-locks the shard for docID in the current array. Growth
// swaps the array while holding every old shard's lock, so a shard locked
// after a swap is detected and the lookup retried.
func (e *Engine[S]) lockShardFor(docID string) *shard[S] {
	for {
		s, arr := e.shardFor(docID)
		s.mu.Lock()
		if e.shards.Load() == arr {
			return s
		}
		s.mu.Unlock()
	}
}

func (e *Engine[S]) maybeScale(total int64) {
	if total/int64(e.numShards.Load()) > e.scaleThreshold {
		e.growShards()
	}
}

func (e *Engine[S]) growShards() {
	e.growthLock.Lock()
	defer e.growthLock.Unlock()

	current := e.numShards.Load()
	if e.countDocs.Load()/int64(current) <= e.scaleThreshold {
		return
	}

	oldArr := e.shards.Load()
	var locked []*shard[S]
	for i := range *oldArr {
		// Allocating missing shards here keeps writers from slipping into a
		// slot that is not locked.
		slot := &(*oldArr)[i]
		slot.CompareAndSwap(nil, newShard[S]())
		s := slot.Load()
		s.mu.Lock()
		locked = append(locked, s)
	}
	defer func() {
		for _, s := range locked {
			s.mu.Unlock()
		}
	}()

	newCount := current * 2
	newArr := make([]atomic.Pointer[shard[S]], newCount)
	for _, old := range locked {
		for id, entry := range old.data {
			slot := &newArr[hashKey(id)&(newCount-1)]
			if slot.Load() == nil {
				slot.Store(newShard[S]())
			}
			slot.Load().data[id] = entry
		}
	}

	e.shards.Store(&newArr)
	e.numShards.Store(newCount)
	e.log.Info("scaled document shards", "shards", newCount, "documents", e.countDocs.Load())
}

// Package session keeps the uploaded tables between requests.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"sheetsearch/table"
)

var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one uploaded file. Base is never narrowed in place.
type Snapshot struct {
	ID         string
	FileName   string
	FileSize   int64
	UploadTime time.Time
	Base       *table.Table

	seq uint64
}

// Store holds snapshots in memory, evicting expired and excess ones.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	ttl       time.Duration
	max       int
	seq       uint64
	now       func() time.Time
}

func NewStore(ttl time.Duration, limit int) *Store {
	return &Store{
		snapshots: make(map[string]*Snapshot),
		ttl:       ttl,
		max:       limit,
		now:       time.Now,
	}
}

// Put stores base under a fresh id.
func (st *Store) Put(fileName string, fileSize int64, base *table.Table) *Snapshot {
	snap := &Snapshot{
		ID:         uuid.NewString(),
		FileName:   fileName,
		FileSize:   fileSize,
		UploadTime: st.now(),
		Base:       base,
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	st.seq++
	snap.seq = st.seq
	st.snapshots[snap.ID] = snap
	st.evict()
	return snap
}

// Get returns the snapshot for id.
func (st *Store) Get(id string) (*Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrapf(ErrNotFound, "bad id %q", id)
	}

	st.mu.RLock()
	snap, ok := st.snapshots[id]
	st.mu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", id)
	}
	if st.expired(snap) {
		st.mu.Lock()
		delete(st.snapshots, id)
		st.mu.Unlock()
		return nil, errors.Wrapf(ErrNotFound, "%s expired", id)
	}
	return snap, nil
}

// Len is the number of live snapshots.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	n := 0
	for _, snap := range st.snapshots {
		if !st.expired(snap) {
			n++
		}
	}
	return n
}

func (st *Store) expired(snap *Snapshot) bool {
	return st.ttl > 0 && st.now().Sub(snap.UploadTime) > st.ttl
}

// evict drops expired snapshots, then the earliest stored beyond max. Caller holds the lock.
func (st *Store) evict() {
	for id, snap := range st.snapshots {
		if st.expired(snap) {
			delete(st.snapshots, id)
		}
	}
	if len(st.snapshots) <= st.max {
		return
	}

	byAge := make([]*Snapshot, 0, len(st.snapshots))
	for _, snap := range st.snapshots {
		byAge = append(byAge, snap)
	}
	sort.Slice(byAge, func(i, j int) bool {
		return byAge[i].seq < byAge[j].seq
	})
	for _, snap := range byAge[:len(byAge)-st.max] {
		delete(st.snapshots, snap.ID)
	}
}

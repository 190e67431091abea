// Package memstore is an in-process implementation of the store contracts.
// One mutex guards every table, so each method behaves like a single-row
// statement against Postgres. Values are copied on the way in and out.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"threadline/internal/models"
)

// DB holds all tables.
type DB struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[uuid.UUID]*models.User
	topics   map[uuid.UUID]*models.Topic
	flows    map[uuid.UUID]*models.Flow
	posts    map[uuid.UUID]*models.Post
	contacts map[uuid.UUID]*models.ContactMessage
	seq      int64
}

// New creates an empty database.
func New() *DB {
	return &DB{
		now:      time.Now,
		users:    make(map[uuid.UUID]*models.User),
		topics:   make(map[uuid.UUID]*models.Topic),
		flows:    make(map[uuid.UUID]*models.Flow),
		posts:    make(map[uuid.UUID]*models.Post),
		contacts: make(map[uuid.UUID]*models.ContactMessage),
	}
}

// stamp returns a creation time strictly after the previous one, so that
// newest-first ordering is deterministic even within one clock tick.
// Caller holds the write lock.
func (db *DB) stamp() time.Time {
	db.seq++
	return db.now().UTC().Add(time.Duration(db.seq) * time.Microsecond)
}

// paginate returns the [offset, offset+limit) window of items.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// newestFirst sorts by creation time descending, then id.
func newestFirst[T any](items []T, createdAt func(T) time.Time, id func(T) uuid.UUID) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := createdAt(items[i]), createdAt(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]).String() > id(items[j]).String()
	})
}

func ptrCopy[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

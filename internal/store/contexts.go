// Package store keeps per-user conversation state in memory.
package store

import (
	"sync"
	"time"

	"assistant/internal/model"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const lockStripes = 256

// ContextStore is a bounded in-memory map from user id to conversation
// context. Least recently updated users are evicted past capacity and
// idle users expire after the TTL.
//
// Updates for one user are serialized: the lock is held from read to
// write, so concurrent turns never lose each other's fields.
type ContextStore struct {
	locks [lockStripes]sync.Mutex
	cache *expirable.LRU[string, model.ConversationContext]
	now   func() time.Time
}

// NewContextStore creates a store holding at most maxUsers contexts.
// A ttl of zero disables expiry.
func NewContextStore(maxUsers int, ttl time.Duration) *ContextStore {
	if maxUsers < 1 {
		maxUsers = 1
	}
	return &ContextStore{
		cache: expirable.NewLRU[string, model.ConversationContext](maxUsers, nil, ttl),
		now:   time.Now,
	}
}

// Get returns a copy of the user's context without refreshing its TTL
func (s *ContextStore) Get(userID string) (model.ConversationContext, bool) {
	c, ok := s.cache.Peek(userID)
	if !ok {
		return model.ConversationContext{}, false
	}
	return c.Clone(), true
}

// Update applies fn to a copy of the user's context and stores the result.
// If fn returns an error or panics, the stored context is left unchanged.
func (s *ContextStore) Update(userID string, fn func(model.ConversationContext) (model.ConversationContext, error)) (model.ConversationContext, error) {
	l := &s.locks[xxhash.Sum64String(userID)%lockStripes]
	l.Lock()
	defer l.Unlock()

	current, _ := s.cache.Get(userID)
	next, err := fn(current.Clone())
	if err != nil {
		return current.Clone(), err
	}

	next.UpdatedAt = s.now().UTC()
	s.cache.Add(userID, next)
	return next.Clone(), nil
}

// Len returns the number of live contexts
func (s *ContextStore) Len() int {
	return s.cache.Len()
}

package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"assistant/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func setBedrooms(n int) func(model.ConversationContext) (model.ConversationContext, error) {
	return func(c model.ConversationContext) (model.ConversationContext, error) {
		return c.Merge(model.EntitySet{Bedrooms: &n}), nil
	}
}

func TestContextStore_UpdateAndGet(t *testing.T) {
	s := NewContextStore(10, time.Hour)

	_, ok := s.Get("u1")
	assert.False(t, ok)

	got, err := s.Update("u1", setBedrooms(2))
	require.NoError(t, err)
	assert.Equal(t, 2, *got.Bedrooms)
	assert.False(t, got.UpdatedAt.IsZero())

	stored, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, 2, *stored.Bedrooms)
	assert.Equal(t, 1, s.Len())

	// Mutating a returned copy must not leak into the store
	*stored.Bedrooms = 9
	again, _ := s.Get("u1")
	assert.Equal(t, 2, *again.Bedrooms)
}

func TestContextStore_FailedUpdateLeavesStateUntouched(t *testing.T) {
	s := NewContextStore(10, time.Hour)
	_, err := s.Update("u1", setBedrooms(2))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update("u1", func(c model.ConversationContext) (model.ConversationContext, error) {
		n := 5
		c.Bedrooms = &n
		return c, boom
	})
	assert.ErrorIs(t, err, boom)

	stored, _ := s.Get("u1")
	assert.Equal(t, 2, *stored.Bedrooms)
}

func TestContextStore_PanicLeavesStateUntouched(t *testing.T) {
	s := NewContextStore(10, time.Hour)
	_, err := s.Update("u1", setBedrooms(2))
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = s.Update("u1", func(c model.ConversationContext) (model.ConversationContext, error) {
			*c.Bedrooms = 7
			panic("fault mid-turn")
		})
	})

	stored, _ := s.Get("u1")
	assert.Equal(t, 2, *stored.Bedrooms)

	// The user's lock was released by the panic
	_, err = s.Update("u1", setBedrooms(3))
	require.NoError(t, err)
}

func TestContextStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewContextStore(2, 0)

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Update(id, setBedrooms(1))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("a")
	assert.False(t, ok)
	_, ok = s.Get("c")
	assert.True(t, ok)
}

func TestContextStore_Expires(t *testing.T) {
	s := NewContextStore(10, 50*time.Millisecond)
	_, err := s.Update("u1", setBedrooms(1))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := s.Get("u1")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	got, err := s.Update("u1", func(c model.ConversationContext) (model.ConversationContext, error) {
		assert.Nil(t, c.Bedrooms, "expired context starts fresh")
		return c, nil
	})
	require.NoError(t, err)
	assert.Nil(t, got.Bedrooms)
}

func TestContextStore_ConcurrentUpdatesSameUser(t *testing.T) {
	s := NewContextStore(100, time.Hour)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update("shared", func(c model.ConversationContext) (model.ConversationContext, error) {
				c.Turns++
				return c, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, ok := s.Get("shared")
	require.True(t, ok)
	assert.Equal(t, turns, got.Turns)
}

func TestContextStore_ConcurrentUsersAreIndependent(t *testing.T) {
	s := NewContextStore(1000, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(fmt.Sprintf("user-%d", i), setBedrooms(i%20+1))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, s.Len())
	for i := 0; i < 100; i++ {
		got, ok := s.Get(fmt.Sprintf("user-%d", i))
		require.True(t, ok)
		assert.Equal(t, i%20+1, *got.Bedrooms)
	}
}

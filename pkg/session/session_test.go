package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_GetOrCreateID(t *testing.T) {
	sess := NewContext()

	_, ok := sess.ID()
	assert.False(t, ok)

	first := sess.GetOrCreateID()
	second := sess.GetOrCreateID()
	assert.Equal(t, first, second)

	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())

	id, ok := sess.ID()
	assert.True(t, ok)
	assert.Equal(t, first, id)
}

func TestContext_IndependentLifetimesDiffer(t *testing.T) {
	a := NewContext().GetOrCreateID()
	b := NewContext().GetOrCreateID()
	assert.NotEqual(t, a, b)
}

func TestContext_ConcurrentCreationYieldsOneID(t *testing.T) {
	calls := 0
	sess := NewContext(WithIDGenerator(func() string {
		calls++
		return "fixed-id"
	}))

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = sess.GetOrCreateID()
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, "fixed-id", id)
	}
	assert.Equal(t, 1, calls)
}

func TestWithIDGenerator_NilKeepsDefault(t *testing.T) {
	sess := NewContext(WithIDGenerator(nil))
	_, err := uuid.Parse(sess.GetOrCreateID())
	assert.NoError(t, err)
}

func TestContext_EmptyGeneratedIDIsKept(t *testing.T) {
	calls := 0
	sess := NewContext(WithIDGenerator(func() string {
		calls++
		if calls == 1 {
			return ""
		}
		return "x"
	}))

	assert.Equal(t, "", sess.GetOrCreateID())
	assert.Equal(t, "", sess.GetOrCreateID())
	assert.Equal(t, 1, calls)

	id, ok := sess.ID()
	assert.True(t, ok)
	assert.Empty(t, id)
}

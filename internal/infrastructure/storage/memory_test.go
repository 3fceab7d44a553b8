package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sorashop/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Put(ctx, "product-1-0.jpg", []byte("image-bytes"), "image/jpeg")
	require.NoError(t, err)

	data, contentType, err := store.Get(ctx, "product-1-0.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, _, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestMemoryStore_PutCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	src := []byte("original")
	require.NoError(t, store.Put(ctx, "k", src, "image/jpeg"))
	src[0] = 'X'

	data, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), data)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n)
			_ = store.Put(ctx, key, []byte{byte(n)}, "image/jpeg")
			_, _, _ = store.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, store.Len())
}

package namespace

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadSafeRegistry_ConcurrentGeneration(t *testing.T) {
	reg := NewThreadSafeRegistry(NewSimpleRegistry())

	const workers = 16
	uris := []string{"http://a", "http://b", "http://c"}
	results := make([][]string, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, uri := range uris {
				prefix, ok := reg.PrefixForNamespaceURI(uri, true)
				if ok {
					results[w] = append(results[w], prefix)
				}
			}
			_ = reg.Namespaces()
		}(w)
	}
	wg.Wait()

	// Every worker observed the same prefix for each uri.
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}
	assert.Len(t, results[0], len(uris))
}

func TestThreadSafeRegistry_ConcurrentRegister(t *testing.T) {
	reg := NewThreadSafeRegistry(NewSimpleRegistry(WithoutWellKnown()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := reg.Register(fmt.Sprintf("p%d", i), fmt.Sprintf("http://u/%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.RegisteredNamespaceURIs(), 51) // plus the default
}

func TestThreadSafeRegistry_WrapIsIdempotent(t *testing.T) {
	inner := NewThreadSafeRegistry(NewSimpleRegistry())
	assert.Same(t, inner, NewThreadSafeRegistry(inner))

	err := inner.WithLock(func(r Registry) error {
		_, err := r.Register("x", "http://x")
		return err
	})
	require.NoError(t, err)
	assert.True(t, inner.IsRegisteredNamespaceURI("http://x"))
}

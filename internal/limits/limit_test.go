package limits

import (
	"errors"
	"sync"
	"testing"

	"github.com/INLOpen/mergetree/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuota(t *testing.T) {
	q := NewQuota(100)

	require.NoError(t, q.Reserve(60))
	err := q.Reserve(50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMemoryLimitExceeded))
	assert.Contains(t, err.Error(), "maximum: 100")
	assert.Equal(t, int64(60), q.Used(), "failed reservation must not be charged")

	q.Release(60)
	require.NoError(t, q.Reserve(100))
	assert.Equal(t, int64(100), q.Peak())

	q.Release(1000)
	assert.Equal(t, int64(0), q.Used())
}

func TestUnlimitedQuota(t *testing.T) {
	q := UnlimitedQuota()
	require.NoError(t, q.Reserve(1<<50))
	assert.Equal(t, int64(0), q.Limit())
}

func TestQuotaConcurrent(t *testing.T) {
	q := NewQuota(1 << 20)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if q.Reserve(64) == nil {
					q.Release(64)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(0), q.Used())
}

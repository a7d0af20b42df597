package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrCacheCorrupt, "reading entry a1b2c3")
	require.NotNil(t, err)

	assert.True(t, Is(err, ErrCacheCorrupt))
	assert.Contains(t, err.Error(), "reading entry a1b2c3")
	assert.Contains(t, err.Error(), "cache entry corrupt")
}

func TestIsCacheCorruptError(t *testing.T) {
	assert.False(t, IsCacheCorruptError(nil))
	assert.False(t, IsCacheCorruptError(New("unrelated")))
	assert.True(t, IsCacheCorruptError(Wrap(ErrCacheCorrupt, "context")))
}

func TestIsExtractionError(t *testing.T) {
	assert.False(t, IsExtractionError(nil))
	assert.True(t, IsExtractionError(Wrapf(ErrExtractionFailed, "after %d retries", 3)))
	assert.False(t, IsExtractionError(ErrGeneratorFailed))
}

func TestWrapGeneratorFailure(t *testing.T) {
	cause := New("template render blew up")
	err := WrapGeneratorFailure(cause, "client")

	assert.True(t, Is(err, ErrGeneratorFailed))
	assert.Contains(t, err.Error(), `generator "client"`)
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrExtractionFailed,
		ErrCacheCorrupt,
		ErrCacheWriteFailed,
		ErrValidationFailed,
		ErrGeneratorFailed,
		ErrSyncInProgress,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "sentinel %d should not match sentinel %d", i, j)
		}
	}
}

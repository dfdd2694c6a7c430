package ratelimit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/drtvd/ratelimit"
)

func TestClampConcurrency(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ratelimit.ClampConcurrency(-3))
	assert.Equal(t, 1, ratelimit.ClampConcurrency(0))
	assert.Equal(t, 5, ratelimit.ClampConcurrency(5))
	assert.Equal(t, ratelimit.MaxDownloadConcurrency, ratelimit.ClampConcurrency(1000))
	assert.Equal(t, ratelimit.EpisodeDownloadConcurrency, ratelimit.ClampConcurrency(ratelimit.EpisodeDownloadConcurrency))
}

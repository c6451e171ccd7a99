package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

func TestListingKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "econ:stats:0:percentage_sum:10", listingKey(0, models.MetricPercentageSum, 10))
	assert.Equal(t, "econ:stats:7:percentage_non_zero:0", listingKey(7, models.MetricPercentageNonZero, 0))
}

func TestNewRedisClient_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

// Runs only when TEST_REDIS_URL points at a disposable Redis instance
func TestStatsCache_RoundTrip(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := NewStatsCache(client, time.Minute)

	require.NoError(t, c.InvalidateStats(ctx))
	_, gen, ok, err := c.GetStats(ctx, models.MetricPercentageSum, 3)
	require.NoError(t, err)
	require.False(t, ok)

	values := []models.OccupationStatValue{{Title: "Baker", TitleCN: "面包师", Value: 30}}
	require.NoError(t, c.SetStats(ctx, gen, models.MetricPercentageSum, 3, values))

	got, hitGen, ok, err := c.GetStats(ctx, models.MetricPercentageSum, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, gen, hitGen)
	assert.Equal(t, values, got)

	require.NoError(t, c.InvalidateStats(ctx))
	_, _, ok, err = c.GetStats(ctx, models.MetricPercentageSum, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

// A listing read before a rebuild and written after it must stay invisible
func TestStatsCache_WriteUnderRetiredGeneration(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := NewStatsCache(client, time.Minute)

	_, gen, ok, err := c.GetStats(ctx, models.MetricPercentageNonZero, 4)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.InvalidateStats(ctx))
	stale := []models.OccupationStatValue{{Title: "Baker", Value: 1}}
	require.NoError(t, c.SetStats(ctx, gen, models.MetricPercentageNonZero, 4, stale))

	_, _, ok, err = c.GetStats(ctx, models.MetricPercentageNonZero, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var dest int64
	err := repo.Get(ctx, "summary-gen:A:math", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	require.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	v, err := repo.Incr(ctx, "summary-gen:A:math")
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.NoError(t, repo.DeleteByPattern(ctx, "summary:A:math:*"))
	assert.NoError(t, repo.Close())
}

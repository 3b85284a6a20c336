package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	var dest map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "dash:occupancy:h1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "dash:occupancy:h1", map[string]int{"rooms": 3}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "dash:occupancy:*"))
	assert.NoError(t, repo.Close())
}

func TestCacheKeyNamespace(t *testing.T) {
	assert.Equal(t, "hostel:dash:occupancy:all", cacheKey("dash:occupancy:all"))
	assert.Equal(t, "hostel:dash:occupancy:*", cacheKey("dash:occupancy:*"))
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/pc-discussion-scheduler/pkg/errors"
)

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "pcsched:schedule:run:1", NewCacheRepository(nil, "pcsched:", nil).key("schedule:run:1"))
	assert.Equal(t, "schedule:run:1", NewCacheRepository(nil, "", nil).key("schedule:run:1"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "pcsched", nil)
	ctx := context.Background()

	var dest map[string]string
	assert.True(t, errors.Is(repo.Get(ctx, "schedule:run:1", &dest), appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "schedule:run:1", map[string]string{"id": "1"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "schedule:runs:list:*"))
}

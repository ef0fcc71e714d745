package service

import (
	"context"
	"testing"
	"time"

	"reviewrota/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolJoinAndRejoin(t *testing.T) {
	directory := newMemDirectory()
	pool := NewPoolService(directory, testLogger())

	reviewer, err := pool.Join(context.Background(), "r1", []string{"go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, reviewer.Languages)
	assert.Nil(t, reviewer.LastReviewedAt)

	// rejoin replaces languages but keeps rotation position
	reviewed := time.Now()
	require.NoError(t, directory.TouchLastReviewed(context.Background(), "r1", reviewed))

	reviewer, err = pool.Join(context.Background(), "r1", []string{"go", "rust"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, reviewer.Languages)
	require.NotNil(t, reviewer.LastReviewedAt)
	assert.True(t, reviewer.LastReviewedAt.Equal(reviewed))
}

func TestPoolJoinValidation(t *testing.T) {
	pool := NewPoolService(newMemDirectory(), testLogger())

	_, err := pool.Join(context.Background(), "", []string{"go"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = pool.Join(context.Background(), "r1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestPoolLeaveUnknownReviewer(t *testing.T) {
	pool := NewPoolService(newMemDirectory(), testLogger())

	err := pool.Leave(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrReviewerNotFound)
}

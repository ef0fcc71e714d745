package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reviewrota/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSweeper(rig *testRig) *Sweeper {
	return NewSweeper(rig.store, rig.engine, rig.reporter, time.Minute, testLogger())
}

func storeReview(t *testing.T, rig *testRig, id string, needed int, pending ...domain.PendingSlot) {
	t.Helper()
	require.NoError(t, rig.store.Create(context.Background(), &domain.ReviewRequest{
		ID:          id,
		RequestorID: "author",
		Languages:   []string{"go"},
		RequestedAt: time.Now().Add(-time.Hour),
		DueBy:       domain.DueByNone,
		NeededCount: needed,
		Pending:     pending,
	}))
}

func TestSweepExpiryBoundary(t *testing.T) {
	rig := newTestRig()
	sweeper := newTestSweeper(rig)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return now }

	storeReview(t, rig, "thread-1", 2,
		domain.PendingSlot{ReviewerID: "on-the-dot", ExpiresAt: now, NotificationHandle: "h1"},
		domain.PendingSlot{ReviewerID: "past-due", ExpiresAt: now.Add(-time.Second), NotificationHandle: "h2"},
	)

	sweeper.SweepOnce(context.Background())

	req := rig.store.get("thread-1")
	require.NotNil(t, req)
	require.Len(t, req.Pending, 1)
	assert.Equal(t, "on-the-dot", req.Pending[0].ReviewerID, "a slot expiring exactly now is not yet expired")
	require.Len(t, req.Declined, 1)
	assert.Equal(t, "past-due", req.Declined[0].ReviewerID)
	assert.Contains(t, rig.notifier.updates["past-due"], msgExpired)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	rig := newTestRig()
	sweeper := newTestSweeper(rig)

	now := time.Now()
	expired := domain.PendingSlot{ReviewerID: "r1", ExpiresAt: now.Add(-time.Minute), NotificationHandle: "h"}
	storeReview(t, rig, "thread-a", 1, expired)
	storeReview(t, rig, "thread-b", 1,
		domain.PendingSlot{ReviewerID: "r2", ExpiresAt: now.Add(-time.Minute), NotificationHandle: "h"},
	)

	// thread-a's backend blows up on the fresh re-fetch
	rig.store.failGet["thread-a"] = errors.New("backend unavailable")

	sweeper.SweepOnce(context.Background())

	// expiring thread-b's only slot left it unfulfillable, so it closed
	assert.Nil(t, rig.store.get("thread-b"), "thread-b must still be swept")
	assert.Contains(t, rig.notifier.posts("thread-b"), threadUnfulfillableMessage(0, 1))
	assert.GreaterOrEqual(t, rig.reporter.count(), 1, "thread-a failure must reach the operator channel")
}

func TestSweepIgnoresFutureDeadlines(t *testing.T) {
	rig := newTestRig()
	sweeper := newTestSweeper(rig)

	storeReview(t, rig, "thread-1", 1,
		domain.PendingSlot{ReviewerID: "r1", ExpiresAt: time.Now().Add(time.Hour), NotificationHandle: "h"},
	)

	sweeper.SweepOnce(context.Background())

	req := rig.store.get("thread-1")
	require.NotNil(t, req)
	assert.Len(t, req.Pending, 1)
	assert.Empty(t, req.Declined)
}

func TestSweepListFailureIsReported(t *testing.T) {
	rig := newTestRig()
	sweeper := newTestSweeper(rig)

	rig.store.failList = errors.New("listing failed")

	sweeper.SweepOnce(context.Background())

	assert.Equal(t, 1, rig.reporter.count())
}

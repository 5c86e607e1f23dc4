package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/pairhabit/nudged/internal/models"
	"github.com/pairhabit/nudged/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestStore_GetMissingEntry(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	entry, err := store.Get(context.Background(), "bob", "c1:30:alice:bob")
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestStore_RecordSendCreatesLazily(t *testing.T) {
	conn := testutil.OpenTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	require.NoError(t, store.RecordSend(ctx, "bob", "c1:30:alice:bob", ClassAuto, today, baseTime))

	entry, err := store.Get(ctx, "bob", "c1:30:alice:bob")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, today, entry.AutoSentDayKey)

	var count int64
	require.NoError(t, conn.Model(&models.NudgeRateState{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestStore_RecordSendUpdatesInPlace(t *testing.T) {
	conn := testutil.OpenTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	require.NoError(t, store.RecordSend(ctx, "bob", "c1:30:alice:bob", ClassManual, today, baseTime))
	require.NoError(t, store.RecordSend(ctx, "bob", "c1:30:alice:bob", ClassManual, today, baseTime.Add(ManualCooldown)))

	entry, err := store.Get(ctx, "bob", "c1:30:alice:bob")
	require.NoError(t, err)
	require.Equal(t, 2, entry.ManualCount)
	require.Equal(t, today, entry.ManualCountDayKey)

	var count int64
	require.NoError(t, conn.Model(&models.NudgeRateState{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestStore_EntriesIsolatedPerPairAndRecipient(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.RecordSend(ctx, "bob", "c1:30:alice:bob", ClassAuto, today, baseTime))
	require.NoError(t, store.RecordSend(ctx, "bob", "c2:21:alice:bob", ClassManual, today, baseTime))

	auto, err := store.Get(ctx, "bob", "c1:30:alice:bob")
	require.NoError(t, err)
	require.Equal(t, today, auto.AutoSentDayKey)
	require.Zero(t, auto.ManualCount)

	manual, err := store.Get(ctx, "bob", "c2:21:alice:bob")
	require.NoError(t, err)
	require.Empty(t, manual.AutoSentDayKey)
	require.Equal(t, 1, manual.ManualCount)

	other, err := store.Get(ctx, "alice", "c1:30:alice:bob")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestManager_EvaluateAndCommitRoundTrip(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	now := baseTime
	mgr := NewManager(store, nil, func() time.Time { return now }, nil)
	ctx := context.Background()

	d, err := mgr.Evaluate(ctx, "bob", "c1:30:alice:bob", ClassAuto, today)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	require.NoError(t, mgr.CommitSend(ctx, "bob", "c1:30:alice:bob", ClassAuto, today))

	d, err = mgr.Evaluate(ctx, "bob", "c1:30:alice:bob", ClassAuto, today)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, ReasonAutoAlreadySent, d.Reason)
}

func TestManager_ReserveWithoutRedisAllows(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	mgr := NewManager(store, nil, func() time.Time { return baseTime }, nil)
	d := mgr.Reserve(context.Background(), "c1:30:alice:bob", ClassManual, today)
	require.True(t, d.Allowed)
}

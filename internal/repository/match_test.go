package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
	"github.com/rocketscienceinc/chess-backend/testing/suite"
)

func TestMatchRepository_Save(t *testing.T) {
	t.Run("Save_SetsTTL", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, time.Hour, 10)

		// Given: a finished match
		record := st.Match(1)

		// When: Save is called
		err := matchRepo.Save(ctx, record)

		// Then: the record is stored with an expiry
		require.NoError(t, err)

		ttl, err := st.Storage.TTL(ctx, "match:"+record.ID).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Hour)
	})

	t.Run("Save_TrimsRecentList", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, time.Hour, 3)

		// Given: more matches than the recent limit
		for i := 1; i <= 5; i++ {
			require.NoError(t, matchRepo.Save(ctx, st.Match(i)))
		}

		// When: the recent list is read
		ids, err := st.Storage.LRange(ctx, "matches:recent", 0, -1).Result()

		// Then: only the newest ids are kept
		require.NoError(t, err)
		assert.Equal(t, []string{"match-5", "match-4", "match-3"}, ids)
	})
}

func TestMatchRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, time.Hour, 10)

		// Given: a saved match
		record := st.Match(7)
		require.NoError(t, matchRepo.Save(ctx, record))

		// When: GetByID is called with its id
		retrieved, err := matchRepo.GetByID(ctx, record.ID)

		// Then: the stored record comes back unchanged
		require.NoError(t, err)
		assert.Equal(t, record, retrieved)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, time.Hour, 10)

		// When: GetByID is called with an unknown id
		retrieved, err := matchRepo.GetByID(ctx, "9999999")

		// Then: ErrMatchNotFound is returned
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
		assert.Nil(t, retrieved)
	})
}

func TestMatchRepository_Recent(t *testing.T) {
	t.Run("Recent_NewestFirst", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, time.Hour, 10)

		// Given: three saved matches
		for i := 1; i <= 3; i++ {
			require.NoError(t, matchRepo.Save(ctx, st.Match(i)))
		}

		// When: the two most recent are requested
		records, err := matchRepo.Recent(ctx, 2)

		// Then: they come newest first
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "match-3", records[0].ID)
		assert.Equal(t, "match-2", records[1].ID)
	})

	t.Run("Recent_SkipsExpired", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, time.Hour, 10)

		// Given: two saved matches, one of which expired
		require.NoError(t, matchRepo.Save(ctx, st.Match(1)))
		require.NoError(t, matchRepo.Save(ctx, st.Match(2)))
		require.NoError(t, st.Storage.Del(ctx, "match:match-2").Err())

		// When: Recent is called
		records, err := matchRepo.Recent(ctx, 10)

		// Then: only the live record is returned
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "match-1", records[0].ID)
	})

	t.Run("Recent_Empty", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, time.Hour, 10)

		records, err := matchRepo.Recent(ctx, 10)

		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestNopMatchRepository(t *testing.T) {
	ctx := context.Background()
	matchRepo := NewNopMatchRepository()

	require.NoError(t, matchRepo.Save(ctx, nil))

	_, err := matchRepo.GetByID(ctx, "any")
	require.ErrorIs(t, err, apperror.ErrMatchNotFound)

	records, err := matchRepo.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

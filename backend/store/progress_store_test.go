package store

import (
	"fmt"
	"testing"

	"codestreak/backend/challenge"
	"codestreak/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testStore(t *testing.T) *ProgressStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ChallengeProgress{}))
	return NewProgressStore(db)
}

func TestGetNotEnrolled(t *testing.T) {
	s := testStore(t)

	_, _, err := s.Get(1)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestCreateAndGetRoundtrip(t *testing.T) {
	s := testStore(t)

	data := &challenge.ProgressData{
		Enrolled:  true,
		StartDate: "2026-03-01T09:00:00Z",
	}
	data.MarkSolved(1, "two-sum")
	require.NoError(t, s.Create(7, data))

	loaded, version, err := s.Get(7)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.True(t, loaded.Enrolled)
	assert.Equal(t, "2026-03-01T09:00:00Z", loaded.StartDate)
	assert.True(t, loaded.HasSolved(1, "two-sum"))
	assert.Equal(t, 1, loaded.TotalProblemsSolved)
}

func TestCreateTwiceFails(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Create(7, &challenge.ProgressData{Enrolled: true}))
	assert.Error(t, s.Create(7, &challenge.ProgressData{Enrolled: true}))
}

func TestSaveStaleVersionConflicts(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Create(7, &challenge.ProgressData{Enrolled: true}))

	data, version, err := s.Get(7)
	require.NoError(t, err)

	// A concurrent writer sneaks in first.
	require.NoError(t, s.Save(7, data, version))

	data.BestStreak = 99
	err = s.Save(7, data, version)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The record reflects the first save, not the stale one.
	loaded, newVersion, err := s.Get(7)
	require.NoError(t, err)
	assert.Equal(t, version+1, newVersion)
	assert.Equal(t, 0, loaded.BestStreak)
}

func TestUpdateMutatesAndBumpsVersion(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Create(7, &challenge.ProgressData{Enrolled: true}))

	data, err := s.Update(7, func(p *challenge.ProgressData) error {
		p.MarkSolved(1, "two-sum")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, data.HasSolved(1, "two-sum"))

	loaded, version, err := s.Get(7)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.True(t, loaded.HasSolved(1, "two-sum"))
}

func TestUpdateMissingUser(t *testing.T) {
	s := testStore(t)

	_, err := s.Update(42, func(p *challenge.ProgressData) error { return nil })
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestAll(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Create(1, &challenge.ProgressData{Enrolled: true, Points: 10}))
	require.NoError(t, s.Create(2, &challenge.ProgressData{Enrolled: true, Points: 30}))

	records, err := s.All()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 10, records[1].Points)
	assert.Equal(t, 30, records[2].Points)
}

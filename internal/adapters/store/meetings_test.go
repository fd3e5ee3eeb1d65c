package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkeye/Connectify/internal/domain"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func newRepo(t *testing.T) *MeetingRepository {
	t.Helper()
	repo, err := NewMeetingRepository(setupTestDB(t))
	require.NoError(t, err)
	return repo
}

func TestCreateAndFind(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	m, err := repo.Create(ctx, " Weekly sync ", "")
	require.NoError(t, err)
	assert.Len(t, m.Code, codeLength)
	assert.Regexp(t, "^["+codeAlphabet+"]+$", m.Code)
	assert.True(t, m.Active)
	assert.Equal(t, "Weekly sync", m.Title)
	assert.Equal(t, domain.DefaultUsername, m.HostName)

	room, err := domain.Canonicalize(m.Code)
	require.NoError(t, err)
	assert.Equal(t, m.Code, room.MeetingCode(), "codes are already canonical room ids")

	found, err := repo.FindByCode(ctx, m.Code)
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)
}

func TestFindUnknownCode(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.FindByCode(context.Background(), "NOPE42")
	assert.ErrorIs(t, err, domain.ErrMeetingNotFound)
}

func TestDeactivate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	m, err := repo.Create(ctx, "Retro", "Alice")
	require.NoError(t, err)

	require.NoError(t, repo.Deactivate(ctx, m.Code))
	found, err := repo.FindByCode(ctx, m.Code)
	require.NoError(t, err)
	assert.False(t, found.Active)
	require.NotNil(t, found.EndedAt)

	require.NoError(t, repo.Deactivate(ctx, m.Code), "ending twice is harmless")
	assert.ErrorIs(t, repo.Deactivate(ctx, "NOPE42"), domain.ErrMeetingNotFound)
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	repo.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	first, err := repo.Create(ctx, "one", "Alice")
	require.NoError(t, err)
	second, err := repo.Create(ctx, "two", "Bob")
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first.Code)
	assert.Equal(t, "BBBBBB", second.Code)
}

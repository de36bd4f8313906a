package revision

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/domain"
)

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Revision{}))
	return db
}

func TestLogAssignsSequentialVersions(t *testing.T) {
	db := setup(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, Log(db, EntitySkill, "sk-1", map[string]any{"name": "Go", "rev": i}))
	}
	// independent chains do not share counters
	require.NoError(t, Log(db, EntitySkill, "sk-2", map[string]any{"name": "SQL"}))
	require.NoError(t, Log(db, EntityBenefit, "sk-1", map[string]any{"name": "Gym"}))

	revs, err := History(db, EntitySkill, "sk-1")
	require.NoError(t, err)
	require.Len(t, revs, 3)
	for i, r := range revs {
		assert.Equal(t, i+1, r.Revision)
	}

	revs, err = History(db, EntityBenefit, "sk-1")
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, 1, revs[0].Revision)
}

func TestSnapshotRoundTrips(t *testing.T) {
	db := setup(t)

	skill := &domain.Skill{ID: "sk-1", Name: "Go"}
	require.NoError(t, Log(db, EntitySkill, skill.ID, skill))

	revs, err := History(db, EntitySkill, skill.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)

	var got domain.Skill
	require.NoError(t, json.Unmarshal([]byte(revs[0].Snapshot), &got))
	assert.Equal(t, "Go", got.Name)
}

func TestHistoryOfUnknownEntityIsEmpty(t *testing.T) {
	db := setup(t)
	revs, err := History(db, EntityListing, "nope")
	require.NoError(t, err)
	assert.Empty(t, revs)
}

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushOrdering(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.RPush("jobs", "a"))
	require.NoError(t, db.RPush("jobs", "b"))
	require.NoError(t, db.LPush("jobs", "z"))

	assert.Equal(t, []string{"z", "a", "b"}, db.Range("jobs", false))
	assert.Equal(t, []string{"b", "a", "z"}, db.Range("jobs", true))
	assert.Equal(t, 3, db.LLen("jobs"))
}

func TestEmptyKeyRejected(t *testing.T) {
	db := NewDatabase()

	assert.Error(t, db.RPush("", "v"))
	assert.Error(t, db.LPush("", "v"))
	_, _, err := db.PopFirst("")
	assert.Error(t, err)
	_, _, err = db.PopLast("")
	assert.Error(t, err)
	_, err = db.LRem("", "v")
	assert.Error(t, err)
}

func TestMissingKeyReadsAsEmpty(t *testing.T) {
	db := NewDatabase()

	value, found, err := db.PopFirst("nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "", value)

	_, found = db.First("nope")
	assert.False(t, found)
	_, found = db.Last("nope")
	assert.False(t, found)
	assert.Zero(t, db.LLen("nope"))
	assert.False(t, db.Contains("nope", "v"))
	assert.Nil(t, db.Range("nope", false))

	removed, err := db.LRem("nope", "v")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPopBothEndsThroughStore(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.RPush("jobs", "a"))
	require.NoError(t, db.RPush("jobs", "b"))
	require.NoError(t, db.RPush("jobs", "c"))

	value, found, err := db.PopFirst("jobs")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a", value)

	value, found, err = db.PopLast("jobs")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "c", value)

	assert.Equal(t, []string{"b"}, db.Range("jobs", false))
}

func TestFirstAndLast(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.RPush("jobs", "head"))
	require.NoError(t, db.RPush("jobs", "tail"))

	first, found := db.First("jobs")
	require.True(t, found)
	assert.Equal(t, "head", first)
	last, found := db.Last("jobs")
	require.True(t, found)
	assert.Equal(t, "tail", last)
}

func TestLRemFirstOccurrence(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.RPush("jobs", "x"))
	require.NoError(t, db.RPush("jobs", "y"))
	require.NoError(t, db.RPush("jobs", "x"))

	removed, err := db.LRem("jobs", "x")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"y", "x"}, db.Range("jobs", false))

	removed, err = db.LRem("jobs", "missing")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestContainsThroughStore(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.RPush("jobs", "present"))

	assert.True(t, db.Contains("jobs", "present"))
	assert.False(t, db.Contains("jobs", "absent"))
}

func TestKeysAreSorted(t *testing.T) {
	db := NewDatabase()
	for _, key := range []string{"c", "a", "b"} {
		require.NoError(t, db.RPush(key, "v"))
	}
	assert.Equal(t, []string{"a", "b", "c"}, db.Keys())
}

func TestDel(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.RPush("jobs", "v"))

	assert.True(t, db.Del("jobs"))
	assert.False(t, db.Del("jobs"), "second delete should report a missing key")
	assert.Zero(t, db.LLen("jobs"))
	assert.Empty(t, db.Keys())
}

func TestExpireValidation(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.RPush("jobs", "v"))

	_, err := db.Expire("jobs", 0)
	assert.Error(t, err)
	_, err = db.Expire("jobs", -5)
	assert.Error(t, err)

	set, err := db.Expire("missing", 1000)
	require.NoError(t, err)
	assert.False(t, set)

	set, err = db.Expire("jobs", 60000)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestCleanupSweepsExpiredKeys(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.RPush("short", "v"))
	require.NoError(t, db.RPush("long", "v"))

	set, err := db.Expire("short", 1)
	require.NoError(t, err)
	require.True(t, set)
	set, err = db.Expire("long", 60000)
	require.NoError(t, err)
	require.True(t, set)

	db.StartCleanup(5 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return db.LLen("short") == 0 && len(db.Keys()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, db.LLen("long"))
}

func TestDefaultExpiryAppliesToNewKeys(t *testing.T) {
	db := NewDatabase()
	db.SetDefaultExpiry(1)
	require.NoError(t, db.RPush("ephemeral", "v"))

	db.StartCleanup(5 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return db.LLen("ephemeral") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

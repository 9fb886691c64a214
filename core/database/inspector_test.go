package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_assets (id INTEGER PRIMARY KEY, checksum TEXT, owner_id TEXT)").Error
	require.NoError(t, err)

	missing, err := MissingColumns(db, "test_assets", []string{"id", "checksum", "owner_id"})
	assert.NoError(t, err)
	assert.Empty(t, missing)

	missing, err = MissingColumns(db, "test_assets", []string{"id", "Remote_ID", "local_id"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Remote_ID", "local_id"}, missing)

	missing, err = MissingColumns(db, "non_existent", []string{"id"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"id"}, missing)
}

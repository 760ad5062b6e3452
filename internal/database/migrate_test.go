package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	var ups, downs int

	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}

	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)
}

func TestMigrate_UnknownDirection(t *testing.T) {
	assert.Error(t, Migrate(nil, "sideways"))
}

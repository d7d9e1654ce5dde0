package migrator

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		files  fstest.MapFS
		expIDs []int
		expErr string
	}{
		{
			name: "ok/sorted",
			files: fstest.MapFS{
				"0002-second.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
				"0001-first.up.sql":    {Data: []byte("CREATE TABLE a (id INTEGER);")},
				"0001-first.down.sql":  {Data: []byte("DROP TABLE a;")},
				"0002-second.down.sql": {Data: []byte("DROP TABLE b;")},
			},
			expIDs: []int{1, 2},
		},
		{
			name:   "err/invalid_name",
			files:  fstest.MapFS{"first.sql": {Data: []byte("")}},
			expErr: "invalid migration file name 'first.sql'",
		},
		{
			name:   "err/missing_up",
			files:  fstest.MapFS{"0001-first.down.sql": {Data: []byte("DROP TABLE a;")}},
			expErr: "migration 1-first has no up script",
		},
		{
			name: "err/conflicting_names",
			files: fstest.MapFS{
				"0001-first.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER);")},
				"0001-other.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			expErr: "conflicting names for migration 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			migrations, err := LoadMigrations(tt.files)
			if tt.expErr != "" {
				assert.ErrorContains(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)

			ids := make([]int, len(migrations))
			for i, m := range migrations {
				ids[i] = m.ID
			}
			assert.Equal(t, tt.expIDs, ids)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "backoffice.db", c.Database.Path)
	assert.Equal(t, int64(1), c.Ledger.NodeID)
	assert.Equal(t, 1, c.Controls.DueOffsetDays)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backoffice.yaml")
	yaml := "server:\n  addr: \":9090\"\ndatabase:\n  path: /var/lib/backoffice/data.db\ncontrols:\n  due_offset_days: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("BACKOFFICE_LEDGER_NODE_ID", "7")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, "/var/lib/backoffice/data.db", c.Database.Path)
	assert.Equal(t, int64(7), c.Ledger.NodeID)
	assert.Equal(t, 3, c.Controls.DueOffsetDays)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package record

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.yaml")
	rec := sampleRecord()

	require.NoError(t, Save(rec, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSave_RestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.yaml")
	require.NoError(t, Save(sampleRecord(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "deployment.yaml"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unparseable", "{{{not yaml"},
		{"missing name", "owner_address: 0x1111\n"},
		{"missing owner", "name: my-dao\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "deployment.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			var corrupt *CorruptError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, path, corrupt.Path)
		})
	}
}

func TestSave_ReplacesWholeDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.yaml")

	first := sampleRecord()
	require.NoError(t, Save(first, path))

	second := first.Clone()
	second.MarkCompleted("deployProof")
	second.Keys["proofUrl"] = "https://example.com/proof"
	require.NoError(t, Save(second, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}

func TestResolvePath(t *testing.T) {
	t.Run("default under project dir", func(t *testing.T) {
		assert.Equal(t, filepath.Join("proj", DefaultRecordName), ResolvePath("proj", ""))
	})

	t.Run("explicit path wins over default", func(t *testing.T) {
		assert.Equal(t, "custom.yaml", ResolvePath("proj", "custom.yaml"))
	})

	t.Run("environment variable wins over both", func(t *testing.T) {
		t.Setenv("DAOFORGE_RECORD_PATH", "/tmp/env.yaml")
		assert.Equal(t, "/tmp/env.yaml", ResolvePath("proj", "custom.yaml"))
	})
}

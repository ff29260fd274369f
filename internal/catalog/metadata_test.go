package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMetadataAbsent(t *testing.T) {
	m, err := LoadMetadata(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadMetadataValid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFilename), []byte(`{
		"description": "desc",
		"groups": [{"name": "G1", "parameters": ["A", "B"]}],
		"quantities": {"a.xml": 2}
	}`), 0o644))

	m, err := LoadMetadata(dir)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "desc", m.Description)
	require.Len(t, m.Groups, 1)
	assert.Equal(t, []string{"A", "B"}, m.Groups[0].Parameters)
	assert.Equal(t, 2, m.Quantities["a.xml"])
}

func TestLoadMetadataInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"quantity below one", `{"quantities": {"a.xml": 0}}`},
		{"group without name", `{"groups": [{"parameters": []}]}`},
		{"unknown field", `{"color": "red"}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFilename), []byte(tt.body), 0o644))
			_, err := LoadMetadata(dir)
			assert.Error(t, err)
		})
	}
}

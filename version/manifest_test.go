package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestManifestJSONPreservesLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	writeFile(t, path, "{\n  \"name\": \"demo\",\n  \"version\": \"2.4.0\",\n  \"private\": true\n}\n")

	v, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "2.4.0", v)

	require.NoError(t, WriteManifest(path, MustParse("2.5.0")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"demo\",\n  \"version\": \"2.5.0\",\n  \"private\": true\n}\n", string(data))
}

func TestManifestYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Chart.yaml")
	writeFile(t, path, "name: demo\nversion: v1.0.0\ndescription: x\n")

	v, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v)

	require.NoError(t, WriteManifest(path, MustParse("1.1.0")))
	v, err = ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v)
}

func TestManifestPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "VERSION.txt")
	writeFile(t, path, "v0.3.1\n")

	v, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "0.3.1", v)

	require.NoError(t, WriteManifest(path, MustParse("0.3.2")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.3.2\n", string(data))
}

func TestManifestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadManifest(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrManifest)

	noVersion := filepath.Join(dir, "package.json")
	writeFile(t, noVersion, `{"name": "demo"}`)
	_, err = ReadManifest(noVersion)
	assert.ErrorIs(t, err, ErrManifest)
	assert.ErrorIs(t, WriteManifest(noVersion, MustParse("1.0.0")), ErrManifest)
}

func TestManifestJSONRewritesTopLevelVersionOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	writeFile(t, path, `{"name":"app","config":{"version":"9.9.9"},"deps":[{"version":"1.0.0"}],"version":"2.4.0"}`)

	v, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "2.4.0", v)

	require.NoError(t, WriteManifest(path, MustParse("2.5.0")))
	v, err = ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "2.5.0", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"app","config":{"version":"9.9.9"},"deps":[{"version":"1.0.0"}],"version":"2.5.0"}`, string(data))
}

func TestManifestJSONRejectsNonStringVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	writeFile(t, path, `{"config": {"version": "1.0.0"}, "version": 2}`)
	assert.ErrorIs(t, WriteManifest(path, MustParse("2.5.0")), ErrManifest)
}

func TestManifestYAMLKeepsQuotingAndComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "name: demo\nversion: 1.0.0\n", "name: demo\nversion: 1.1.0\n"},
		{"comment", "version: 1.0.0  # bumped by release\n", "version: 1.1.0  # bumped by release\n"},
		{"double quoted", "version: \"1.0.0\" # pinned\n", "version: \"1.1.0\" # pinned\n"},
		{"single quoted", "version: '1.0.0'\r\nname: demo\r\n", "version: '1.1.0'\r\nname: demo\r\n"},
		{"nested first", "image:\n  version: 0.0.1\nversion: 1.0.0\n", "image:\n  version: 0.0.1\nversion: 1.1.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Chart.yaml")
			writeFile(t, path, tt.in)

			require.NoError(t, WriteManifest(path, MustParse("1.1.0")))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestManifestYAMLWithoutScalarVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Chart.yaml")
	writeFile(t, path, "version: # unset\nname: demo\n")
	assert.ErrorIs(t, WriteManifest(path, MustParse("1.1.0")), ErrManifest)
}

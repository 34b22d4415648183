package artifacts

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_WriteToFile(t *testing.T) {
	manifest := Manifest{
		Version:       1,
		StoragePolicy: "policy",
		Contents: map[string]ManifestEntry{
			"path1": {
				Digest: "digest1",
				Size:   123,
				Extra:  map[string]any{"key1": "value1"},
			},
		},
	}

	filename, digest, size, err := manifest.WriteToFile()
	assert.NoError(t, err)
	assert.NotEmpty(t, filename)
	assert.NotEmpty(t, digest)
	assert.NotZero(t, size)
	defer os.Remove(filename)
}

func TestManifest_GetManifestEntryFromArtifactFilePath(t *testing.T) {
	manifest := Manifest{
		Contents: map[string]ManifestEntry{
			"path1": {
				Digest: "digest1",
				Size:   123,
				Extra:  map[string]any{"key1": "value1"},
			},
		},
	}

	entry, err := manifest.GetManifestEntryFromArtifactFilePath("path1")
	assert.NoError(t, err)
	assert.Equal(t, "digest1", entry.Digest)
	assert.Equal(t, int64(123), entry.Size)

	_, err = manifest.GetManifestEntryFromArtifactFilePath("nonexistent")
	assert.Error(t, err)
}

func TestManifest_Digest(t *testing.T) {
	manifest := NewManifest()
	manifest.Contents["b.txt"] = ManifestEntry{Digest: "digestB"}
	manifest.Contents["a.txt"] = ManifestEntry{Digest: "digestA"}

	digest := manifest.Digest()
	assert.NotEmpty(t, digest)
	assert.Len(t, digest, 32)

	// Deterministic regardless of map iteration order.
	assert.Equal(t, digest, manifest.Digest())

	other := NewManifest()
	other.Contents["a.txt"] = ManifestEntry{Digest: "digestA"}
	other.Contents["b.txt"] = ManifestEntry{Digest: "digestB"}
	assert.Equal(t, digest, other.Digest())
}

func TestManifest_AddLocalFile_StagesAndHashes(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/model.ckpt", []byte("weights"), 0o644))

	manifest := NewManifest()
	require.NoError(t, manifest.AddLocalFile(fs, "/staging", "model.ckpt", "/src/model.ckpt"))

	entry, err := manifest.GetManifestEntryFromArtifactFilePath("model.ckpt")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.Digest)
	assert.Equal(t, int64(len("weights")), entry.Size)
	require.NotNil(t, entry.LocalPath)
	assert.NotEqual(t, "/src/model.ckpt", *entry.LocalPath)

	staged, err := afero.ReadFile(fs, *entry.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(staged))
}

func TestManifest_AddLocalFile_MissingSourceFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	manifest := NewManifest()
	err := manifest.AddLocalFile(fs, "/staging", "missing.txt", "/src/missing.txt")
	assert.Error(t, err)
}

func TestManifest_Digest_OrderIndependentOfName(t *testing.T) {
	m1 := NewManifest()
	m1.Contents["a.txt"] = ManifestEntry{Digest: "x"}
	m1.Contents["b.txt"] = ManifestEntry{Digest: "y"}

	m2 := NewManifest()
	m2.Contents["b.txt"] = ManifestEntry{Digest: "y"}
	m2.Contents["a.txt"] = ManifestEntry{Digest: "x"}

	assert.Equal(t, m1.Digest(), m2.Digest())
}

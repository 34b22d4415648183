package artifacts

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageFile_MemMapFsCopiesBytes(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/model.ckpt", []byte("weights"), 0o644))

	dst, err := StageFile(fs, "/staging", "model.ckpt", "/src/model.ckpt")
	require.NoError(t, err)

	assert.Contains(t, dst, "-model.ckpt")
	contents, err := afero.ReadFile(fs, dst)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(contents))
}

func TestStageFile_DistinctCallsGetDistinctNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.txt", []byte("a"), 0o644))

	dst1, err := StageFile(fs, "/staging", "a.txt", "/src/a.txt")
	require.NoError(t, err)
	dst2, err := StageFile(fs, "/staging", "a.txt", "/src/a.txt")
	require.NoError(t, err)

	assert.NotEqual(t, dst1, dst2)
}

func TestStageFile_MissingSourceFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := StageFile(fs, "/staging", "missing.txt", "/src/missing.txt")
	assert.Error(t, err)
}

package artifacts

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/artifactpipe/core/internal/fileutil"
)

// StageFile copies src into stagingDir under a name of the form
// <uuid>-<saveName>, freezing it against further mutation by the caller
// before it is hashed and uploaded.
//
// On the real filesystem it first tries a hard link, which is effectively
// free and safe as long as the source is later replaced by rename rather
// than truncated in place. If that fails (cross-device link, or fs isn't
// the OS filesystem), it falls back to a byte-wise copy.
func StageFile(fs afero.Fs, stagingDir, saveName, src string) (string, error) {
	if err := fs.MkdirAll(stagingDir, 0o755); err != nil {
		return "", err
	}

	safeName := fileutil.SanitizeFilename(filepath.Base(saveName))
	dst := filepath.Join(stagingDir, uuid.NewString()+"-"+safeName)

	if _, ok := fs.(*afero.OsFs); ok {
		if err := os.Link(src, dst); err == nil {
			return dst, nil
		}
		// Cross-device or unsupported; fall through to a real copy.
	}

	if err := copyFileBytes(fs, src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFileBytes(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

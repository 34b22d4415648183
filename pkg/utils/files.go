package utils

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJsonToFileWithDigest marshals data as JSON to a new temp file and
// returns its path, Base64 MD5 digest, and size.
func WriteJsonToFileWithDigest(data any) (filename string, digest string, size int64, err error) {
	f, err := os.CreateTemp("", "tmpfile-")
	if err != nil {
		return "", "", 0, fmt.Errorf("unable to create temporary file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	if _, err := f.Write(dataJSON); err != nil {
		return "", "", 0, fmt.Errorf("failed to write data to file: %w", err)
	}

	fileInfo, err := f.Stat()
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to stat file: %w", err)
	}

	return f.Name(), ComputeB64MD5(dataJSON), fileInfo.Size(), nil
}

package utils

import "github.com/artifactpipe/core/internal/randomid"

// ShortID returns a random lowercase alphanumeric string of the given length,
// suitable for staging filenames and other disposable identifiers.
func ShortID(length int) string {
	return randomid.GenerateUniqueID(length)
}

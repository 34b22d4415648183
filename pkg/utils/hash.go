package utils

import (
	"github.com/artifactpipe/core/internal/hashencode"
)

// ComputeB64MD5 returns the standard-base64-encoded MD5 digest of data.
func ComputeB64MD5(data []byte) string {
	return hashencode.ComputeB64MD5(data)
}

// ComputeHexMD5 returns the hex-encoded MD5 digest of data.
func ComputeHexMD5(data []byte) string {
	return hashencode.ComputeHexMD5(data)
}

// ComputeSHA256 returns the raw SHA-256 digest of data.
func ComputeSHA256(data []byte) []byte {
	return hashencode.ComputeSHA256(data)
}

// B64ToHex converts a standard-base64-encoded digest to its hex encoding.
func B64ToHex(data string) (string, error) {
	return hashencode.B64ToHex(data)
}

// HexToB64 converts a hex-encoded digest to its standard-base64 encoding.
func HexToB64(data string) (string, error) {
	return hashencode.HexToB64(data)
}

// VerifyFileHash reports whether the file at path has the given Base64 MD5 digest.
func VerifyFileHash(path string, b64md5 string) bool {
	return hashencode.VerifyFileB64MD5(path, b64md5)
}

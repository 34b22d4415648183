package artifacts

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/afero"

	"github.com/artifactpipe/core/internal/observability/wberrors"
	"github.com/artifactpipe/core/pkg/utils"
)

// Manifest is the list of files (and references) that make up one version
// of an artifact, together with the storage policy that produced it.
type Manifest struct {
	Version             int32                    `json:"version"`
	StoragePolicy       string                   `json:"storagePolicy"`
	StoragePolicyConfig StoragePolicyConfig      `json:"storagePolicyConfig"`
	Contents            map[string]ManifestEntry `json:"contents"`
}

type StoragePolicyConfig struct {
	StorageLayout string  `json:"storageLayout"`
	StorageRegion *string `json:"storageRegion,omitempty"`
}

// ManifestEntry describes one file (or reference) tracked by an artifact.
type ManifestEntry struct {
	Digest          string         `json:"digest"`
	Ref             *string        `json:"ref,omitempty"`
	Size            int64          `json:"size"`
	LocalPath       *string        `json:"local_path,omitempty"`
	BirthArtifactID *string        `json:"birthArtifactID,omitempty"`
	SkipCache       bool           `json:"skip_cache"`
	Extra           map[string]any `json:"extra,omitempty"`
}

// NewManifest returns an empty V2-layout manifest ready to have entries added.
func NewManifest() Manifest {
	return Manifest{
		Version:             1,
		StoragePolicy:       "wandb-storage-policy-v1",
		StoragePolicyConfig: StoragePolicyConfig{StorageLayout: "V2"},
		Contents:            make(map[string]ManifestEntry),
	}
}

// WriteToFile marshals the manifest as JSON to a new temp file.
func (m *Manifest) WriteToFile() (filename string, digest string, size int64, rerr error) {
	return utils.WriteJsonToFileWithDigest(m)
}

// AddLocalFile stages src into stagingDir (see StageFile) and records the
// staged copy as a manifest entry under name.
//
// The staged copy, not src, becomes the entry's LocalPath, so a caller is
// free to delete src, or replace it by renaming another file over it,
// immediately after this returns. On the OS filesystem the staged copy may
// be a hard link to src, so writing into src in place also changes it.
func (m *Manifest) AddLocalFile(fs afero.Fs, stagingDir, name, src string) error {
	staged, err := StageFile(fs, stagingDir, name, src)
	if err != nil {
		return wberrors.Bubblef(err, "artifacts: failed to stage %s", name).
			Attr(slog.String("artifact_file", name))
	}

	info, err := fs.Stat(staged)
	if err != nil {
		return wberrors.Bubblef(err, "artifacts: failed to stat staged file %s", staged)
	}

	digest, err := fileB64MD5(fs, staged)
	if err != nil {
		return wberrors.Bubblef(err, "artifacts: failed to hash staged file %s", staged)
	}

	m.Contents[name] = ManifestEntry{
		Digest:    digest,
		Size:      info.Size(),
		LocalPath: &staged,
	}
	return nil
}

func fileB64MD5(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
}

func (m *Manifest) GetManifestEntryFromArtifactFilePath(path string) (ManifestEntry, error) {
	manifestEntry, ok := m.Contents[path]
	if !ok {
		return ManifestEntry{}, fmt.Errorf("path not contained in artifact: %s", path)
	}
	return manifestEntry, nil
}

// Digest computes the manifest's content digest: an MD5 hash over the
// sorted (name, digest) pairs of its entries. The server uses this to
// verify the manifest's integrity and to deduplicate identical artifact
// versions.
func (m *Manifest) Digest() string {
	type hashedEntry struct {
		name   string
		digest string
	}

	entries := make([]hashedEntry, 0, len(m.Contents))
	for name, entry := range m.Contents {
		entries = append(entries, hashedEntry{name: name, digest: entry.Digest})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].name < entries[j].name
	})

	hasher := md5.New()
	hasher.Write([]byte("wandb-artifact-manifest-v1\n"))
	for _, entry := range entries {
		hasher.Write([]byte(fmt.Sprintf("%s:%s\n", entry.name, entry.digest)))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

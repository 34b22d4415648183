package artifacts

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/artifactpipe/core/internal/fileutil"
	"github.com/artifactpipe/core/pkg/utils"
)

// lookupCacheSize bounds the in-memory FindMd5 lookup cache. At roughly
// 100 bytes per entry this is a few MB at most, and avoids a stat() on
// every repeated digest check within one process run.
const lookupCacheSize = 65536

// Cache is a local, content-addressed store of artifact file blobs.
//
// It lets Save() avoid reuploading data the server already has, and lets
// artifact downloads (handled elsewhere) avoid refetching data already on
// disk. A Cache implementation never causes a save or restore to fail
// outright: it is always safe to fall back to re-reading the source file.
type Cache interface {
	// Write hashes r and stores its content, returning the Base64 MD5 digest.
	Write(r io.Reader) (string, error)

	// AddFile hashes and stores the file at path, returning its Base64 MD5 digest.
	AddFile(path string) (string, error)

	// AddFileAndCheckDigest stores the file at path and returns an error if
	// its Base64 MD5 digest doesn't match the expected one.
	AddFileAndCheckDigest(path string, digest string) error

	// Link associates a reference (e.g. a cloud storage URL) and etag with
	// the blob identified by digest, so that a later save of the same
	// reference+etag can be resolved without rehashing.
	Link(digest string, ref string, etag string) error

	// RestoreTo copies the blob referenced by entry to dst, reporting whether
	// it succeeded. A no-op if dst already exists.
	RestoreTo(entry ManifestEntry, dst string) bool
}

// UserCacheDir returns the root directory artifact file caches are stored
// under, honoring the WANDB_CACHE_DIR override.
func UserCacheDir() string {
	dir := os.Getenv("WANDB_CACHE_DIR")
	if dir == "" {
		dir, _ = os.UserCacheDir()
		dir = filepath.Join(dir, "wandb")
	}
	return dir
}

// FileCache is a Cache backed by a directory on the local filesystem.
//
// Blobs are stored by MD5 digest under obj/md5/<xx>/<rest>, and references
// are stored as symlinks to the blob they point to under obj/etag/<xx>/<rest>.
// All writes land in a tmp/ subdirectory first and are moved into place with
// os.Rename, which is atomic as long as tmp/ and obj/ share a filesystem.
type FileCache struct {
	root string

	// lookups caches recent FindMd5 results, keyed by digest, so that
	// re-checking the same content within one run doesn't re-stat the
	// filesystem every time.
	lookups *lru.Cache
}

// NewFileCache returns a Cache rooted at root/artifacts.
func NewFileCache(root string) Cache {
	lookups, err := lru.New(lookupCacheSize)
	if err != nil {
		// Only fails on a non-positive size, which lookupCacheSize isn't.
		panic(err)
	}
	return &FileCache{root: filepath.Join(root, "artifacts"), lookups: lookups}
}

func (c *FileCache) md5Path(b64md5 string) (string, error) {
	hexHash, err := utils.B64ToHex(b64md5)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.root, "obj", "md5", hexHash[:2], hexHash[2:]), nil
}

func (c *FileCache) FindMd5(b64md5 string) (*cacheFile, error) {
	if cached, ok := c.lookups.Get(b64md5); ok {
		return cached.(*cacheFile), nil
	}

	path, err := c.md5Path(b64md5)
	if err != nil {
		return nil, err
	}
	cf, err := getCacheFile(path)
	if err != nil {
		return nil, err
	}
	if cf != nil {
		c.lookups.Add(b64md5, cf)
	}
	return cf, nil
}

func (c *FileCache) etagPath(etag, ref string) (string, error) {
	refHash := sha256.Sum256([]byte(ref))
	etagHash := sha256.Sum256([]byte(etag))
	concatHash := sha256.Sum256(append(refHash[:], etagHash[:]...))
	hexHash := hex.EncodeToString(concatHash[:])

	return filepath.Join(c.root, "obj", "etag", hexHash[:2], hexHash[2:]), nil
}

func (c *FileCache) findEtag(etag, ref string) *cacheFile {
	path, _ := c.etagPath(etag, ref)
	targetFile, _ := getCacheFile(path)
	return targetFile
}

// Write stores the content read from r and returns its Base64 MD5 digest.
func (c *FileCache) Write(r io.Reader) (string, error) {
	w := c.newCacheWriter()
	if w == nil {
		return "", fmt.Errorf("unable to open cache for writing")
	}
	if _, err := io.Copy(w, r); err != nil {
		return "", err
	}
	return w.close()
}

// AddFile stores the file at path and returns its Base64 MD5 digest.
func (c *FileCache) AddFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return c.Write(f)
}

// AddFileAndCheckDigest stores path in the cache and verifies its digest.
func (c *FileCache) AddFileAndCheckDigest(path string, digest string) error {
	actual, err := c.AddFile(path)
	if err != nil {
		return err
	}
	if actual != digest {
		return fmt.Errorf("file hash mismatch: expected %s, got %s", digest, actual)
	}
	return nil
}

// Link associates ref+etag with the blob already stored under digest.
func (c *FileCache) Link(digest string, ref string, etag string) error {
	hashPath, err := c.md5Path(digest)
	if err != nil {
		return err
	}
	exists, err := fileutil.FileExists(hashPath)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no cache file with digest %s", digest)
	}
	etagPath, err := c.etagPath(etag, ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(etagPath), 0755); err != nil {
		return err
	}
	_ = os.Remove(etagPath)
	return os.Symlink(hashPath, etagPath)
}

// RestoreTo tries to restore the blob referenced by entry to dst.
//
// If dst already exists, this is a no-op that reports success. Otherwise the
// blob is located either by reference+etag (for reference artifacts) or by
// MD5 digest, and copied to dst. Failing to find the blob, or any I/O error
// while copying it, is reported as failure: restoring is always optional.
func (c *FileCache) RestoreTo(entry ManifestEntry, dst string) bool {
	if exists, _ := fileutil.FileExists(dst); exists {
		return true
	}
	var cacheCopy *cacheFile
	if entry.Ref != nil {
		cacheCopy = c.findEtag(entry.Digest, *entry.Ref)
	} else {
		cacheCopy, _ = c.FindMd5(entry.Digest)
	}
	if cacheCopy == nil {
		return false
	}
	return cacheCopy.CopyTo(dst) == nil
}

func (c *FileCache) newCacheWriter() *cacheWriter {
	tmpDir := filepath.Join(c.root, "tmp")
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return nil
	}
	tmpFile, err := os.CreateTemp(tmpDir, "")
	if err != nil {
		return nil
	}
	hasher := md5.New()
	w := io.MultiWriter(tmpFile, hasher)
	return &cacheWriter{cache: c, writer: w, tmpFile: tmpFile, hasher: hasher}
}

type cacheFile struct {
	path    string
	size    int64
	modTime time.Time
}

func getCacheFile(path string) (*cacheFile, error) {
	stat, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to stat file: %w", err)
	}
	size := stat.Size()
	if stat.Mode()&os.ModeSymlink != 0 {
		// A broken symlink is useless; delete it and report a miss.
		realPath, err := os.Readlink(path)
		if err != nil {
			os.Remove(path)
			return nil, nil
		}
		realStat, err := os.Stat(realPath)
		if err != nil {
			os.Remove(path)
			return nil, nil
		}
		path = realPath
		size = realStat.Size()
	}
	return &cacheFile{path: path, size: size, modTime: stat.ModTime()}, nil
}

func (f *cacheFile) CopyTo(dst string) error {
	exists, err := fileutil.FileExists(dst)
	if err != nil {
		return err
	}
	if exists {
		stat, err := os.Stat(dst)
		if err != nil {
			return err
		}
		if stat.Size() == f.size {
			return nil
		}
		// Size mismatch; fall through and overwrite.
	}
	return fileutil.CopyFile(f.path, dst)
}

// cacheWriter buffers a write into the cache's tmp directory, then moves it
// into its content-addressed home once the digest is known.
type cacheWriter struct {
	cache   *FileCache
	writer  io.Writer
	tmpFile *os.File
	hasher  hash.Hash
	b64md5  *string
}

func (c *cacheWriter) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}

func (c *cacheWriter) close() (string, error) {
	if c.tmpFile == nil {
		return "", fmt.Errorf("already closed")
	}
	if err := c.tmpFile.Close(); err != nil {
		return "", err
	}
	h := c.hasher.Sum(nil)
	b64md5 := base64.StdEncoding.EncodeToString(h)
	hexHash := hex.EncodeToString(h)
	dstPath := filepath.Join(c.cache.root, "obj", "md5", hexHash[:2], hexHash[2:])
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		os.Remove(c.tmpFile.Name())
		c.tmpFile = nil
		return "", err
	}
	if exists, _ := fileutil.FileExists(dstPath); exists {
		os.Remove(c.tmpFile.Name())
	} else if err := os.Rename(c.tmpFile.Name(), dstPath); err != nil {
		os.Remove(c.tmpFile.Name())
		c.tmpFile = nil
		return "", err
	}
	c.tmpFile = nil
	c.b64md5 = &b64md5
	return b64md5, nil
}

// HashOnlyCache is a Cache that computes digests but never persists
// anything to disk. It's used when artifact file caching is disabled.
type HashOnlyCache struct{}

func NewHashOnlyCache() Cache {
	return &HashOnlyCache{}
}

func (c *HashOnlyCache) Write(r io.Reader) (string, error) {
	hasher := md5.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
}

func (c *HashOnlyCache) AddFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return c.Write(f)
}

func (c *HashOnlyCache) AddFileAndCheckDigest(path string, digest string) error {
	actual, err := c.AddFile(path)
	if err != nil {
		return err
	}
	if digest != "" && actual != digest {
		return fmt.Errorf("file hash mismatch: expected %s, got %s", digest, actual)
	}
	return nil
}

func (c *HashOnlyCache) Link(digest string, ref string, etag string) error {
	return nil
}

func (c *HashOnlyCache) RestoreTo(entry ManifestEntry, dst string) bool {
	return entry.Ref == nil
}

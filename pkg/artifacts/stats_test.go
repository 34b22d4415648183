package artifacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_InitFile(t *testing.T) {
	s := NewStats(nil, "art1")
	s.InitFile("a.txt", 10)
	s.InitFile("b.txt", 20)
	// Re-initializing the same name must not double-count.
	s.InitFile("a.txt", 10)

	summary := s.Summary()
	assert.Equal(t, int64(30), summary.TotalBytes)
	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, int64(0), summary.UploadedBytes)
}

func TestStats_FileCountsByCategory(t *testing.T) {
	s := NewStats(nil, "art2")
	s.InitFile("up.txt", 1)
	s.InitFile("dedup.txt", 1)
	s.InitFile("fail.txt", 1)
	s.InitFile("pending.txt", 1)

	s.SetFileUploaded("up.txt")
	s.SetFileDeduped("dedup.txt")
	s.SetFileFailed("fail.txt")

	counts := s.FileCountsByCategory()
	assert.Equal(t, FileCounts{
		InProgress: 1,
		Uploaded:   1,
		Deduped:    1,
		Failed:     1,
	}, counts)
}

func TestStats_UploadedBytesTracksProgress(t *testing.T) {
	s := NewStats(nil, "art3")
	s.InitFile("a.txt", 100)

	s.UpdateUploadedBytes(40)
	s.UpdateUploadedBytes(30)
	assert.Equal(t, int64(70), s.Summary().UploadedBytes)

	// A retry rewinds progress before re-uploading from the start.
	s.UpdateUploadedBytes(-70)
	assert.Equal(t, int64(0), s.Summary().UploadedBytes)
}

func TestStats_RetrySucceedsAfterFailure(t *testing.T) {
	s := NewStats(nil, "art4")
	s.InitFile("a.txt", 1)

	s.SetFileFailed("a.txt")
	s.SetFileUploaded("a.txt")

	counts := s.FileCountsByCategory()
	assert.Equal(t, 1, counts.Uploaded)
	assert.Equal(t, 0, counts.Failed)
}

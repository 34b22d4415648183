package artifacts

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// FileCounts breaks down the files of an artifact by upload outcome.
type FileCounts struct {
	InProgress int
	Uploaded   int
	Deduped    int
	Failed     int
}

// StatsSummary reports the totals [Stats] has accumulated.
type StatsSummary struct {
	UploadedBytes int64
	TotalBytes    int64
	TotalFiles    int
}

// Stats tracks the progress of one artifact's file uploads: how many files
// are known about, how many bytes have gone out, and how each file finally
// resolved (uploaded, deduped against server content, or failed).
//
// It mirrors the bookkeeping the file-transfer manager keeps for run files,
// but scoped to a single artifact and broken out by dedup/failure outcome
// rather than just bytes.
type Stats struct {
	mu sync.Mutex

	totalBytes    int64
	uploadedBytes int64

	fileSizes map[string]int64
	uploaded  map[string]bool
	deduped   map[string]bool
	failed    map[string]bool

	filesTotal    prometheus.Counter
	bytesUploaded prometheus.Counter
	dedupHits     prometheus.Counter
	filesFailed   prometheus.Counter
}

// NewStats returns an empty Stats, registering its counters on reg. A nil
// registry is fine; metrics are simply not exported anywhere.
func NewStats(reg prometheus.Registerer, artifactID string) *Stats {
	s := &Stats{
		fileSizes: map[string]int64{},
		uploaded:  map[string]bool{},
		deduped:   map[string]bool{},
		failed:    map[string]bool{},

		filesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "artifact_upload_files_total",
			Help:        "Files registered for upload in an artifact save.",
			ConstLabels: prometheus.Labels{"artifact_id": artifactID},
		}),
		bytesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "artifact_upload_bytes_total",
			Help:        "Bytes successfully uploaded for an artifact save.",
			ConstLabels: prometheus.Labels{"artifact_id": artifactID},
		}),
		dedupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "artifact_upload_dedup_total",
			Help:        "Files the server reported it already had.",
			ConstLabels: prometheus.Labels{"artifact_id": artifactID},
		}),
		filesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "artifact_upload_failed_total",
			Help:        "Files that failed to upload.",
			ConstLabels: prometheus.Labels{"artifact_id": artifactID},
		}),
	}

	if reg != nil {
		// Registration can fail if the same artifact-id collector was
		// already registered (e.g. a retried save); that's not fatal,
		// the local counters still work, they just aren't exported twice.
		_ = reg.Register(s.filesTotal)
		_ = reg.Register(s.bytesUploaded)
		_ = reg.Register(s.dedupHits)
		_ = reg.Register(s.filesFailed)
	}

	return s
}

// InitFile registers a file of the given size as pending upload.
func (s *Stats) InitFile(name string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fileSizes[name]; exists {
		return
	}
	s.fileSizes[name] = size
	s.totalBytes += size
	s.filesTotal.Inc()
}

// UpdateUploadedBytes records incremental progress (or, with a negative
// delta, a rewind on retry) for an in-flight upload.
func (s *Stats) UpdateUploadedBytes(delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadedBytes += delta
}

// SetFileUploaded marks a file as successfully uploaded.
func (s *Stats) SetFileUploaded(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[name] = true
	delete(s.failed, name)
	s.bytesUploaded.Add(float64(s.fileSizes[name]))
}

// SetFileDeduped marks a file as skipped because the server already had it.
func (s *Stats) SetFileDeduped(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deduped[name] = true
	s.dedupHits.Inc()
}

// SetFileFailed marks a file as having failed to upload.
func (s *Stats) SetFileFailed(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[name] = true
	s.filesFailed.Inc()
}

// Summary reports total bytes known about versus uploaded so far.
func (s *Stats) Summary() StatsSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSummary{
		UploadedBytes: s.uploadedBytes,
		TotalBytes:    s.totalBytes,
		TotalFiles:    len(s.fileSizes),
	}
}

// FileCountsByCategory reports how many of the known files are in each
// terminal (or still-pending) state.
func (s *Stats) FileCountsByCategory() FileCounts {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := FileCounts{}
	for name := range s.fileSizes {
		switch {
		case s.failed[name]:
			counts.Failed++
		case s.deduped[name]:
			counts.Deduped++
		case s.uploaded[name]:
			counts.Uploaded++
		default:
			counts.InProgress++
		}
	}
	return counts
}

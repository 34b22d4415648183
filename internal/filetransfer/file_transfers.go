package filetransfer

import (
	"github.com/hashicorp/go-retryablehttp"
	"github.com/artifactpipe/core/internal/observability"
)

// FileTransfer handles uploads and downloads against presigned URLs.
type FileTransfer interface {
	Upload(task *DefaultUploadTask) error
	Download(task *DefaultDownloadTask) error
}

// FileTransfers is the set of transfer backends a Task can execute against.
//
// Reference artifacts (files that live in a bucket the caller owns directly,
// rather than the object store behind our presigned URLs) are resolved and
// transferred elsewhere; this package only ever sees presigned HTTP URLs.
type FileTransfers struct {
	// Default makes an HTTP request to the destination URL with the file contents.
	Default FileTransfer
}

// NewFileTransfers creates a new FileTransfers.
func NewFileTransfers(
	client *retryablehttp.Client,
	logger *observability.CoreLogger,
	fileTransferStats FileTransferStats,
	extraHeaders map[string]string,
) *FileTransfers {
	return &FileTransfers{
		Default: NewDefaultFileTransfer(client, logger, fileTransferStats, extraHeaders),
	}
}

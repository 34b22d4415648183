package filetransfer

// Task is a single file upload or download operation.
//
// Concrete task types (DefaultUploadTask, DefaultDownloadTask) know how to
// execute themselves against a FileTransfers and how to report completion.
type Task interface {
	// Execute performs the upload or download.
	Execute(fts *FileTransfers) error

	// Complete runs the task's completion callback and records statistics.
	Complete(stats FileTransferStats)

	// SetError records the task's terminal error, if any.
	SetError(err error)

	String() string
}

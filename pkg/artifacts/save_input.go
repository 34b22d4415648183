package artifacts

// SaveInput describes an artifact to create, populate, and optionally
// commit via ArtifactSaveManager.Save.
//
// It carries the same logical fields as the run-record representation
// of an artifact, without any protobuf dependency.
type SaveInput struct {
	Entity  string
	Project string
	RunId   string
	Type    string
	Name    string

	// ClientId and SequenceClientId let the backend deduplicate
	// artifact creation requests that raced across processes.
	ClientId         string
	SequenceClientId string

	// Digest is the manifest's content digest, computed by the caller
	// before Save is invoked.
	Digest string

	Description        string
	Metadata            string
	TtlDurationSeconds int64
	Aliases             []string
	Tags                []string

	// DistributedId, when set, marks this as one writer among several
	// contributing to the same artifact version; the manifest is
	// merged as a patch rather than replacing the whole thing.
	DistributedId string

	// IncrementalBeta1 marks an incremental artifact, whose manifest
	// only ever grows.
	IncrementalBeta1 bool

	// BaseId, if set, is the artifact version this one should be
	// diffed against instead of the collection's latest version.
	BaseId string

	// UserCreated means this artifact wasn't logged by a run, so no
	// run-id should be attached to the creation request.
	UserCreated bool

	// Finalize commits the artifact once all files are uploaded.
	Finalize bool

	// UseAfterCommit records a "used" edge from the run after the
	// artifact reaches the COMMITTED state.
	UseAfterCommit bool

	// Manifest lists the files that make up this artifact version.
	Manifest Manifest
}

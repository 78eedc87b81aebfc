package domain

// NativeDocMimePrefix marks native-format documents (rich documents stored
// in the service's own format). They expose no byte-level checksum, so
// content equivalence degrades to type equality.
const NativeDocMimePrefix = "application/vnd.google-apps."

// NodeKind distinguishes files from folders in the remote tree.
type NodeKind string

const (
	KindFile   NodeKind = "file"
	KindFolder NodeKind = "folder"
)

// RemoteNode is an immutable snapshot of a single remote entry at the time it
// was fetched. It is never mutated locally, only re-fetched.
type RemoteNode struct {
	ID       string
	Name     string
	Kind     NodeKind
	Size     int64
	Checksum string // empty when the service exposes no byte-level checksum
	MimeType string
}

// IsFolder reports whether the node is a folder.
func (n RemoteNode) IsFolder() bool {
	return n.Kind == KindFolder
}

// FileInfo is the per-file metadata recorded during enumeration.
type FileInfo struct {
	ID       string
	Size     int64
	Checksum string
	MimeType string
}

// TreeSnapshot is the enumeration result for one root: relative path
// (slash-joined, case-sensitive) to file metadata, and relative path to
// folder id. Every file path has all of its ancestor folder paths present in
// Folders, except the implicit root. A snapshot is immutable once produced;
// a new pass produces a new snapshot.
type TreeSnapshot struct {
	Files   map[string]FileInfo
	Folders map[string]string
}

// NewTreeSnapshot returns an empty snapshot with both maps allocated.
func NewTreeSnapshot() *TreeSnapshot {
	return &TreeSnapshot{
		Files:   make(map[string]FileInfo),
		Folders: make(map[string]string),
	}
}

// CopyTask schedules one file copy: the source file id and the relative path
// it should land at in the destination tree.
type CopyTask struct {
	SourceID string
	Path     string
}

// DiffPlan is the minimal copy set transforming destination toward source.
// It is consumed once by the copy pass. Folder differences are handed to the
// folder-creation pass separately, not bundled here.
type DiffPlan struct {
	Copies []CopyTask
}

// ChildPage is one page of a folder listing.
type ChildPage struct {
	Items         []RemoteNode
	NextPageToken string
}

// DiscrepancyKind categorizes a validation or comparison finding.
type DiscrepancyKind string

const (
	MissingFile      DiscrepancyKind = "missing_file"
	SizeMismatch     DiscrepancyKind = "size_mismatch"
	ChecksumMismatch DiscrepancyKind = "checksum_mismatch"
	MissingFolder    DiscrepancyKind = "missing_folder"
	ExtraFolder      DiscrepancyKind = "extra_folder"
)

// Discrepancy is a reported difference between source and destination. It is
// a record, not an error: validation reports discrepancies, it never repairs
// them.
type Discrepancy struct {
	Kind       DiscrepancyKind
	Path       string
	SourceSize int64
	DestSize   int64
}

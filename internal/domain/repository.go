package domain

import (
	"context"
)

// RemoteStore defines the capability contract required from the remote file
// service. Every method is safe to retry: the adapter behind it classifies
// failures (see ServiceError) and routes each call through the process-wide
// rate governor.
type RemoteStore interface {
	// GetMetadata fetches a single node by id. Returns ErrNotFound (wrapped
	// in a permanent ServiceError) when the id does not resolve.
	GetMetadata(ctx context.Context, id string) (RemoteNode, error)

	// ListChildren lists one page of a folder's direct children. Pass the
	// returned NextPageToken back in until it comes back empty.
	ListChildren(ctx context.Context, parentID, pageToken string) (ChildPage, error)

	// FindByName looks up a direct child by exact name, optionally
	// restricted to a kind. Returns ErrNotFound when absent.
	FindByName(ctx context.Context, parentID, name string, kind NodeKind) (RemoteNode, error)

	// CreateFolder creates a folder under parentID and returns its id.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)

	// CopyFile copies sourceID into destParentID under destName and returns
	// the new file's id.
	CopyFile(ctx context.Context, sourceID, destParentID, destName string) (string, error)
}

// ProgressOp identifies which counter an Update call increments.
type ProgressOp string

const (
	OpCopySucceeded ProgressOp = "successful_copies"
	OpCopyFailed    ProgressOp = "failed_copies"
	OpCopySkipped   ProgressOp = "skipped_copies"
	OpFolderCreated ProgressOp = "created_folders"
	OpFolderSkipped ProgressOp = "skipped_folders"
)

// ProgressSink receives progress notifications for display. Implementations
// must tolerate concurrent calls; a nil sink is valid and means no rendering.
type ProgressSink interface {
	// SetTotals announces the known totals once enumeration has finished.
	SetTotals(files, folders int)

	// Update reports one counted outcome.
	Update(op ProgressOp, path string)

	// Enumerating reports cosmetic enumeration progress. total may be 0 when
	// the pre-count is unavailable.
	Enumerating(side string, processed, total int)
}

package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"drivesync/internal/domain"
)

// GetMetadata fetches a single node by id.
func (c *Client) GetMetadata(ctx context.Context, id string) (domain.RemoteNode, error) {
	var f *drivev3.File
	err := c.gov.Do(ctx, "files.get", func() error {
		var callErr error
		f, callErr = c.svc.Files.Get(id).
			Fields(nodeFields).
			SupportsAllDrives(true).
			Context(ctx).Do()
		return classify("files.get", callErr)
	})
	if err != nil {
		return domain.RemoteNode{}, err
	}
	return toNode(f), nil
}

// ListChildren lists one page of a folder's direct, non-trashed children.
func (c *Client) ListChildren(ctx context.Context, parentID, pageToken string) (domain.ChildPage, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false", parentID)

	var res *drivev3.FileList
	err := c.gov.Do(ctx, "files.list", func() error {
		call := c.svc.Files.List().
			Q(q).
			Fields(googleapi.Field("nextPageToken, files(" + nodeFields + ")")).
			PageSize(pageSize).
			Spaces("drive").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var callErr error
		res, callErr = call.Do()
		return classify("files.list", callErr)
	})
	if err != nil {
		return domain.ChildPage{}, err
	}

	page := domain.ChildPage{NextPageToken: res.NextPageToken}
	for _, f := range res.Files {
		page.Items = append(page.Items, toNode(f))
	}
	return page, nil
}

// FindByName looks up a direct child by exact name, optionally restricted to
// files or folders.
func (c *Client) FindByName(ctx context.Context, parentID, name string, kind domain.NodeKind) (domain.RemoteNode, error) {
	escaped := strings.ReplaceAll(name, `'`, `\'`)
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed=false", escaped, parentID)
	switch kind {
	case domain.KindFolder:
		q += fmt.Sprintf(" and mimeType = '%s'", folderMimeType)
	case domain.KindFile:
		q += fmt.Sprintf(" and mimeType != '%s'", folderMimeType)
	}

	var res *drivev3.FileList
	err := c.gov.Do(ctx, "files.list", func() error {
		var callErr error
		res, callErr = c.svc.Files.List().
			Q(q).
			Fields(googleapi.Field("files(" + nodeFields + ")")).
			Spaces("drive").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx).Do()
		return classify("files.list", callErr)
	})
	if err != nil {
		return domain.RemoteNode{}, err
	}
	if len(res.Files) == 0 {
		return domain.RemoteNode{}, domain.Permanent("files.list", 0,
			fmt.Errorf("%q under %s: %w", name, parentID, domain.ErrNotFound))
	}
	return toNode(res.Files[0]), nil
}

// CreateFolder creates a folder under parentID.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &drivev3.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}

	var created *drivev3.File
	err := c.gov.Do(ctx, "files.create", func() error {
		var callErr error
		created, callErr = c.svc.Files.Create(meta).
			Fields("id, name").
			SupportsAllDrives(true).
			Context(ctx).Do()
		return classify("files.create", callErr)
	})
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

// CopyFile server-side copies sourceID into destParentID under destName.
func (c *Client) CopyFile(ctx context.Context, sourceID, destParentID, destName string) (string, error) {
	meta := &drivev3.File{
		Name:    destName,
		Parents: []string{destParentID},
	}

	var copied *drivev3.File
	err := c.gov.Do(ctx, "files.copy", func() error {
		var callErr error
		copied, callErr = c.svc.Files.Copy(sourceID, meta).
			Fields("id").
			SupportsAllDrives(true).
			Context(ctx).Do()
		return classify("files.copy", callErr)
	})
	if err != nil {
		return "", err
	}
	return copied.Id, nil
}

func toNode(f *drivev3.File) domain.RemoteNode {
	kind := domain.KindFile
	if f.MimeType == folderMimeType {
		kind = domain.KindFolder
	}
	return domain.RemoteNode{
		ID:       f.Id,
		Name:     f.Name,
		Kind:     kind,
		Size:     f.Size,
		Checksum: f.Md5Checksum,
		MimeType: f.MimeType,
	}
}

// classify turns a raw API error into a ServiceError. Statuses 403, 429, 500
// and 503 are transient; 404 maps to ErrNotFound; everything else, including
// non-HTTP transport errors, is permanent.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return domain.Permanent(op, 0, err)
	}

	switch apiErr.Code {
	case 403, 429, 500, 503:
		return domain.Retriable(op, apiErr.Code, err)
	case 404:
		return domain.Permanent(op, apiErr.Code, fmt.Errorf("%w: %v", domain.ErrNotFound, err))
	default:
		return domain.Permanent(op, apiErr.Code, err)
	}
}

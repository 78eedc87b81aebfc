// Package drive implements the RemoteStore contract against the Google Drive
// v3 API. Every call is routed through the shared rate governor, and every
// failure leaves this package as a classified ServiceError.
package drive

import (
	"context"
	"fmt"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"drivesync/internal/pkg/ratelimit"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"

	nodeFields = "id, name, mimeType, size, md5Checksum"
	pageSize   = 1000
)

// Client talks to Google Drive on behalf of the sync core.
type Client struct {
	svc *drivev3.Service
	gov *ratelimit.Governor
}

// NewClient builds a Drive client. gov is the process-wide governor; opts
// must carry the credentials (see Options).
func NewClient(ctx context.Context, gov *ratelimit.Governor, opts ...option.ClientOption) (*Client, error) {
	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{svc: svc, gov: gov}, nil
}

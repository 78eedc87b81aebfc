package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Options builds the client options from an OAuth client-secrets file and a
// previously obtained token file. Acquiring and refreshing the token against
// the identity provider is the operator's responsibility; this only consumes
// the stored artifacts.
func Options(ctx context.Context, clientSecretsPath, tokenPath string) ([]option.ClientOption, error) {
	secrets, err := os.ReadFile(clientSecretsPath)
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(secrets, drivev3.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}

	raw, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	return []option.ClientOption{
		option.WithTokenSource(cfg.TokenSource(ctx, &token)),
	}, nil
}

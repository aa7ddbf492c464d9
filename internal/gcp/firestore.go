package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ErrNoCredentials is returned when neither a credentials file nor
// application default credentials are available.
var ErrNoCredentials = errors.New("no Google Cloud credentials found")

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ClientOptions resolves credentials in this order: the file named by
// GOOGLE_APPLICATION_CREDENTIALS when it exists, credentialsFile when it
// exists, then application default credentials. A variable pointing at a
// missing file is skipped.
func ClientOptions(ctx context.Context, credentialsFile string) ([]option.ClientOption, error) {
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		if fileExists(path) {
			slog.Debug("Using credentials from GOOGLE_APPLICATION_CREDENTIALS", "path", path)
			return []option.ClientOption{option.WithCredentialsFile(path)}, nil
		}
		slog.Warn("GOOGLE_APPLICATION_CREDENTIALS points at a missing file", "path", path)
	}

	if credentialsFile != "" && fileExists(credentialsFile) {
		slog.Debug("Using service account file", "path", credentialsFile)
		return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// NewFirestoreClient creates a Firestore client for the given project.
// Credentials are resolved by ClientOptions.
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	opts, err := ClientOptions(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package cloud

import (
	"context"
	"os"

	"golang.org/x/oauth2/google"

	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// LoadCredentials reads a service-account JSON file and returns credentials
// scoped for the cloud-platform APIs.
func LoadCredentials(ctx context.Context, credentialsFile string) (*google.Credentials, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, apperrors.NewServiceError("failed to read credentials file", "google", "load_credentials", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return nil, apperrors.NewServiceError("failed to parse service account credentials", "google", "load_credentials", err)
	}
	return creds, nil
}

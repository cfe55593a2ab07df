package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"mingle/pkg/config"
)

// Clients bundles the Firebase-backed clients the application depends on.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// Setup initializes the Firebase app and returns the auth and Firestore
// clients. Credentials are resolved from FIREBASE_SERVICE_ACCOUNT_JSON if
// set, otherwise from the configured service account file. With neither,
// application default credentials apply.
func Setup(ctx context.Context, cfg *config.Config) (*Clients, error) {
	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase auth: %w", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &Clients{Auth: authClient, Firestore: firestoreClient}, nil
}

// Close releases the underlying client connections.
func (c *Clients) Close() error {
	return c.Firestore.Close()
}

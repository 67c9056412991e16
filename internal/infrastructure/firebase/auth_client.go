package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"accmarket/pkg/config"
	"accmarket/pkg/logger"
)

const (
	RoleClaim = "role"
	RoleAdmin = "admin"
)

// ClientOptions picks the service account from the inline JSON first, then
// the file path. With neither, application default credentials are used.
func ClientOptions(cfg *config.Config) []option.ClientOption {
	switch {
	case cfg.FirebaseServiceAccountJSON != "":
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))}
	case cfg.FirebaseServiceAccountPath != "":
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)}
	default:
		return nil
	}
}

func NewApp(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*fbapp.App, error) {
	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}
	return app, nil
}

func NewFirestoreClient(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// AuthClient verifies Firebase ID tokens and manages the role claim that
// marks platform admins.
type AuthClient struct {
	client *auth.Client
}

func NewAuthClient(ctx context.Context, app *fbapp.App) (*AuthClient, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase Auth: %w", err)
	}
	return &AuthClient{client: client}, nil
}

func (f *AuthClient) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return f.client.VerifyIDToken(ctx, idToken)
}

// SetRole replaces the role claim, keeping any other custom claims. An
// empty role removes it. The user must sign in again to receive a token
// carrying the new claim.
func (f *AuthClient) SetRole(ctx context.Context, uid, role string) error {
	user, err := f.client.GetUser(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", uid, err)
	}
	claims := make(map[string]interface{}, len(user.CustomClaims)+1)
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	if role == "" {
		delete(claims, RoleClaim)
	} else {
		claims[RoleClaim] = role
	}
	if err := f.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return fmt.Errorf("failed to set claims for %s: %w", uid, err)
	}
	return nil
}

// RoleOf reads the role claim from a verified token.
func RoleOf(token *auth.Token) string {
	if token == nil {
		return ""
	}
	role, _ := token.Claims[RoleClaim].(string)
	return role
}

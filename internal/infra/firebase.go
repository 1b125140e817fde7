// README: Firebase Admin app shared by ID-token verification and FCM.
package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var ErrMissingProjectID = errors.New("firebase project id is required")

// NewFirebaseApp builds the Admin SDK app. An empty credentialsFile falls back to
// application-default credentials.
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	if projectID == "" {
		return nil, ErrMissingProjectID
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	return app, nil
}

// FirebaseToken is the subset of a verified ID token the API relies on.
type FirebaseToken struct {
	UID    string
	Claims map[string]interface{}
}

// Role returns the normalized "role" custom claim, or "" when absent.
func (t *FirebaseToken) Role() string {
	role, _ := t.Claims["role"].(string)
	return strings.ToLower(strings.TrimSpace(role))
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (TokenVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &FirebaseToken{UID: token.UID, Claims: token.Claims}, nil
}

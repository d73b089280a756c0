package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

// planClaim is the custom-claim key carrying the subscription plan.
const planClaim = "plan"

// FirebaseResolver verifies tokens and reads/writes the plan claim through
// the Firebase Admin SDK.
type FirebaseResolver struct {
	client *fbauth.Client
}

// NewApp initializes the Firebase Admin app from a service account file.
// The bucket name is passed through so chartstore can reuse the same app.
func NewApp(ctx context.Context, credentialsFile, bucket string) (*firebase.App, error) {
	var conf *firebase.Config
	if bucket != "" {
		conf = &firebase.Config{StorageBucket: bucket}
	}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("identity: init firebase app: %w", err)
	}
	return app, nil
}

// NewFirebaseResolver builds a resolver from an initialized app.
func NewFirebaseResolver(ctx context.Context, app *firebase.App) (*FirebaseResolver, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: auth client: %w", err)
	}
	return &FirebaseResolver{client: client}, nil
}

// Resolve verifies the ID token and loads the user record. Any provider
// failure collapses into ErrUnauthenticated: the caller cannot distinguish a
// forged token from an expired one, and should not.
func (r *FirebaseResolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	decoded, err := r.client.VerifyIDToken(ctx, token)
	if err != nil {
		slog.Debug("identity: token rejected", "error", err)
		return nil, ErrUnauthenticated
	}

	user, err := r.client.GetUser(ctx, decoded.UID)
	if err != nil || user == nil {
		slog.Debug("identity: user lookup failed", "uid", decoded.UID, "error", err)
		return nil, ErrUnauthenticated
	}

	plan := PlanFree
	if raw, ok := user.CustomClaims[planClaim].(string); ok {
		plan = ParsePlan(raw)
	}

	return &Principal{
		ID:          user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Plan:        plan,
	}, nil
}

// SetPlan writes the plan claim, merging with the user's existing custom
// claims rather than replacing them.
func (r *FirebaseResolver) SetPlan(ctx context.Context, principalID string, plan Plan) error {
	user, err := r.client.GetUser(ctx, principalID)
	if err != nil {
		return fmt.Errorf("identity: load user %s: %w", principalID, err)
	}

	claims := make(map[string]interface{}, len(user.CustomClaims)+1)
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	claims[planClaim] = string(plan)

	if err := r.client.SetCustomUserClaims(ctx, principalID, claims); err != nil {
		return fmt.Errorf("identity: set plan for %s: %w", principalID, err)
	}
	return nil
}

package sdk

import (
	"context"
	"fmt"

	"github.com/mindxandria/mindxandria-go/auth"
	"github.com/mindxandria/mindxandria-go/session"
)

// AuthClient groups account and session entry points. Login stores the
// returned token pair so every subsequent call on the parent Client is
// authenticated; Logout tears the session down again.
type AuthClient struct {
	client *Client
	api    *auth.Client
}

func (a *AuthClient) ensureInitialized() error {
	if a == nil || a.client == nil {
		return fmt.Errorf("sdk: auth client not initialized")
	}
	return nil
}

// Register creates a new account. It does not log the user in.
func (a *AuthClient) Register(ctx context.Context, name, email, password string) error {
	if err := a.ensureInitialized(); err != nil {
		return err
	}
	return a.api.Register(ctx, auth.RegisterRequest{Name: name, Email: email, Password: password})
}

// Login exchanges credentials for a token pair and persists it. A 2xx
// response missing either token is treated as a failure and nothing is
// stored.
func (a *AuthClient) Login(ctx context.Context, email, password string) error {
	if err := a.ensureInitialized(); err != nil {
		return err
	}
	tokens, err := a.api.Login(ctx, auth.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return fmt.Errorf("sdk: login returned incomplete token pair")
	}
	a.client.store.SetTokens(tokens.AccessToken, tokens.RefreshToken)
	return nil
}

// Logout clears the stored session. See session.Manager.Logout.
func (a *AuthClient) Logout() {
	if a == nil || a.client == nil {
		return
	}
	a.client.session.Logout()
}

// Session returns the current session view.
func (a *AuthClient) Session(ctx context.Context) (session.State, session.Identity) {
	if a == nil || a.client == nil {
		return session.StateAnonymous, session.Identity{}
	}
	return a.client.session.Session(ctx)
}

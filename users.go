package sdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mindxandria/mindxandria-go/routes"
)

// User is the server's profile record for the authenticated account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserUpdate carries the mutable profile fields.
type UserUpdate struct {
	Name string `json:"name"`
}

// UsersClient provides methods for the authenticated user's own profile.
type UsersClient struct {
	client *Client
}

func (u *UsersClient) ensureInitialized() error {
	if u == nil || u.client == nil {
		return fmt.Errorf("sdk: users client not initialized")
	}
	return nil
}

// Me returns the current authenticated user's profile.
func (u *UsersClient) Me(ctx context.Context) (User, error) {
	if err := u.ensureInitialized(); err != nil {
		return User{}, err
	}
	var resp User
	if err := u.client.sendAndDecode(ctx, http.MethodGet, routes.UsersMe, nil, &resp); err != nil {
		return User{}, err
	}
	return resp, nil
}

// Update renames the authenticated user and signals profile subscribers so
// the session view re-derives its identity.
func (u *UsersClient) Update(ctx context.Context, name string) (User, error) {
	if err := u.ensureInitialized(); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(name) == "" {
		return User{}, fmt.Errorf("sdk: name is required")
	}
	var resp User
	if err := u.client.sendAndDecode(ctx, http.MethodPut, routes.Users, UserUpdate{Name: name}, &resp); err != nil {
		return User{}, err
	}
	u.client.session.NotifyProfileUpdated()
	return resp, nil
}

// Delete removes the authenticated user's account and clears the local
// session, since the stored tokens are dead afterwards.
func (u *UsersClient) Delete(ctx context.Context) error {
	if err := u.ensureInitialized(); err != nil {
		return err
	}
	if err := u.client.sendAndDecode(ctx, http.MethodDelete, routes.Users, nil, nil); err != nil {
		return err
	}
	u.client.store.Clear()
	return nil
}

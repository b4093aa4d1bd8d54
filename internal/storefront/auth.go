package storefront

import (
	"context"
	"net/http"

	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/validation"
)

// AuthService covers login, logout, profile and account registration.
type AuthService struct {
	client *Client
}

// Ensure AuthService implements session.Remote at compile time.
var _ session.Remote = (*AuthService)(nil)

// NewAuthService builds the auth service.
func NewAuthService(c *Client) *AuthService {
	return &AuthService{client: c}
}

type authPayload struct {
	Token string `json:"token"`
	session.User
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (session.LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var payload authPayload
	if err := s.client.getData(ctx, http.MethodPost, "/auth/login", nil, body, &payload); err != nil {
		return session.LoginResult{}, err
	}
	return session.LoginResult{Token: payload.Token, User: payload.User}, nil
}

// Logout invalidates the token server-side.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Profile fetches the signed-in user.
func (s *AuthService) Profile(ctx context.Context) (session.User, error) {
	var u session.User
	if err := s.client.getData(ctx, http.MethodGet, "/profile", nil, nil, &u); err != nil {
		return session.User{}, err
	}
	return u, nil
}

// ChangePassword changes the signed-in user's password.
func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"current_password": current, "new_password": next}
	return s.client.do(ctx, http.MethodPost, "/auth/change-password", body, nil)
}

// Register creates an account. When the API also returns a token the result
// can be adopted as a signed-in session.
func (s *AuthService) Register(ctx context.Context, values map[validation.AccountField]string) (session.LoginResult, error) {
	body := make(map[string]string, len(validation.AccountFields))
	for _, name := range validation.AccountFields {
		body[string(name)] = values[name]
	}
	var payload struct {
		authPayload
		Nested *authPayload `json:"user"`
	}
	if err := s.client.getData(ctx, http.MethodPost, "/auth/register/", nil, body, &payload); err != nil {
		return session.LoginResult{}, err
	}
	res := session.LoginResult{Token: payload.Token, User: payload.User}
	if payload.Nested != nil {
		res.User = payload.Nested.User
		if res.Token == "" {
			res.Token = payload.Nested.Token
		}
	}
	return res, nil
}

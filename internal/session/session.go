// Package session tracks who is signed in to the storefront. The token and
// user record are persisted in the kvstore so a session survives restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/ecoshop/internal/kvstore"
)

// ErrInvalidCredentials is returned when login succeeds at the HTTP level but
// yields no token.
var ErrInvalidCredentials = errors.New("Invalid credentials")

// Role is the storefront role derived from the user record.
type Role string

const (
	RoleNone         Role = ""
	RoleBrandManager Role = "brand_manager"
	RoleRegularUser  Role = "regular_user"
)

// User is the profile record returned by the storefront.
type User struct {
	ID             int64           `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	EcoPoints      int             `json:"eco_points,omitempty"`
	IsBrandManager bool            `json:"is_brand_manager"`
	BrandProfile   json.RawMessage `json:"brand_profile,omitempty"`
	Permissions    []string        `json:"permissions,omitempty"`
}

// DisplayName prefers the full name over the username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// Role derives the user's role. A brand profile implies brand manager.
func (u User) Role() Role {
	if u.IsBrandManager || hasBrandProfile(u.BrandProfile) {
		return RoleBrandManager
	}
	return RoleRegularUser
}

func hasBrandProfile(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null" && trimmed != "false" && trimmed != "{}"
}

// LoginResult is a successful login response.
type LoginResult struct {
	Token string
	User  User
}

// Remote is the storefront's auth service.
type Remote interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (User, error)
	ChangePassword(ctx context.Context, current, next string) error
}

// Session is the authentication context for one ecoshop process.
type Session struct {
	remote Remote
	store  kvstore.Store
	logger *zap.Logger

	mu       sync.RWMutex
	token    string
	user     *User
	onLogout []func(forced bool)

	keyMu    sync.Mutex
	guestKey string
}

// Open restores a persisted session from store. A corrupt user record is
// dropped rather than failing the open.
func Open(ctx context.Context, remote Remote, store kvstore.Store, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{remote: remote, store: store, logger: logger}

	token, err := kvstore.GetOr(ctx, store, kvstore.KeyAuthToken, "")
	if err != nil {
		return nil, fmt.Errorf("load auth token: %w", err)
	}
	s.token = token

	raw, err := kvstore.GetOr(ctx, store, kvstore.KeyUserData, "")
	if err != nil {
		return nil, fmt.Errorf("load user data: %w", err)
	}
	if raw != "" {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			logger.Warn("discarding corrupt user record", zap.Error(err))
			_ = store.Remove(ctx, kvstore.KeyUserData)
		} else {
			s.user = &u
		}
	}
	return s, nil
}

// SetRemote attaches the auth service. The storefront client needs the
// session for its token, so the two are wired after construction.
func (s *Session) SetRemote(remote Remote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = remote
}

// OnLogout registers fn to run after every logout. forced is true when the
// logout was caused by a rejected token.
func (s *Session) OnLogout(fn func(forced bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Token returns the current auth token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a token is held.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// User returns the signed-in user.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return cloneUser(*s.user), true
}

// Role returns the signed-in user's role, or RoleNone.
func (s *Session) Role() Role {
	u, ok := s.User()
	if !ok {
		return RoleNone
	}
	return u.Role()
}

// HasRole reports whether the signed-in user has role.
func (s *Session) HasRole(role Role) bool {
	return role != RoleNone && s.Role() == role
}

// HasPermission reports whether the signed-in user carries permission.
func (s *Session) HasPermission(permission string) bool {
	u, ok := s.User()
	return ok && slices.Contains(u.Permissions, permission)
}

// Login authenticates and persists the token and user record.
func (s *Session) Login(ctx context.Context, username, password string) (User, error) {
	res, err := s.remoteOrNil().Login(ctx, username, password)
	if err != nil {
		return User{}, err
	}
	return s.Adopt(ctx, res)
}

// Adopt installs credentials obtained outside Login, such as the token
// returned by account registration.
func (s *Session) Adopt(ctx context.Context, res LoginResult) (User, error) {
	if res.Token == "" {
		return User{}, ErrInvalidCredentials
	}

	if err := s.store.Set(ctx, kvstore.KeyAuthToken, res.Token); err != nil {
		return User{}, fmt.Errorf("persist auth token: %w", err)
	}
	if err := s.persistUser(ctx, res.User); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	s.token = res.Token
	u := cloneUser(res.User)
	s.user = &u
	s.mu.Unlock()

	s.logger.Info("signed in", zap.String("username", res.User.Username), zap.String("role", string(res.User.Role())))
	return cloneUser(res.User), nil
}

// Logout tells the storefront and always clears local credentials, even when
// the remote call fails. A rejected token during the remote call has already
// forced a logout, so the local clear and its hooks are not run twice.
func (s *Session) Logout(ctx context.Context) {
	if s.IsAuthenticated() {
		if err := s.remoteOrNil().Logout(ctx); err != nil {
			s.logger.Warn("remote logout failed", zap.Error(err))
		}
		if !s.IsAuthenticated() {
			return
		}
	}
	s.clear(ctx, false)
}

// ForceLogout clears local credentials without calling the storefront. It is
// used when the storefront rejects the token.
func (s *Session) ForceLogout(ctx context.Context) {
	s.clear(ctx, true)
}

// Profile fetches the user record and persists it.
func (s *Session) Profile(ctx context.Context) (User, error) {
	u, err := s.remoteOrNil().Profile(ctx)
	if err != nil {
		return User{}, err
	}
	if err := s.persistUser(ctx, u); err != nil {
		return User{}, err
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return cloneUser(u), nil
}

// CheckAuth validates a restored token by fetching the profile. Failures are
// logged; a rejected token has already triggered ForceLogout through the
// client's unauthorized hook.
func (s *Session) CheckAuth(ctx context.Context) {
	if !s.IsAuthenticated() {
		return
	}
	if _, err := s.Profile(ctx); err != nil {
		s.logger.Warn("stored token could not be verified", zap.Error(err))
	}
}

// ChangePassword changes the signed-in user's password.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	return s.remoteOrNil().ChangePassword(ctx, current, next)
}

// UpdateUser applies update to the stored user record and persists it.
func (s *Session) UpdateUser(ctx context.Context, update func(*User)) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return errors.New("not signed in")
	}
	u := cloneUser(*s.user)
	s.mu.Unlock()

	update(&u)
	if err := s.persistUser(ctx, u); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

// GuestKey returns the persisted guest session key, creating one on first
// use. The storefront uses it to find the guest cart when carts are merged.
// Concurrent first calls all get the same key.
func (s *Session) GuestKey(ctx context.Context) (string, error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	if s.guestKey != "" {
		return s.guestKey, nil
	}
	key, err := kvstore.GetOr(ctx, s.store, kvstore.KeySessionKey, "")
	if err != nil {
		return "", fmt.Errorf("load session key: %w", err)
	}
	if key == "" {
		key = uuid.NewString()
		if err := s.store.Set(ctx, kvstore.KeySessionKey, key); err != nil {
			return "", fmt.Errorf("persist session key: %w", err)
		}
	}
	s.guestKey = key
	return key, nil
}

func (s *Session) clear(ctx context.Context, forced bool) {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	hooks := slices.Clone(s.onLogout)
	s.mu.Unlock()

	if err := kvstore.RemoveAll(ctx, s.store, kvstore.KeyAuthToken, kvstore.KeyUserData); err != nil {
		s.logger.Warn("clear credentials", zap.Error(err))
	}
	s.logger.Info("signed out", zap.Bool("forced", forced))
	for _, fn := range hooks {
		fn(forced)
	}
}

func (s *Session) persistUser(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, kvstore.KeyUserData, string(data)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (s *Session) remoteOrNil() Remote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.remote == nil {
		return noRemote{}
	}
	return s.remote
}

func cloneUser(u User) User {
	u.Permissions = slices.Clone(u.Permissions)
	u.BrandProfile = slices.Clone(u.BrandProfile)
	return u
}

var errNoRemote = errors.New("auth service not configured")

type noRemote struct{}

func (noRemote) Login(context.Context, string, string) (LoginResult, error) {
	return LoginResult{}, errNoRemote
}
func (noRemote) Logout(context.Context) error                         { return errNoRemote }
func (noRemote) Profile(context.Context) (User, error)                { return User{}, errNoRemote }
func (noRemote) ChangePassword(context.Context, string, string) error { return errNoRemote }

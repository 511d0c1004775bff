package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playgeo/geohunt/internal/game"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
)

// Service implements account signup, login, token refresh, and logout on top
// of the game store.
type Service struct {
	store    game.Store
	tokens   *Tokens
	denylist *Denylist
	logger   *slog.Logger
	newID    func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDenylist enables refresh-token revocation on logout.
func WithDenylist(d *Denylist) ServiceOption {
	return func(s *Service) { s.denylist = d }
}

func NewService(store game.Store, tokens *Tokens, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		logger: logger,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers an email/password account and logs it in.
func (s *Service) Signup(ctx context.Context, email, nickname, password string) (game.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return game.User{}, TokenPair{}, ErrEmailTaken
	} else if !errors.Is(err, game.ErrNotFound) {
		return game.User{}, TokenPair{}, fmt.Errorf("checking email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return game.User{}, TokenPair{}, fmt.Errorf("hashing password: %w", err)
	}

	u := game.User{
		ID:           s.newID(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(hash),
		Role:         "user",
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return game.User{}, TokenPair{}, fmt.Errorf("creating user: %w", err)
	}

	pair, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return game.User{}, TokenPair{}, err
	}
	s.logger.Info("user signed up", "user_id", u.ID)
	return u, pair, nil
}

// Login checks an email/password pair. Both the unknown-email and the
// wrong-password case return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (game.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, game.ErrNotFound) {
		return game.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return game.User{}, TokenPair{}, fmt.Errorf("loading user: %w", err)
	}
	if u.PasswordHash == "" {
		// Provider-only account.
		return game.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return game.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return game.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// LoginWithProvider logs in via an external identity, creating the account on
// first sight.
func (s *Service) LoginWithProvider(ctx context.Context, p Provider, code string) (game.User, TokenPair, error) {
	id, err := p.Exchange(ctx, code)
	if err != nil {
		return game.User{}, TokenPair{}, err
	}

	u, err := s.store.UserByProvider(ctx, p.Name(), id.ProviderUserID)
	if errors.Is(err, game.ErrNotFound) {
		u, err = s.registerProviderUser(ctx, p.Name(), id)
	}
	if err != nil {
		return game.User{}, TokenPair{}, err
	}

	pair, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return game.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

func (s *Service) registerProviderUser(ctx context.Context, provider string, id Identity) (game.User, error) {
	nickname := id.Name
	if nickname == "" {
		nickname = strings.Split(id.Email, "@")[0]
	}
	u := game.User{
		ID:       s.newID(),
		Email:    strings.ToLower(id.Email),
		Nickname: nickname,
		Role:     "user",
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return game.User{}, fmt.Errorf("creating user: %w", err)
	}
	if err := s.store.CreateAuthProvider(ctx, s.newID(), u.ID, provider, id.ProviderUserID); err != nil {
		return game.User{}, fmt.Errorf("linking provider: %w", err)
	}
	s.logger.Info("user signed up via provider", "user_id", u.ID, "provider", provider)
	return u, nil
}

// Refresh rotates a refresh token into a new pair. The spent token is
// revoked so it cannot be replayed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (game.User, TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, KindRefresh)
	if err != nil {
		return game.User{}, TokenPair{}, err
	}
	if revoked, err := s.isRevoked(ctx, claims.ID); err != nil {
		return game.User{}, TokenPair{}, err
	} else if revoked {
		return game.User{}, TokenPair{}, ErrInvalidToken
	}

	u, err := s.store.UserByID(ctx, claims.UserID)
	if errors.Is(err, game.ErrNotFound) {
		return game.User{}, TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return game.User{}, TokenPair{}, fmt.Errorf("loading user: %w", err)
	}

	pair, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return game.User{}, TokenPair{}, err
	}
	s.revoke(ctx, claims)
	return u, pair, nil
}

// Logout revokes the refresh token. Access tokens simply age out.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Verify(refreshToken, KindRefresh)
	if err != nil {
		return ErrInvalidToken
	}
	s.revoke(ctx, claims)
	return nil
}

// UserFromAccessToken resolves an access token to its account. Used by the
// auth middleware.
func (s *Service) UserFromAccessToken(ctx context.Context, accessToken string) (game.User, error) {
	claims, err := s.tokens.Verify(accessToken, KindAccess)
	if err != nil {
		return game.User{}, err
	}
	u, err := s.store.UserByID(ctx, claims.UserID)
	if errors.Is(err, game.ErrNotFound) {
		return game.User{}, ErrInvalidToken
	}
	return u, err
}

func (s *Service) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.denylist == nil {
		return false, nil
	}
	revoked, err := s.denylist.Revoked(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("checking revocation: %w", err)
	}
	return revoked, nil
}

func (s *Service) revoke(ctx context.Context, claims *Claims) {
	if s.denylist == nil {
		return
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Warn("revoking refresh token failed", "error", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openclaw/pokerhall/internal/hash"
	"github.com/openclaw/pokerhall/internal/logging"
	"github.com/openclaw/pokerhall/internal/models"
	"github.com/openclaw/pokerhall/internal/repo"
	"github.com/openclaw/pokerhall/internal/tokens"
)

var (
	// ErrInvalidCredentials covers both unknown-user and wrong-password so the
	// two cases stay indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already exists")
	// ErrRefreshRejected covers every refresh failure mode: bad signature,
	// expired token, missing session, stored-expiry passed, reuse detected.
	ErrRefreshRejected = errors.New("refresh rejected")
)

// AuthService owns the session lifecycle: credential verification, dual-token
// issuance, stateful rotation with reuse detection, and logout invalidation.
type AuthService struct {
	Repo  *repo.GormRepo
	Codec *tokens.Codec
}

type SessionResult struct {
	UserID       uint
	Username     string
	Role         models.Role
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Register creates a user with the default player role. The caller never gets
// to pick a role: any client-supplied role field dies at the handler boundary.
func (s *AuthService) Register(ctx context.Context, username string, email *string, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RolePlayer,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_conflict", "username", username)
			return nil, ErrUserExists
		}
		return nil, err
	}
	l.Info("user_registered", "user_id", user.ID)
	return &user, nil
}

// Login verifies the credential and establishes a session, overwriting any
// previously stored refresh hash so at most one refresh token is live per
// user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	res, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.StoreRefreshSession(ctx, user.ID, tokens.Sha256Hex(res.RefreshToken), res.RefreshExp); err != nil {
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID, "role", user.Role)
	return res, nil
}

// Refresh rotates the session: the presented token must be signature-valid,
// backed by a live stored hash, and must match that hash exactly. A
// signature-valid token that does not match the stored hash is treated as
// reuse of a rotated-out token and kills the current session.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Codec.ParseRefresh(rawToken)
	if err != nil {
		l.Warn("refresh_failed", "reason", "invalid or expired token")
		return nil, ErrRefreshRejected
	}

	user, err := s.Repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "reason", "unknown user", "user_id", claims.UserID)
			return nil, ErrRefreshRejected
		}
		return nil, err
	}
	if user.RefreshTokenHash == nil || user.RefreshTokenExpiresAt == nil {
		l.Warn("refresh_failed", "reason", "session not found", "user_id", user.ID)
		return nil, ErrRefreshRejected
	}

	// The stored expiry is independent defense in depth: it wins even while
	// the token's own exp claim is still in the future.
	if user.RefreshTokenExpiresAt.Before(time.Now()) {
		if err := s.Repo.ClearRefreshSession(ctx, user.ID); err != nil {
			return nil, err
		}
		l.Warn("refresh_failed", "reason", "stored session expired", "user_id", user.ID)
		return nil, ErrRefreshRejected
	}

	presentedHash := tokens.Sha256Hex(rawToken)
	if !tokens.HashEqual(presentedHash, *user.RefreshTokenHash) {
		// Reuse detection: the token verified cryptographically but was
		// rotated out. Someone is replaying an old token, so end the live
		// session too.
		if err := s.Repo.ClearRefreshSession(ctx, user.ID); err != nil {
			return nil, err
		}
		l.Warn("refresh_reuse_detected", "user_id", user.ID)
		return nil, ErrRefreshRejected
	}

	res, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	err = s.Repo.RotateRefreshSession(ctx, user.ID, presentedHash, tokens.Sha256Hex(res.RefreshToken), res.RefreshExp)
	if err != nil {
		if errors.Is(err, repo.ErrStaleSession) {
			l.Warn("refresh_failed", "reason", "lost rotation race", "user_id", user.ID)
			return nil, ErrRefreshRejected
		}
		return nil, err
	}

	l.Info("refresh_rotated", "user_id", user.ID)
	return res, nil
}

// Logout invalidates the stored session for whoever the access token names.
// The token is decoded without verification so an expired token still logs
// out, and every path succeeds: logging out twice, or with no token at all,
// is fine.
func (s *AuthService) Logout(ctx context.Context, rawAccessToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if rawAccessToken == "" {
		return nil
	}
	claims, err := tokens.DecodeUnverified(rawAccessToken)
	if err != nil || claims.UserID == 0 {
		return nil
	}
	if _, err := s.Repo.FindUserByID(ctx, claims.UserID); err != nil {
		return nil
	}
	if err := s.Repo.ClearRefreshSession(ctx, claims.UserID); err != nil {
		return err
	}
	l.Info("logout", "user_id", claims.UserID)
	return nil
}

func (s *AuthService) issuePair(user *models.User) (*SessionResult, error) {
	accessToken, accessExp, err := s.Codec.SignAccess(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, refreshExp, err := s.Codec.SignRefresh(user)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &SessionResult{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

package tokens

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/openclaw/pokerhall/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("expired token")
)

// Claims is the payload carried by both token kinds.
type Claims struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies the access/refresh token pair. The two kinds use
// independent secrets, so leaking one cannot forge the other.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewCodec(accessSecret, refreshSecret []byte) (*Codec, error) {
	if len(accessSecret) == 0 {
		return nil, errors.New("tokens: access secret is empty")
	}
	if len(refreshSecret) == 0 {
		return nil, errors.New("tokens: refresh secret is empty")
	}
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		AccessTTL:     AccessTTL,
		RefreshTTL:    RefreshTTL,
	}, nil
}

func (c *Codec) SignAccess(u *models.User) (string, time.Time, error) {
	exp := time.Now().Add(c.AccessTTL)
	return sign(u, exp, "", c.accessSecret)
}

// SignRefresh mints the long-lived token. Each refresh token gets a fresh JTI
// so two tokens for the same user never collide byte for byte.
func (c *Codec) SignRefresh(u *models.User) (string, time.Time, error) {
	exp := time.Now().Add(c.RefreshTTL)
	return sign(u, exp, uuid.NewString(), c.refreshSecret)
}

func sign(u *models.User, exp time.Time, jti string, secret []byte) (string, time.Time, error) {
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        jti,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (c *Codec) ParseAccess(tokenStr string) (*Claims, error) {
	return parse(tokenStr, c.accessSecret)
}

func (c *Codec) ParseRefresh(tokenStr string) (*Claims, error) {
	return parse(tokenStr, c.refreshSecret)
}

func parse(tokenStr string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// DecodeUnverified extracts claims without checking signature or expiry.
// Logout uses it so an expired access token can still end the session.
func DecodeUnverified(tokenStr string) (*Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// Sha256Hex is the digest persisted for refresh tokens; the raw token is
// never stored.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashEqual compares two hex digests in constant time. Length is checked
// first; unequal lengths can fail fast without leaking anything about the
// digest contents.
func HashEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

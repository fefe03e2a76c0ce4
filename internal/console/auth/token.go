package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry is how long an issued token stays valid.
const TokenExpiry = 72 * time.Hour

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

// Identity is the account identity carried inside a bearer token.
type Identity struct {
	AccountID string
	Username  string
	IsAdmin   bool
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Signer issues and verifies the bearer tokens used by both the HTTP
// routes and the realtime websocket handshake.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// CreateToken mints a signed token for the given identity.
func (s *Signer) CreateToken(id Identity) (string, error) {
	now := s.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.AccountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: id.Username,
		IsAdmin:  id.IsAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken parses and validates a bearer token. The ban status of
// the account is not encoded in the token and must be checked against
// the database by the caller.
func (s *Signer) VerifyToken(tokenString string) (Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{
		AccountID: claims.Subject,
		Username:  claims.Username,
		IsAdmin:   claims.IsAdmin,
	}, nil
}

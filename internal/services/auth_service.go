package services

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService checks the single admin account and issues HS256 tokens.
type AuthService struct {
	Username     string
	PasswordHash string
	Secret       []byte
	TTL          time.Duration
}

// Claims carried by admin tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login returns a signed token for valid credentials. An empty password
// hash disables login.
func (s AuthService) Login(username, password string, now time.Time) (string, time.Time, error) {
	if s.PasswordHash == "" || !strings.EqualFold(strings.TrimSpace(username), s.Username) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse validates a token and returns its claims.
func (s AuthService) Parse(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

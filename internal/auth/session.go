// Package auth holds the single-user login gate. A Session is passed
// explicitly to whatever needs it; there is no process-wide login state.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"placement/internal/config"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

type Session struct {
	State     State
	Username  string
	ExpiresAt time.Time
}

func (s Session) Authenticated() bool {
	return s.State == Authenticated
}

var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticator checks credentials against the configured user and signs
// session tokens.
type Authenticator struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthenticator(cfg config.Config) (*Authenticator, error) {
	for name, value := range map[string]string{
		"APP_USERNAME":   cfg.AppUsername,
		"APP_PASSWORD":   cfg.AppPassword,
		"SESSION_SECRET": cfg.SessionSecret,
	} {
		if err := cfg.Require(name, value); err != nil {
			return nil, err
		}
	}

	ttl := time.Duration(cfg.SessionTTLMin) * time.Minute
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Authenticator{
		username: cfg.AppUsername,
		password: cfg.AppPassword,
		secret:   []byte(cfg.SessionSecret),
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Login is the only way from Unauthenticated to Authenticated. On failure the
// given session is returned unchanged. The configured password may be a
// bcrypt hash.
func (a *Authenticator) Login(s Session, username, password string) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	var passOK bool
	if strings.HasPrefix(a.password, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(a.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	}
	if !userOK || !passOK {
		return s, ErrInvalidCredentials
	}

	return Session{
		State:     Authenticated,
		Username:  a.username,
		ExpiresAt: a.now().Add(a.ttl),
	}, nil
}

func (a *Authenticator) IssueToken(s Session) (string, error) {
	if !s.Authenticated() {
		return "", errors.New("cannot issue a token for an unauthenticated session")
	}
	claims := jwt.MapClaims{
		"sub": s.Username,
		"iat": a.now().Unix(),
		"exp": s.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// SessionFromToken restores a session from a signed token. Any invalid,
// expired or foreign token yields an Unauthenticated session.
func (a *Authenticator) SessionFromToken(tokenString string) Session {
	if tokenString == "" {
		return Session{}
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return Session{}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}
	}
	sub, _ := claims["sub"].(string)
	if sub != a.username {
		return Session{}
	}
	exp, _ := claims["exp"].(float64)
	if time.Unix(int64(exp), 0).Before(a.now()) {
		return Session{}
	}
	return Session{State: Authenticated, Username: sub, ExpiresAt: time.Unix(int64(exp), 0)}
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the request session, Unauthenticated when absent.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}

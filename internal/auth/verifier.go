// Package auth turns a bearer token into the session signal the itinerary
// core consumes: whether a user is authenticated and their numeric id.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Session is the external auth signal.
type Session struct {
	Authenticated bool
	UserID        *int
}

// ForUser returns an authenticated session for id.
func ForUser(id int) Session { return Session{Authenticated: true, UserID: &id} }

// User returns the user id when the session is authenticated and carries one.
func (s Session) User() (int, bool) {
	if !s.Authenticated || s.UserID == nil {
		return 0, false
	}
	return *s.UserID, true
}

// Claims carried in issued tokens.
type Claims struct {
	UserID int `json:"userId"`
	jwt.RegisteredClaims
}

// Verifier validates tokens. Modes: dev (token is "user:<id>" or "<id>"),
// hmac (HS256 JWT with a userId claim).
type Verifier struct {
	Mode       string
	HMACSecret []byte
	Issuer     string
}

func NewVerifier(mode, secret string) *Verifier {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = "dev"
	}
	return &Verifier{Mode: mode, HMACSecret: []byte(secret), Issuer: "wayfarer"}
}

// Verify returns an authenticated Session for a valid token.
func (v *Verifier) Verify(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrUnauthenticated
	}
	switch v.Mode {
	case "dev":
		id, err := strconv.Atoi(strings.TrimPrefix(token, "user:"))
		if err != nil {
			return Session{}, fmt.Errorf("%w: invalid dev token; expected user:<id>", ErrUnauthenticated)
		}
		return ForUser(id), nil
	case "hmac":
		claims := &Claims{}
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return v.HMACSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		if claims.UserID == 0 {
			if id, err := strconv.Atoi(claims.Subject); err == nil {
				claims.UserID = id
			}
		}
		if claims.UserID == 0 {
			return Session{}, fmt.Errorf("%w: missing userId claim", ErrUnauthenticated)
		}
		return ForUser(claims.UserID), nil
	default:
		return Session{}, fmt.Errorf("unsupported auth mode %q", v.Mode)
	}
}

// Issue signs a token for userID. In dev mode it returns the plain dev token.
func (v *Verifier) Issue(userID int, ttl time.Duration) (string, error) {
	if v.Mode == "dev" {
		return "user:" + strconv.Itoa(userID), nil
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    v.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.HMACSecret)
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// FromRequest resolves the session for an HTTP request; unauthenticated when
// the header is absent or invalid.
func (v *Verifier) FromRequest(r *http.Request) Session {
	s, err := v.Verify(BearerToken(r))
	if err != nil {
		return Session{}
	}
	return s
}

package grant

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/janhq/notes-mcp/internal/domain/identity"
)

const (
	useState  = "state"
	useCode   = "code"
	useAccess = "access"

	// PKCEMethodS256 is the only code challenge method accepted.
	PKCEMethodS256 = "S256"
)

var (
	// ErrInvalidToken covers malformed, expired, foreign or wrongly typed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidGrant is returned when a code cannot be redeemed.
	ErrInvalidGrant = errors.New("invalid_grant")
	// ErrChallengeRequired is returned when a code would be minted without PKCE.
	ErrChallengeRequired = errors.New("code_challenge required")
)

// Config holds the signing parameters.
type Config struct {
	Issuer    string
	Key       []byte
	AccessTTL time.Duration
	CodeTTL   time.Duration
}

// LoginState is carried through the provider round trip inside the signed state parameter.
type LoginState struct {
	RedirectURI   string
	ClientState   string
	CodeChallenge string
}

type claims struct {
	jwt.RegisteredClaims
	Use           string `json:"token_use"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	RedirectURI   string `json:"redirect_uri,omitempty"`
	ClientState   string `json:"client_state,omitempty"`
	CodeChallenge string `json:"code_challenge,omitempty"`
}

// Issuer mints and verifies the HS256 tokens used by the login flow and the MCP endpoint.
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg, now: time.Now}
}

// AccessTTL is the lifetime of access grants.
func (i *Issuer) AccessTTL() time.Duration {
	return i.cfg.AccessTTL
}

// SignState wraps the client's parameters for the provider round trip.
func (i *Issuer) SignState(state LoginState) (string, error) {
	return i.sign(claims{
		Use:           useState,
		RedirectURI:   state.RedirectURI,
		ClientState:   state.ClientState,
		CodeChallenge: state.CodeChallenge,
	}, "", i.cfg.CodeTTL)
}

// ParseState validates a state token produced by SignState.
func (i *Issuer) ParseState(token string) (*LoginState, error) {
	c, err := i.parse(token, useState)
	if err != nil {
		return nil, err
	}
	return &LoginState{
		RedirectURI:   c.RedirectURI,
		ClientState:   c.ClientState,
		CodeChallenge: c.CodeChallenge,
	}, nil
}

// IssueCode mints a short-lived authorization code bound to the redirect URI and PKCE challenge.
func (i *Issuer) IssueCode(user *identity.User, redirectURI, codeChallenge string) (string, error) {
	if codeChallenge == "" {
		return "", ErrChallengeRequired
	}
	return i.sign(claims{
		Use:           useCode,
		Email:         user.Email,
		Name:          user.Name,
		RedirectURI:   redirectURI,
		CodeChallenge: codeChallenge,
	}, user.Subject, i.cfg.CodeTTL)
}

// RedeemCode checks a code against the redirect URI and PKCE verifier of the token request.
// Codes are stateless, so a code can be replayed until it expires.
func (i *Issuer) RedeemCode(code, redirectURI, verifier string) (*identity.User, error) {
	c, err := i.parse(code, useCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrant, err)
	}
	if c.RedirectURI != "" && c.RedirectURI != redirectURI {
		return nil, fmt.Errorf("%w: redirect_uri mismatch", ErrInvalidGrant)
	}
	if c.CodeChallenge == "" {
		return nil, fmt.Errorf("%w: code was issued without a challenge", ErrInvalidGrant)
	}
	if verifier == "" {
		return nil, fmt.Errorf("%w: code_verifier required", ErrInvalidGrant)
	}
	if subtle.ConstantTimeCompare([]byte(PKCEChallenge(verifier)), []byte(c.CodeChallenge)) != 1 {
		return nil, fmt.Errorf("%w: code_verifier mismatch", ErrInvalidGrant)
	}
	return userFromClaims(c), nil
}

// IssueAccess mints the bearer grant presented to /mcp.
func (i *Issuer) IssueAccess(user *identity.User) (string, error) {
	return i.sign(claims{
		Use:   useAccess,
		Email: user.Email,
		Name:  user.Name,
	}, user.Subject, i.cfg.AccessTTL)
}

// Verify validates an access grant and returns its user.
func (i *Issuer) Verify(token string) (*identity.User, error) {
	c, err := i.parse(token, useAccess)
	if err != nil {
		return nil, err
	}
	if c.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidToken)
	}
	return userFromClaims(c), nil
}

// PKCEChallenge computes the S256 challenge of a verifier.
func PKCEChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (i *Issuer) sign(c claims, subject string, ttl time.Duration) (string, error) {
	now := i.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    i.cfg.Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", c.Use, err)
	}
	return token, nil
}

func (i *Issuer) parse(token, use string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return i.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Use != use {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, use, c.Use)
	}
	return &c, nil
}

func userFromClaims(c *claims) *identity.User {
	return &identity.User{
		Subject: c.Subject,
		Email:   c.Email,
		Name:    c.Name,
	}
}

package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
)

// Provider is the external identity provider speaking the authorization-code flow.
type Provider interface {
	AuthCodeURL(state string, hostedDomain string) string
	Exchange(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*User, error)
}

// DomainDeniedError is returned when the authenticated account is outside the allowlist.
type DomainDeniedError struct {
	Email   string
	Domain  string
	Allowed []string
}

func (e *DomainDeniedError) Error() string {
	return fmt.Sprintf("account %s (domain %q) is not in the allowed domains %s", e.Email, e.Domain, strings.Join(e.Allowed, ", "))
}

// Service runs the identity exchange against the provider and enforces the allowlist.
type Service struct {
	provider  Provider
	allowlist *DomainAllowlist
}

// NewService creates the identity service.
func NewService(provider Provider, allowlist *DomainAllowlist) *Service {
	return &Service{
		provider:  provider,
		allowlist: allowlist,
	}
}

// Allowlist exposes the configured domain allowlist.
func (s *Service) Allowlist() *DomainAllowlist {
	return s.allowlist
}

// LoginURL builds the provider authorization URL for the given opaque state.
func (s *Service) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state, s.allowlist.Hint())
}

// CompleteLogin exchanges the authorization code, fetches the profile and applies
// the domain allowlist. A denied account yields *DomainDeniedError wrapped in a
// FORBIDDEN platform error.
func (s *Service) CompleteLogin(ctx context.Context, code string) (*User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "authorization code is required", nil, "")
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "token exchange failed", err, "")
	}

	user, err := s.provider.FetchProfile(ctx, token)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "profile fetch failed", err, "")
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "profile has no email", nil, "")
	}
	user.AccessToken = token

	if !s.allowlist.Allows(user) {
		denied := &DomainDeniedError{
			Email:   user.Email,
			Domain:  user.HostedDomain,
			Allowed: s.allowlist.Domains(),
		}
		return user, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "domain not allowed", denied, "")
	}

	return user, nil
}

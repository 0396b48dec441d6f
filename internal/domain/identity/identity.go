package identity

import (
	"context"
	"strings"
)

// User is the authenticated caller. Email is the tenant key for every note operation.
type User struct {
	Subject      string `json:"sub"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	HostedDomain string `json:"hd,omitempty"`

	// AccessToken is only populated while the login callback is running.
	AccessToken string `json:"-"`
}

// Domain returns the part of the email after '@', lowercased.
func (u *User) Domain() string {
	if u == nil {
		return ""
	}
	at := strings.LastIndex(u.Email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(u.Email[at+1:])
}

type userKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// FromContext returns the user stored by WithUser.
func FromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(userKey{}).(*User)
	if !ok || user == nil || strings.TrimSpace(user.Email) == "" {
		return nil, false
	}
	return user, true
}

// DomainAllowlist restricts logins to accounts of the configured hosted domains.
type DomainAllowlist struct {
	domains []string
}

// NewDomainAllowlist normalises the configured domains. An empty list allows everyone.
func NewDomainAllowlist(domains []string) *DomainAllowlist {
	normalised := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalised = append(normalised, d)
		}
	}
	return &DomainAllowlist{domains: normalised}
}

// Domains returns the configured domains.
func (a *DomainAllowlist) Domains() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.domains...)
}

// Restricted reports whether any domain is configured.
func (a *DomainAllowlist) Restricted() bool {
	return a != nil && len(a.domains) > 0
}

// Allows compares the provider's hosted-domain claim against the allowlist.
// Consumer accounts carry no hd claim and are rejected when a restriction is set.
func (a *DomainAllowlist) Allows(user *User) bool {
	if !a.Restricted() {
		return true
	}
	if user == nil {
		return false
	}
	hd := strings.ToLower(strings.TrimSpace(user.HostedDomain))
	if hd == "" {
		return false
	}
	for _, d := range a.domains {
		if hd == d {
			return true
		}
	}
	return false
}

// Hint returns the single configured domain, used as the provider's hd parameter.
func (a *DomainAllowlist) Hint() string {
	if a == nil || len(a.domains) != 1 {
		return ""
	}
	return a.domains[0]
}

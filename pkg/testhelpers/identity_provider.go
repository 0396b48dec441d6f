package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Profile is what the fake identity provider returns from its userinfo endpoint.
type Profile struct {
	Sub           string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	HostedDomain  string `json:"hd,omitempty"`
}

// IdentityProvider is an httptest OAuth2 provider with /auth, /token and /userinfo.
type IdentityProvider struct {
	Server *httptest.Server

	mu             sync.Mutex
	profile        Profile
	tokenStatus    int
	userInfoStatus int
	codes          []string
}

// NewIdentityProvider starts a fake provider that issues "fake-access-token" for any code.
func NewIdentityProvider(t *testing.T, profile Profile) *IdentityProvider {
	t.Helper()
	p := &IdentityProvider{
		profile:        profile,
		tokenStatus:    http.StatusOK,
		userInfoStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Query().Get("redirect_uri")+"?code=fake-code&state="+r.URL.Query().Get("state"), http.StatusFound)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		p.mu.Lock()
		p.codes = append(p.codes, r.PostForm.Get("code"))
		status := p.tokenStatus
		p.mu.Unlock()
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "fake-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		status, profile := p.userInfoStatus, p.profile
		p.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer fake-access-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			return
		}
		if status != http.StatusOK {
			writeJSON(w, status, map[string]string{"error": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, profile)
	})

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

// AuthURL, TokenURL and UserInfoURL are the provider endpoints.
func (p *IdentityProvider) AuthURL() string     { return p.Server.URL + "/auth" }
func (p *IdentityProvider) TokenURL() string    { return p.Server.URL + "/token" }
func (p *IdentityProvider) UserInfoURL() string { return p.Server.URL + "/userinfo" }

// SetProfile replaces the profile served by /userinfo.
func (p *IdentityProvider) SetProfile(profile Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile = profile
}

// FailToken makes /token answer with the given status.
func (p *IdentityProvider) FailToken(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenStatus = status
}

// FailUserInfo makes /userinfo answer with the given status.
func (p *IdentityProvider) FailUserInfo(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userInfoStatus = status
}

// ExchangedCodes returns the codes posted to /token.
func (p *IdentityProvider) ExchangedCodes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.codes...)
}

// DomainOf returns the part after '@'.
func DomainOf(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return email[at+1:]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

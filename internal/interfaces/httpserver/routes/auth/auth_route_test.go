package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/notes-mcp/internal/config"
	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/infrastructure/grant"
	"github.com/janhq/notes-mcp/internal/infrastructure/oauthprovider"
	"github.com/janhq/notes-mcp/pkg/telemetry"
	"github.com/janhq/notes-mcp/pkg/testhelpers"
)

const clientRedirect = "https://client.example.com/cb"

type authFixture struct {
	router *gin.Engine
	idp    *testhelpers.IdentityProvider
	issuer *grant.Issuer
}

func newAuthFixture(t *testing.T, profile testhelpers.Profile, domains ...string) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idp := testhelpers.NewIdentityProvider(t, profile)
	provider := oauthprovider.NewClient(oauthprovider.ClientConfig{
		ClientID:     "client-id",
		ClientSecret: "secret",
		RedirectURL:  "http://notes.test/callback",
		AuthURL:      idp.AuthURL(),
		TokenURL:     idp.TokenURL(),
		UserInfoURL:  idp.UserInfoURL(),
		Scopes:       []string{"openid", "email"},
		Timeout:      5 * time.Second,
	})
	issuer := grant.NewIssuer(grant.Config{
		Issuer:    "notes-mcp",
		Key:       []byte("0123456789abcdef0123456789abcdef"),
		AccessTTL: time.Hour,
		CodeTTL:   5 * time.Minute,
	})
	cfg := &config.Config{
		PublicBaseURL:           "http://notes.test",
		ClientRedirectAllowlist: []string{clientRedirect, "http://localhost"},
	}
	route := NewAuthRoute(cfg,
		identity.NewService(provider, identity.NewDomainAllowlist(domains)),
		issuer,
		telemetry.NewSanitizer(telemetry.PIILevelHashed, "test"),
	)

	router := gin.New()
	route.RegisterRouter(router)
	return &authFixture{router: router, idp: idp, issuer: issuer}
}

func (f *authFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *authFixture) callback(t *testing.T, state grant.LoginState) *httptest.ResponseRecorder {
	t.Helper()
	signed, err := f.issuer.SignState(state)
	require.NoError(t, err)
	q := url.Values{"code": {"provider-code"}, "state": {signed}}
	return f.do(httptest.NewRequest(http.MethodGet, "/callback?"+q.Encode(), nil))
}

func TestAuthorizeRedirectsToProvider(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{}, "corp.com")

	q := url.Values{
		"redirect_uri":          {clientRedirect},
		"state":                 {"client-state"},
		"code_challenge":        {grant.PKCEChallenge("verifier")},
		"code_challenge_method": {"S256"},
		"response_type":         {"code"},
	}
	w := f.do(httptest.NewRequest(http.MethodGet, "/authorize?"+q.Encode(), nil))

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc.String(), f.idp.AuthURL()))
	assert.Equal(t, "corp.com", loc.Query().Get("hd"))

	state, err := f.issuer.ParseState(loc.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, clientRedirect, state.RedirectURI)
	assert.Equal(t, "client-state", state.ClientState)
}

func TestAuthorizeRejectsBadRequests(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{})

	tests := []struct {
		name  string
		query url.Values
	}{
		{"redirect not allowed", url.Values{"redirect_uri": {"https://evil.example.com/cb"}}},
		{"plain pkce", url.Values{"code_challenge": {"abc"}, "code_challenge_method": {"plain"}}},
		{"redirect without pkce", url.Values{"redirect_uri": {clientRedirect}, "state": {"s"}}},
		{"token response type", url.Values{"response_type": {"token"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(httptest.NewRequest(http.MethodGet, "/authorize?"+tt.query.Encode(), nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCallbackRejectsInvalidInput(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{Email: "ann@corp.com", HostedDomain: "corp.com"})
	signed, err := f.issuer.SignState(grant.LoginState{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
	}{
		{"provider error", "error=access_denied&state=" + signed},
		{"missing state", "code=abc"},
		{"malformed state", "code=abc&state=not-a-token"},
		{"missing code", "state=" + signed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, f.idp.ExchangedCodes())
}

func TestCallbackProviderFailuresAre500(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{Email: "ann@corp.com", HostedDomain: "corp.com"})

	f.idp.FailToken(http.StatusBadRequest)
	w := f.callback(t, grant.LoginState{})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	f.idp.FailToken(http.StatusOK)
	f.idp.FailUserInfo(http.StatusServiceUnavailable)
	w = f.callback(t, grant.LoginState{})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, f.idp.ExchangedCodes(), 2)
}

func TestCallbackDomainMismatchRendersDeniedPage(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{
		Sub: "7", Email: "mallory@other.org", VerifiedEmail: true, HostedDomain: "other.org",
	}, "corp.com")

	w := f.callback(t, grant.LoginState{RedirectURI: clientRedirect, ClientState: "xyz"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "mallory@other.org")
	assert.Contains(t, body, "corp.com")
	assert.Empty(t, w.Header().Get("Location"))
	assert.NotContains(t, body, "access_token")
	assert.NotContains(t, body, "code=")
}

func TestCallbackIssuesCodeAndTokenExchange(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{
		Sub: "42", Email: "ann@corp.com", VerifiedEmail: true, Name: "Ann", HostedDomain: "corp.com",
	}, "corp.com")

	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	w := f.callback(t, grant.LoginState{
		RedirectURI:   clientRedirect,
		ClientState:   "xyz",
		CodeChallenge: grant.PKCEChallenge(verifier),
	})
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "client.example.com", loc.Host)
	assert.Equal(t, "xyz", loc.Query().Get("state"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {clientRedirect},
		"code_verifier": {"wrong-verifier"},
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = f.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_grant")

	form.Set("code_verifier", verifier)
	req = httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var tok TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
	assert.Equal(t, "ann@corp.com", tok.Email)

	user, err := f.issuer.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ann@corp.com", user.Email)
	assert.Equal(t, "42", user.Subject)
}

func TestCallbackWithoutClientRedirectReturnsGrant(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{Sub: "1", Email: "bob@corp.com", VerifiedEmail: true, HostedDomain: "corp.com"})

	w := f.callback(t, grant.LoginState{})
	require.Equal(t, http.StatusOK, w.Code)

	var tok TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	assert.Equal(t, "bob@corp.com", tok.Email)
	_, err := f.issuer.Verify(tok.AccessToken)
	assert.NoError(t, err)
}

func TestTokenRejectsUnsupportedGrantType(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{})
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader("grant_type=password"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported_grant_type")
}

func TestDiscoveryAndRegistration(t *testing.T) {
	f := newAuthFixture(t, testhelpers.Profile{})

	w := f.do(httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "http://notes.test/token", meta["token_endpoint"])
	assert.Equal(t, []any{"S256"}, meta["code_challenge_methods_supported"])

	body := `{"client_name":"cli","redirect_uris":["http://localhost:33418/callback"]}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = f.do(req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), PublicClientID)

	req = httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"redirect_uris":["https://evil.example.com/cb"]}`))
	req.Header.Set("Content-Type", "application/json")
	w = f.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRedirectAllowed(t *testing.T) {
	route := &AuthRoute{redirects: []string{clientRedirect, "http://localhost", "http://127.0.0.1"}}

	assert.True(t, route.redirectAllowed(clientRedirect))
	assert.True(t, route.redirectAllowed("http://localhost:5173/oauth/callback"))
	assert.True(t, route.redirectAllowed("http://127.0.0.1:9000/cb"))
	assert.False(t, route.redirectAllowed(clientRedirect+"/other"))
	assert.False(t, route.redirectAllowed("https://localhost:5173/cb"))
	assert.False(t, route.redirectAllowed("javascript:alert(1)"))
	assert.False(t, route.redirectAllowed("/relative"))
	assert.False(t, (&AuthRoute{}).redirectAllowed(clientRedirect))
}

package auth

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/janhq/notes-mcp/internal/config"
	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/infrastructure/grant"
	"github.com/janhq/notes-mcp/internal/infrastructure/metrics"
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/responses"
	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
	"github.com/janhq/notes-mcp/pkg/telemetry"
)

// PublicClientID is handed out by dynamic registration; all MCP clients are public PKCE clients.
const PublicClientID = "notes-mcp-public"

// TokenResponse is the access grant returned to the client
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Email       string `json:"email"`
}

// AuthRoute serves the login flow in front of the external identity provider
type AuthRoute struct {
	identity  *identity.Service
	issuer    *grant.Issuer
	sanitizer *telemetry.Sanitizer
	baseURL   string
	redirects []string
}

// NewAuthRoute creates the auth routes
func NewAuthRoute(cfg *config.Config, identitySvc *identity.Service, issuer *grant.Issuer, sanitizer *telemetry.Sanitizer) *AuthRoute {
	return &AuthRoute{
		identity:  identitySvc,
		issuer:    issuer,
		sanitizer: sanitizer,
		baseURL:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		redirects: cfg.ClientRedirectAllowlist,
	}
}

// RegisterRouter registers the login, callback, token and discovery endpoints
func (route *AuthRoute) RegisterRouter(router gin.IRouter) {
	router.GET("/authorize", route.authorize)
	router.GET("/login", route.authorize)
	router.GET("/callback", route.callback)
	router.POST("/token", route.token)
	router.POST("/register", route.register)
	router.GET("/.well-known/oauth-authorization-server", route.authorizationServerMetadata)
	router.GET("/.well-known/oauth-protected-resource", route.protectedResourceMetadata)
}

// ResourceMetadataURL is advertised in WWW-Authenticate challenges on /mcp
func (route *AuthRoute) ResourceMetadataURL() string {
	return route.baseURL + "/.well-known/oauth-protected-resource"
}

func (route *AuthRoute) authorize(c *gin.Context) {
	if rt := c.Query("response_type"); rt != "" && rt != "code" {
		responses.HandleOAuthError(c, http.StatusBadRequest, "unsupported_response_type", "only response_type=code is supported")
		return
	}

	redirectURI := strings.TrimSpace(c.Query("redirect_uri"))
	if redirectURI != "" && !route.redirectAllowed(redirectURI) {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "redirect_uri is not allowed", "0b7c2d5e-3a1f-4e8b-9c6d-2f4a5b6c7d01")
		return
	}

	challenge := strings.TrimSpace(c.Query("code_challenge"))
	if redirectURI != "" && challenge == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "code_challenge is required when redirect_uri is set", "7a1b2c3d-9e8f-4a6b-8c5d-4e3f2a1b0c07")
		return
	}
	if challenge != "" && c.Query("code_challenge_method") != grant.PKCEMethodS256 {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "code_challenge_method must be S256", "1c8d3e6f-4b2a-4f9c-8d7e-3a5b6c7d8e02")
		return
	}

	state, err := route.issuer.SignState(grant.LoginState{
		RedirectURI:   redirectURI,
		ClientState:   c.Query("state"),
		CodeChallenge: challenge,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to start login")
		return
	}

	c.Redirect(http.StatusFound, route.identity.LoginURL(state))
}

func (route *AuthRoute) callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":             providerErr,
			"error_description": c.Query("error_description"),
		})
		return
	}

	rawState := c.Query("state")
	if rawState == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "missing state parameter", "2d9e4f70-5c3b-4a0d-9e8f-4b6c7d8e9f03")
		return
	}
	state, err := route.issuer.ParseState(rawState)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid or expired state parameter", "3e0f5081-6d4c-4b1e-8f90-5c7d8e9f0a04")
		return
	}
	code := c.Query("code")
	if code == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "missing code parameter", "4f106192-7e5d-4c2f-9a01-6d8e9f0a1b05")
		return
	}

	ctx := c.Request.Context()
	user, err := route.identity.CompleteLogin(ctx, code)
	if err != nil {
		var denied *identity.DomainDeniedError
		if errors.As(err, &denied) {
			metrics.RecordLogin("denied")
			log.Warn().
				Str("request_id", platformerrors.RequestIDFromContext(ctx)).
				Str("user", route.sanitizer.Email(denied.Email)).
				Strs("allowed_domains", denied.Allowed).
				Msg("login rejected by domain allowlist")
			route.renderDenied(c, denied)
			return
		}
		metrics.RecordLogin("error")
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
			responses.HandleError(c, err, "invalid login callback")
			return
		}
		responses.HandleErrorWithStatus(c, http.StatusInternalServerError, err, "login with the identity provider failed")
		return
	}

	metrics.RecordLogin("success")
	log.Info().
		Str("request_id", platformerrors.RequestIDFromContext(ctx)).
		Str("user", route.sanitizer.Email(user.Email)).
		Msg("login completed")

	if state.RedirectURI == "" {
		route.writeAccessGrant(c, user)
		return
	}

	authCode, err := route.issuer.IssueCode(user, state.RedirectURI, state.CodeChallenge)
	if err != nil {
		responses.HandleError(c, err, "failed to issue authorization code")
		return
	}
	target, err := url.Parse(state.RedirectURI)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid redirect_uri", "50217203-8f6e-4d30-8b12-7e9f0a1b2c06")
		return
	}
	query := target.Query()
	query.Set("code", authCode)
	if state.ClientState != "" {
		query.Set("state", state.ClientState)
	}
	target.RawQuery = query.Encode()
	c.Redirect(http.StatusFound, target.String())
}

func (route *AuthRoute) token(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if gt := c.PostForm("grant_type"); gt != "authorization_code" {
		responses.HandleOAuthError(c, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
		return
	}
	code := c.PostForm("code")
	if code == "" {
		responses.HandleOAuthError(c, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	user, err := route.issuer.RedeemCode(code, c.PostForm("redirect_uri"), c.PostForm("code_verifier"))
	if err != nil {
		log.Debug().Err(err).Msg("authorization code rejected")
		responses.HandleOAuthError(c, http.StatusBadRequest, "invalid_grant", "authorization code is invalid or expired")
		return
	}

	route.writeAccessGrant(c, user)
}

type registrationRequest struct {
	RedirectURIs []string `json:"redirect_uris"`
	ClientName   string   `json:"client_name"`
}

func (route *AuthRoute) register(c *gin.Context) {
	var req registrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleOAuthError(c, http.StatusBadRequest, "invalid_client_metadata", "request body must be JSON")
		return
	}
	if len(req.RedirectURIs) == 0 {
		responses.HandleOAuthError(c, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uris is required")
		return
	}
	for _, uri := range req.RedirectURIs {
		if !route.redirectAllowed(uri) {
			responses.HandleOAuthError(c, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uri is not allowed: "+uri)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"client_id":                  PublicClientID,
		"client_name":                req.ClientName,
		"redirect_uris":              req.RedirectURIs,
		"grant_types":                []string{"authorization_code"},
		"response_types":             []string{"code"},
		"token_endpoint_auth_method": "none",
	})
}

func (route *AuthRoute) authorizationServerMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"issuer":                                route.baseURL,
		"authorization_endpoint":                route.baseURL + "/authorize",
		"token_endpoint":                        route.baseURL + "/token",
		"registration_endpoint":                 route.baseURL + "/register",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code"},
		"code_challenge_methods_supported":      []string{grant.PKCEMethodS256},
		"token_endpoint_auth_methods_supported": []string{"none"},
	})
}

func (route *AuthRoute) protectedResourceMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"resource":                 route.baseURL + "/mcp",
		"authorization_servers":    []string{route.baseURL},
		"bearer_methods_supported": []string{"header"},
	})
}

func (route *AuthRoute) writeAccessGrant(c *gin.Context, user *identity.User) {
	accessToken, err := route.issuer.IssueAccess(user)
	if err != nil {
		responses.HandleError(c, err, "failed to issue access token")
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(route.issuer.AccessTTL().Seconds()),
		Email:       user.Email,
	})
}

func (route *AuthRoute) renderDenied(c *gin.Context, denied *identity.DomainDeniedError) {
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusForbidden)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := deniedPage.Execute(c.Writer, deniedPageData{Email: denied.Email, Allowed: denied.Allowed}); err != nil {
		log.Error().Err(err).Msg("failed to render access denied page")
	}
	c.Abort()
}

// redirectAllowed accepts exact allowlist matches. An entry without a path on a
// loopback host also accepts any port and path on that host, which is how
// native MCP clients receive their callbacks.
func (route *AuthRoute) redirectAllowed(raw string) bool {
	target, err := url.Parse(raw)
	if err != nil || !target.IsAbs() || target.Fragment != "" {
		return false
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return false
	}
	for _, entry := range route.redirects {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == raw {
			return true
		}
		allowed, err := url.Parse(entry)
		if err != nil || strings.Trim(allowed.Path, "/") != "" || allowed.Port() != "" {
			continue
		}
		if allowed.Scheme == target.Scheme && allowed.Hostname() == target.Hostname() && isLoopback(target.Hostname()) {
			return true
		}
	}
	return false
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

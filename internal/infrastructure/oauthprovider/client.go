package oauthprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/infrastructure/metrics"
)

// ClientConfig describes the upstream OAuth2 provider registration.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	Timeout      time.Duration
}

// Client runs the authorization-code flow against the provider and reads the profile.
type Client struct {
	oauth       *oauth2.Config
	httpClient  *http.Client
	userInfo    *resty.Client
	userInfoURL string
}

type userInfoResponse struct {
	ID            string `json:"id"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	VerifiedEmail *bool  `json:"verified_email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	HostedDomain  string `json:"hd"`
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient:  httpClient,
		userInfo:    resty.NewWithClient(httpClient).SetHeader("Accept", "application/json"),
		userInfoURL: cfg.UserInfoURL,
	}
}

// AuthCodeURL builds the provider consent URL. hostedDomain, when set, is passed as
// the hd hint so the account chooser only offers that domain.
func (c *Client) AuthCodeURL(state string, hostedDomain string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	}
	if hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", hostedDomain))
	}
	return c.oauth.AuthCodeURL(state, opts...)
}

// Exchange trades the authorization code for a provider access token.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	start := time.Now()
	token, err := c.oauth.Exchange(ctx, code)
	metrics.RecordExternalProviderLatency("identity", "token_exchange", time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("provider returned an empty access token")
	}
	return token.AccessToken, nil
}

// FetchProfile reads the signed-in account from the userinfo endpoint.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*identity.User, error) {
	var info userInfoResponse
	start := time.Now()
	resp, err := c.userInfo.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&info).
		Get(c.userInfoURL)
	metrics.RecordExternalProviderLatency("identity", "userinfo", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("userinfo error (%d): %s", resp.StatusCode(), resp.String())
	}

	email := strings.TrimSpace(info.Email)
	if email == "" {
		return nil, errors.New("userinfo response has no email")
	}
	if (info.VerifiedEmail != nil && !*info.VerifiedEmail) || (info.EmailVerified != nil && !*info.EmailVerified) {
		return nil, fmt.Errorf("email %s is not verified", email)
	}

	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	return &identity.User{
		Subject:      subject,
		Email:        email,
		Name:         info.Name,
		HostedDomain: info.HostedDomain,
	}, nil
}

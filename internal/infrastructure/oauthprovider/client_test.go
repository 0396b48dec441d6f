package oauthprovider

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/notes-mcp/pkg/testhelpers"
)

func newTestClient(idp *testhelpers.IdentityProvider) *Client {
	return NewClient(ClientConfig{
		ClientID:     "client-id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8092/callback",
		AuthURL:      idp.AuthURL(),
		TokenURL:     idp.TokenURL(),
		UserInfoURL:  idp.UserInfoURL(),
		Scopes:       []string{"openid", "email"},
	})
}

func TestAuthCodeURL(t *testing.T) {
	idp := testhelpers.NewIdentityProvider(t, testhelpers.Profile{})
	client := newTestClient(idp)

	raw := client.AuthCodeURL("state-1", "corp.com")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "corp.com", q.Get("hd"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:8092/callback", q.Get("redirect_uri"))

	u, err = url.Parse(client.AuthCodeURL("s", ""))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("hd"))
}

func TestExchangeAndFetchProfile(t *testing.T) {
	idp := testhelpers.NewIdentityProvider(t, testhelpers.Profile{
		Sub: "42", Email: "ann@corp.com", VerifiedEmail: true, Name: "Ann", HostedDomain: "corp.com",
	})
	client := newTestClient(idp)
	ctx := context.Background()

	token, err := client.Exchange(ctx, "the-code")
	require.NoError(t, err)
	assert.Equal(t, "fake-access-token", token)
	assert.Equal(t, []string{"the-code"}, idp.ExchangedCodes())

	user, err := client.FetchProfile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "42", user.Subject)
	assert.Equal(t, "ann@corp.com", user.Email)
	assert.Equal(t, "corp.com", user.HostedDomain)
}

func TestExchangeFailure(t *testing.T) {
	idp := testhelpers.NewIdentityProvider(t, testhelpers.Profile{})
	idp.FailToken(http.StatusBadRequest)

	_, err := newTestClient(idp).Exchange(context.Background(), "bad")
	assert.Error(t, err)
}

func TestFetchProfileFailures(t *testing.T) {
	idp := testhelpers.NewIdentityProvider(t, testhelpers.Profile{Email: "x@corp.com", VerifiedEmail: false})
	client := newTestClient(idp)
	ctx := context.Background()

	_, err := client.FetchProfile(ctx, "fake-access-token")
	assert.ErrorContains(t, err, "not verified")

	_, err = client.FetchProfile(ctx, "wrong-token")
	assert.Error(t, err)

	idp.SetProfile(testhelpers.Profile{Email: "x@corp.com", VerifiedEmail: true})
	idp.FailUserInfo(http.StatusInternalServerError)
	_, err = client.FetchProfile(ctx, "fake-access-token")
	assert.Error(t, err)
}

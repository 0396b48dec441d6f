package infrastructure

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/janhq/notes-mcp/internal/config"
	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/domain/imagegen"
	"github.com/janhq/notes-mcp/internal/domain/note"
	"github.com/janhq/notes-mcp/internal/domain/search"
	"github.com/janhq/notes-mcp/internal/infrastructure/autorag"
	"github.com/janhq/notes-mcp/internal/infrastructure/grant"
	"github.com/janhq/notes-mcp/internal/infrastructure/oauthprovider"
	"github.com/janhq/notes-mcp/internal/infrastructure/objectstore"
	"github.com/janhq/notes-mcp/internal/infrastructure/workersai"
	"github.com/janhq/notes-mcp/pkg/observability"
	"github.com/janhq/notes-mcp/pkg/telemetry"
)

const identityProviderTimeout = 15 * time.Second

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,
	ProvideLogger,

	// Object storage
	ProvideObjectStore,
	ProvideNoteObjectStore,

	// Cloudflare clients
	ProvideSearchClient,
	ProvideImageGenerator,

	// Login
	ProvideIdentityProvider,
	ProvideDomainAllowlist,
	ProvideGrantIssuer,

	// Tracing
	ProvideObservability,
	ProvideSanitizer,
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the component logger used by infrastructure adapters
func ProvideLogger() zerolog.Logger {
	return log.Logger
}

// ProvideObjectStore provides the configured object store backend
func ProvideObjectStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (objectstore.Store, error) {
	return objectstore.New(ctx, cfg, logger)
}

// ProvideNoteObjectStore narrows the object store to what the note store needs
func ProvideNoteObjectStore(store objectstore.Store) note.ObjectStore {
	return store
}

// ProvideSearchClient provides the AutoRAG search client
func ProvideSearchClient(cfg *config.Config) search.Client {
	return autorag.NewClient(autorag.ClientConfig{
		BaseURL:   cfg.CloudflareAPIBaseURL,
		AccountID: cfg.CloudflareAccountID,
		APIToken:  cfg.CloudflareAPIToken,
		RAGName:   cfg.AutoRAGName,
		Timeout:   cfg.AIHTTPTimeout,
	})
}

// ProvideImageGenerator provides the Workers AI text-to-image client
func ProvideImageGenerator(cfg *config.Config) imagegen.Generator {
	return workersai.NewClient(workersai.ClientConfig{
		BaseURL:   cfg.CloudflareAPIBaseURL,
		AccountID: cfg.CloudflareAccountID,
		APIToken:  cfg.CloudflareAPIToken,
		Model:     cfg.ImageModel,
		Timeout:   cfg.AIHTTPTimeout,
	})
}

// ProvideIdentityProvider provides the OAuth client for the external identity provider
func ProvideIdentityProvider(cfg *config.Config) identity.Provider {
	return oauthprovider.NewClient(oauthprovider.ClientConfig{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURI,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		UserInfoURL:  cfg.OAuthUserInfoURL,
		Scopes:       cfg.OAuthScopes,
		Timeout:      identityProviderTimeout,
	})
}

// ProvideDomainAllowlist provides the hosted-domain allowlist
func ProvideDomainAllowlist(cfg *config.Config) *identity.DomainAllowlist {
	allowlist := identity.NewDomainAllowlist(cfg.AllowedDomains())
	if !allowlist.Restricted() {
		log.Warn().Msg("HOSTED_DOMAIN is empty; accounts from every domain can log in")
	}
	return allowlist
}

// ProvideGrantIssuer provides the signer for state tokens, codes and access grants
func ProvideGrantIssuer(cfg *config.Config) *grant.Issuer {
	return grant.NewIssuer(grant.Config{
		Issuer:    cfg.GrantIssuer,
		Key:       []byte(cfg.GrantSigningKey),
		AccessTTL: cfg.GrantAccessTTL,
		CodeTTL:   cfg.GrantCodeTTL,
	})
}

// ProvideObservability initializes OpenTelemetry and the PII sanitizer
func ProvideObservability(ctx context.Context, cfg *config.Config) (*observability.Provider, error) {
	obsCfg := observability.DefaultConfig(cfg.ServiceName)
	obsCfg.Environment = cfg.Environment
	obsCfg.TracingEnabled = cfg.EnableTracing
	obsCfg.MetricsEnabled = cfg.EnableTracing
	obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
	obsCfg.SamplingRate = cfg.TraceSamplingRate
	obsCfg.PIILevel = cfg.PIILevel
	obsCfg.StorageBackend = cfg.StorageBackend
	obsCfg.SearchIndex = cfg.AutoRAGName
	return observability.Init(ctx, obsCfg)
}

// ProvideSanitizer exposes the PII sanitizer built by the observability provider
func ProvideSanitizer(provider *observability.Provider) *telemetry.Sanitizer {
	return provider.Sanitizer
}

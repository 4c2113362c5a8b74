package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/auth-service/cache"
	"github.com/skillsenselab/auth-service/errors"
	"github.com/skillsenselab/auth-service/observability"
	"github.com/skillsenselab/auth-service/password"
	"github.com/skillsenselab/auth-service/token"
)

// identityKey is the gin context key the gate stores the caller identity
// under.
const identityKey = "auth.identity"

// GateConfig configures the authorization gate's decision cache.
type GateConfig struct {
	// CacheTTL is how long an allow decision stays cached.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	// CacheMaxEntries bounds the decision cache under token churn.
	CacheMaxEntries int `yaml:"cache_max_entries" mapstructure:"cache_max_entries"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *GateConfig) ApplyDefaults() {
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.CacheMaxEntries == 0 {
		c.CacheMaxEntries = 10_000
	}
}

// Gate verifies inbound bearer tokens and caches allow decisions. Denies are
// never cached, so a retried request with a corrected token is not masked by
// a stale negative entry. Cache entries are keyed by a digest of the raw
// token, never the token itself, and vanish on restart.
type Gate struct {
	tokens    *token.Service
	decisions *cache.TTL[token.Identity]
	metrics   *observability.AuthMetrics
}

// NewGate creates an authorization gate. metrics may be nil.
func NewGate(tokens *token.Service, cfg GateConfig, metrics *observability.AuthMetrics) *Gate {
	cfg.ApplyDefaults()
	return &Gate{
		tokens:    tokens,
		decisions: cache.NewTTL[token.Identity](cfg.CacheTTL, cfg.CacheMaxEntries),
		metrics:   metrics,
	}
}

// Close releases the decision cache's background sweeper.
func (g *Gate) Close() {
	g.decisions.Close()
}

// Check verifies a raw bearer token, consulting the decision cache first.
func (g *Gate) Check(ctx context.Context, raw string) (token.Identity, error) {
	key := password.HashSHA256(raw)

	if id, ok := g.decisions.Get(key); ok {
		g.metrics.RecordCacheLookup(ctx, true)
		return id, nil
	}
	g.metrics.RecordCacheLookup(ctx, false)

	id, err := g.tokens.Verify(ctx, raw)
	if err != nil {
		return token.Identity{}, err
	}

	g.decisions.Set(key, id)
	return id, nil
}

// Middleware returns a gin handler that denies requests without a valid
// bearer token and attaches the verified identity to the context.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			deny(c, errors.Unauthorized(""))
			return
		}

		id, err := g.Check(c.Request.Context(), raw)
		if err != nil {
			appErr, isApp := errors.AsAppError(err)
			if !isApp {
				appErr = errors.InvalidToken().WithCause(err)
			}
			deny(c, appErr)
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity the gate attached to the request.
func IdentityFrom(c *gin.Context) (token.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return token.Identity{}, false
	}
	id, ok := v.(token.Identity)
	return id, ok
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(rest)
	return tok, tok != ""
}

func deny(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"template-repo-service/internal/core/domain"
)

const principalKey = "principal"

// AuthConfig describes how bearer tokens are verified. The service itself
// never inspects tokens; it only sees the resolved principal.
type AuthConfig struct {
	JWKSURL  string
	Issuer   string
	Audience string
	CacheTTL time.Duration
}

type cachedKeySet struct {
	set       jwk.Set
	expiresAt time.Time
}

// JWKSClient fetches and caches the identity provider's signing keys.
type JWKSClient struct {
	url        string
	cacheTTL   time.Duration
	mu         sync.RWMutex
	cache      *cachedKeySet
	httpClient *http.Client
}

func NewJWKSClient(url string, cacheTTL time.Duration) *JWKSClient {
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &JWKSClient{
		url:        url,
		cacheTTL:   cacheTTL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *JWKSClient) KeySet(ctx context.Context) (jwk.Set, error) {
	c.mu.RLock()
	if c.cache != nil && time.Now().Before(c.cache.expiresAt) {
		set := c.cache.set
		c.mu.RUnlock()
		return set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil && time.Now().Before(c.cache.expiresAt) {
		return c.cache.set, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create JWKS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Serve the stale set rather than failing every request while the
		// identity provider is unreachable.
		if c.cache != nil {
			return c.cache.set, nil
		}
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.cache != nil {
			return c.cache.set, nil
		}
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	set, err := jwk.ParseReader(resp.Body)
	if err != nil {
		if c.cache != nil {
			return c.cache.set, nil
		}
		return nil, fmt.Errorf("parse JWKS: %w", err)
	}

	c.cache = &cachedKeySet{set: set, expiresAt: time.Now().Add(c.cacheTTL)}
	return set, nil
}

func verifyToken(ctx context.Context, tokenString string, keys *JWKSClient, cfg AuthConfig) (domain.Principal, error) {
	var none domain.Principal

	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return none, fmt.Errorf("invalid token format")
	}
	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return none, fmt.Errorf("decode token header: %w", err)
	}
	var header map[string]interface{}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return none, fmt.Errorf("parse token header: %w", err)
	}
	kid, ok := header["kid"].(string)
	if !ok {
		return none, fmt.Errorf("token missing kid in header")
	}

	keySet, err := keys.KeySet(ctx)
	if err != nil {
		return none, fmt.Errorf("get JWKS: %w", err)
	}
	key, found := keySet.LookupKeyID(kid)
	if !found {
		return none, fmt.Errorf("key not found for kid %q", kid)
	}
	var publicKey interface{}
	if err := key.Raw(&publicKey); err != nil {
		return none, fmt.Errorf("extract public key: %w", err)
	}

	opts := []jwt.ParserOption{jwt.WithIssuer(cfg.Issuer)}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	verified, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	}, opts...)
	if err != nil {
		return none, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := verified.Claims.(jwt.MapClaims)
	if !ok {
		return none, fmt.Errorf("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return none, fmt.Errorf("token missing sub claim")
	}

	principal := domain.Principal{UserRef: sub}
	if email, ok := claims["email"].(string); ok {
		principal.Email = email
	}
	return principal, nil
}

// Authentication verifies the bearer token and stores the resolved user
// principal in the request context. Requests without a valid user token are
// rejected before the handler runs.
func Authentication(keys *JWKSClient, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			return
		}

		principal, err := verifyToken(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "), keys, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// StaticPrincipal pins every request to a fixed principal. Used when
// authentication is disabled (local development) and in handler tests.
func StaticPrincipal(p domain.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(principalKey, p)
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

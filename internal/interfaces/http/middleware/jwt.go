package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/infrastructure/auth"
	"github.com/kitchenops/backend/internal/infrastructure/logger"
	"github.com/kitchenops/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// gin context keys set by JWTAuthMiddleware
const (
	JWTClaimsKey = "jwt_claims"
	TenantIDKey  = "tenant_id"
	ActorKey     = "actor"
)

// Request headers read by JWTAuthMiddleware
const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	TenantHeader  = "X-Tenant-ID"
	ActorHeader   = "X-Actor"
)

// AnonymousActor is recorded as performer when no token identifies the caller
const AnonymousActor = "anonymous"

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional. Lookup failures let the request through.
	TokenBlacklist auth.TokenBlacklist
	// Required rejects requests without a bearer token. When false, the
	// tenant may come from the X-Tenant-ID header instead.
	Required bool
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		Required:   true,
		SkipPaths:  []string{"/health", "/ready"},
		Logger:     zap.NewNop(),
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig resolves the tenant and actor of every request.
// With a bearer token they come from its claims; without one, and only when
// tokens are optional, from the X-Tenant-ID and X-Actor headers.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" && !cfg.Required {
			tenantID, err := uuid.Parse(c.GetHeader(TenantHeader))
			if err != nil {
				abortAuth(c, cfg, auth.ErrInvalidToken, "Missing authorization header or X-Tenant-ID")
				return
			}
			actor := c.GetHeader(ActorHeader)
			if actor == "" {
				actor = AnonymousActor
			}
			setIdentity(c, tenantID, actor)
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortAuth(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortAuth(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			abortAuth(c, cfg, err, "Token validation failed")
			return
		}

		if cfg.TokenBlacklist != nil && isRevoked(c, cfg, claims) {
			abortAuth(c, cfg, auth.ErrTokenRevoked, "Token has been revoked")
			return
		}

		tenantID, err := claims.GetTenantUUID()
		if err != nil {
			abortAuth(c, cfg, auth.ErrInvalidClaims, "Invalid tenant in token")
			return
		}
		actor := claims.Username
		if actor == "" {
			actor = claims.UserID
		}

		c.Set(JWTClaimsKey, claims)
		setIdentity(c, tenantID, actor)
		c.Next()
	}
}

func isRevoked(c *gin.Context, cfg JWTMiddlewareConfig, claims *auth.Claims) bool {
	ctx := c.Request.Context()
	if claims.ID != "" {
		revoked, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			cfg.Logger.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return true
		}
	}
	invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		cfg.Logger.Error("Failed to check user token invalidation", zap.String("user_id", claims.UserID), zap.Error(err))
		return false
	}
	return invalidated
}

func setIdentity(c *gin.Context, tenantID uuid.UUID, actor string) {
	c.Set(TenantIDKey, tenantID)
	c.Set(ActorKey, actor)

	ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
	ctx = logger.WithActor(ctx, actor)
	c.Request = c.Request.WithContext(ctx)
}

func abortAuth(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	cfg.Logger.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, msg := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, msg = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, msg = dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, auth.ErrMissingUserID):
		code, msg = dto.ErrCodeTokenInvalid, "Token claims are incomplete"
	case c.GetHeader(AuthHeaderKey) != "":
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, msg, GetRequestID(c)))
}

// GetJWTClaims returns the validated claims, or nil for header-identified requests
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetTenantID returns the tenant resolved by JWTAuthMiddleware
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GetActor returns the user recorded as performer of stock movements
func GetActor(c *gin.Context) string {
	return c.GetString(ActorKey)
}

// RequireRole rejects requests whose token lacks role.
// Header-identified requests carry no roles and are always rejected.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden,
				"Missing required role: "+role,
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}

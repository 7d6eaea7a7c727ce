package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/errcode"
	"github.com/mbeoliero/parley/pkg/jwt"
	"github.com/mbeoliero/parley/pkg/response"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer token
	BearerPrefix = "Bearer "
	// UserIdKey is the context key for the internal user id
	UserIdKey = "user_id"
	// ClaimsKey is the context key for the verified token claims
	ClaimsKey = "claims"
)

// UserResolver maps an identity-provider id to the internal user
type UserResolver interface {
	ResolveExternal(ctx context.Context, externalId string) (*entity.User, error)
}

// JWTAuth verifies the bearer token and resolves the caller. A caller that
// never synced passes with an empty user id; RequireUser rejects them.
func JWTAuth(cfg *config.AuthConfig, users UserResolver) app.HandlerFunc {
	opts := jwt.Options{Secret: cfg.Secret, Issuer: cfg.Issuer, Audience: cfg.Audience}
	return func(ctx context.Context, c *app.RequestContext) {
		tokenString, e := bearerToken(c)
		if e != nil {
			response.Unauthorized(ctx, c, e)
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, opts)
		if err != nil {
			response.Unauthorized(ctx, c, errcode.From(err))
			c.Abort()
			return
		}

		user, err := users.ResolveExternal(ctx, claims.ExternalId())
		if err != nil {
			log.CtxError(ctx, "resolve caller failed: external_id=%s, error=%v", claims.ExternalId(), err)
			response.Error(ctx, c, err)
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		if user != nil {
			c.Set(UserIdKey, user.Id)
		}
		c.Next(ctx)
	}
}

// RequireUser rejects callers whose identity has not been synced yet
func RequireUser() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if GetUserId(c) == "" {
			response.ErrorWithCode(ctx, c, errcode.ErrUserNotSynced)
			c.Abort()
			return
		}
		c.Next(ctx)
	}
}

func bearerToken(c *app.RequestContext) (string, *errcode.Error) {
	authHeader := string(c.GetHeader(AuthorizationHeader))
	if authHeader == "" {
		// browsers cannot set headers on websocket upgrades
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errcode.ErrTokenMissing
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", errcode.ErrTokenInvalid
	}
	return strings.TrimPrefix(authHeader, BearerPrefix), nil
}

// GetUserId gets the internal user id from context, empty when unsynced
func GetUserId(c *app.RequestContext) string {
	if v, ok := c.Get(UserIdKey); ok {
		return v.(string)
	}
	return ""
}

// GetClaims gets the verified token claims from context
func GetClaims(c *app.RequestContext) *jwt.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		return v.(*jwt.Claims)
	}
	return nil
}

package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mmdatafocus/gst_backend/utils"
)

type authString string

// AuthMiddleware validates the bearer token when one is supplied and
// seeds the request context with the caller's claims. Requests without
// a token pass through; handlers that need a tenant reject them via
// RequireBusiness.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), uuid.NewString())

		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		auth = strings.TrimPrefix(auth, "Bearer ")
		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx = context.WithValue(ctx, authString("auth"), customClaim)
		ctx = utils.SetBusinessIdInContext(ctx, customClaim.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, customClaim.ID)
		ctx = utils.SetTokenInContext(ctx, auth)
		if customClaim.Role == "admin" {
			ctx = utils.SetIsAdminInContext(ctx, true)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireBusiness rejects requests whose token carries no tenant.
func RequireBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
		if !ok || businessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func CtxValue(ctx context.Context) *utils.JwtCustomClaim {
	raw, _ := ctx.Value(authString("auth")).(*utils.JwtCustomClaim)
	return raw
}

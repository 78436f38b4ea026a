// Package auth gates the admin API behind a bearer JWT with an admin role
// claim. Token issuance belongs to the session provider, not this service.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const adminNameKey = "adminName"

// AdminRequired verifies the Authorization bearer token and requires
// role == "admin". The admin's display name claim is stashed in the context
// for audit attribution.
func AdminRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_bearer_token"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		if role, _ := claims["role"].(string); role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_only"})
			return
		}

		if name, _ := claims["name"].(string); name != "" {
			c.Set(adminNameKey, name)
		}
		c.Next()
	}
}

// AdminName returns the authenticated admin's display name, or "Admin" when
// the token carried no name claim.
func AdminName(c *gin.Context) string {
	if v, ok := c.Get(adminNameKey); ok {
		if name, ok := v.(string); ok && name != "" {
			return name
		}
	}
	return "Admin"
}

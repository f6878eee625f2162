package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"patentadmin/internal/microservices/http-api/service"
)

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// Beyond the signature check it verifies the admin account and the session
// behind the token are still active, so a revoked session dies immediately.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.Authenticate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		// Set admin info in context for handlers to use
		c.Set("claims", claims)
		c.Set("adminID", claims.AdminID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RequireRole checks if the authenticated admin has the specified role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found in token"})
			c.Abort()
			return
		}

		role, ok := roleInterface.(string)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid role format"})
			c.Abort()
			return
		}

		// super_admin passes every role gate
		if role != requiredRole && role != "super_admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"error":    "Insufficient permissions",
				"required": requiredRole,
				"current":  role,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireSuperAdmin guards destructive operations (deletes, cleanup).
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRole("super_admin")
}

package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// Role names carried in the token's "role" claim. They mirror the three
// capability handles of the header relay: admin controls emergency mode,
// relayer appends headers, operator access is unauthenticated.
const (
	RoleAdmin   = "admin"
	RoleRelayer = "relayer"
)

// Claims is the JWT payload issued for admin and relayer API access.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens on the privileged route groups.
type AuthMiddleware struct {
	secret []byte
	log    *logrus.Entry
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		log:    logrus.WithField("service", "auth_middleware"),
	}
}

// IssueToken mints a token for the given role, used by deployment tooling
// and tests.
func (a *AuthMiddleware) IssueToken(role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// RequireRole rejects requests whose bearer token is missing, invalid, or
// carries a different role. An admin token also passes relayer checks.
func (a *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			a.unauthorized(c, "missing or malformed Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			a.unauthorized(c, "invalid or expired token")
			return
		}
		if claims.Role != role && claims.Role != RoleAdmin {
			a.log.WithFields(logrus.Fields{
				"path":     c.Request.URL.Path,
				"role":     claims.Role,
				"required": role,
			}).Warn("Rejected request with insufficient role")
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   fmt.Sprintf("role %q required", role),
			})
			c.Abort()
			return
		}

		c.Set("role", claims.Role)
		c.Next()
	}
}

func (a *AuthMiddleware) unauthorized(c *gin.Context, message string) {
	a.log.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Warn("Rejected unauthenticated request")
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
	})
	c.Abort()
}

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultCookieName = "contravault_session"
	userIDKey         = "contravault.userID"
)

// Resolver turns a request into a user id. An empty id means the caller is
// unauthenticated.
type Resolver struct {
	issuer     *Issuer
	cookieName string
}

func NewResolver(issuer *Issuer, cookieName string) *Resolver {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Resolver{issuer: issuer, cookieName: cookieName}
}

func (r *Resolver) CookieName() string {
	return r.cookieName
}

// Resolve reads a bearer token first and falls back to the session cookie.
func (r *Resolver) Resolve(req *http.Request) string {
	raw := bearerToken(req.Header.Get("Authorization"))
	if raw == "" {
		if c, err := req.Cookie(r.cookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return ""
	}
	claims, err := r.issuer.Verify(raw)
	if err != nil {
		return ""
	}
	return claims.UserID
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects unauthenticated requests with 401 and stores the user id
// on the gin context for UserID.
func (r *Resolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := r.Resolve(c.Request)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

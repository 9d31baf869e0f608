package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/chamados-service/internal/auth"
	"github.com/psds-microservice/chamados-service/internal/model"
)

const (
	SessionCookie = "access_token"

	ctxRole    = "papel"
	ctxSubject = "sub"
)

// tokenFrom reads the session token from "Authorization: Bearer" or the session cookie.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

func setSession(c *gin.Context, claims *auth.Claims) {
	c.Set(ctxRole, claims.Role)
	c.Set(ctxSubject, claims.Subject)
}

func roleOf(c *gin.Context) model.Role {
	if v, ok := c.Get(ctxRole); ok {
		if r, ok := v.(model.Role); ok {
			return r
		}
	}
	return ""
}

func subjectOf(c *gin.Context) string {
	return c.GetString(ctxSubject)
}

// Authenticate rejects API requests without a valid session token.
func Authenticate(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := issuer.Validate(tokenFrom(c))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		setSession(c, claims)
		c.Next()
	}
}

// RequirePageRole sends visitors without a valid session to the login page
// and answers 403 when the session belongs to another role.
func RequirePageRole(issuer *auth.Issuer, role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := issuer.Validate(tokenFrom(c))
		if !ok {
			c.Redirect(http.StatusFound, "/login-page")
			c.Abort()
			return
		}
		if claims.Role != role {
			c.HTML(http.StatusForbidden, "error.html", gin.H{
				"Title":  "Acesso negado",
				"Error":  "Seu perfil não tem acesso a esta página.",
				"Role":   claims.Role,
				"Status": http.StatusForbidden,
			})
			c.Abort()
			return
		}
		setSession(c, claims)
		c.Next()
	}
}

// DashboardPath returns the landing page of role.
func DashboardPath(role model.Role) string {
	switch role {
	case model.RoleManager:
		return "/dashboard-gerente"
	case model.RoleInspector:
		return "/dashboard-fiscal"
	case model.RoleAdmin:
		return "/dashboard-admin"
	}
	return "/login-page"
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/chamados-service/internal/auth"
	"github.com/psds-microservice/chamados-service/internal/errs"
)

type AuthHandler struct {
	auth         *auth.Authenticator
	cookieSecure bool
}

func NewAuthHandler(a *auth.Authenticator, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: a, cookieSecure: cookieSecure}
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *AuthHandler) setCookie(c *gin.Context, sess *auth.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.Token, maxAge, "/", "", h.cookieSecure, true)
}

// Login is the JSON login: it returns the token and also sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.setCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{
		"access_token": sess.Token,
		"token_type":   "bearer",
		"expires_at":   sess.ExpiresAt,
		"papel":        sess.Role,
	})
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Title": "Entrar"})
}

// LoginAction handles the login form and redirects to the role's dashboard.
func (h *AuthHandler) LoginAction(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{"Title": "Entrar", "Error": "Informe usuário e senha"})
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status, msg := http.StatusInternalServerError, "Erro no servidor"
		if errors.Is(err, errs.ErrInvalidCredentials) {
			status, msg = http.StatusUnauthorized, "Usuário ou senha inválidos"
		} else {
			logServerError(c, err)
		}
		c.HTML(status, "login.html", gin.H{"Title": "Entrar", "Error": msg, "Username": req.Username})
		return
	}
	h.setCookie(c, sess)
	c.Redirect(http.StatusFound, DashboardPath(sess.Role))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.cookieSecure, true)
	c.Redirect(http.StatusFound, "/login-page")
}

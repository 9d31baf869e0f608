package handler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/chamados-service/internal/auth"
	"github.com/psds-microservice/chamados-service/internal/model"
	"github.com/psds-microservice/chamados-service/internal/web"
)

type failingUsers struct{ err error }

func (f failingUsers) GetActiveByUsername(context.Context, string) (*model.User, error) {
	return nil, f.err
}

func TestLoginAction_LogsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	issuer := auth.NewIssuer("test-secret", time.Hour)
	h := NewAuthHandler(auth.NewAuthenticator(failingUsers{errors.New("db down")}, issuer), false)
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.POST("/login-page", h.LoginAction)

	form := url.Values{"username": {"GERENTE"}, "password": {"segredo"}}
	req := httptest.NewRequest(http.MethodPost, "/login-page", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Erro no servidor") {
		t.Errorf("expected generic server error on the page, got %q", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Error("internal error leaked to the page")
	}
	if !strings.Contains(buf.String(), "db down") {
		t.Errorf("expected the cause to be logged, got %q", buf.String())
	}
}

package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/chamados-service/internal/errs"
)

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidTicket):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func messageOf(err error, status int) string {
	switch status {
	case http.StatusNotFound:
		return "Chamado não encontrado"
	case http.StatusUnauthorized:
		return "Usuário ou senha inválidos"
	case http.StatusInternalServerError:
		return "Erro no servidor"
	}
	return err.Error()
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logServerError(c, err)
	}
	c.JSON(status, gin.H{"error": messageOf(err, status)})
}

func logServerError(c *gin.Context, err error) {
	log.Printf("handler: %s %s: %v", c.Request.Method, c.FullPath(), err)
}

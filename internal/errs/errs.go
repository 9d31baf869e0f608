package errs

import "errors"

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrInvalidTicket      = errors.New("invalid ticket")
	ErrForbidden          = errors.New("action not allowed for role")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

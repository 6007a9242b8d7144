package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mongsom/shop/internal/service"
	"github.com/mongsom/shop/internal/transport"
)

type failure struct {
	status int
	code   int
	msg    string
}

func classify(err error) failure {
	switch {
	case errors.Is(err, service.ErrDuplicateName):
		return failure{http.StatusConflict, transport.CodeDuplicateName, "product name already exists"}
	case errors.Is(err, service.ErrMissingOptions):
		return failure{http.StatusBadRequest, transport.CodeMissingOptions, "at least one option is required"}
	case errors.Is(err, service.ErrMissingImages):
		return failure{http.StatusBadRequest, transport.CodeMissingImages, "at least one image is required"}
	case errors.Is(err, service.ErrValidation):
		return failure{http.StatusBadRequest, transport.CodeValidation, err.Error()}
	case errors.Is(err, service.ErrNotFound):
		return failure{http.StatusNotFound, transport.CodeNotFound, "not found"}
	case errors.Is(err, service.ErrConflict):
		return failure{http.StatusConflict, transport.CodeConflict, "request conflicts with work in progress, retry later"}
	case errors.Is(err, service.ErrPaymentUnknown):
		return failure{http.StatusAccepted, transport.CodePaymentUnknown, "payment result is being checked"}
	case errors.Is(err, service.ErrGateway):
		return failure{http.StatusBadGateway, transport.CodeGateway, "payment was not approved"}
	default:
		return failure{http.StatusInternalServerError, transport.CodeFailure, "internal error"}
	}
}

// fail logs err under event and writes the failure envelope.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	f := classify(err)
	if f.status >= http.StatusInternalServerError {
		l.Error(event, "status", f.status, "code", f.code, "error", err)
	} else {
		l.Warn(event, "status", f.status, "code", f.code, "error", err)
	}
	return c.JSON(f.status, transport.Fail(f.code, f.msg))
}

func badRequest(c echo.Context, l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return c.JSON(http.StatusBadRequest, transport.Fail(transport.CodeValidation, reason))
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, transport.OK(data))
}

// ErrorHandler renders framework errors (routing, auth, binding) in the response envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}

	code := transport.CodeFailure
	switch status {
	case http.StatusUnauthorized:
		code = transport.CodeUnauthenticated
	case http.StatusForbidden:
		code = transport.CodeForbidden
	case http.StatusNotFound:
		code = transport.CodeNotFound
	case http.StatusBadRequest:
		code = transport.CodeValidation
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.Fail(code, msg))
}

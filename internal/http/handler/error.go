package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/http/middleware"
)

// errorPayload is the body of every non-2xx response. The request_id lets a
// caller quote something an operator can grep the logs for; the message is
// always safe to show and never carries backend detail.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	s, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return s
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// statusCodes maps HTTP statuses produced outside the handlers (router 404s,
// body parsing failures) to machine-readable codes.
var statusCodes = map[int]struct{ code, message string }{
	fiber.StatusBadRequest:       {"BAD_REQUEST", "bad request"},
	fiber.StatusUnauthorized:     {"UNAUTHORIZED", "authentication required"},
	fiber.StatusNotFound:         {"NOT_FOUND", "resource not found"},
	fiber.StatusMethodNotAllowed: {"METHOD_NOT_ALLOWED", "method not allowed"},
}

// ErrorHandler is the app-wide Fiber error handler. Handlers mostly respond
// through writeError themselves; this catches fiber.Error values raised by
// middleware (auth rejections in particular) and anything unexpected.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		if m, ok := statusCodes[status]; ok {
			return writeError(c, status, m.code, m.message)
		}
		return writeError(c, status, "INTERNAL_ERROR", "internal server error")
	}
}

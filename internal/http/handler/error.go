package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"linkbatch/internal/http/middleware"
	"linkbatch/internal/loader"
	"linkbatch/internal/service"
	"linkbatch/internal/template"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Columns []string `json:"columns,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g. "PARSE_ERROR", "NO_LINKS")
// - message: human-readable message describing the failing stage
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeMissingColumn is the MISSING_COLUMN response: 422 plus the full
// column list so the client can re-submit with an explicit `column` field.
func writeMissingColumn(c *fiber.Ctx, mce *loader.MissingColumnError) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    "MISSING_COLUMN",
			Message: "no link column recognized; re-submit with an explicit column field",
			Columns: mce.Columns,
		},
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
}

// mapRunError translates pipeline errors into the error envelope. Every
// run failure lands here; nothing is silently swallowed.
func mapRunError(c *fiber.Ctx, err error) error {
	var mce *loader.MissingColumnError
	var pe *loader.ParseError

	switch {
	case errors.As(err, &mce):
		return writeMissingColumn(c, mce)
	case errors.As(err, &pe):
		return writeError(c, fiber.StatusBadRequest, "PARSE_ERROR", pe.Error())
	case errors.Is(err, service.ErrFileRequired):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrUnknownPlatform):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PLATFORM", err.Error())
	case errors.Is(err, service.ErrInvalidBatchSize):
		return writeError(c, fiber.StatusBadRequest, "INVALID_BATCH_SIZE", err.Error())
	case errors.Is(err, service.ErrNoLinks):
		return writeError(c, fiber.StatusUnprocessableEntity, "NO_LINKS", err.Error())
	case errors.Is(err, template.ErrTemplateNotFound):
		return writeError(c, fiber.StatusConflict, "TEMPLATE_NOT_FOUND", err.Error())
	case errors.Is(err, template.ErrSheetNotFound):
		return writeError(c, fiber.StatusUnprocessableEntity, "SHEET_NOT_FOUND", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

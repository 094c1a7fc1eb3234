package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/i18n"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
)

const codeInternal = "internal_error"

// ErrorResponse is the body of every error answer
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusOf maps an error kind to its HTTP status
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned by handlers and middleware. The
// message is translated into the best Accept-Language match.
func ErrorHandler(t *i18n.Translator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := logger.FromEcho(c)
		lang := c.Request().Header.Get("Accept-Language")

		var status int
		var body ErrorResponse

		var httpErr *echo.HTTPError
		if appErr, ok := apperror.As(err); ok {
			status = StatusOf(appErr.Kind)
			if status == http.StatusInternalServerError {
				log.Error("Request failed", zap.String("code", appErr.Code), zap.Error(err))
			}
			body = ErrorResponse{
				Error:   appErr.Code,
				Message: t.Translate(lang, appErr.Code, appErr.Message, params(appErr)),
			}
		} else if errors.As(err, &httpErr) {
			status = httpErr.Code
			code := strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
			fallback := http.StatusText(status)
			if msg, ok := httpErr.Message.(string); ok {
				fallback = msg
			}
			body = ErrorResponse{Error: code, Message: t.Translate(lang, code, fallback, nil)}
		} else {
			status = http.StatusInternalServerError
			log.Error("Unhandled error", zap.Error(err))
			body = ErrorResponse{
				Error:   codeInternal,
				Message: t.Translate(lang, codeInternal, "internal server error", nil),
			}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			log.Error("Failed to write error response", zap.Error(writeErr))
		}
	}
}

// params returns the template data of appErr; invalid_input messages fall
// back to the error message when no reason was given
func params(appErr *apperror.Error) map[string]interface{} {
	if appErr.Code != apperror.CodeInvalidInput {
		return appErr.Params
	}
	if _, ok := appErr.Params["Reason"]; ok {
		return appErr.Params
	}
	return appErr.With("Reason", appErr.Message).Params
}

package middleware

import (
	"log"
	"net/http"

	"github.com/Eursukkul/event-checkout/internal/dto"
	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "internal server error"

// ErrorHandler renders every error as {"message": ...}. Errors that did not
// come from a handler as an *echo.HTTPError are logged and reported as 500
// without leaking their text to the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := internalErrorMessage

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(code)
		}
		if he.Internal != nil {
			log.Printf("[HTTP] %s %s -> %d: %v", c.Request().Method, c.Request().URL.Path, code, he.Internal)
		}
	} else {
		log.Printf("[HTTP] %s %s request_id=%s unhandled error: %v",
			c.Request().Method, c.Request().URL.Path, c.Response().Header().Get(echo.HeaderXRequestID), err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}

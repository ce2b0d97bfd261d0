package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/logger"
)

// PanicError is a recovered panic together with the stack it unwound.
type PanicError struct {
	Err   error
	Stack []byte
}

func (p *PanicError) Error() string { return "panic: " + p.Err.Error() }
func (p *PanicError) Unwrap() error { return p.Err }

// Recover turns a panic into a PanicError for the HTTP error handler.
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				e, ok := r.(error)
				if !ok {
					e = fmt.Errorf("%v", r)
				}
				err = &PanicError{Err: e, Stack: debug.Stack()}
			}()
			return next(c)
		}
	}
}

// HTTPErrorHandler answers {"error": msg} for anything a handler returned
// instead of writing a response.  Server errors are logged with stack,
// route and body; the stack is echoed to the client only outside
// production.
func HTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "error interno del servidor"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch m := he.Message.(type) {
			case string:
				msg = m
			case error:
				msg = m.Error()
			default:
				msg = http.StatusText(status)
			}
		}

		var stack []byte
		var pe *PanicError
		if errors.As(err, &pe) {
			stack = pe.Stack
		} else if status >= http.StatusInternalServerError {
			stack = debug.Stack()
		}

		log := logger.WithContext(c.Request().Context())
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"error", err.Error(),
				"status", status,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"route", c.Path(),
				"body", snapshotBody(c),
				"stack", string(stack),
			)
		} else {
			log.Debug("request rejected", "error", err.Error(), "status", status, "path", c.Request().URL.Path)
		}

		body := echo.Map{"error": msg}
		if !production && len(stack) > 0 {
			body["stack"] = string(stack)
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Error("write error response failed", "error", werr)
		}
	}
}

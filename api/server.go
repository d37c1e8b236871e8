// Package api exposes the warehouse connection over REST.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gopkg.in/go-playground/validator.v9"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/querybuild"
)

type Routes interface {
	Register(router *echo.Echo)
}

// NewEcho builds the HTTP server with the shared middleware stack and
// registers routes on it.
func NewEcho(logger *zap.Logger, allowedOrigins []string, routes Routes) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = errorHandler(logger)
	e.Validator = customValidator{
		validate: validator.New(),
	}

	e.Pre(middleware.RemoveTrailingSlash())

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	routes.Register(e)

	return e
}

type customValidator struct {
	validate *validator.Validate
}

func (v customValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// StatusCode maps an error to the HTTP status it is rendered with.
func StatusCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}

	if errors.Is(err, querybuild.ErrInvalidIdentifier) {
		return http.StatusBadRequest
	}

	switch core.KindOf(err) {
	case core.KindCredential:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
		return http.StatusText(he.Code)
	}
	return err.Error()
}

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := StatusCode(err)

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, newErrorResponse(errorMessage(err)))
		}
		if werr != nil {
			logger.Error("failed to write error response", zap.Error(werr))
		}
	}
}

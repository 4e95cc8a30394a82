package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// requestLogging logs each request once it finishes.
func requestLogging(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			log.Info("request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote", req.RemoteAddr),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			)
			return err
		}
	}
}

// recoverer turns a handler panic into a 500 response.
func recoverer(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					log.Error("panic", zap.Error(err), zap.ByteString("stack", debug.Stack()))
					_ = DataResponse(c, http.StatusInternalServerError, nil)
				}
			}()
			return next(c)
		}
	}
}

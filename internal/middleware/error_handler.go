package middleware

import (
	"net/http"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler answers for errors a handler attached with c.Error but did not
// write a response for. Bind errors become 400 invalid_request; anything else
// is logged and hidden behind 500 processing_failed, the same envelope the
// handlers use for unclassified service errors.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		last := c.Errors.Last()

		if last.IsType(gin.ErrorTypeBind) {
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeInvalidRequest, last.Error()))
			}
			return
		}

		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Err(last.Err).
			Msg("unhandled error")
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, processingFailed())
		}
	}
}

// Recovery turns a panic into 500 processing_failed. The panic value is
// logged only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, processingFailed())
			}
		}()
		c.Next()
	}
}

// NotFound answers unknown routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, apierror.WithCode(apierror.CodeNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path))
	}
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, apierror.WithCode(apierror.CodeMethodNotAllowed, c.Request.Method+" is not allowed on "+c.Request.URL.Path))
	}
}

func processingFailed() *apierror.APIError {
	return apierror.WithCode(apierror.CodeProcessingFailed, "the operation could not be completed")
}

// Logger writes one line per request; 4xx at warn and 5xx at error so
// refused sales stand out from normal traffic.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

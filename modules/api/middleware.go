package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/example/task-api/config"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const redacted = "***REDACTED***"

var sensitiveFields = []string{"password", "token", "secret", "authorization"}

// requestLogger logs every request on entry and its response on completion.
// Errors returned down the chain are rendered here so the logged status is final.
func requestLogger(logger types.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()
		url := c.OriginalURL()

		logger.Info("[REQUEST]",
			"method", method,
			"url", url,
			"ip", c.IP(),
			"userAgent", c.Get(fiber.HeaderUserAgent),
			"requestId", c.GetRespHeader(fiber.HeaderXRequestID))

		switch method {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
			if body, ok := sanitizeBody(c.Body()); ok {
				logger.Debug("[REQUEST BODY]", "method", method, "url", url, "body", body)
			}
		}

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		args := []any{
			"method", method,
			"url", url,
			"status", status,
			"duration", time.Since(start).String(),
			"contentLength", len(c.Response().Body()),
		}
		if status >= fiber.StatusBadRequest {
			logger.Error("[RESPONSE]", args...)
		} else {
			logger.Info("[RESPONSE]", args...)
		}
		return nil
	}
}

// sanitizeBody decodes a JSON object body and masks sensitive top-level values.
// It reports false when the body is not a JSON object.
func sanitizeBody(body []byte) (map[string]any, bool) {
	if len(body) == 0 {
		return nil, false
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, false
	}

	for _, name := range sensitiveFields {
		if value, ok := fields[name]; ok && value != nil && value != "" {
			fields[name] = redacted
		}
	}
	return fields, true
}

// corsMiddleware allows credentialed requests from the configured origins.
func corsMiddleware(cfg config.CORSConfig) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization,X-Requested-With,Accept,Origin",
		ExposeHeaders:    "X-Total-Count,X-Page-Count",
		AllowCredentials: true,
		MaxAge:           86400,
	})
}

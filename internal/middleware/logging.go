package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Logging tags every request with an id and writes one access log line per
// request. Panics in handlers become 500s instead of crashing the server.
func Logging() []fiber.Handler {
	return []fiber.Handler{
		recover.New(),
		requestid.New(),
		logger.New(logger.Config{
			Format:     "${time} [HTTP] ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
			TimeFormat: "2006/01/02 15:04:05",
		}),
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ahmednasr/repomind/internal/metrics"
	"github.com/ahmednasr/repomind/internal/service"
)

func RegisterRoutes(app *fiber.App,
	ingestSvc service.IngestService,
	chatSvc service.ChatService,
	diagramSvc service.DiagramService,
	sessions service.SessionRepository,
) {

	api := app.Group("/api")
	NewIngestHandler(ingestSvc).Register(api)
	NewChatHandler(chatSvc).Register(api)
	NewDiagramHandler(diagramSvc).Register(api)
	NewSessionHandler(sessions).Register(api)

	NewHealthHandler(sessions).Register(app)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}

package controller

import (
	"propintel-console/internal/dto"
	"propintel-console/internal/pkg/serverutils"
	"propintel-console/internal/service"
	ws "propintel-console/internal/websocket"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	tileService service.ITileService
	hub         *ws.Hub
}

func NewHealthController(tileService service.ITileService, hub *ws.Hub) IHealthController {
	return &healthController{tileService: tileService, hub: hub}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	res := dto.HealthResponse{Status: "ok", TileServer: c.tileService.Health(ctx.UserContext())}
	if c.hub != nil {
		res.Connections = c.hub.Count()
	}
	return ctx.JSON(serverutils.SuccessResponse("Healthy", res))
}

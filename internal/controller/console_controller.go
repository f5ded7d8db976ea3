package controller

import (
	"encoding/json"
	"errors"
	"net/url"

	"propintel-console/internal/console"
	"propintel-console/internal/dto"
	"propintel-console/internal/pkg/logger"
	"propintel-console/internal/pkg/serverutils"
	"propintel-console/internal/service"
	ws "propintel-console/internal/websocket"
	"propintel-console/pkg/analysis"
	"propintel-console/pkg/capture"
	"propintel-console/pkg/events"
	"propintel-console/pkg/measure"
	"propintel-console/pkg/tiles"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IConsoleController interface {
	RegisterRoutes(r fiber.Router)
	GetState(ctx *fiber.Ctx) error
	UpdateView(ctx *fiber.Ctx) error
	RestoreView(ctx *fiber.Ctx) error
	UpdateElement(ctx *fiber.Ctx) error
	UploadFrame(ctx *fiber.Ctx) error
	SetMode(ctx *fiber.Ctx) error
	Escape(ctx *fiber.Ctx) error
	Pointer(ctx *fiber.Ctx) error
	MapClick(ctx *fiber.Ctx) error
	ContextMenu(ctx *fiber.Ctx) error
	ClearJob(ctx *fiber.Ctx) error
	DrawAgain(ctx *fiber.Ctx) error
	GetReport(ctx *fiber.Ctx) error
	DownloadReport(ctx *fiber.Ctx) error
	ClearMeasurement(ctx *fiber.Ctx) error
	GetOverlays(ctx *fiber.Ctx) error
	SetOverlay(ctx *fiber.Ctx) error
	ResolveTile(ctx *fiber.Ctx) error
	DiscoverImagery(ctx *fiber.Ctx) error
}

type consoleController struct {
	coordinator    *console.Coordinator
	frames         *capture.FrameStore
	catalogue      *tiles.Catalogue
	imageryService service.IImageryService
	hub            *ws.Hub
	logger         logger.ILogger
}

func NewConsoleController(
	coordinator *console.Coordinator,
	frames *capture.FrameStore,
	catalogue *tiles.Catalogue,
	imageryService service.IImageryService,
	hub *ws.Hub,
	log logger.ILogger,
) IConsoleController {
	return &consoleController{
		coordinator:    coordinator,
		frames:         frames,
		catalogue:      catalogue,
		imageryService: imageryService,
		hub:            hub,
		logger:         log,
	}
}

func (c *consoleController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/console")
	h.Get("/state", c.GetState)
	h.Put("/view", c.UpdateView)
	h.Post("/view/query", c.RestoreView)
	h.Put("/element", c.UpdateElement)
	h.Post("/frame", c.UploadFrame)

	h.Post("/mode", c.SetMode)
	h.Post("/escape", c.Escape)
	h.Post("/pointer", c.Pointer)
	h.Post("/map/click", c.MapClick)
	h.Post("/map/contextmenu", c.ContextMenu)

	h.Get("/jobs/construction/report/download", c.DownloadReport)
	h.Delete("/jobs/:kind", c.ClearJob)
	h.Post("/jobs/:kind/redraw", c.DrawAgain)
	h.Get("/jobs/:kind/report", c.GetReport)

	h.Delete("/measurement", c.ClearMeasurement)

	h.Get("/overlays", c.GetOverlays)
	h.Put("/overlays/:name", c.SetOverlay)
	h.Post("/overlays/:name/tile", c.ResolveTile)
	h.Get("/imagery", c.DiscoverImagery)

	if c.hub != nil {
		h.Use("/ws", func(ctx *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(ctx) {
				return ctx.Next()
			}
			return ctx.Status(fiber.StatusUpgradeRequired).JSON(serverutils.ErrorResponse(fiber.StatusUpgradeRequired, "Upgrade required"))
		})
		h.Get("/ws", websocket.New(c.serveWs))
	}
}

// serveWs sends the current state first so a fresh tab never waits for the next change.
func (c *consoleController) serveWs(conn *websocket.Conn) {
	initial, err := json.Marshal(service.Envelope{
		Type: events.ConsoleUpdated,
		Data: map[string]interface{}{"state": c.coordinator.State()},
	})
	if err != nil {
		c.logger.Error("ConsoleController", "Failed to marshal initial state", map[string]interface{}{"error": err})
		initial = nil
	}
	ws.ServeWs(c.hub, conn, initial)
}

func (c *consoleController) GetState(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Console state", c.coordinator.State()))
}

func (c *consoleController) UpdateView(ctx *fiber.Ctx) error {
	var req console.ViewUpdate
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	if req.Center != nil && (req.Center.Lat < -90 || req.Center.Lat > 90 || req.Center.Lng < -180 || req.Center.Lng > 180) {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "center is out of range"))
	}

	view := c.coordinator.SetView(req)
	return ctx.JSON(serverutils.SuccessResponse("View updated", dto.ViewResponse{View: view, Query: view.Query().Encode()}))
}

func (c *consoleController) RestoreView(ctx *fiber.Ctx) error {
	var req dto.ViewQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	q, err := url.ParseQuery(req.Query)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	current := c.coordinator.State().View
	restored, err := console.ViewFromQuery(q, current)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	view := c.coordinator.SetView(console.ViewUpdate{Center: &restored.Center, Zoom: &restored.Zoom, Address: &restored.Address})
	return ctx.JSON(serverutils.SuccessResponse("View restored", dto.ViewResponse{View: view, Query: view.Query().Encode()}))
}

func (c *consoleController) UpdateElement(ctx *fiber.Ctx) error {
	var req dto.ElementRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	c.coordinator.SetElementRect(req.Rect())
	return ctx.JSON(serverutils.SuccessResponse[any]("Element updated", nil))
}

func (c *consoleController) UploadFrame(ctx *fiber.Ctx) error {
	var req dto.FrameRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	if err := c.frames.Put(req.ImageData, req.Width, req.Height); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Frame stored", nil))
}

func (c *consoleController) SetMode(ctx *fiber.Ctx) error {
	var req dto.ModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	mode, err := console.ParseMode(req.Mode)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	if err := c.coordinator.SetMode(mode); err != nil {
		code := statusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Mode changed", c.coordinator.State()))
}

func (c *consoleController) Escape(ctx *fiber.Ctx) error {
	c.coordinator.Escape()
	return ctx.JSON(serverutils.SuccessResponse("Escape handled", c.coordinator.State()))
}

func (c *consoleController) Pointer(ctx *fiber.Ctx) error {
	var req dto.PointerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	p := capture.Point{X: req.X, Y: req.Y}
	handled := true
	switch req.Type {
	case dto.PointerDown:
		handled = c.coordinator.PointerDown(req.PointerID, p)
	case dto.PointerMove:
		c.coordinator.PointerMove(req.PointerID, p)
	case dto.PointerUp:
		c.coordinator.PointerUp(req.PointerID, p)
	case dto.PointerLeave:
		c.coordinator.PointerLeave(req.PointerID)
	case dto.PointerLostCapture:
		c.coordinator.LostCapture(req.PointerID)
	}
	return ctx.JSON(serverutils.SuccessResponse("Pointer handled", dto.PointerResponse{Handled: handled}))
}

func (c *consoleController) MapClick(ctx *fiber.Ctx) error {
	var req dto.MapClickRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	res := c.coordinator.MapClick(measure.LatLng{Lat: req.Lat, Lng: req.Lng})
	return ctx.JSON(serverutils.SuccessResponse("Click handled", dto.MapClickResponse{
		Result:      res,
		Measurement: c.coordinator.State().Measurement,
	}))
}

func (c *consoleController) ContextMenu(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Context menu", c.coordinator.ContextMenu()))
}

func (c *consoleController) ClearJob(ctx *fiber.Ctx) error {
	kind, err := analysis.ParseKind(ctx.Params("kind"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	}
	if err := c.coordinator.ClearJob(kind); err != nil {
		code := statusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Job cleared", c.coordinator.State()))
}

func (c *consoleController) DrawAgain(ctx *fiber.Ctx) error {
	kind, err := analysis.ParseKind(ctx.Params("kind"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	}
	if err := c.coordinator.DrawAgain(kind); err != nil {
		code := statusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Drawing reopened", c.coordinator.State()))
}

func (c *consoleController) GetReport(ctx *fiber.Ctx) error {
	kind, err := analysis.ParseKind(ctx.Params("kind"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	}
	rep, err := c.coordinator.Report(kind)
	if err != nil {
		code := statusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
	}
	if rep == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "No analysis result yet"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Report", rep))
}

func (c *consoleController) DownloadReport(ctx *fiber.Ctx) error {
	file, err := c.coordinator.DownloadReport(ctx.UserContext(), analysis.KindConstruction)
	if err != nil {
		c.logger.Warn("ConsoleController", "Report download failed", map[string]interface{}{"error": err.Error()})
		code := statusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
	}

	ctx.Attachment(file.Filename)
	ctx.Set(fiber.HeaderContentType, file.ContentType)
	return ctx.Send(file.Data)
}

func (c *consoleController) ClearMeasurement(ctx *fiber.Ctx) error {
	c.coordinator.ClearMeasurement()
	return ctx.JSON(serverutils.SuccessResponse("Measurement cleared", c.coordinator.State().Measurement))
}

func (c *consoleController) GetOverlays(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Overlays", c.coordinator.Overlays()))
}

func (c *consoleController) SetOverlay(ctx *fiber.Ctx) error {
	var req dto.OverlayRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := c.coordinator.SetOverlay(tiles.Name(ctx.Params("name")), req.Enabled); err != nil {
		code := statusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Overlay updated", c.coordinator.Overlays()))
}

func (c *consoleController) ResolveTile(ctx *fiber.Ctx) error {
	var req dto.TileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	coord, err := tiles.CoordFromDescriptor(req.Descriptor, req.Zoom)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	name := tiles.Name(ctx.Params("name"))
	var tileURL string
	if name == tiles.Imagery {
		tileURL = c.catalogue.ImageryTileURL(req.URN, coord)
	} else if tileURL, err = c.catalogue.TileURL(name, coord); err != nil {
		code := statusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Tile", dto.TileResponse{Coord: coord, URL: tileURL}))
}

func (c *consoleController) DiscoverImagery(ctx *fiber.Ctx) error {
	var req dto.ImageryQuery
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid query parameters"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	res, err := c.imageryService.Discover(ctx.UserContext(), req.Lat, req.Lng, req.Direction)
	if err != nil {
		code := statusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Imagery", res))
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, console.ErrUnknownKind),
		errors.Is(err, tiles.ErrUnknownOverlay),
		errors.Is(err, analysis.ErrReportUnavailable):
		return fiber.StatusNotFound
	case errors.Is(err, console.ErrZoomTooLow),
		errors.Is(err, console.ErrStreetViewRequired),
		errors.Is(err, console.ErrJobNotCompleted):
		return fiber.StatusConflict
	case errors.Is(err, console.ErrDownloadUnsupported):
		return fiber.StatusBadRequest
	case errors.Is(err, analysis.ErrConfig),
		errors.Is(err, service.ErrImageryNotConfigured):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, service.ErrImageryUnavailable),
		errors.Is(err, analysis.ErrProtocol):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
